package build

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/xyproto/pseudo64/decode"
	"github.com/xyproto/pseudo64/ir"
)

// paramArgs mirrors the Microsoft x64 integer argument registers back into
// the call expression, in order — the core makes no attempt to recover the
// callee's real arity, so every call renders with exactly four arguments
// taken from whatever p1..p4 currently hold.
func (b *Builder) paramArgs() []ir.Expression {
	return []ir.Expression{
		&ir.Reg{Name: "p1"},
		&ir.Reg{Name: "p2"},
		&ir.Reg{Name: "p3"},
		&ir.Reg{Name: "p4"},
	}
}

// callResult wraps call as the "ret" assignment the call-site's return
// value is aliased through.
func callResult(call *ir.Call) ir.Statement {
	return &ir.Assign{LHS: &ir.Reg{Name: "ret"}, RHS: call}
}

// translateCall resolves a call instruction's target and renders it as
// Assign(Reg("ret"), call) so RAX's alias carries the result. Direct calls
// with a resolvable near-branch target render as sub_{addr}(...); indirect
// calls go through the caller-supplied ImportNameResolver first, and fall
// back to a raw indirect-address call when the resolver doesn't recognize
// the target. A call matching the memset shape below short-circuits all of
// this and emits a plain memset CallStmt instead.
func (b *Builder) translateCall(i int, insts []decode.Instruction, in decode.Instruction) []ir.Statement {
	if stmt, ok := b.translateMemsetCall(i, insts); ok {
		return []ir.Statement{stmt}
	}

	if target, ok := decode.NearBranchTarget(in); ok {
		call := ir.CallSym(fmt.Sprintf("sub_%X", target), b.paramArgs()...)
		return []ir.Statement{callResult(call)}
	}

	args := in.Inst.Args
	if mem, ok := args[0].(x86asm.Mem); ok {
		if resolveTarget, ok := decode.RipRelativeTarget(in); ok && b.opts.ResolveImportName != nil {
			if name, found := b.opts.ResolveImportName(resolveTarget + b.fn.ImageBase); found {
				return []ir.Statement{callResult(ir.CallSym(name, b.paramArgs()...))}
			}
		}
		addr, seg := b.buildAddress(mem, in)
		target := &ir.Load{Addr: addr, ElemType: ir.U64Type, Seg: seg}
		return []ir.Statement{callResult(ir.CallAddr(target, b.paramArgs()...))}
	}

	if reg, ok := args[0].(x86asm.Reg); ok {
		target := &ir.Reg{Name: b.regs.Name(reg)}
		return []ir.Statement{callResult(ir.CallAddr(target, b.paramArgs()...))}
	}

	return []ir.Statement{&ir.Pseudo{Text: "/* unresolved call target */"}}
}

// memsetScanWindow bounds how far back translateMemsetCall looks for the
// instruction that last wrote edx — a handful of instructions is enough to
// catch the common "xor edx, edx" / "mov edx, N" immediately ahead of the
// call, without pretending to be a real data-flow analysis.
const memsetScanWindow = 8

// translateMemsetCall recognizes the loose "this call is really a memset"
// shape: dst = p1 (RCX is always aliased that way already), a small
// literal fill value most recently written to edx, and a size carried in
// r8d. Arity and the exact callee are never checked — any doubt about the
// fill value falls back to a plain call.
func (b *Builder) translateMemsetCall(i int, insts []decode.Instruction) (ir.Statement, bool) {
	val, ok := lastRegLiteral(insts, i, x86asm.RDX)
	if !ok || val < -255 || val > 255 {
		return nil, false
	}
	call := ir.CallSym("memset", &ir.Reg{Name: "p1"}, ir.U8(uint64(byte(val))), &ir.Reg{Name: b.regs.Name(x86asm.R8L)})
	return &ir.CallStmt{Call: call}, true
}

// lastRegLiteral scans insts[:i] backward, within memsetScanWindow
// instructions, for the most recent write to family's register family and
// reports the literal value it assigned — a mov-immediate, or the zero a
// self-xor produces. Any other kind of write to that family, or none found
// in the window, declines.
func lastRegLiteral(insts []decode.Instruction, i int, family x86asm.Reg) (int64, bool) {
	start := i - memsetScanWindow
	if start < 0 {
		start = 0
	}
	for j := i - 1; j >= start; j-- {
		dst, ok := writeDestFamily(insts[j])
		if !ok || dst != family {
			continue
		}
		return immediateWrite(insts[j])
	}
	return 0, false
}

func writeDestFamily(in decode.Instruction) (x86asm.Reg, bool) {
	if len(in.Inst.Args) == 0 {
		return 0, false
	}
	r, ok := in.Inst.Args[0].(x86asm.Reg)
	if !ok {
		return 0, false
	}
	fam, _ := regFamily(r)
	return fam, true
}

// immediateWrite reports the literal value in carries into its destination,
// for the two shapes the memset heuristic recognizes: a plain immediate
// move, or a self-xor zeroing idiom.
func immediateWrite(in decode.Instruction) (int64, bool) {
	switch in.Inst.Op {
	case x86asm.MOV:
		if imm, ok := in.Inst.Args[1].(x86asm.Imm); ok {
			return int64(imm), true
		}
	case x86asm.XOR:
		if r0, ok0 := regOf(in.Inst.Args[0]); ok0 {
			if r1, ok1 := regOf(in.Inst.Args[1]); ok1 && r0 == r1 {
				return 0, true
			}
		}
	}
	return 0, false
}

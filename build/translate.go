package build

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/xyproto/pseudo64/decode"
	"github.com/xyproto/pseudo64/ir"
)

// gotoOrPseudo builds a Goto/IfGoto to target's label, falling back to a
// pseudo comment when the target lies outside the decoded window (a tail
// call to code this function doesn't cover, or a computed jump table
// entry analyze.Number couldn't see). Without EmitLabels no label lines
// exist, so an in-window branch becomes a pseudo comment naming its raw
// target address instead.
func (b *Builder) gotoOrPseudo(target uint64, cond ir.Expression) ir.Statement {
	lbl := b.labels.At(target)
	if lbl == nil {
		return &ir.Pseudo{Text: fmt.Sprintf("/* branch to 0x%X (outside function) */", target)}
	}
	if !b.opts.EmitLabels {
		if cond == nil {
			return &ir.Pseudo{Text: fmt.Sprintf("/* jmp 0x%X */", target)}
		}
		condText := "<cond>"
		if c, ok := cond.(*ir.Compare); ok {
			condText = fmt.Sprintf("%s %s %s", operandText(c.LHS), c.Op, operandText(c.RHS))
		}
		return &ir.Pseudo{Text: fmt.Sprintf("/* if (%s) goto 0x%X */", condText, target)}
	}
	if cond == nil {
		return &ir.Goto{Label: lbl}
	}
	return &ir.IfGoto{Cond: cond, Label: lbl}
}

// clearFlagScratch drops LastCmp/LastBt — called for every instruction
// that is not itself a compare/test/bit-test and not a consumer of one, so
// stale state never survives past the instruction that invalidates it.
func (b *Builder) clearFlagScratch() {
	b.lastCmp = nil
	b.lastBt = nil
}

func regOf(arg x86asm.Arg) (x86asm.Reg, bool) {
	r, ok := arg.(x86asm.Reg)
	return r, ok
}

// operandText renders an operand expression for a CommentCompare
// annotation — a short, best-effort label, not a full expression printer.
func operandText(e ir.Expression) string {
	switch n := e.(type) {
	case *ir.Reg:
		return n.Name
	case *ir.Local:
		return n.Name
	case *ir.Param:
		return n.Name
	case *ir.Const:
		return fmt.Sprintf("%d", n.Value)
	case *ir.UConst:
		return fmt.Sprintf("0x%X", n.Value)
	case *ir.SegmentBase:
		return n.Seg.String() + "_base"
	case *ir.Load:
		return "[mem]"
	default:
		return "<expr>"
	}
}

func (b *Builder) translate(i int, in decode.Instruction, insts []decode.Instruction) []ir.Statement {
	op := in.Inst.Op
	args := in.Inst.Args

	// Condition consumers read LastCmp/LastBt before anything clears it.
	if c, ok := jccCode(op); ok {
		b.lastWasCall = false
		target, hasTarget := decode.NearBranchTarget(in)
		cond := b.conditionFromCC(c)
		b.clearFlagScratch()
		if !hasTarget {
			return []ir.Statement{&ir.Pseudo{Text: "/* unresolved conditional branch target */"}}
		}
		return []ir.Statement{b.gotoOrPseudo(target, cond)}
	}
	if c, ok := setccCode(op); ok {
		cond := b.conditionFromCC(c)
		stmts := []ir.Statement{b.writeTo(args[0], in, &ir.Ternary{Cond: cond, IfTrue: ir.U8(1), IfFalse: ir.U8(0)})}
		b.clearFlagScratch()
		b.lastWasCall = false
		return stmts
	}
	if c, ok := cmovccCode(op); ok {
		cond := b.conditionFromCC(c)
		src := b.readOperand(args[1], in)
		dstReg, _ := regOf(args[0])
		stmts := []ir.Statement{b.writeTo(args[0], in, &ir.Ternary{Cond: cond, IfTrue: src, IfFalse: &ir.Reg{Name: b.regs.Name(dstReg)}})}
		b.clearFlagScratch()
		b.lastWasCall = false
		return stmts
	}

	switch op {
	case x86asm.JRCXZ, x86asm.JECXZ, x86asm.JCXZ:
		reg := x86asm.RCX
		if op == x86asm.JECXZ {
			reg = x86asm.ECX
		} else if op == x86asm.JCXZ {
			reg = x86asm.CX
		}
		cond := ir.Eq(&ir.Reg{Name: b.regs.Name(reg)}, ir.U32(0))
		b.clearFlagScratch()
		b.lastWasCall = false
		target, ok := decode.NearBranchTarget(in)
		if !ok {
			return []ir.Statement{&ir.Pseudo{Text: "/* unresolved jrcxz target */"}}
		}
		return []ir.Statement{b.gotoOrPseudo(target, cond)}

	case x86asm.JMP:
		b.clearFlagScratch()
		b.lastWasCall = false
		if target, ok := decode.NearBranchTarget(in); ok {
			return []ir.Statement{b.gotoOrPseudo(target, nil)}
		}
		if target, ok := decode.RipRelativeTarget(in); ok {
			return []ir.Statement{&ir.Pseudo{Text: fmt.Sprintf("/* indirect jmp via 0x%X */", target)}}
		}
		return []ir.Statement{&ir.Pseudo{Text: "/* indirect jmp */"}}

	case x86asm.CALL, x86asm.CALLF:
		b.clearFlagScratch()
		stmts := b.translateCall(i, insts, in)
		b.lastWasCall = true
		return stmts

	case x86asm.RET, x86asm.RETF:
		b.clearFlagScratch()
		b.lastWasCall = false
		return []ir.Statement{&ir.Return{Value: &ir.Reg{Name: "ret"}}}

	case x86asm.MOV:
		b.clearFlagScratch()
		b.lastWasCall = false
		val := b.readOperand(args[1], in)
		return []ir.Statement{b.writeTo(args[0], in, val)}

	case x86asm.LEA:
		b.clearFlagScratch()
		b.lastWasCall = false
		mem, ok := args[1].(x86asm.Mem)
		if !ok {
			return []ir.Statement{&ir.Pseudo{Text: "/* lea with non-memory operand */"}}
		}
		addr, _ := b.buildAddress(mem, in)
		return []ir.Statement{b.writeTo(args[0], in, addr)}

	case x86asm.MOVZX:
		return b.translateMov(in, ir.ZeroExtend)

	case x86asm.MOVSX, x86asm.MOVSXD:
		return b.translateMov(in, ir.SignExtend)

	case x86asm.XOR, x86asm.OR, x86asm.AND:
		return b.translateBitwise(op, in)

	case x86asm.XORPS, x86asm.PXOR:
		b.clearFlagScratch()
		b.lastWasCall = false
		if r0, ok0 := regOf(args[0]); ok0 {
			if r1, ok1 := regOf(args[1]); ok1 && r0 == r1 {
				b.lastZeroedXmm = r0
				return []ir.Statement{
					&ir.Pseudo{Text: "/* zero xmm */"},
					b.writeTo(args[0], in, &ir.UConst{Value: 0, Bits: 128}),
				}
			}
		}
		return []ir.Statement{b.writeTo(args[0], in, ir.XorE(b.readOperand(args[0], in), b.readOperand(args[1], in)))}

	case x86asm.NOT:
		b.clearFlagScratch()
		b.lastWasCall = false
		return []ir.Statement{b.writeTo(args[0], in, ir.NotE(b.readOperand(args[0], in)))}

	case x86asm.NEG:
		b.clearFlagScratch()
		b.lastWasCall = false
		return []ir.Statement{b.writeTo(args[0], in, ir.NegE(b.readOperand(args[0], in)))}

	case x86asm.ADD, x86asm.SUB:
		b.clearFlagScratch()
		b.lastWasCall = false
		dst := b.readOperand(args[0], in)
		src := b.readOperand(args[1], in)
		var result ir.Expression
		if op == x86asm.ADD {
			result = ir.AddE(dst, src)
		} else {
			result = ir.SubE(dst, src)
		}
		return []ir.Statement{b.writeTo(args[0], in, result)}

	case x86asm.INC, x86asm.DEC:
		b.clearFlagScratch()
		b.lastWasCall = false
		dst := b.readOperand(args[0], in)
		one := ir.U8(1)
		var result ir.Expression
		if op == x86asm.INC {
			result = ir.AddE(dst, one)
		} else {
			result = ir.SubE(dst, one)
		}
		return []ir.Statement{b.writeTo(args[0], in, result)}

	case x86asm.IMUL:
		return b.translateImul(in)

	case x86asm.MUL:
		b.clearFlagScratch()
		b.lastWasCall = false
		return []ir.Statement{&ir.Pseudo{Text: "/* mul: unsigned rdx:rax = rax * operand, widening product not modeled */"}}

	case x86asm.DIV, x86asm.IDIV:
		return b.translateDiv(op, in)

	case x86asm.SHL, x86asm.SAL:
		return b.translateShift(ir.Shl, in)
	case x86asm.SHR:
		return b.translateShift(ir.Shr, in)
	case x86asm.SAR:
		return b.translateShift(ir.Sar, in)

	case x86asm.ROL, x86asm.ROR:
		b.clearFlagScratch()
		b.lastWasCall = false
		return []ir.Statement{&ir.Pseudo{Text: fmt.Sprintf("/* %s: rotate not representable as a single expression */", op)}}

	case x86asm.BT:
		val := b.readOperand(args[0], in)
		idx := b.readOperand(args[1], in)
		b.lastCmp = nil
		b.lastBt = &lastBt{Value: val, Index: idx}
		b.lastWasCall = false
		return nil

	case x86asm.BTS, x86asm.BTR, x86asm.BTC:
		val := b.readOperand(args[0], in)
		idx := b.readOperand(args[1], in)
		b.lastCmp = nil
		b.lastBt = &lastBt{Value: val, Index: idx}
		b.lastWasCall = false
		mask := ir.ShlE(ir.U64(1), idx)
		var result ir.Expression
		switch op {
		case x86asm.BTS:
			result = ir.OrE(val, mask)
		case x86asm.BTR:
			result = ir.AndE(val, ir.NotE(mask))
		case x86asm.BTC:
			result = ir.XorE(val, mask)
		}
		return []ir.Statement{b.writeTo(args[0], in, result)}

	case x86asm.CMP, x86asm.TEST:
		left := b.readOperand(args[0], in)
		right := b.readOperand(args[1], in)
		b.lastBt = nil
		b.lastCmp = &lastCmp{Left: left, Right: right, IsTest: op == x86asm.TEST}
		b.lastWasCall = false
		if !b.opts.CommentCompare {
			return nil
		}
		verb := "compare"
		if op == x86asm.TEST {
			verb = "test"
		}
		return []ir.Statement{&ir.Pseudo{Text: fmt.Sprintf("/* %s %s, %s */", verb, operandText(left), operandText(right))}}

	case x86asm.PUSH, x86asm.POP, x86asm.LEAVE:
		// No explicit stack-pointer model: callee-saved spill/reload and
		// frame teardown are invisible once locals are addressed
		// rbp-relative. The Asm line is the only record.
		b.clearFlagScratch()
		b.lastWasCall = false
		return nil

	case x86asm.NOP:
		b.clearFlagScratch()
		b.lastWasCall = false
		return nil

	case x86asm.CWD:
		b.clearFlagScratch()
		b.lastWasCall = false
		return []ir.Statement{&ir.Assign{LHS: &ir.Reg{Name: "dx"}, RHS: ir.SarE(&ir.Reg{Name: "ax"}, ir.I32(15))}}

	case x86asm.CDQ:
		b.clearFlagScratch()
		b.lastWasCall = false
		return []ir.Statement{&ir.Assign{LHS: &ir.Reg{Name: "edx"}, RHS: ir.SarE(&ir.Reg{Name: "eax"}, ir.I32(31))}}

	case x86asm.CQO:
		b.clearFlagScratch()
		b.lastWasCall = false
		return []ir.Statement{&ir.Assign{LHS: &ir.Reg{Name: "rdx"}, RHS: ir.SarE(&ir.Reg{Name: "rax"}, ir.I32(63))}}

	case x86asm.MOVSB, x86asm.MOVSW, x86asm.MOVSD, x86asm.MOVSQ:
		return b.translateStringMove(op, in)

	case x86asm.STOSB, x86asm.STOSW, x86asm.STOSD, x86asm.STOSQ:
		return b.translateStringStore(op, in)

	case x86asm.MOVSS, x86asm.MOVAPS, x86asm.MOVUPS, x86asm.MOVDQU, x86asm.MOVDQA:
		b.clearFlagScratch()
		b.lastWasCall = false
		if mem, ok := args[0].(x86asm.Mem); ok {
			if r, ok2 := regOf(args[1]); ok2 && b.lastZeroedXmm != 0 && r == b.lastZeroedXmm && in.Inst.MemBytes == 16 {
				b.lastZeroedXmm = 0
				addr, _ := b.buildAddress(mem, in)
				return []ir.Statement{&ir.CallStmt{Call: ir.CallSym("memset", addr, ir.U8(0), ir.U64(16))}}
			}
		}
		if r, ok := regOf(args[0]); ok && b.lastZeroedXmm == r {
			b.lastZeroedXmm = 0
		}
		return []ir.Statement{b.writeTo(args[0], in, b.readOperand(args[1], in))}

	case x86asm.ADDSS, x86asm.ADDSD:
		return b.translateSSEArith(ir.Add, in)
	case x86asm.SUBSS, x86asm.SUBSD:
		return b.translateSSEArith(ir.Sub, in)
	case x86asm.MULSS, x86asm.MULSD:
		return b.translateSSEArith(ir.Mul, in)
	case x86asm.DIVSS, x86asm.DIVSD:
		return b.translateSSEArith(ir.SDiv, in)

	default:
		b.clearFlagScratch()
		b.lastWasCall = false
		return nil // the Asm line already emitted is the only record
	}
}

func (b *Builder) translateMov(in decode.Instruction, kind ir.CastKind) []ir.Statement {
	b.clearFlagScratch()
	b.lastWasCall = false
	args := in.Inst.Args
	src := b.readOperand(args[1], in)
	targetBits := dataSize(in)
	if dstReg, ok := regOf(args[0]); ok {
		_, bits := regFamily(dstReg)
		if bits != 0 {
			targetBits = bits
		}
	}
	cast := &ir.Cast{Value: src, Target: intTypeForWidth(targetBits, kind == ir.SignExtend), Kind: kind}
	return []ir.Statement{b.writeTo(args[0], in, cast)}
}

func (b *Builder) translateBitwise(op x86asm.Op, in decode.Instruction) []ir.Statement {
	b.clearFlagScratch()
	b.lastWasCall = false
	args := in.Inst.Args
	if op == x86asm.XOR {
		if r0, ok0 := regOf(args[0]); ok0 {
			if r1, ok1 := regOf(args[1]); ok1 && r0 == r1 {
				return []ir.Statement{b.writeTo(args[0], in, ir.U64(0))}
			}
		}
	}
	left := b.readOperand(args[0], in)
	right := b.readOperand(args[1], in)
	var result ir.Expression
	switch op {
	case x86asm.XOR:
		result = ir.XorE(left, right)
	case x86asm.OR:
		result = ir.OrE(left, right)
	case x86asm.AND:
		result = ir.AndE(left, right)
	}
	return []ir.Statement{b.writeTo(args[0], in, result)}
}

func (b *Builder) translateShift(kind ir.BinOpKind, in decode.Instruction) []ir.Statement {
	b.clearFlagScratch()
	b.lastWasCall = false
	args := in.Inst.Args
	left := b.readOperand(args[0], in)
	right := b.readOperand(args[1], in)
	return []ir.Statement{b.writeTo(args[0], in, &ir.BinOp{Op: kind, LHS: left, RHS: right})}
}

func (b *Builder) translateImul(in decode.Instruction) []ir.Statement {
	b.clearFlagScratch()
	b.lastWasCall = false
	args := in.Inst.Args
	switch {
	case args[2] != nil:
		a := b.readOperand(args[1], in)
		c := b.readOperand(args[2], in)
		return []ir.Statement{b.writeTo(args[0], in, ir.MulE(a, c))}
	case args[1] != nil:
		dst := b.readOperand(args[0], in)
		src := b.readOperand(args[1], in)
		return []ir.Statement{b.writeTo(args[0], in, ir.MulE(dst, src))}
	default:
		return []ir.Statement{&ir.Pseudo{Text: "/* imul: widening 1-operand form not modeled */"}}
	}
}

func (b *Builder) translateDiv(op x86asm.Op, in decode.Instruction) []ir.Statement {
	b.clearFlagScratch()
	b.lastWasCall = false
	divisor := b.readOperand(in.Inst.Args[0], in)
	rax := &ir.Reg{Name: "rax"}
	rdx := &ir.Reg{Name: "rdx"}
	if op == x86asm.IDIV {
		return []ir.Statement{
			&ir.Assign{LHS: rdx, RHS: ir.SRemE(rax, divisor)},
			&ir.Assign{LHS: rax, RHS: ir.SDivE(rax, divisor)},
		}
	}
	return []ir.Statement{
		&ir.Assign{LHS: rdx, RHS: ir.URemE(rax, divisor)},
		&ir.Assign{LHS: rax, RHS: ir.UDivE(rax, divisor)},
	}
}

func (b *Builder) translateStringMove(op x86asm.Op, in decode.Instruction) []ir.Statement {
	b.clearFlagScratch()
	b.lastWasCall = false
	elemBits := stringElemBits(op)
	dst := &ir.Reg{Name: b.regs.Name(x86asm.RDI)}
	src := &ir.Reg{Name: b.regs.Name(x86asm.RSI)}
	count := &ir.Reg{Name: b.regs.Name(x86asm.RCX)}
	return []ir.Statement{&ir.CallStmt{Call: ir.CallSym("memcpy", dst, src, scaledCount(count, elemBits))}}
}

func (b *Builder) translateStringStore(op x86asm.Op, in decode.Instruction) []ir.Statement {
	b.clearFlagScratch()
	b.lastWasCall = false
	elemBits := stringElemBits(op)
	dst := &ir.Reg{Name: b.regs.Name(x86asm.RDI)}
	val := b.accumulatorFor(elemBits)
	count := &ir.Reg{Name: b.regs.Name(x86asm.RCX)}
	return []ir.Statement{&ir.CallStmt{Call: ir.CallSym("memset", dst, val, scaledCount(count, elemBits))}}
}

func (b *Builder) accumulatorFor(bits int) ir.Expression {
	switch bits {
	case 8:
		return &ir.Reg{Name: "al"}
	case 16:
		return &ir.Reg{Name: "ax"}
	case 64:
		return &ir.Reg{Name: b.regs.Name(x86asm.RAX)}
	default:
		return &ir.Reg{Name: "eax"}
	}
}

func stringElemBits(op x86asm.Op) int {
	switch op {
	case x86asm.MOVSB, x86asm.STOSB:
		return 8
	case x86asm.MOVSW, x86asm.STOSW:
		return 16
	case x86asm.MOVSQ, x86asm.STOSQ:
		return 64
	default:
		return 32
	}
}

func scaledCount(count ir.Expression, elemBits int) ir.Expression {
	bytes := elemBits / 8
	if bytes <= 1 {
		return count
	}
	return ir.MulE(count, ir.U8(uint64(bytes)))
}

func (b *Builder) translateSSEArith(kind ir.BinOpKind, in decode.Instruction) []ir.Statement {
	b.clearFlagScratch()
	b.lastWasCall = false
	args := in.Inst.Args
	left := b.readOperand(args[0], in)
	right := b.readOperand(args[1], in)
	return []ir.Statement{b.writeTo(args[0], in, &ir.BinOp{Op: kind, LHS: left, RHS: right})}
}

package build

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/xyproto/pseudo64/decode"
	"github.com/xyproto/pseudo64/ir"
)

// pebLocalName is the synthetic local that gs:[0x60] addressing resolves
// to — the Process Environment Block pointer on x86-64 Windows.
const pebLocalName = "peb"

func segmentOf(seg x86asm.Reg) ir.Segment {
	switch seg {
	case x86asm.FS:
		return ir.SegFS
	case x86asm.GS:
		return ir.SegGS
	default:
		return ir.SegNone
	}
}

// elemTypeOf picks the Load/Store element type from the instruction's
// memory-operand width. Vector widths fall back to an untyped vector
// rather than guessing float vs. integer lanes — the core does not try to
// recover SIMD element types.
func elemTypeOf(in decode.Instruction) *ir.Type {
	switch in.Inst.MemBytes {
	case 1:
		return ir.U8Type
	case 2:
		return ir.U16Type
	case 4:
		return ir.U32Type
	case 8:
		return ir.U64Type
	case 16:
		return ir.VectorType(128)
	case 32:
		return ir.VectorType(256)
	case 64:
		return ir.VectorType(512)
	default:
		return ir.U64Type
	}
}

// ensurePebLocal adds the "peb" local to the function, once, initialized
// from the TEB's gs:[0x60] slot via the __readgsqword intrinsic.
func (b *Builder) ensurePebLocal() {
	if b.fn.FindLocal(pebLocalName) != nil {
		return
	}
	init := &ir.Cast{
		Value:  &ir.Intrinsic{Name: "__readgsqword", Args: []ir.Expression{ir.U64(0x60)}},
		Target: ir.PointerType(ir.U8Type),
		Kind:   ir.Reinterpret,
	}
	b.fn.AddLocal(pebLocalName, ir.PointerType(ir.UnknownType("PEB")), init)
}

// buildAddress constructs an address expression in priority order: the
// gs:[0x60] PEB pseudo-access, RIP-relative absolute targets,
// rbp-relative negative-offset locals, and the general
// base+index*scale+disp case.
func (b *Builder) buildAddress(mem x86asm.Mem, in decode.Instruction) (ir.Expression, ir.Segment) {
	seg := segmentOf(mem.Segment)

	if mem.Segment == x86asm.GS && mem.Disp == 0x60 && mem.Base == 0 && mem.Index == 0 {
		b.ensurePebLocal()
		return &ir.Local{Name: pebLocalName}, ir.SegNone
	}

	if mem.Base == x86asm.RIP {
		target := uint64(int64(in.End()) + mem.Disp)
		return ir.U64(target), seg
	}

	if fam, _ := regFamily(mem.Base); fam == x86asm.RBP && mem.Index == 0 && mem.Disp < 0 {
		name := fmt.Sprintf("local_%X", -mem.Disp)
		return &ir.AddrOf{Expr: &ir.Local{Name: name}}, seg
	}

	var result ir.Expression
	if mem.Base != 0 {
		result = &ir.Reg{Name: b.regs.Name(mem.Base)}
	}
	if mem.Index != 0 && mem.Scale > 0 {
		idx := ir.Expression(&ir.Reg{Name: b.regs.Name(mem.Index)})
		if mem.Scale > 1 {
			idx = ir.MulE(idx, ir.U8(uint64(mem.Scale)))
		}
		if result == nil {
			result = idx
		} else {
			result = ir.AddE(result, idx)
		}
	}
	if mem.Disp != 0 {
		if mem.Disp > 0 {
			if result == nil {
				result = ir.U64(uint64(mem.Disp))
			} else {
				result = ir.AddE(result, ir.U64(uint64(mem.Disp)))
			}
		} else {
			abs := ir.U64(uint64(-mem.Disp))
			if result == nil {
				result = &ir.UnOp{Op: ir.Neg, X: abs}
			} else {
				result = ir.SubE(result, abs)
			}
		}
	}
	if result == nil {
		result = ir.U64(0)
	}
	return result, seg
}

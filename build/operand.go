package build

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/xyproto/pseudo64/decode"
	"github.com/xyproto/pseudo64/ir"
)

func dataSize(in decode.Instruction) int {
	if in.Inst.DataSize != 0 {
		return in.Inst.DataSize
	}
	return 32
}

func intTypeForWidth(bits int, signed bool) *ir.Type {
	switch bits {
	case 8:
		if signed {
			return ir.I8Type
		}
		return ir.U8Type
	case 16:
		if signed {
			return ir.I16Type
		}
		return ir.U16Type
	case 64:
		if signed {
			return ir.I64Type
		}
		return ir.U64Type
	default:
		if signed {
			return ir.I32Type
		}
		return ir.U32Type
	}
}

// readOperand renders an instruction operand as an rvalue expression.
func (b *Builder) readOperand(arg x86asm.Arg, in decode.Instruction) ir.Expression {
	switch a := arg.(type) {
	case x86asm.Reg:
		return &ir.Reg{Name: b.regs.Name(a)}
	case x86asm.Mem:
		addr, seg := b.buildAddress(a, in)
		return &ir.Load{Addr: addr, ElemType: elemTypeOf(in), Seg: seg}
	case x86asm.Imm:
		return ir.U64(uint64(a))
	case x86asm.Rel:
		target, _ := targetOfRel(in)
		return ir.U64(target)
	default:
		return &ir.UConst{Value: 0, Bits: 32}
	}
}

// writeTo renders an assignment of value into the destination operand arg.
func (b *Builder) writeTo(arg x86asm.Arg, in decode.Instruction, value ir.Expression) ir.Statement {
	switch a := arg.(type) {
	case x86asm.Reg:
		return &ir.Assign{LHS: &ir.Reg{Name: b.regs.Name(a)}, RHS: value}
	case x86asm.Mem:
		addr, seg := b.buildAddress(a, in)
		return &ir.Store{Addr: addr, Value: value, ElemType: elemTypeOf(in), Seg: seg}
	default:
		return &ir.Pseudo{Text: "/* unsupported write operand */"}
	}
}

func targetOfRel(in decode.Instruction) (uint64, bool) {
	return decode.NearBranchTarget(in)
}

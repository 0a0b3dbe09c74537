package passes

import (
	"github.com/xyproto/pseudo64/collab"
	"github.com/xyproto/pseudo64/ir"
)

func constValue(e ir.Expression) (uint64, bool) {
	switch n := e.(type) {
	case *ir.UConst:
		return n.Value, true
	case *ir.Const:
		return uint64(n.Value), true
	default:
		return 0, false
	}
}

func symbolize(e ir.Expression, provider collab.ConstantNameProvider, enumFullName string) ir.Expression {
	if provider == nil || enumFullName == "" {
		return e
	}
	v, ok := constValue(e)
	if !ok {
		return e
	}
	name, found := provider(enumFullName, v)
	if !found {
		return e
	}
	bits := 64
	if uc, ok := e.(*ir.UConst); ok {
		bits = uc.Bits
	} else if c, ok := e.(*ir.Const); ok {
		bits = c.Bits
	}
	return &ir.SymConst{Value: v, Bits: bits, Name: name}
}

// MapNamedReturnConstants replaces a literal return value with its named
// enum member, when the constant database recognizes it — "return 0"
// becomes "return STATUS_SUCCESS".
func MapNamedReturnConstants(provider collab.ConstantNameProvider, enumFullName string) Pass {
	return func(fn *ir.FunctionIR) {
		for _, blk := range fn.Blocks {
			for _, s := range blk.Stmts {
				ret, ok := s.(*ir.Return)
				if !ok || ret.Value == nil {
					continue
				}
				ret.Value = symbolize(ret.Value, provider, enumFullName)
			}
		}
	}
}

// MapNamedRetAssignConstants does the same for a literal assigned directly
// into the "ret"/"rax"/"eax" alias ahead of a later, separate return
// statement — translateDiv, for one, writes the raw "rax" name rather than
// the stable "ret" alias.
func MapNamedRetAssignConstants(provider collab.ConstantNameProvider, enumFullName string) Pass {
	return func(fn *ir.FunctionIR) {
		for _, blk := range fn.Blocks {
			for _, s := range blk.Stmts {
				as, ok := s.(*ir.Assign)
				if !ok {
					continue
				}
				reg, ok := as.LHS.(*ir.Reg)
				if !ok {
					continue
				}
				switch reg.Name {
				case "ret", "rax", "eax":
				default:
					continue
				}
				as.RHS = symbolize(as.RHS, provider, enumFullName)
			}
		}
	}
}

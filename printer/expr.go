package printer

import (
	"fmt"
	"strings"

	"github.com/xyproto/pseudo64/ir"
)

// precedence returns a tighter-binds-higher precedence number for e, used
// to decide when a child expression needs parenthesizing. Leaves and
// call-like forms are always atomic (never need parens as a child).
func precedence(e ir.Expression) int {
	switch n := e.(type) {
	case *ir.BinOp:
		switch n.Op {
		case ir.Mul, ir.UDiv, ir.SDiv, ir.URem, ir.SRem:
			return 80
		case ir.Add, ir.Sub:
			return 70
		case ir.Shl, ir.Shr, ir.Sar:
			return 60
		case ir.And:
			return 40
		case ir.Xor:
			return 35
		case ir.Or:
			return 30
		}
	case *ir.Compare:
		switch n.Op {
		case ir.EQ, ir.NE:
			return 45
		default:
			return 50
		}
	case *ir.UnOp, *ir.Cast:
		return 90
	case *ir.Ternary:
		return 10
	}
	return 100
}

// isNonAssociative reports whether op requires parens around an
// equal-precedence right operand to preserve grouping (a - (b - c) keeps
// its parens; a + (b + c) prints as a + b + c).
func isNonAssociative(op ir.BinOpKind) bool {
	switch op {
	case ir.Sub, ir.UDiv, ir.SDiv, ir.URem, ir.SRem, ir.Shl, ir.Shr, ir.Sar:
		return true
	default:
		return false
	}
}

func (p *printer) child(e ir.Expression, parentPrec int, isRight bool, parentOp ir.BinOpKind, parentIsBinOp bool) string {
	s := p.expr(e, precedence(e))
	childPrec := precedence(e)
	needParens := childPrec < parentPrec
	if !needParens && childPrec == parentPrec && isRight && parentIsBinOp && isNonAssociative(parentOp) {
		needParens = true
	}
	if needParens {
		return "(" + s + ")"
	}
	return s
}

// expr renders e. The second parameter is ignored: composite nodes pass
// their own precedence to child() for each operand instead.
func (p *printer) expr(e ir.Expression, _ int) string {
	switch n := e.(type) {
	case *ir.Const:
		return constIntLiteral(n.Value, n.Bits)
	case *ir.UConst:
		return constUintLiteral(n.Value)
	case *ir.SymConst:
		return n.Name
	case *ir.Reg:
		return n.Name
	case *ir.Param:
		return n.Name
	case *ir.Local:
		return n.Name
	case *ir.SegmentBase:
		return n.Seg.String() + "_base"
	case *ir.AddrOf:
		return "&" + p.expr(n.Expr, 0)
	case *ir.Load:
		return p.memExpr(n.Addr, n.ElemType, n.Seg)
	case *ir.BinOp:
		l := p.child(n.LHS, precedence(n), false, n.Op, true)
		r := p.child(n.RHS, precedence(n), true, n.Op, true)
		return fmt.Sprintf("%s %s %s", l, n.Op.String(), r)
	case *ir.UnOp:
		return n.Op.String() + p.child(n.X, precedence(n), false, 0, false)
	case *ir.Compare:
		l := p.child(n.LHS, precedence(n), false, 0, false)
		r := p.child(n.RHS, precedence(n), true, 0, false)
		op := compareSymbol(n.Op)
		return fmt.Sprintf("%s %s %s", l, op, r)
	case *ir.Ternary:
		return fmt.Sprintf("%s ? %s : %s", p.child(n.Cond, precedence(n)+1, false, 0, false), p.expr(n.IfTrue, 0), p.expr(n.IfFalse, 0))
	case *ir.Cast:
		return fmt.Sprintf("(%s)%s", typeString(n.Target, p.opts), p.child(n.Value, precedence(n), false, 0, false))
	case *ir.Call:
		return p.callExpr(n)
	case *ir.Intrinsic:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = p.expr(a, 0)
		}
		return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", "))
	case *ir.LabelRef:
		return n.Label.Name
	default:
		return "/* ? */"
	}
}

func (p *printer) callExpr(c *ir.Call) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = p.expr(a, 0)
	}
	callee := c.Target.Symbol
	if !c.Target.IsSymbol() {
		callee = fmt.Sprintf("(*(%s))", p.expr(c.Target.Addr, 0))
	}
	return fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", "))
}

// memExpr renders the *((elemType*)(seg:addr)) memory-access form shared
// by Load and Store.
func (p *printer) memExpr(addr ir.Expression, elemType *ir.Type, seg ir.Segment) string {
	segPrefix := ""
	if seg != ir.SegNone {
		segPrefix = seg.String() + ":"
	}
	return fmt.Sprintf("*((%s*)(%s%s))", typeString(elemType, p.opts), segPrefix, p.expr(addr, 0))
}

func compareSymbol(op ir.CompareKind) string {
	switch op {
	case ir.EQ:
		return "=="
	case ir.NE:
		return "!="
	case ir.SLT, ir.ULT:
		return "<"
	case ir.SLE, ir.ULE:
		return "<="
	case ir.SGT, ir.UGT:
		return ">"
	case ir.SGE, ir.UGE:
		return ">="
	default:
		return "?"
	}
}

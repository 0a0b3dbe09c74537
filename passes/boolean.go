package passes

import "github.com/xyproto/pseudo64/ir"

// SimplifyBooleanTernary collapses "cond ? 1 : 0" to cond, "cond ? 0 : 1"
// to !cond — the shape setcc translation produces before it's known
// whether the surrounding expression wants the raw 0/1 byte or just the
// condition itself — and "cond ? a : a" to a when cond is side-effect-free.
func SimplifyBooleanTernary(fn *ir.FunctionIR) {
	walkFunctionExprs(fn, func(e ir.Expression) ir.Expression {
		t, ok := e.(*ir.Ternary)
		if !ok {
			return e
		}
		if !exprHasCall(t.Cond) && ir.ExprEqual(t.IfTrue, t.IfFalse) {
			return t.IfTrue
		}
		tv, tok := constValue(t.IfTrue)
		fv, fok := constValue(t.IfFalse)
		if !tok || !fok {
			return e
		}
		if tv == 1 && fv == 0 {
			return t.Cond
		}
		if tv == 0 && fv == 1 {
			return &ir.UnOp{Op: ir.LNot, X: t.Cond}
		}
		return e
	})
}

// SimplifyLogicalNots collapses !!x to x and pushes a logical not through a
// Compare by inverting its condition code, e.g. !(a == b) → a != b.
func SimplifyLogicalNots(fn *ir.FunctionIR) {
	walkFunctionExprs(fn, func(e ir.Expression) ir.Expression {
		u, ok := e.(*ir.UnOp)
		if !ok || u.Op != ir.LNot {
			return e
		}
		if inner, ok := u.X.(*ir.UnOp); ok && inner.Op == ir.LNot {
			return inner.X
		}
		if cmp, ok := u.X.(*ir.Compare); ok {
			return &ir.Compare{Op: cmp.Op.Invert(), LHS: cmp.LHS, RHS: cmp.RHS}
		}
		return e
	})
}

// Package passes implements the ordered pipeline of rewrite passes
// applied to a built FunctionIR before it reaches the printer. Passes run
// strictly in the order Pipeline lists them — later passes see the
// normal form earlier passes left behind.
package passes

import "github.com/xyproto/pseudo64/ir"

// exprRewriter rewrites one expression node, given its already-rewritten
// children. Returning the input unchanged is always safe.
type exprRewriter func(ir.Expression) ir.Expression

// rewriteExpr walks e bottom-up, rewriting children before parents, and
// finally applies f to the (possibly replaced) node itself.
func rewriteExpr(e ir.Expression, f exprRewriter) ir.Expression {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ir.BinOp:
		n.LHS = rewriteExpr(n.LHS, f)
		n.RHS = rewriteExpr(n.RHS, f)
	case *ir.UnOp:
		n.X = rewriteExpr(n.X, f)
	case *ir.Compare:
		n.LHS = rewriteExpr(n.LHS, f)
		n.RHS = rewriteExpr(n.RHS, f)
	case *ir.Ternary:
		n.Cond = rewriteExpr(n.Cond, f)
		n.IfTrue = rewriteExpr(n.IfTrue, f)
		n.IfFalse = rewriteExpr(n.IfFalse, f)
	case *ir.Cast:
		n.Value = rewriteExpr(n.Value, f)
	case *ir.AddrOf:
		n.Expr = rewriteExpr(n.Expr, f)
	case *ir.Load:
		n.Addr = rewriteExpr(n.Addr, f)
	case *ir.Call:
		if n.Target.Addr != nil {
			n.Target.Addr = rewriteExpr(n.Target.Addr, f)
		}
		for i, a := range n.Args {
			n.Args[i] = rewriteExpr(a, f)
		}
	case *ir.Intrinsic:
		for i, a := range n.Args {
			n.Args[i] = rewriteExpr(a, f)
		}
	}
	return f(e)
}

// exprHasCall reports whether e contains a Call anywhere in its tree —
// used to guard identity folds that would otherwise discard or
// re-evaluate a side effect.
func exprHasCall(e ir.Expression) bool {
	switch n := e.(type) {
	case nil:
		return false
	case *ir.Call:
		return true
	case *ir.BinOp:
		return exprHasCall(n.LHS) || exprHasCall(n.RHS)
	case *ir.UnOp:
		return exprHasCall(n.X)
	case *ir.Compare:
		return exprHasCall(n.LHS) || exprHasCall(n.RHS)
	case *ir.Ternary:
		return exprHasCall(n.Cond) || exprHasCall(n.IfTrue) || exprHasCall(n.IfFalse)
	case *ir.Cast:
		return exprHasCall(n.Value)
	case *ir.AddrOf:
		return exprHasCall(n.Expr)
	case *ir.Load:
		return exprHasCall(n.Addr)
	case *ir.Intrinsic:
		for _, a := range n.Args {
			if exprHasCall(a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// walkFunctionExprs applies f to every expression reachable from fn's
// statement list, replacing each in place.
func walkFunctionExprs(fn *ir.FunctionIR, f exprRewriter) {
	for _, blk := range fn.Blocks {
		for _, s := range blk.Stmts {
			walkStmtExprs(s, f)
		}
	}
}

func walkStmtExprs(s ir.Statement, f exprRewriter) {
	switch st := s.(type) {
	case *ir.Assign:
		st.LHS = rewriteExpr(st.LHS, f)
		st.RHS = rewriteExpr(st.RHS, f)
	case *ir.Store:
		st.Addr = rewriteExpr(st.Addr, f)
		st.Value = rewriteExpr(st.Value, f)
	case *ir.CallStmt:
		if st.Call != nil {
			if call, ok := rewriteExpr(st.Call, f).(*ir.Call); ok {
				st.Call = call
			}
		}
	case *ir.IfGoto:
		st.Cond = rewriteExpr(st.Cond, f)
	case *ir.Return:
		if st.Value != nil {
			st.Value = rewriteExpr(st.Value, f)
		}
	}
}

package passes

import "github.com/xyproto/pseudo64/ir"

// widthMask returns a mask with exactly bits low bits set, used to compare
// a constant against "all ones at this width" and to truncate a folded
// result back down to it.
func widthMask(bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(bits) - 1
}

// isAllOnes reports whether e is a constant whose bits are all set at its
// own width. A signed Const(-1) always qualifies regardless of width,
// since sign-extending -1 to 64 bits and masking back down always yields
// an all-ones pattern at that width.
func isAllOnes(e ir.Expression) bool {
	v, ok := constValue(e)
	if !ok {
		return false
	}
	mask := widthMask(ir.WidthOf(e))
	return v&mask == mask
}

func signExtend(v uint64, bits int) int64 {
	if bits <= 0 || bits >= 64 {
		return int64(v)
	}
	shift := uint(64 - bits)
	return int64(v<<shift) >> shift
}

// foldConstBinOp evaluates op over two already-known constant operands,
// producing a single replacement constant. Division/remainder by zero
// declines rather than panicking — a divide-by-zero in decoded code is not
// something this pass should paper over.
func foldConstBinOp(op ir.BinOpKind, lhs, rhs ir.Expression, lv, rv uint64) (ir.Expression, bool) {
	bits := ir.WiderOf(ir.WidthOf(lhs), ir.WidthOf(rhs))
	mask := widthMask(bits)
	sl, sr := signExtend(lv, bits), signExtend(rv, bits)

	var result uint64
	switch op {
	case ir.Add:
		result = lv + rv
	case ir.Sub:
		result = lv - rv
	case ir.Mul:
		result = lv * rv
	case ir.And:
		result = lv & rv
	case ir.Or:
		result = lv | rv
	case ir.Xor:
		result = lv ^ rv
	case ir.Shl:
		result = lv << (rv & 63)
	case ir.Shr:
		result = (lv & mask) >> (rv & 63)
	case ir.Sar:
		result = uint64(sl >> (rv & 63))
	case ir.UDiv:
		if rv&mask == 0 {
			return nil, false
		}
		result = (lv & mask) / (rv & mask)
	case ir.URem:
		if rv&mask == 0 {
			return nil, false
		}
		result = (lv & mask) % (rv & mask)
	case ir.SDiv:
		if sr == 0 {
			return nil, false
		}
		result = uint64(sl / sr)
	case ir.SRem:
		if sr == 0 {
			return nil, false
		}
		result = uint64(sl % sr)
	default:
		return nil, false
	}
	result &= mask

	_, lhsSigned := lhs.(*ir.Const)
	_, rhsSigned := rhs.(*ir.Const)
	if lhsSigned || rhsSigned {
		return &ir.Const{Value: signExtend(result, bits), Bits: bits}, true
	}
	return &ir.UConst{Value: result, Bits: bits}, true
}

// sameOperand reports whether a and b are the same side-effect-free
// expression, so x-x/x&x/x|x/x^x can collapse without discarding a Call's
// effect or changing how many times it runs.
func sameOperand(a, b ir.Expression) bool {
	return !exprHasCall(a) && ir.ExprEqual(a, b)
}

// SimplifyArithmeticIdentities folds the algebraic identities that show up
// constantly in compiler-generated code once register aliasing has made
// operands visible as named values, plus generic constant folding when
// both operands of a BinOp are already literals.
func SimplifyArithmeticIdentities(fn *ir.FunctionIR) {
	walkFunctionExprs(fn, func(e ir.Expression) ir.Expression {
		bo, ok := e.(*ir.BinOp)
		if !ok {
			return e
		}
		lv, lok := constValue(bo.LHS)
		rv, rok := constValue(bo.RHS)

		if lok && rok {
			if folded, ok := foldConstBinOp(bo.Op, bo.LHS, bo.RHS, lv, rv); ok {
				return folded
			}
		}

		switch bo.Op {
		case ir.Add:
			if rok && rv == 0 {
				return bo.LHS
			}
			if lok && lv == 0 {
				return bo.RHS
			}
		case ir.Sub:
			if rok && rv == 0 {
				return bo.LHS
			}
			if sameOperand(bo.LHS, bo.RHS) {
				return ir.U64(0)
			}
		case ir.Mul:
			if rok && rv == 1 {
				return bo.LHS
			}
			if lok && lv == 1 {
				return bo.RHS
			}
			if (rok && rv == 0) || (lok && lv == 0) {
				return ir.U64(0)
			}
		case ir.UDiv, ir.SDiv:
			if rok && rv == 1 {
				return bo.LHS
			}
		case ir.Or:
			if rok && rv == 0 {
				return bo.LHS
			}
			if lok && lv == 0 {
				return bo.RHS
			}
			if isAllOnes(bo.RHS) || isAllOnes(bo.LHS) {
				return ir.I64(-1)
			}
			if sameOperand(bo.LHS, bo.RHS) {
				return bo.LHS
			}
		case ir.Xor:
			if rok && rv == 0 {
				return bo.LHS
			}
			if lok && lv == 0 {
				return bo.RHS
			}
			if sameOperand(bo.LHS, bo.RHS) {
				return ir.U64(0)
			}
		case ir.And:
			if (rok && rv == 0) || (lok && lv == 0) {
				return ir.U64(0)
			}
			if isAllOnes(bo.RHS) {
				return bo.LHS
			}
			if isAllOnes(bo.LHS) {
				return bo.RHS
			}
			if sameOperand(bo.LHS, bo.RHS) {
				return bo.LHS
			}
		case ir.Shl, ir.Shr, ir.Sar:
			if rok && rv == 0 {
				return bo.LHS
			}
		}
		return e
	})
}

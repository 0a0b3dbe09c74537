package ir

// This file groups the small constructor helpers the builder calls for:
// literal builders, binary/unary/compare op builders, and the two Call
// forms.

func I8(v int64) *Const  { return &Const{Value: v, Bits: 8} }
func I16(v int64) *Const { return &Const{Value: v, Bits: 16} }
func I32(v int64) *Const { return &Const{Value: v, Bits: 32} }
func I64(v int64) *Const { return &Const{Value: v, Bits: 64} }

func U8(v uint64) *UConst  { return &UConst{Value: v, Bits: 8} }
func U16(v uint64) *UConst { return &UConst{Value: v, Bits: 16} }
func U32(v uint64) *UConst { return &UConst{Value: v, Bits: 32} }
func U64(v uint64) *UConst { return &UConst{Value: v, Bits: 64} }

func bin(op BinOpKind, l, r Expression) *BinOp { return &BinOp{Op: op, LHS: l, RHS: r} }

func AddE(l, r Expression) *BinOp  { return bin(Add, l, r) }
func SubE(l, r Expression) *BinOp  { return bin(Sub, l, r) }
func MulE(l, r Expression) *BinOp  { return bin(Mul, l, r) }
func UDivE(l, r Expression) *BinOp { return bin(UDiv, l, r) }
func SDivE(l, r Expression) *BinOp { return bin(SDiv, l, r) }
func URemE(l, r Expression) *BinOp { return bin(URem, l, r) }
func SRemE(l, r Expression) *BinOp { return bin(SRem, l, r) }
func AndE(l, r Expression) *BinOp  { return bin(And, l, r) }
func OrE(l, r Expression) *BinOp   { return bin(Or, l, r) }
func XorE(l, r Expression) *BinOp  { return bin(Xor, l, r) }
func ShlE(l, r Expression) *BinOp  { return bin(Shl, l, r) }
func ShrE(l, r Expression) *BinOp  { return bin(Shr, l, r) }
func SarE(l, r Expression) *BinOp  { return bin(Sar, l, r) }

func NegE(x Expression) *UnOp  { return &UnOp{Op: Neg, X: x} }
func NotE(x Expression) *UnOp  { return &UnOp{Op: Not, X: x} }
func LNotE(x Expression) *UnOp { return &UnOp{Op: LNot, X: x} }

func cmp(op CompareKind, l, r Expression) *Compare { return &Compare{Op: op, LHS: l, RHS: r} }

func Eq(l, r Expression) *Compare  { return cmp(EQ, l, r) }
func Ne(l, r Expression) *Compare  { return cmp(NE, l, r) }
func Slt(l, r Expression) *Compare { return cmp(SLT, l, r) }
func Sle(l, r Expression) *Compare { return cmp(SLE, l, r) }
func Sgt(l, r Expression) *Compare { return cmp(SGT, l, r) }
func Sge(l, r Expression) *Compare { return cmp(SGE, l, r) }
func Ult(l, r Expression) *Compare { return cmp(ULT, l, r) }
func Ule(l, r Expression) *Compare { return cmp(ULE, l, r) }
func Ugt(l, r Expression) *Compare { return cmp(UGT, l, r) }
func Uge(l, r Expression) *Compare { return cmp(UGE, l, r) }

// CallSym builds a direct (or already-resolved-by-name) call expression.
func CallSym(name string, args ...Expression) *Call {
	return &Call{Target: CallTarget{Symbol: name}, Args: args}
}

// CallAddr builds an indirect call expression through an address
// expression.
func CallAddr(addr Expression, args ...Expression) *Call {
	return &Call{Target: CallTarget{Addr: addr}, Args: args}
}

// WidthOf returns the operand width, in bits, that an expression was
// produced at. Simplifiers consult this when folding constants so a folded
// result carries a sensible width — the wider of its inputs, or 32 when
// neither side states one.
func WidthOf(e Expression) int {
	switch n := e.(type) {
	case *Const:
		return n.Bits
	case *UConst:
		return n.Bits
	case *SymConst:
		return n.Bits
	case *Cast:
		if n.Target != nil {
			return n.Target.Bits
		}
	case *Load:
		if n.ElemType != nil {
			return n.ElemType.Bits
		}
	case *BinOp:
		return WiderOf(WidthOf(n.LHS), WidthOf(n.RHS))
	case *UnOp:
		return WidthOf(n.X)
	}
	return 0
}

// WiderOf returns the larger of two widths, defaulting to 32 when neither
// is known.
func WiderOf(a, b int) int {
	w := a
	if b > w {
		w = b
	}
	if w == 0 {
		return 32
	}
	return w
}

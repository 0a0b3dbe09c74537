package passes

import "github.com/xyproto/pseudo64/ir"

// DropRedundantBitTestPseudo prunes the Nop/empty-Pseudo litter a
// translator fallback can leave behind for an instruction whose only
// effect was feeding LastBt to the bit-test condition synthesis already
// folded into the following branch/setcc/cmovcc — by the time the pass
// pipeline runs, that information has already been consumed, so any
// leftover placeholder statement is dead weight.
func DropRedundantBitTestPseudo(fn *ir.FunctionIR) {
	for _, blk := range fn.Blocks {
		kept := blk.Stmts[:0]
		for _, s := range blk.Stmts {
			switch st := s.(type) {
			case *ir.Nop:
				continue
			case *ir.Pseudo:
				if st.Text == "" {
					continue
				}
			}
			kept = append(kept, s)
		}
		blk.Stmts = kept
	}
}

// SimplifyRedundantAssign drops self-assignments (x = x) a translation
// step can introduce, e.g. from a "mov reg, reg" that exists only to
// satisfy an encoding constraint.
func SimplifyRedundantAssign(fn *ir.FunctionIR) {
	for _, blk := range fn.Blocks {
		kept := blk.Stmts[:0]
		for _, s := range blk.Stmts {
			if as, ok := s.(*ir.Assign); ok && ir.ExprEqual(as.LHS, as.RHS) {
				continue
			}
			kept = append(kept, s)
		}
		blk.Stmts = kept
	}
}

package ir

import "reflect"

// ExprEqual reports whether two expressions are structurally identical.
// Expression nodes are plain value types (pointers to structs of
// comparable fields), so deep structural comparison is exactly what
// reflect.DeepEqual computes — including recursing correctly through the
// *Label pointers embedded in LabelRef/IfGoto/Goto/LabelStmt (DeepEqual
// compares pointees, not pointer identity).
func ExprEqual(a, b Expression) bool {
	return reflect.DeepEqual(a, b)
}

// StmtEqual reports whether two statements are structurally identical.
func StmtEqual(a, b Statement) bool {
	return reflect.DeepEqual(a, b)
}

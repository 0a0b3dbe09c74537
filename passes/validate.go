package passes

import (
	"github.com/xyproto/pseudo64/internal/perr"
	"github.com/xyproto/pseudo64/ir"
)

// ValidateLabels checks an invariant every label a Goto/IfGoto refers to
// must be defined by some LabelStmt in the same function body. It isn't
// one of the nine numbered rewrite passes — it's a sanity check run by
// the pipeline's caller around them, not a normalization step itself — so
// it panics instead of rewriting anything.
func ValidateLabels(fn *ir.FunctionIR) {
	defined := map[int]bool{}
	for _, s := range fn.Body() {
		if ls, ok := s.(*ir.LabelStmt); ok && ls.Label != nil {
			defined[ls.Label.ID] = true
		}
	}

	for _, s := range fn.Body() {
		switch st := s.(type) {
		case *ir.Goto:
			checkLabelDefined(st.Label, defined)
		case *ir.IfGoto:
			checkLabelDefined(st.Label, defined)
		}
	}
}

func checkLabelDefined(l *ir.Label, defined map[int]bool) {
	if l == nil {
		perr.Raise(perr.CategoryPass, -1, "branch statement with a nil label")
	}
	if !defined[l.ID] {
		perr.Raise(perr.CategoryPass, -1, "unresolved label reference %s", l.Name)
	}
}

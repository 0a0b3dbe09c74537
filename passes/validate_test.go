package passes

import (
	"testing"

	"github.com/xyproto/pseudo64/internal/perr"
	"github.com/xyproto/pseudo64/ir"
)

func TestValidateLabelsAcceptsResolvedGoto(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	l1 := ir.NewLabel(1)
	fn.SetBody([]ir.Statement{
		&ir.Goto{Label: l1},
		&ir.LabelStmt{Label: l1},
		&ir.Return{},
	})

	ValidateLabels(fn)
}

func TestValidateLabelsPanicsOnUnresolvedGoto(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	fn.SetBody([]ir.Statement{
		&ir.Goto{Label: ir.NewLabel(1)},
		&ir.Return{},
	})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected ValidateLabels to panic on an unresolved label")
		}
		if _, ok := r.(*perr.DecompileError); !ok {
			t.Fatalf("panic value = %#v, want *perr.DecompileError", r)
		}
	}()
	ValidateLabels(fn)
}

func TestValidateLabelsPanicsOnNilLabel(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	fn.SetBody([]ir.Statement{
		&ir.IfGoto{Cond: ir.I32(1), Label: nil},
	})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected ValidateLabels to panic on a nil branch label")
		}
	}()
	ValidateLabels(fn)
}

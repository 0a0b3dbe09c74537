package passes

import (
	"testing"

	"github.com/xyproto/pseudo64/collab"
	"github.com/xyproto/pseudo64/ir"
)

func TestSimplifyRedundantAssignDropsSelfAssign(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	fn.SetBody([]ir.Statement{
		&ir.Assign{LHS: &ir.Reg{Name: "rax"}, RHS: &ir.Reg{Name: "rax"}},
		&ir.Assign{LHS: &ir.Reg{Name: "rbx"}, RHS: &ir.Reg{Name: "rax"}},
	})

	SimplifyRedundantAssign(fn)

	if len(fn.Body()) != 1 {
		t.Fatalf("got %d statements, want 1 after dropping the self-assign", len(fn.Body()))
	}
	as, ok := fn.Body()[0].(*ir.Assign)
	if !ok || as.LHS.(*ir.Reg).Name != "rbx" {
		t.Errorf("surviving statement = %#v, want the rbx assign", fn.Body()[0])
	}
}

func TestSimplifyArithmeticIdentitiesFoldsAndZero(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	fn.SetBody([]ir.Statement{
		&ir.Assign{LHS: &ir.Reg{Name: "rax"}, RHS: ir.AndE(ir.U64(0), &ir.Reg{Name: "rbx"})},
	})

	SimplifyArithmeticIdentities(fn)

	as := fn.Body()[0].(*ir.Assign)
	uc, ok := as.RHS.(*ir.UConst)
	if !ok || uc.Value != 0 {
		t.Errorf("rbx & 0 should fold to the constant 0, got %#v", as.RHS)
	}
}

func TestSimplifyArithmeticIdentitiesLeavesNonIdentityAlone(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	bo := ir.AndE(ir.U64(3), &ir.Reg{Name: "rbx"})
	fn.SetBody([]ir.Statement{
		&ir.Assign{LHS: &ir.Reg{Name: "rax"}, RHS: bo},
	})

	SimplifyArithmeticIdentities(fn)

	as := fn.Body()[0].(*ir.Assign)
	if _, ok := as.RHS.(*ir.BinOp); !ok {
		t.Errorf("rbx & 3 should not be folded, got %#v", as.RHS)
	}
}

func TestSimplifyBooleanTernaryCollapsesToCondition(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	cond := ir.Eq(&ir.Reg{Name: "rax"}, ir.I32(0))
	fn.SetBody([]ir.Statement{
		&ir.Assign{LHS: &ir.Reg{Name: "rbx"}, RHS: &ir.Ternary{Cond: cond, IfTrue: ir.U64(1), IfFalse: ir.U64(0)}},
	})

	SimplifyBooleanTernary(fn)

	as := fn.Body()[0].(*ir.Assign)
	if !ir.ExprEqual(as.RHS, cond) {
		t.Errorf("cond ? 1 : 0 should collapse to cond, got %#v", as.RHS)
	}
}

func TestSimplifyBooleanTernaryInvertsFlippedArms(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	cond := ir.Eq(&ir.Reg{Name: "rax"}, ir.I32(0))
	fn.SetBody([]ir.Statement{
		&ir.Assign{LHS: &ir.Reg{Name: "rbx"}, RHS: &ir.Ternary{Cond: cond, IfTrue: ir.U64(0), IfFalse: ir.U64(1)}},
	})

	SimplifyBooleanTernary(fn)

	as := fn.Body()[0].(*ir.Assign)
	u, ok := as.RHS.(*ir.UnOp)
	if !ok || u.Op != ir.LNot {
		t.Errorf("cond ? 0 : 1 should collapse to !cond, got %#v", as.RHS)
	}
}

func TestSimplifyLogicalNotsCollapsesDoubleNot(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	inner := &ir.Reg{Name: "rax"}
	fn.SetBody([]ir.Statement{
		&ir.Assign{LHS: &ir.Reg{Name: "rbx"}, RHS: &ir.UnOp{Op: ir.LNot, X: &ir.UnOp{Op: ir.LNot, X: inner}}},
	})

	SimplifyLogicalNots(fn)

	as := fn.Body()[0].(*ir.Assign)
	if !ir.ExprEqual(as.RHS, inner) {
		t.Errorf("!!x should collapse to x, got %#v", as.RHS)
	}
}

func TestSimplifyLogicalNotsInvertsCompare(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	cmp := ir.Eq(&ir.Reg{Name: "rax"}, &ir.Reg{Name: "rbx"})
	fn.SetBody([]ir.Statement{
		&ir.Assign{LHS: &ir.Reg{Name: "rcx"}, RHS: &ir.UnOp{Op: ir.LNot, X: cmp}},
	})

	SimplifyLogicalNots(fn)

	as := fn.Body()[0].(*ir.Assign)
	got, ok := as.RHS.(*ir.Compare)
	if !ok || got.Op != ir.NE {
		t.Errorf("!(a == b) should become a != b, got %#v", as.RHS)
	}
}

func TestDropRedundantBitTestPseudoRemovesNopsAndEmptyPseudos(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	fn.SetBody([]ir.Statement{
		&ir.Nop{},
		&ir.Pseudo{Text: ""},
		&ir.Pseudo{Text: "bt rax, 3"},
		&ir.Return{},
	})

	DropRedundantBitTestPseudo(fn)

	if len(fn.Body()) != 2 {
		t.Fatalf("got %d statements, want 2 (the non-empty Pseudo and the Return)", len(fn.Body()))
	}
	if p, ok := fn.Body()[0].(*ir.Pseudo); !ok || p.Text != "bt rax, 3" {
		t.Errorf("expected the non-empty Pseudo to survive, got %#v", fn.Body()[0])
	}
}

func TestMapNamedReturnConstantsSymbolizesRecognizedValue(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	fn.SetBody([]ir.Statement{
		&ir.Return{Value: ir.U64(0)},
	})

	pass := MapNamedReturnConstants(collab.NTStatusProvider, collab.DefaultReturnEnumTypeFullName)
	pass(fn)

	ret := fn.Body()[0].(*ir.Return)
	sc, ok := ret.Value.(*ir.SymConst)
	if !ok {
		t.Fatalf("return 0 should symbolize against the NTSTATUS table, got %#v", ret.Value)
	}
	if sc.Value != 0 {
		t.Errorf("SymConst.Value = %d, want 0", sc.Value)
	}
}

func TestMapNamedReturnConstantsLeavesUnrecognizedValueAlone(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	fn.SetBody([]ir.Statement{
		&ir.Return{Value: ir.U64(0xDEADBEEF)},
	})

	pass := MapNamedReturnConstants(collab.NTStatusProvider, collab.DefaultReturnEnumTypeFullName)
	pass(fn)

	ret := fn.Body()[0].(*ir.Return)
	if _, ok := ret.Value.(*ir.SymConst); ok {
		t.Errorf("an unrecognized value should not be symbolized, got %#v", ret.Value)
	}
}

func TestMapNamedRetAssignConstantsOnlyTouchesRetAlias(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	fn.SetBody([]ir.Statement{
		&ir.Assign{LHS: &ir.Reg{Name: "ret"}, RHS: ir.U64(0)},
		&ir.Assign{LHS: &ir.Reg{Name: "rbx"}, RHS: ir.U64(0)},
	})

	pass := MapNamedRetAssignConstants(collab.NTStatusProvider, collab.DefaultReturnEnumTypeFullName)
	pass(fn)

	retAssign := fn.Body()[0].(*ir.Assign)
	if _, ok := retAssign.RHS.(*ir.SymConst); !ok {
		t.Errorf("assignment into ret should be symbolized, got %#v", retAssign.RHS)
	}
	otherAssign := fn.Body()[1].(*ir.Assign)
	if _, ok := otherAssign.RHS.(*ir.SymConst); ok {
		t.Errorf("assignment into a non-ret register should not be touched")
	}
}

func TestFrameObjectClusteringDeclaresLocalsWithWidestType(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	local := &ir.Local{Name: "local_10"}
	fn.SetBody([]ir.Statement{
		&ir.Store{Addr: local, Value: ir.U64(0), ElemType: ir.IntType(32, false)},
		&ir.Store{Addr: local, Value: ir.U64(0), ElemType: ir.IntType(64, false)},
	})

	FrameObjectClusteringAndRspAlias(fn)

	lv := fn.FindLocal("local_10")
	if lv == nil {
		t.Fatalf("expected local_10 to be declared")
	}
	if lv.Type.Bits != 64 {
		t.Errorf("local_10 type width = %d, want 64 (the widest access site)", lv.Type.Bits)
	}
}

func TestFrameObjectClusteringDeclaresPebAsPointer(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	fn.SetBody([]ir.Statement{
		&ir.Assign{LHS: &ir.Reg{Name: "rax"}, RHS: &ir.Local{Name: "peb"}},
	})

	FrameObjectClusteringAndRspAlias(fn)

	lv := fn.FindLocal("peb")
	if lv == nil {
		t.Fatalf("expected peb to be declared as a local")
	}
	if lv.Type == nil || lv.Type.Kind != ir.Pointer {
		t.Errorf("peb local type = %#v, want a pointer type", lv.Type)
	}
}

func TestParamRegToParamNameIsANoOp(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	stmts := []ir.Statement{&ir.Return{Value: &ir.Param{Name: "p1", Index: 0}}}
	fn.SetBody(stmts)

	ParamRegToParamName(fn)

	if len(fn.Body()) != 1 {
		t.Errorf("ParamRegToParamName must not alter the statement list")
	}
}

func TestNewPipelineRunsPassesInDocumentedOrder(t *testing.T) {
	fn := ir.NewFunctionIR("sub_1000", 0, 0x1000)
	fn.SetBody([]ir.Statement{
		&ir.Assign{LHS: &ir.Reg{Name: "rax"}, RHS: &ir.Reg{Name: "rax"}},
		&ir.Return{Value: ir.U64(0)},
	})

	p := NewPipeline(collab.NTStatusProvider, collab.DefaultReturnEnumTypeFullName)
	p.Run(fn)

	if len(fn.Body()) != 1 {
		t.Fatalf("the self-assign should have been dropped by the end of the pipeline, got %d statements", len(fn.Body()))
	}
	ret, ok := fn.Body()[0].(*ir.Return)
	if !ok {
		t.Fatalf("surviving statement = %#v, want *ir.Return", fn.Body()[0])
	}
	if _, ok := ret.Value.(*ir.SymConst); !ok {
		t.Errorf("the return value should have been symbolized by the constant-mapping passes, got %#v", ret.Value)
	}
}

package build

import (
	"testing"

	"github.com/xyproto/pseudo64/ir"
)

func TestConditionFromCCFlagFallback(t *testing.T) {
	b := &Builder{}
	got := b.conditionFromCC(ccE)
	want := flagEq("ZF", 1)
	if !ir.ExprEqual(got, want) {
		t.Errorf("conditionFromCC(ccE) with no scratch state = %#v, want flag fallback %#v", got, want)
	}
}

func TestConditionFromCCUsesLastCmpForSignedCompares(t *testing.T) {
	b := &Builder{lastCmp: &lastCmp{Left: &ir.Reg{Name: "rax"}, Right: ir.I32(0)}}

	tests := []struct {
		c    cc
		want ir.CompareKind
	}{
		{ccL, ir.SLT},
		{ccLE, ir.SLE},
		{ccGE, ir.SGE},
		{ccG, ir.SGT},
	}
	for _, tt := range tests {
		got, ok := b.conditionFromCC(tt.c).(*ir.Compare)
		if !ok {
			t.Fatalf("conditionFromCC(%v) = %#v, want *ir.Compare", tt.c, b.conditionFromCC(tt.c))
		}
		if got.Op != tt.want {
			t.Errorf("conditionFromCC(%v).Op = %v, want %v", tt.c, got.Op, tt.want)
		}
	}
}

func TestConditionFromCCStrictSignedLE(t *testing.T) {
	// With no compare in scope, jle must fall back to the strictly correct
	// ZF=1 OR SF != OF form, not the looser CF-based shortcut.
	b := &Builder{}
	got := b.conditionFromCC(ccLE)
	want := flagFallback(ccLE)
	if !ir.ExprEqual(got, want) {
		t.Errorf("conditionFromCC(ccLE) = %#v, want the strict flagFallback form", got)
	}
	bin, ok := got.(*ir.BinOp)
	if !ok || bin.Op != ir.Or {
		t.Fatalf("strict jle fallback should be an Or of two flag conditions, got %#v", got)
	}
}

func TestConditionFromCCBtForCarryFamily(t *testing.T) {
	b := &Builder{lastBt: &lastBt{Value: &ir.Reg{Name: "rax"}, Index: ir.I32(3)}}
	got := b.conditionFromCC(ccB)
	if _, ok := got.(*ir.Compare); ok {
		t.Errorf("a pending bit-test should take priority over a Compare synthesis")
	}
}

func TestBuildJleSynthesizesCompareFromPrecedingCmp(t *testing.T) {
	// cmp eax, 0 ; jle +0 ; ret
	code := []byte{
		0x83, 0xF8, 0x00,
		0x7E, 0x00,
		0xC3,
	}
	fn := buildFrom(t, code, Options{EmitLabels: true})

	var found bool
	for _, s := range fn.Body() {
		ig, ok := s.(*ir.IfGoto)
		if !ok {
			continue
		}
		cmp, ok := ig.Cond.(*ir.Compare)
		if !ok || cmp.Op != ir.SLE {
			t.Errorf("IfGoto condition = %#v, want a signed <= Compare", ig.Cond)
		}
		found = true
	}
	if !found {
		t.Errorf("expected an IfGoto statement for the jle")
	}
}

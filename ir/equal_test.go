package ir

import "testing"

func TestExprEqual(t *testing.T) {
	tests := []struct {
		name string
		a    Expression
		b    Expression
		want bool
	}{
		{
			name: "identical regs",
			a:    &Reg{Name: "rax"},
			b:    &Reg{Name: "rax"},
			want: true,
		},
		{
			name: "different reg names",
			a:    &Reg{Name: "rax"},
			b:    &Reg{Name: "rbx"},
			want: false,
		},
		{
			name: "equal binops regardless of allocation",
			a:    &BinOp{Op: Add, LHS: &Reg{Name: "rax"}, RHS: &Const{Value: 1, Bits: 32}},
			b:    &BinOp{Op: Add, LHS: &Reg{Name: "rax"}, RHS: &Const{Value: 1, Bits: 32}},
			want: true,
		},
		{
			name: "different binop operators",
			a:    &BinOp{Op: Add, LHS: &Reg{Name: "rax"}, RHS: &Const{Value: 1, Bits: 32}},
			b:    &BinOp{Op: Sub, LHS: &Reg{Name: "rax"}, RHS: &Const{Value: 1, Bits: 32}},
			want: false,
		},
		{
			name: "labels compared by pointee, not identity",
			a:    &LabelRef{Label: NewLabel(1)},
			b:    &LabelRef{Label: NewLabel(1)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExprEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("ExprEqual(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestStmtEqual(t *testing.T) {
	x := &Reg{Name: "rax"}
	tests := []struct {
		name string
		a    Statement
		b    Statement
		want bool
	}{
		{
			name: "redundant self assign",
			a:    &Assign{LHS: x, RHS: x},
			b:    &Assign{LHS: &Reg{Name: "rax"}, RHS: &Reg{Name: "rax"}},
			want: true,
		},
		{
			name: "different statement kinds",
			a:    &Nop{},
			b:    &Comment{Text: ""},
			want: false,
		},
		{
			name: "goto to same label id",
			a:    &Goto{Label: NewLabel(3)},
			b:    &Goto{Label: NewLabel(3)},
			want: true,
		},
		{
			name: "goto to different label id",
			a:    &Goto{Label: NewLabel(3)},
			b:    &Goto{Label: NewLabel(4)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StmtEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("StmtEqual(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestLabelEqual(t *testing.T) {
	a := NewLabel(1)
	b := NewLabel(1)
	c := NewLabel(2)

	if !a.Equal(b) {
		t.Errorf("labels with the same ID should be Equal")
	}
	if a.Equal(c) {
		t.Errorf("labels with different IDs should not be Equal")
	}
	if a.Name != "L1" {
		t.Errorf("NewLabel(1).Name = %q, want L1", a.Name)
	}
}

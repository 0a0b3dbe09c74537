package build

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/xyproto/pseudo64/ir"
)

// cc is a condition code, independent of whether it came from a Jcc,
// SETcc, or CMOVcc encoding.
type cc int

const (
	ccA cc = iota
	ccAE
	ccB
	ccBE
	ccE
	ccG
	ccGE
	ccL
	ccLE
	ccNE
	ccNO
	ccNP
	ccNS
	ccO
	ccP
	ccS
)

func jccCode(op x86asm.Op) (cc, bool) {
	switch op {
	case x86asm.JA:
		return ccA, true
	case x86asm.JAE:
		return ccAE, true
	case x86asm.JB:
		return ccB, true
	case x86asm.JBE:
		return ccBE, true
	case x86asm.JE:
		return ccE, true
	case x86asm.JG:
		return ccG, true
	case x86asm.JGE:
		return ccGE, true
	case x86asm.JL:
		return ccL, true
	case x86asm.JLE:
		return ccLE, true
	case x86asm.JNE:
		return ccNE, true
	case x86asm.JNO:
		return ccNO, true
	case x86asm.JNP:
		return ccNP, true
	case x86asm.JNS:
		return ccNS, true
	case x86asm.JO:
		return ccO, true
	case x86asm.JP:
		return ccP, true
	case x86asm.JS:
		return ccS, true
	default:
		return 0, false
	}
}

func setccCode(op x86asm.Op) (cc, bool) {
	switch op {
	case x86asm.SETA:
		return ccA, true
	case x86asm.SETAE:
		return ccAE, true
	case x86asm.SETB:
		return ccB, true
	case x86asm.SETBE:
		return ccBE, true
	case x86asm.SETE:
		return ccE, true
	case x86asm.SETG:
		return ccG, true
	case x86asm.SETGE:
		return ccGE, true
	case x86asm.SETL:
		return ccL, true
	case x86asm.SETLE:
		return ccLE, true
	case x86asm.SETNE:
		return ccNE, true
	case x86asm.SETNO:
		return ccNO, true
	case x86asm.SETNP:
		return ccNP, true
	case x86asm.SETNS:
		return ccNS, true
	case x86asm.SETO:
		return ccO, true
	case x86asm.SETP:
		return ccP, true
	case x86asm.SETS:
		return ccS, true
	default:
		return 0, false
	}
}

func cmovccCode(op x86asm.Op) (cc, bool) {
	switch op {
	case x86asm.CMOVA:
		return ccA, true
	case x86asm.CMOVAE:
		return ccAE, true
	case x86asm.CMOVB:
		return ccB, true
	case x86asm.CMOVBE:
		return ccBE, true
	case x86asm.CMOVE:
		return ccE, true
	case x86asm.CMOVG:
		return ccG, true
	case x86asm.CMOVGE:
		return ccGE, true
	case x86asm.CMOVL:
		return ccL, true
	case x86asm.CMOVLE:
		return ccLE, true
	case x86asm.CMOVNE:
		return ccNE, true
	case x86asm.CMOVNO:
		return ccNO, true
	case x86asm.CMOVNP:
		return ccNP, true
	case x86asm.CMOVNS:
		return ccNS, true
	case x86asm.CMOVO:
		return ccO, true
	case x86asm.CMOVP:
		return ccP, true
	case x86asm.CMOVS:
		return ccS, true
	default:
		return 0, false
	}
}

func flagRef(name string) *ir.Reg { return &ir.Reg{Name: name} }

func flagEq(name string, want int64) ir.Expression { return ir.Eq(flagRef(name), ir.I32(want)) }
func flagNe(name string, want int64) ir.Expression { return ir.Ne(flagRef(name), ir.I32(want)) }

// flagFallback builds the condition from pseudo-register flag references
// when no compare/bit-test is in scope — rarely readable, but correct.
// jle/jg use the strictly correct ZF/SF/OF form rather than the looser
// CF-based shortcut some reference decompilers use (see DESIGN.md Open
// Question: strict signed jle).
func flagFallback(c cc) ir.Expression {
	switch c {
	case ccS:
		return flagEq("SF", 1)
	case ccNS:
		return flagEq("SF", 0)
	case ccO:
		return flagEq("OF", 1)
	case ccNO:
		return flagEq("OF", 0)
	case ccP:
		return flagEq("PF", 1)
	case ccNP:
		return flagEq("PF", 0)
	case ccE:
		return flagEq("ZF", 1)
	case ccNE:
		return flagEq("ZF", 0)
	case ccB:
		return flagEq("CF", 1)
	case ccAE:
		return flagEq("CF", 0)
	case ccA:
		return ir.AndE(flagEq("CF", 0), flagEq("ZF", 0))
	case ccBE:
		return ir.OrE(flagEq("CF", 1), flagEq("ZF", 1))
	case ccL:
		return ir.Ne(flagRef("SF"), flagRef("OF"))
	case ccGE:
		return ir.Eq(flagRef("SF"), flagRef("OF"))
	case ccLE:
		return ir.OrE(flagEq("ZF", 1), ir.Ne(flagRef("SF"), flagRef("OF")))
	case ccG:
		return ir.AndE(flagEq("ZF", 0), ir.Eq(flagRef("SF"), flagRef("OF")))
	default:
		return flagEq("ZF", 1)
	}
}

// conditionFromCC synthesizes a condition in priority order: special
// branches are handled by the caller before this is reached; this covers
// the LastBt / LastCmp / flag-fallback tiers.
func (b *Builder) conditionFromCC(c cc) ir.Expression {
	switch c {
	case ccS, ccNS, ccO, ccNO, ccP, ccNP:
		// Sign/overflow/parity never come from the compare/test model in
		// this IR — always flag references.
		return flagFallback(c)

	case ccB, ccAE:
		if b.lastBt != nil {
			bit := ir.AndE(ir.ShrE(b.lastBt.Value, b.lastBt.Index), ir.U64(1))
			if c == ccB {
				return ir.Ne(bit, ir.U64(0))
			}
			return ir.Eq(bit, ir.U64(0))
		}
		if b.lastCmp != nil {
			if c == ccB {
				return &ir.Compare{Op: ir.ULT, LHS: b.lastCmp.Left, RHS: b.lastCmp.Right}
			}
			return &ir.Compare{Op: ir.UGE, LHS: b.lastCmp.Left, RHS: b.lastCmp.Right}
		}
		return flagFallback(c)

	case ccE, ccNE:
		if b.lastCmp != nil {
			l, r := b.lastCmp.Left, b.lastCmp.Right
			if b.lastCmp.IsTest && ir.ExprEqual(l, r) {
				if c == ccE {
					return ir.Eq(l, ir.U64(0))
				}
				return ir.Ne(l, ir.U64(0))
			}
			if b.lastCmp.IsTest {
				masked := ir.AndE(l, r)
				if c == ccE {
					return ir.Eq(masked, ir.U64(0))
				}
				return ir.Ne(masked, ir.U64(0))
			}
			if c == ccE {
				return ir.Eq(l, r)
			}
			return ir.Ne(l, r)
		}
		return flagFallback(c)

	case ccL, ccLE, ccGE, ccG:
		if b.lastCmp != nil {
			l, r := b.lastCmp.Left, b.lastCmp.Right
			switch c {
			case ccL:
				return &ir.Compare{Op: ir.SLT, LHS: l, RHS: r}
			case ccLE:
				return &ir.Compare{Op: ir.SLE, LHS: l, RHS: r}
			case ccGE:
				return &ir.Compare{Op: ir.SGE, LHS: l, RHS: r}
			case ccG:
				return &ir.Compare{Op: ir.SGT, LHS: l, RHS: r}
			}
		}
		return flagFallback(c)

	case ccBE, ccA:
		if b.lastCmp != nil {
			l, r := b.lastCmp.Left, b.lastCmp.Right
			if c == ccBE {
				return &ir.Compare{Op: ir.ULE, LHS: l, RHS: r}
			}
			return &ir.Compare{Op: ir.UGT, LHS: l, RHS: r}
		}
		return flagFallback(c)

	default:
		return flagFallback(c)
	}
}

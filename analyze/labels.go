// Package analyze numbers branch targets into stable labels, in the order
// their target address first appears in the instruction stream.
package analyze

import (
	"github.com/xyproto/pseudo64/decode"
	"github.com/xyproto/pseudo64/ir"
)

// Labels maps a branch target address to the label assigned to it.
type Labels struct {
	byAddr map[uint64]*ir.Label
	order  []uint64
}

// At returns the label for addr, or nil if addr is not a branch target
// within the decoded window.
func (l *Labels) At(addr uint64) *ir.Label {
	if l == nil {
		return nil
	}
	return l.byAddr[addr]
}

// Number collects the set of near-branch targets (conditional jump,
// unconditional jump, call) whose target IP lies within
// [firstIP, lastIP+lastLen), then assigns sequential labels L1, L2, ... in
// the order each target address first appears in insts.
func Number(insts []decode.Instruction) *Labels {
	l := &Labels{byAddr: map[uint64]*ir.Label{}}
	if len(insts) == 0 {
		return l
	}
	first := insts[0].IP
	last := insts[len(insts)-1].End()

	for _, in := range insts {
		op := in.Inst.Op
		if !decode.IsConditionalJump(op) && !decode.IsUnconditionalJump(op) && !decode.IsNearCall(op) {
			continue
		}
		target, ok := decode.NearBranchTarget(in)
		if !ok {
			continue
		}
		if target < first || target >= last {
			continue
		}
		if _, seen := l.byAddr[target]; seen {
			continue
		}
		l.order = append(l.order, target)
		l.byAddr[target] = nil // placeholder, numbered below
	}

	for i, addr := range l.order {
		l.byAddr[addr] = ir.NewLabel(i + 1)
	}
	return l
}

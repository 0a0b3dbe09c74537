// Package build translates a decoded, labeled instruction stream into an
// ir.FunctionIR. It owns the single forward pass over the instructions
// and the small amount of scratch state (LastCmp, LastBt, LastZeroedXmm,
// LastWasCall) that condition synthesis and peephole coalescing read
// back.
package build

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/xyproto/pseudo64/analyze"
	"github.com/xyproto/pseudo64/collab"
	"github.com/xyproto/pseudo64/decode"
	"github.com/xyproto/pseudo64/ir"
)

// Options configures one function's IR construction.
type Options struct {
	EmitLabels        bool
	DetectPrologue    bool
	CommentCompare    bool
	ResolveImportName collab.ImportNameResolver
}

// lastCmp records the operands of the most recently decoded cmp/test, so
// the next conditional branch/setcc/cmovcc can synthesize a real
// comparison instead of a flag reference. It is cleared by every other
// translated instruction except the condition consumers, including ones
// that leave the flags untouched (mov, lea, push, ...).
type lastCmp struct {
	Left, Right ir.Expression
	IsTest      bool
}

// lastBt records the operands of the most recently decoded bit-test
// (bt/bts/btr/btc), consulted by jb/jae synthesis.
type lastBt struct {
	Value ir.Expression
	Index ir.Expression
}

// Builder accumulates the statements of one function's single entry basic
// block. The core never produces internal control-flow structure of its
// own, so the builder appends every statement to one list that becomes
// the function's single block; branch targets recorded up front by the
// label numbering pass appear in it as LabelStmt entries.
type Builder struct {
	opts   Options
	regs   *RegAliasMap
	labels *analyze.Labels
	fn     *ir.FunctionIR

	stmts []ir.Statement

	lastCmp       *lastCmp
	lastBt        *lastBt
	lastZeroedXmm x86asm.Reg
	lastWasCall   bool
}

// Build translates res into a complete FunctionIR named name, entered at
// entry within an image based at imageBase.
func Build(name string, imageBase, entry uint64, res decode.Result, labels *analyze.Labels, opts Options) *ir.FunctionIR {
	fn := ir.NewFunctionIR(name, imageBase, entry)
	fn.Parameters = []*ir.Parameter{
		{Name: "p1", Type: ir.U64Type, Index: 0},
		{Name: "p2", Type: ir.U64Type, Index: 1},
		{Name: "p3", Type: ir.U64Type, Index: 2},
		{Name: "p4", Type: ir.U64Type, Index: 3},
	}
	fn.ReturnType = ir.U64Type

	b := &Builder{opts: opts, regs: NewRegAliasMap(), labels: labels, fn: fn}

	insts := res.Instructions
	prologueLen := 0
	if opts.DetectPrologue {
		prologueLen = res.PrologueLen
		if res.UsesFramePointer {
			fn.Tags = tagSet(fn.Tags, "frame.hasRBP", "true")
		}
		if res.LocalSize > 0 {
			fn.Tags = tagSet(fn.Tags, "frame.localSize", fmt.Sprintf("%d", res.LocalSize))
		}
	}

	i := 0
	for i < len(insts) {
		in := insts[i]

		if opts.EmitLabels {
			if lbl := labels.At(in.IP); lbl != nil {
				b.emit(&ir.LabelStmt{Label: lbl})
			}
		}
		b.emit(&ir.Asm{IP: in.IP, Text: in.AsmText})

		if stmts, consumed, ok := tryPeephole(insts, i, b); ok {
			for k := 1; k < consumed; k++ {
				if opts.EmitLabels {
					if lbl := labels.At(insts[i+k].IP); lbl != nil {
						b.emit(&ir.LabelStmt{Label: lbl})
					}
				}
				b.emit(&ir.Asm{IP: insts[i+k].IP, Text: insts[i+k].AsmText})
			}
			for _, s := range stmts {
				b.emit(s)
			}
			b.lastCmp = nil
			b.lastBt = nil
			b.lastWasCall = false
			i += consumed
			continue
		}

		if opts.DetectPrologue && i < prologueLen {
			// Prologue instructions are still recorded via Asm above, but
			// contribute no redundant semantic statement — push rbp / mov
			// rbp, rsp / sub rsp, N are implicit in the locals section and
			// the rbp-relative addressing mode.
			i++
			continue
		}

		for _, s := range b.translate(i, in, insts) {
			b.emit(s)
		}
		i++
	}

	b.fn.SetBody(b.stmts)
	return fn
}

func tagSet(tags map[string]string, k, v string) map[string]string {
	if tags == nil {
		tags = map[string]string{}
	}
	tags[k] = v
	return tags
}

func (b *Builder) emit(s ir.Statement) {
	b.stmts = append(b.stmts, s)
}

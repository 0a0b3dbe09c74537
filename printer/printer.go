// Package printer renders a FunctionIR as C-like pseudocode: the last
// stage of the pipeline. It never mutates the tree it's handed — all
// normalization is the pass pipeline's job.
package printer

import (
	"fmt"
	"strings"

	"github.com/xyproto/pseudo64/ir"
)

// Options controls the printer's output shape. All fields default to
// their Go zero value meaning "off"; callers that want the common case
// use DefaultOptions.
type Options struct {
	EmitHeaderComment      bool
	EmitBlockLabels        bool
	CommentSignednessOnCmp bool
	UseStdIntNames         bool
	Indent                 string
}

// DefaultOptions is the printer configuration used when a caller doesn't
// need anything unusual: stdint type names, a header comment (plus a
// stack-frame line for an rbp-based frame),
// block labels kept, tab indentation.
func DefaultOptions() Options {
	return Options{
		EmitHeaderComment: true,
		EmitBlockLabels:   true,
		UseStdIntNames:    true,
		Indent:            "\t",
	}
}

type printer struct {
	opts Options
	buf  strings.Builder
}

// Print renders fn as a complete pseudocode function definition.
func Print(fn *ir.FunctionIR, opts Options) string {
	if opts.Indent == "" {
		opts.Indent = "\t"
	}
	p := &printer{opts: opts}
	p.printFunction(fn)
	return p.buf.String()
}

func (p *printer) printFunction(fn *ir.FunctionIR) {
	if p.opts.EmitHeaderComment {
		fmt.Fprintf(&p.buf, "// %s — entry 0x%X (image base 0x%X)\n", fn.Name, fn.EntryAddress, fn.ImageBase)
		if v, ok := fn.Tags["frame.hasRBP"]; ok && v == "true" {
			if sz, ok := fn.Tags["frame.localSize"]; ok {
				fmt.Fprintf(&p.buf, "// stack frame: rbp-based, %s bytes of locals\n", sz)
			} else {
				p.buf.WriteString("// stack frame: rbp-based\n")
			}
		}
	}

	fmt.Fprintf(&p.buf, "%s %s(", typeString(fn.ReturnType, p.opts), fn.Name)
	for i, param := range fn.Parameters {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		fmt.Fprintf(&p.buf, "%s %s", typeString(param.Type, p.opts), param.Name)
	}
	p.buf.WriteString(") {\n")

	for _, lv := range fn.Locals {
		fmt.Fprintf(&p.buf, "%s%s %s", p.opts.Indent, typeString(lv.Type, p.opts), lv.Name)
		if lv.Init != nil {
			fmt.Fprintf(&p.buf, " = %s", p.expr(lv.Init, 0))
		}
		p.buf.WriteString(";\n")
	}

	if fn.StructuredBody != nil {
		p.printStructured(fn.StructuredBody, 1)
	} else {
		for _, s := range fn.Body() {
			p.printStmt(s, 1)
		}
	}

	p.buf.WriteString("}\n")
}

func (p *printer) indent(depth int) string {
	return strings.Repeat(p.opts.Indent, depth)
}

func (p *printer) printStmt(s ir.Statement, depth int) {
	ind := p.indent(depth)
	switch st := s.(type) {
	case *ir.Asm:
		fmt.Fprintf(&p.buf, "%s// %s\n", ind, st.Text)
	case *ir.LabelStmt:
		fmt.Fprintf(&p.buf, "%s:\n", st.Label.Name)
	case *ir.Goto:
		fmt.Fprintf(&p.buf, "%sgoto %s;\n", ind, st.Label.Name)
	case *ir.IfGoto:
		fmt.Fprintf(&p.buf, "%sif (%s) goto %s;\n", ind, p.expr(st.Cond, 0), st.Label.Name)
	case *ir.Assign:
		if call, ok := st.RHS.(*ir.Call); ok {
			fmt.Fprintf(&p.buf, "%s/* call */ %s = %s;%s\n", ind, p.expr(st.LHS, 0), p.callExpr(call), retComment(st.LHS))
			return
		}
		fmt.Fprintf(&p.buf, "%s%s = %s;\n", ind, p.expr(st.LHS, 0), p.expr(st.RHS, 0))
	case *ir.Store:
		fmt.Fprintf(&p.buf, "%s%s = %s;\n", ind, p.memExpr(st.Addr, st.ElemType, st.Seg), p.expr(st.Value, 0))
	case *ir.CallStmt:
		fmt.Fprintf(&p.buf, "%s%s;\n", ind, p.expr(st.Call, 0))
	case *ir.Return:
		if st.Value == nil {
			fmt.Fprintf(&p.buf, "%sreturn;\n", ind)
		} else {
			fmt.Fprintf(&p.buf, "%sreturn %s;\n", ind, p.expr(st.Value, 0))
		}
	case *ir.Comment:
		fmt.Fprintf(&p.buf, "%s// %s\n", ind, st.Text)
	case *ir.Pseudo:
		fmt.Fprintf(&p.buf, "%s%s\n", ind, st.Text)
	case *ir.Nop:
		// nothing rendered
	default:
		fmt.Fprintf(&p.buf, "%s// <unrenderable statement>\n", ind)
	}
}

// retComment returns the trailing " // RAX" comment a call-result Assign
// gets when its LHS is the ret/rax alias, or "" otherwise.
func retComment(lhs ir.Expression) string {
	reg, ok := lhs.(*ir.Reg)
	if !ok {
		return ""
	}
	if reg.Name == "ret" || reg.Name == "rax" {
		return " // RAX"
	}
	return ""
}

func (p *printer) printStructured(nodes []ir.StructuredNode, depth int) {
	ind := p.indent(depth)
	for _, n := range nodes {
		switch node := n.(type) {
		case *ir.StmtNode:
			p.printStmt(node.Stmt, depth)
		case *ir.If:
			fmt.Fprintf(&p.buf, "%sif (%s) {\n", ind, p.expr(node.Cond, 0))
			p.printStructured(node.Then, depth+1)
			if len(node.Else) > 0 {
				fmt.Fprintf(&p.buf, "%s} else {\n", ind)
				p.printStructured(node.Else, depth+1)
			}
			fmt.Fprintf(&p.buf, "%s}\n", ind)
		case *ir.While:
			fmt.Fprintf(&p.buf, "%swhile (%s) {\n", ind, p.expr(node.Cond, 0))
			p.printStructured(node.Body, depth+1)
			fmt.Fprintf(&p.buf, "%s}\n", ind)
		case *ir.DoWhile:
			fmt.Fprintf(&p.buf, "%sdo {\n", ind)
			p.printStructured(node.Body, depth+1)
			fmt.Fprintf(&p.buf, "%s} while (%s);\n", ind, p.expr(node.Cond, 0))
		case *ir.For:
			init, post := "", ""
			if node.Init != nil {
				init = strings.TrimSuffix(strings.TrimSpace(p.statementFragment(node.Init)), ";")
			}
			if node.Post != nil {
				post = strings.TrimSuffix(strings.TrimSpace(p.statementFragment(node.Post)), ";")
			}
			fmt.Fprintf(&p.buf, "%sfor (%s; %s; %s) {\n", ind, init, p.expr(node.Cond, 0), post)
			p.printStructured(node.Body, depth+1)
			fmt.Fprintf(&p.buf, "%s}\n", ind)
		case *ir.Switch:
			fmt.Fprintf(&p.buf, "%sswitch (%s) {\n", ind, p.expr(node.Value, 0))
			for _, c := range node.Cases {
				if len(c.Values) == 0 {
					fmt.Fprintf(&p.buf, "%sdefault:\n", p.indent(depth+1))
				} else {
					for _, v := range c.Values {
						fmt.Fprintf(&p.buf, "%scase %s:\n", p.indent(depth+1), p.expr(v, 0))
					}
				}
				p.printStructured(c.Body, depth+2)
			}
			fmt.Fprintf(&p.buf, "%s}\n", ind)
		}
	}
}

// statementFragment renders a single Statement without indentation or a
// trailing newline, for embedding inside a for(...) header.
func (p *printer) statementFragment(s ir.Statement) string {
	tmp := &printer{opts: p.opts}
	tmp.printStmt(s, 0)
	return tmp.buf.String()
}

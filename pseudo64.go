// Package pseudo64 decompiles a span of x86-64 machine code into C-like
// pseudocode. ToPseudoCode is the module's single public entry point;
// everything else under this module's internal packages exists to
// support it.
package pseudo64

import (
	"fmt"

	"github.com/xyproto/pseudo64/analyze"
	"github.com/xyproto/pseudo64/build"
	"github.com/xyproto/pseudo64/collab"
	"github.com/xyproto/pseudo64/decode"
	"github.com/xyproto/pseudo64/passes"
	"github.com/xyproto/pseudo64/printer"
)

// Options configures a single decompilation run. The zero value is usable:
// it decodes from address 0, names the function "sub_0", never resolves
// imports, and names returned constants with the built-in NTSTATUS table.
type Options struct {
	// BaseAddress is the virtual address of code[0].
	BaseAddress uint64
	// FunctionName overrides the default "sub_<hex entry>" naming.
	FunctionName string
	// MaxBytes bounds how much of code is decoded; 0 means unbounded.
	MaxBytes int

	// EmitLabels emits an "Lk:" line at every in-window branch target and
	// renders branches as gotos to those labels. When false, no label
	// lines are emitted and each branch becomes a pseudo comment naming
	// its raw target address.
	EmitLabels bool
	// DetectPrologue suppresses semantic emission for a recognized
	// push-rbp/mov-rbp-rsp/sub-rsp-imm prologue. It is off in the zero
	// value, which translates the prologue instructions like any others.
	DetectPrologue bool
	// CommentCompare emits a "compare L, R" / "test L, R" Pseudo line
	// alongside every cmp/test instruction, naming the operands that fed
	// the flags a later Jcc/SETcc/CMOVcc synthesizes its condition from.
	CommentCompare bool

	// ResolveImportName backs indirect-call translation. Nil means
	// collab.NoImportNames.
	ResolveImportName collab.ImportNameResolver
	// ConstantProvider backs the named-return-constant passes. Nil means
	// collab.NTStatusProvider.
	ConstantProvider collab.ConstantNameProvider
	// ReturnEnumTypeFullName names the enum ConstantProvider is queried
	// against. Empty means collab.DefaultReturnEnumTypeFullName.
	ReturnEnumTypeFullName string

	// PrintOptions controls the final rendering stage. The zero value
	// falls back to printer.DefaultOptions.
	PrintOptions printer.Options
}

func (o Options) resolver() collab.ImportNameResolver {
	if o.ResolveImportName != nil {
		return o.ResolveImportName
	}
	return collab.NoImportNames
}

func (o Options) constants() collab.ConstantNameProvider {
	if o.ConstantProvider != nil {
		return o.ConstantProvider
	}
	return collab.NTStatusProvider
}

func (o Options) enumName() string {
	if o.ReturnEnumTypeFullName != "" {
		return o.ReturnEnumTypeFullName
	}
	return collab.DefaultReturnEnumTypeFullName
}

// ToPseudoCode decodes code as x86-64 starting at options.BaseAddress,
// builds its IR, runs the rewrite-pass pipeline, and renders the result as
// a C-like pseudocode function. It never touches a filesystem or a loaded
// image: callers that have a whole PE file use collab/pecoff to extract
// the bytes of a function first.
func ToPseudoCode(code []byte, options Options) string {
	entry := options.BaseAddress
	name := options.FunctionName
	if name == "" {
		name = fmt.Sprintf("sub_%X", entry)
	}

	res := decode.Decode(code, options.BaseAddress, options.MaxBytes)
	labels := analyze.Number(res.Instructions)

	fn := build.Build(name, 0, entry, res, labels, build.Options{
		EmitLabels:        options.EmitLabels,
		DetectPrologue:    options.DetectPrologue,
		CommentCompare:    options.CommentCompare,
		ResolveImportName: options.resolver(),
	})

	passes.ValidateLabels(fn)
	pipeline := passes.NewPipeline(options.constants(), options.enumName())
	pipeline.Run(fn)
	passes.ValidateLabels(fn)

	printOpts := options.PrintOptions
	if printOpts.Indent == "" {
		printOpts = printer.DefaultOptions()
	}
	return printer.Print(fn, printOpts)
}

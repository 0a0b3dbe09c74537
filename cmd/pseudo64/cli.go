package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/xyproto/pseudo64"
	"github.com/xyproto/pseudo64/collab/pecoff"
	"github.com/xyproto/pseudo64/internal/perr"
	"github.com/xyproto/pseudo64/internal/watch"
)

func cmdDump(args []string) error {
	fs, opts := dumpFlags("dump")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: pseudo64 dump <image> [-export Name | -offset 0xHEX]")
	}
	opts.imagePath = fs.Arg(0)
	verboseMode = opts.verbose
	watch.VerboseMode = opts.verbose

	out, err := decompileOnce(opts)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func cmdWatch(args []string) error {
	fs, opts := dumpFlags("watch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: pseudo64 watch <image> [-export Name | -offset 0xHEX]")
	}
	opts.imagePath = fs.Arg(0)
	verboseMode = opts.verbose
	watch.VerboseMode = opts.verbose

	run := func(string) {
		out, err := decompileOnce(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pseudo64: %v\n", err)
			return
		}
		fmt.Println(out)
	}
	run(opts.imagePath)

	w, err := watch.New(opts.imagePath, run)
	if err != nil {
		return fmt.Errorf("starting watch: %w", err)
	}
	defer w.Close()
	w.Run()
	return nil
}

// withExportSuggestions wraps a "-export not found" error with the closest
// matching export names in the image, when any are within editing distance
// of what was typed.
func withExportSuggestions(img *pecoff.Image, requested string, cause error) error {
	exports, exportsErr := img.Exports()
	if exportsErr != nil || len(exports) == 0 {
		return cause
	}
	names := make([]string, len(exports))
	for i, e := range exports {
		names[i] = e.Name
	}
	suggestions := suggestExportNames(requested, names, 3)
	if len(suggestions) == 0 {
		return cause
	}
	return fmt.Errorf("%w (did you mean: %s?)", cause, strings.Join(suggestions, ", "))
}

// decompileOnce reads the image, locates the requested function's bytes,
// and runs them through the core. An InvariantViolation panic from the
// core is recovered here and reported the way a decoder-level error
// would be — the CLI is the only place in this module that ever recovers
// one; the core itself lets it propagate.
func decompileOnce(opts *dumpOptions) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			if de, ok := r.(*perr.DecompileError); ok {
				err = fmt.Errorf("%s", de.Format(!opts.noColor))
				return
			}
			panic(r)
		}
	}()

	data, err := os.ReadFile(opts.imagePath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", opts.imagePath, err)
	}
	img, err := pecoff.Open(data)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", opts.imagePath, err)
	}

	var code []byte
	var va uint64
	switch {
	case opts.export != "":
		code, va, err = img.ExportedFunctionBytes(opts.export, opts.maxBytes)
		if err != nil {
			return "", withExportSuggestions(img, opts.export, err)
		}
	case opts.offset >= 0:
		code, va, err = img.FunctionBytesAtRVA(uint32(opts.offset), opts.maxBytes)
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("one of -export or -offset is required")
	}

	base := opts.base
	if base == 0 {
		base = va
	}
	name := opts.funcName
	if name == "" {
		name = opts.export
	}

	resolver, err := img.ImportResolver()
	if err != nil {
		if verboseMode {
			fmt.Fprintf(os.Stderr, "pseudo64: building import resolver: %v\n", err)
		}
		resolver = nil
	}

	result := pseudo64.ToPseudoCode(code, pseudo64.Options{
		BaseAddress:       base,
		FunctionName:      name,
		MaxBytes:          opts.maxBytes,
		EmitLabels:        !opts.noLabels,
		DetectPrologue:    true,
		ResolveImportName: resolver,
	})
	return result, nil
}

// Command pseudo64 is a thin CLI over the pseudo64 decompilation core: a
// demo/inspection front end, not part of the core's own scope. It's a
// flag-based dispatcher (RunCLI, -v/--verbose short/long pairs) over two
// subcommands: dump and watch.
package main

import (
	"flag"
	"fmt"
	"os"

	env "github.com/xyproto/env/v2"
)

const versionString = "pseudo64 0.1.0"

var verboseMode bool

func main() {
	if err := RunCLI(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "pseudo64: %v\n", err)
		os.Exit(1)
	}
}

// RunCLI dispatches to the dump/watch subcommands.
func RunCLI(args []string) error {
	if len(args) == 0 {
		return cmdHelp()
	}

	switch args[0] {
	case "dump":
		return cmdDump(args[1:])
	case "watch":
		return cmdWatch(args[1:])
	case "help", "--help", "-h":
		return cmdHelp()
	case "version", "--version", "-V":
		fmt.Println(versionString)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\n\nRun 'pseudo64 help' for usage information", args[0])
	}
}

func cmdHelp() error {
	fmt.Printf(`pseudo64 - x86-64 to C-like pseudocode decompiler (%s)

USAGE:
    pseudo64 <command> [arguments]

COMMANDS:
    dump <image.exe> -export <Name>   Decompile one exported function
    dump <image.exe> -offset <hex>    Decompile starting at an RVA
    watch <image.exe> -export <Name>  Re-run dump whenever the image changes
    help                              Show this help message
    version                           Show version information

FLAGS:
    -export <name>      Exported function name to decompile
    -offset <hex>        RVA to start decoding from (alternative to -export)
    -base <hex>          Base virtual address override (default: the function's own virtual address)
    -max-bytes <n>        Cap on bytes fed to the decoder (env PSEUDO64_MAX_BYTES)
    -name <symbol>        Pretty function name in the emitted signature
    -no-labels           Don't emit Lk: label lines
    -no-color            Disable ANSI color in error output (env PSEUDO64_NO_COLOR)
    -v, --verbose         Verbose diagnostic traces (env PSEUDO64_VERBOSE)

EXAMPLES:
    pseudo64 dump kernelbase.dll -export CreateFileW
    pseudo64 dump driver.sys -offset 0x1400 -name HandleIoctl
    pseudo64 watch driver.sys -export DriverEntry

`, versionString)
	return nil
}

func dumpFlags(name string) (*flag.FlagSet, *dumpOptions) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	opts := &dumpOptions{}
	fs.StringVar(&opts.export, "export", "", "exported function name to decompile")
	fs.Int64Var(&opts.offset, "offset", -1, "RVA to start decoding from")
	fs.Uint64Var(&opts.base, "base", 0, "base virtual address override")
	fs.IntVar(&opts.maxBytes, "max-bytes", env.IntOr("PSEUDO64_MAX_BYTES", 4096), "cap on bytes fed to the decoder")
	fs.StringVar(&opts.funcName, "name", "", "pretty function name in the emitted signature")
	fs.BoolVar(&opts.noLabels, "no-labels", false, "don't emit Lk: label lines")
	fs.BoolVar(&opts.noColor, "no-color", env.BoolOr("PSEUDO64_NO_COLOR", false), "disable ANSI color in error output")
	fs.BoolVar(&opts.verbose, "v", env.BoolOr("PSEUDO64_VERBOSE", false), "verbose mode")
	fs.BoolVar(&opts.verbose, "verbose", env.BoolOr("PSEUDO64_VERBOSE", false), "verbose mode")
	return fs, opts
}

type dumpOptions struct {
	export   string
	offset   int64
	base     uint64
	maxBytes int
	funcName string
	noLabels bool
	noColor  bool
	verbose  bool
	imagePath string
}

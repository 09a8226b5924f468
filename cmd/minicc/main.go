package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/minic-cc/minicc/pkg/arm32"
	"github.com/minic-cc/minicc/pkg/ast"
	"github.com/minic-cc/minicc/pkg/ir"
	"github.com/minic-cc/minicc/pkg/irgen"
	"github.com/minic-cc/minicc/pkg/lexer"
	"github.com/minic-cc/minicc/pkg/parser"
)

var version = "0.1.0"

var (
	showAST bool
	showIR  bool
	showASM bool
	outFile string
	verbose string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "minicc [file]",
		Short: "minicc compiles MiniC programs to ARM32 assembly",
		Long: `minicc is a small compiler for the MiniC language. It lowers the
parsed program to a linear three-address IR and selects ARM32
instructions from it. The intermediate forms can be dumped with the
--show-ast and --show-ir flags.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose != "" {
				tlog.SetVerbosity(verbose)
			}
			return compile(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&showAST, "show-ast", false, "Dump the parse tree and stop")
	rootCmd.Flags().BoolVar(&showIR, "show-ir", false, "Dump the linear IR and stop")
	rootCmd.Flags().BoolVar(&showASM, "show-asm", false, "Print the ARM32 assembly listing")
	rootCmd.Flags().StringVarP(&outFile, "output", "o", "", "Write the assembly listing to a file")
	rootCmd.Flags().StringVar(&verbose, "verbose", "", "Logging topics to enable (e.g. irgen,select)")

	return rootCmd
}

// compile drives the pipeline: parse, lower, then print the requested
// representation. Any diagnostic fails the run, but every function is
// still lowered so all diagnostics are reported together.
func compile(filename string, out, errOut io.Writer) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "minicc: %v\n", err)
		return err
	}

	l := lexer.New(string(content))
	p := parser.New(l)
	unit := p.ParseCompileUnit()

	if len(p.Errors()) > 0 {
		for _, e := range p.Errors() {
			fmt.Fprintf(errOut, "%s: %s\n", filename, e)
		}
		return errors.New("parsing failed with %d errors", len(p.Errors()))
	}

	if showAST {
		ast.NewPrinter(out).PrintTree(unit)
		return nil
	}

	mod, diags := irgen.New().Run(unit)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintf(errOut, "%s:%d: %s: %s\n", filename, d.Line, d.Kind, d.Msg)
		}
		return errors.New("lowering failed with %d errors", len(diags))
	}

	if showIR {
		ir.NewPrinter(out).PrintModule(mod)
		return nil
	}

	asm, err := arm32.Generate(mod, false)
	if err != nil {
		return errors.Wrap(err, "instruction selection")
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, []byte(asm), 0o644); err != nil {
			return errors.Wrap(err, "write %v", outFile)
		}
		if !showASM {
			return nil
		}
	}

	fmt.Fprint(out, asm)
	return nil
}

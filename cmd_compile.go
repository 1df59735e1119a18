package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"nilan/ast"
	"nilan/codegen"
	"nilan/compiler"
	"nilan/diag"
	"nilan/lexer"
	"nilan/parser"

	"github.com/google/subcommands"
)

// compileCmd runs the full lex -> parse -> check -> codegen pipeline over a
// source file, writing the resulting assembly to stdout.
type compileCmd struct {
	dumpAST bool
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "Compile a Nilan source file to x86-64 assembly" }
func (*compileCmd) Usage() string {
	return `compile <path>:
  Compile Nilan source to x86-64 assembly, written to stdout.
`
}

func (cmd *compileCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "Writes the AST as JSON to ast.json")
	f.BoolVar(&cmd.dumpAST, "da", false, "Shorthand for dumpAST.")
}

func (cmd *compileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	sink := diag.NewWriterSink(os.Stderr)

	tokens := lexer.New(string(data), sink).Scan()

	onFatal := func() { os.Exit(1) }
	p := parser.New(tokens, sink, onFatal)
	program, err := p.ParseProgram()
	if err != nil {
		return subcommands.ExitFailure
	}

	if cmd.dumpAST {
		if err := ast.WriteJSONToFile(program, "ast.json"); err != nil {
			fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
		}
	}

	checked, err := compiler.New(sink).CheckProgram(program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
		return subcommands.ExitFailure
	}

	if err := codegen.New(os.Stdout).GenerateProgram(checked); err != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

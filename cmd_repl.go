package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"nilan/ast"
	"nilan/codegen"
	"nilan/compiler"
	"nilan/diag"
	"nilan/lexer"
	"nilan/parser"
	"nilan/token"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
)

type replCmd struct {
	dumpAST bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Nilan compile session" }
func (*replCmd) Usage() string {
	return `repl:
  Read function definitions interactively, compiling each one to assembly
  as soon as its braces balance.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "Writes each entry's AST as JSON to ast.json")
	f.BoolVar(&cmd.dumpAST, "da", false, "Shorthand for dumpAST.")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to the Nilan programming language!")
	fmt.Println("")

	fmt.Print(`
	███╗   ██╗██╗██╗      █████╗ ███╗   ██╗
	████╗  ██║██║██║     ██╔══██╗████╗  ██║
	██╔██╗ ██║██║██║     ███████║██╔██╗ ██║
	██║╚██╗██║██║██║     ██╔══██║██║╚██╗██║
	██║ ╚████║██║███████╗██║  ██║██║ ╚████║
	╚═╝  ╚═══╝╚═╝╚══════╝╚═╝  ╚═╝╚═╝  ╚═══╝

`)

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
		return subcommands.ExitFailure
	}
	defer rl.Close()

	sink := diag.NewWriterSink(os.Stderr)
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens := lexer.New(source, sink).Scan()
		if !isInputReady(tokens) {
			continue
		}

		p := parser.New(tokens, nil, func() {})
		program, err := p.ParseProgram()
		if err != nil {
			// A syntax error located at the trailing EOF token just means the
			// entry isn't finished yet: wait for more input instead of
			// reporting an error.
			if allErrorsAtEOF(err, tokens[len(tokens)-1]) {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
			buffer.Reset()
			continue
		}

		if cmd.dumpAST {
			if err := ast.WriteJSONToFile(program, "ast.json"); err != nil {
				fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
			}
		}

		checked, err := compiler.New(sink).CheckProgram(program)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
			buffer.Reset()
			continue
		}

		if err := codegen.New(os.Stdout).GenerateProgram(checked); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		}
		buffer.Reset()
	}
}

// allErrorsAtEOF reports whether the parse failure was a syntax error
// located at the position of the trailing EOF token — i.e. the user just
// hasn't finished typing the entry yet, not a genuine mistake.
func allErrorsAtEOF(err error, eof token.Token) bool {
	syntaxErr, ok := err.(parser.SyntaxError)
	if !ok {
		return false
	}
	return syntaxErr.Location == eof.Location
}

// isInputReady checks for balanced braces and for a trailing token that
// necessarily expects a continuation, mirroring the teacher's REPL
// input-readiness check against this language's own grammar.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LCURLY:
			braceBalance++
		case token.RCURLY:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.Type {
	case token.EQUAL,
		token.PLUS,
		token.MINUS,
		token.STAR,
		token.SLASH,
		token.BANG,
		token.EQUAL_EQUAL,
		token.BANG_EQUAL,
		token.LESS,
		token.LESS_EQUAL,
		token.GREATER,
		token.GREATER_EQUAL,
		token.COMMA,
		token.COLON,
		token.LPAREN,
		token.LCURLY,
		token.DEF,
		token.LET,
		token.RETURN,
		token.AND,
		token.OR:
		return false
	}

	return true
}

// lastNonEOF returns the last non-EOF token, nil if every token is EOF.
func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Type != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// Package parser implements the recursive-descent parser: tokens become a
// typed AST, one token of lookahead, fixed precedence ladder.
package parser

import (
	"fmt"
	"os"
	"strconv"

	"nilan/ast"
	"nilan/diag"
	"nilan/token"
)

// Parser turns a token stream into an AST. It fails fast: on the first
// unexpected token it writes a diagnostic to sink and calls onFatal. In
// production onFatal is os.Exit(1), matching the source's
// exit(EXIT_FAILURE) inside match(); tests may substitute their own
// onFatal to observe the failure without terminating the process.
type Parser struct {
	tokens  []token.Token
	pos     int
	sink    diag.Sink
	onFatal func()
}

// New constructs a Parser over tokens. If sink is nil diagnostics are
// discarded. If onFatal is nil it defaults to os.Exit(1).
func New(tokens []token.Token, sink diag.Sink, onFatal func()) *Parser {
	if onFatal == nil {
		onFatal = func() { os.Exit(1) }
	}
	return &Parser{tokens: tokens, sink: sink, onFatal: onFatal}
}

// fatal is the internal sentinel unwound to ParseProgram's recover, so
// every parse* helper can simply panic instead of threading an error
// return through the whole descent.
type fatal struct{ err SyntaxError }

func (p *Parser) fail(loc token.Location, format string, args ...any) {
	panic(fatal{err: CreateSyntaxError(loc, fmt.Sprintf(format, args...))})
}

func (p *Parser) current() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) isEOF() bool {
	return p.current().Type == token.EOF
}

func (p *Parser) check(t token.TokenType) bool {
	if p.isEOF() {
		return t == token.EOF
	}
	return p.current().Type == t
}

func (p *Parser) advance() {
	if p.isEOF() {
		return
	}
	p.pos++
}

// expect requires the current token to have type t, consumes it, and
// returns it; otherwise it fails fast.
func (p *Parser) expect(t token.TokenType) token.Token {
	if !p.check(t) {
		p.fail(p.current().Location, "expected: %s but got %s", t, p.current().Lexeme)
	}
	tok := p.current()
	p.advance()
	return tok
}

// ParseProgram parses a sequence of function definitions until EOF. Any
// syntax error unwinds here, is written to sink, and triggers onFatal.
func (p *Parser) ParseProgram() (program ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(fatal)
			if !ok {
				panic(r)
			}
			if p.sink != nil {
				p.sink.Error(f.err.Location, f.err.Message)
			}
			err = f.err
			p.onFatal()
		}
	}()

	var functions []ast.FunctionDefinition
	for !p.isEOF() {
		functions = append(functions, p.functionDefinition())
	}
	return ast.Program{Functions: functions}, nil
}

func (p *Parser) functionDefinition() ast.FunctionDefinition {
	loc := p.current().Location
	sig := p.functionSignature()
	body := p.block()
	return ast.FunctionDefinition{Signature: sig, Body: body, Loc: loc}
}

func (p *Parser) functionSignature() ast.FunctionSignature {
	loc := p.current().Location
	p.expect(token.DEF)

	name := p.expect(token.IDENTIFIER)
	p.expect(token.LPAREN)

	var params []ast.Parameter
	first := true
	for !p.isEOF() && !p.check(token.RPAREN) {
		if !first {
			p.expect(token.COMMA)
		}
		params = append(params, p.parameter())
		first = false
	}
	p.expect(token.RPAREN)
	p.expect(token.COLON)

	if !p.check(token.IDENTIFIER) {
		p.fail(p.current().Location, "expected return type")
	}
	returnType := p.current().Lexeme
	p.advance()

	return ast.FunctionSignature{Name: name.Lexeme, Parameters: params, ReturnType: returnType, Loc: loc}
}

func (p *Parser) parameter() ast.Parameter {
	loc := p.current().Location
	name := p.expect(token.IDENTIFIER)
	p.expect(token.COLON)

	if !p.check(token.IDENTIFIER) {
		p.fail(p.current().Location, "expected type")
	}
	typeName := p.current().Lexeme
	p.advance()

	return ast.Parameter{Name: name.Lexeme, Type: typeName, Loc: loc}
}

func (p *Parser) block() ast.Block {
	loc := p.current().Location
	p.expect(token.LCURLY)

	var stmts []ast.Stmt
	for !p.isEOF() && !p.check(token.RCURLY) {
		stmts = append(stmts, p.statement())
	}
	p.expect(token.RCURLY)

	return ast.Block{Statements: stmts, Loc: loc}
}

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.check(token.LCURLY):
		return p.block()
	case p.check(token.LET):
		return p.letAssignment()
	case p.check(token.RETURN):
		return p.returnStatement()
	default:
		p.fail(p.current().Location, "expected statement")
		panic("unreachable")
	}
}

func (p *Parser) letAssignment() ast.LetAssignment {
	loc := p.current().Location
	p.expect(token.LET)

	name := p.expect(token.IDENTIFIER)
	p.expect(token.EQUAL)

	expr := p.expression()
	p.expect(token.SEMICOLON)

	return ast.LetAssignment{Name: name.Lexeme, Expr: expr, Loc: loc}
}

func (p *Parser) returnStatement() ast.Return {
	loc := p.current().Location
	p.expect(token.RETURN)

	if !p.check(token.SEMICOLON) {
		expr := p.expression()
		p.expect(token.SEMICOLON)
		return ast.Return{Expr: expr, Loc: loc}
	}

	p.expect(token.SEMICOLON)
	return ast.Return{Expr: nil, Loc: loc}
}

// expression is the entry point of the precedence ladder (lowest to
// highest): or/and, then <,>,==,!=, then +,-, then *,/, then primary.
func (p *Parser) expression() ast.Expression {
	return p.higherBoolean()
}

func (p *Parser) higherBoolean() ast.Expression {
	loc := p.current().Location
	lhs := p.lowerBoolean()

	for p.check(token.OR) || p.check(token.AND) {
		op := ast.Or
		if p.check(token.AND) {
			op = ast.And
		}
		p.advance()

		rhs := p.lowerBoolean()
		lhs = ast.Binary{Op: op, Loc: loc, LHS: lhs, RHS: rhs}
	}

	return lhs
}

func (p *Parser) lowerBoolean() ast.Expression {
	loc := p.current().Location
	lhs := p.term()

	for p.check(token.LESS) || p.check(token.GREATER) || p.check(token.EQUAL_EQUAL) || p.check(token.BANG_EQUAL) {
		var op ast.BinaryOp
		switch {
		case p.check(token.LESS):
			op = ast.Less
		case p.check(token.GREATER):
			op = ast.Greater
		case p.check(token.EQUAL_EQUAL):
			op = ast.Equal
		default:
			op = ast.NotEqual
		}
		p.advance()

		rhs := p.term()
		lhs = ast.Binary{Op: op, Loc: loc, LHS: lhs, RHS: rhs}
	}

	return lhs
}

func (p *Parser) term() ast.Expression {
	loc := p.current().Location
	lhs := p.factor()

	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := ast.Add
		if p.check(token.MINUS) {
			op = ast.Sub
		}
		p.advance()

		rhs := p.factor()
		lhs = ast.Binary{Op: op, Loc: loc, LHS: lhs, RHS: rhs}
	}

	return lhs
}

func (p *Parser) factor() ast.Expression {
	loc := p.current().Location
	lhs := p.primary()

	for p.check(token.STAR) || p.check(token.SLASH) {
		op := ast.Mul
		if p.check(token.SLASH) {
			op = ast.Div
		}
		p.advance()

		rhs := p.primary()
		lhs = ast.Binary{Op: op, Loc: loc, LHS: lhs, RHS: rhs}
	}

	return lhs
}

func (p *Parser) primary() ast.Expression {
	loc := p.current().Location

	switch {
	case p.check(token.LPAREN):
		p.advance()
		expr := p.expression()
		p.expect(token.RPAREN)
		return expr

	case p.check(token.IDENTIFIER):
		name := p.current().Lexeme
		p.advance()

		if p.check(token.LPAREN) {
			p.advance()

			var args []ast.Expression
			first := true
			for !p.isEOF() && !p.check(token.RPAREN) {
				if !first {
					p.expect(token.COMMA)
				}
				args = append(args, p.expression())
				first = false
			}
			p.expect(token.RPAREN)

			return ast.Funcall{Name: name, Arguments: args, Loc: loc}
		}

		return ast.Identifier{Name: name, Loc: loc}

	case p.check(token.INTLITERAL):
		lexeme := p.current().Lexeme
		p.advance()
		value, _ := strconv.ParseInt(lexeme, 10, 64)
		return ast.Integer{Value: value, Loc: loc}

	case p.check(token.FLOATLITERAL):
		lexeme := p.current().Lexeme
		p.advance()
		value, _ := strconv.ParseFloat(lexeme, 64)
		return ast.Floating{Value: value, Loc: loc}

	case p.check(token.TRUE):
		p.advance()
		return ast.Boolean{Value: true, Loc: loc}

	case p.check(token.FALSE):
		p.advance()
		return ast.Boolean{Value: false, Loc: loc}

	default:
		p.fail(loc, "expected expression")
		panic("unreachable")
	}
}

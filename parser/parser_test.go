package parser

import (
	"reflect"
	"testing"

	"nilan/ast"
	"nilan/diag"
	"nilan/lexer"
)

func parseSource(t *testing.T, src string) (ast.Program, *diag.CollectingSink, bool) {
	t.Helper()
	tokens := lexer.New(src, nil).Scan()
	sink := &diag.CollectingSink{}
	fataled := false
	p := New(tokens, sink, func() { fataled = true })
	program, _ := p.ParseProgram()
	return program, sink, fataled
}

func TestParseEmptyFunction(t *testing.T) {
	program, _, fataled := parseSource(t, "def f(): void { }")
	if fataled {
		t.Fatalf("unexpected fatal")
	}
	if len(program.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(program.Functions))
	}
	fn := program.Functions[0]
	if fn.Signature.Name != "f" || fn.Signature.ReturnType != "void" || len(fn.Signature.Parameters) != 0 {
		t.Errorf("unexpected signature: %+v", fn.Signature)
	}
	if len(fn.Body.Statements) != 0 {
		t.Errorf("expected empty body, got %d statements", len(fn.Body.Statements))
	}
}

func TestParseParametersAndReturn(t *testing.T) {
	program, _, fataled := parseSource(t, "def sum(a: int, b: int): int { return a + b; }")
	if fataled {
		t.Fatalf("unexpected fatal")
	}
	fn := program.Functions[0]
	wantParams := []ast.Parameter{
		{Name: "a", Type: "int", Loc: fn.Signature.Parameters[0].Loc},
		{Name: "b", Type: "int", Loc: fn.Signature.Parameters[1].Loc},
	}
	if !reflect.DeepEqual(fn.Signature.Parameters, wantParams) {
		t.Errorf("Parameters = %+v, want %+v", fn.Signature.Parameters, wantParams)
	}

	ret, ok := fn.Body.Statements[0].(ast.Return)
	if !ok {
		t.Fatalf("expected Return statement, got %T", fn.Body.Statements[0])
	}
	binary, ok := ret.Expr.(ast.Binary)
	if !ok || binary.Op != ast.Add {
		t.Errorf("expected Add binary, got %+v", ret.Expr)
	}
}

func TestLeftAssociativity(t *testing.T) {
	program, _, _ := parseSource(t, "def f(): int { return 1 + 2 + 3; }")
	ret := program.Functions[0].Body.Statements[0].(ast.Return)

	outer, ok := ret.Expr.(ast.Binary)
	if !ok || outer.Op != ast.Add {
		t.Fatalf("expected outer Add, got %+v", ret.Expr)
	}
	inner, ok := outer.LHS.(ast.Binary)
	if !ok || inner.Op != ast.Add {
		t.Fatalf("expected (a+b)+c left-leaning shape, got LHS %+v", outer.LHS)
	}
	if _, ok := outer.RHS.(ast.Integer); !ok {
		t.Errorf("expected RHS to be the literal 3, got %+v", outer.RHS)
	}
}

func TestPrecedenceMulBindsTighterThanAdd(t *testing.T) {
	program, _, _ := parseSource(t, "def f(): int { return 1 + 2 * 3; }")
	ret := program.Functions[0].Body.Statements[0].(ast.Return)

	top, ok := ret.Expr.(ast.Binary)
	if !ok || top.Op != ast.Add {
		t.Fatalf("expected top-level Add, got %+v", ret.Expr)
	}
	if _, ok := top.LHS.(ast.Integer); !ok {
		t.Errorf("expected LHS to be literal 1, got %+v", top.LHS)
	}
	rhs, ok := top.RHS.(ast.Binary)
	if !ok || rhs.Op != ast.Mul {
		t.Errorf("expected RHS to be Mul, got %+v", top.RHS)
	}
}

func TestPrecedenceComparisonOverArithmetic(t *testing.T) {
	program, _, _ := parseSource(t, "def f(): bool { return 1 == 2 + 3; }")
	ret := program.Functions[0].Body.Statements[0].(ast.Return)

	top, ok := ret.Expr.(ast.Binary)
	if !ok || top.Op != ast.Equal {
		t.Fatalf("expected top-level Equal, got %+v", ret.Expr)
	}
	if _, ok := top.RHS.(ast.Binary); !ok {
		t.Errorf("expected RHS to be Add binary, got %+v", top.RHS)
	}
}

func TestPrecedenceOrAndSameLevelLeftAssoc(t *testing.T) {
	program, _, _ := parseSource(t, "def f(): bool { return true or false and true; }")
	ret := program.Functions[0].Body.Statements[0].(ast.Return)

	top, ok := ret.Expr.(ast.Binary)
	if !ok || top.Op != ast.And {
		t.Fatalf("expected top-level And ((a or b) and c), got %+v", ret.Expr)
	}
	lhs, ok := top.LHS.(ast.Binary)
	if !ok || lhs.Op != ast.Or {
		t.Errorf("expected LHS to be Or, got %+v", top.LHS)
	}
}

func TestFuncallArguments(t *testing.T) {
	program, _, _ := parseSource(t, "def f(): int { return g(1, 2); }")
	ret := program.Functions[0].Body.Statements[0].(ast.Return)

	call, ok := ret.Expr.(ast.Funcall)
	if !ok {
		t.Fatalf("expected Funcall, got %T", ret.Expr)
	}
	if call.Name != "g" || len(call.Arguments) != 2 {
		t.Errorf("unexpected funcall: %+v", call)
	}
}

func TestFuncallEmptyArguments(t *testing.T) {
	program, _, _ := parseSource(t, "def f(): int { return g(); }")
	ret := program.Functions[0].Body.Statements[0].(ast.Return)
	call := ret.Expr.(ast.Funcall)
	if len(call.Arguments) != 0 {
		t.Errorf("expected no arguments, got %d", len(call.Arguments))
	}
}

func TestBareReturn(t *testing.T) {
	program, _, _ := parseSource(t, "def f(): void { return; }")
	ret := program.Functions[0].Body.Statements[0].(ast.Return)
	if ret.Expr != nil {
		t.Errorf("expected nil Expr for bare return, got %+v", ret.Expr)
	}
}

func TestNestedBlock(t *testing.T) {
	program, _, _ := parseSource(t, "def f(): void { { let x = 1; } }")
	_, ok := program.Functions[0].Body.Statements[0].(ast.Block)
	if !ok {
		t.Fatalf("expected nested Block, got %T", program.Functions[0].Body.Statements[0])
	}
}

func TestSyntaxErrorCallsOnFatal(t *testing.T) {
	_, sink, fataled := parseSource(t, "def f(): void { let x 1; }")
	if !fataled {
		t.Fatalf("expected onFatal to be invoked")
	}
	if len(sink.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", sink.Errors)
	}
}

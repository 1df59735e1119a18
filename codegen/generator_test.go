package codegen

import (
	"bytes"
	"strings"
	"testing"

	"nilan/compiler"
	"nilan/lexer"
	"nilan/parser"
)

func generate(t *testing.T, src string) []string {
	t.Helper()
	tokens := lexer.New(src, nil).Scan()
	p := parser.New(tokens, nil, func() { t.Fatalf("unexpected parse failure for: %s", src) })
	program, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parse error for %q: %v", src, err)
	}
	checked, err := compiler.New(nil).CheckProgram(program)
	if err != nil {
		t.Fatalf("check error for %q: %v", src, err)
	}
	var buf bytes.Buffer
	if err := New(&buf).GenerateProgram(checked); err != nil {
		t.Fatalf("codegen error for %q: %v", src, err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	return lines
}

func countOccurrences(lines []string, substr string) int {
	n := 0
	for _, line := range lines {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

// S2: a simple sum lowers a+b to the two operand loads followed by a single
// add, inside a full prologue/epilogue. Which registers the loads target is
// pinned separately by TestIdentifierPrimaryUsesLastNotLastPlusOne.
func TestSimpleSumEmitsPrologueAddEpilogue(t *testing.T) {
	lines := generate(t, "def sum(a: int, b: int): int { return a + b; }")

	if lines[0] != "push rbp" || lines[1] != "mov rbp, rsp" || lines[2] != "sub rsp, 16" {
		t.Fatalf("unexpected prologue: %v", lines[:3])
	}
	if countOccurrences(lines, "add ") != 1 {
		t.Errorf("expected exactly one add instruction, got %v", lines)
	}
	last := lines[len(lines)-3:]
	if last[0] != "mov rsp, rbp" || last[1] != "pop rbp" || last[2] != "ret" {
		t.Errorf("unexpected epilogue: %v", last)
	}
}

// S7: `5 + 5 / 2` must emit exactly one xchg, from the LHS-primary /
// RHS-non-primary swap rule.
func TestExactlyOneXchgForMixedPrecedence(t *testing.T) {
	lines := generate(t, "def f(): int { return 5 + 5 / 2; }")
	if n := countOccurrences(lines, "xchg"); n != 1 {
		t.Fatalf("expected exactly one xchg, got %d in %v", n, lines)
	}
	if n := countOccurrences(lines, "div "); n != 1 {
		t.Errorf("expected exactly one div, got %d", n)
	}
}

// Dividing when more than two registers are live triggers the rax-save
// dance around DIV.
func TestDivSavesRaxWhenMoreThanTwoRegistersLive(t *testing.T) {
	lines := generate(t, "def f(): int { return 1 + 2 + 3 / 4; }")
	if countOccurrences(lines, "push rax") != 1 || countOccurrences(lines, "pop rax") != 1 {
		t.Errorf("expected exactly one push/pop rax pair around div, got %v", lines)
	}
}

// Dividing when only two registers are live needs no rax-save.
func TestDivWithoutRaxSaveWhenTwoRegistersLive(t *testing.T) {
	lines := generate(t, "def f(): int { return 1 / 2; }")
	if countOccurrences(lines, "push rax") != 0 {
		t.Errorf("expected no rax-save for a single division, got %v", lines)
	}
	if countOccurrences(lines, "div ") != 1 {
		t.Errorf("expected exactly one div, got %v", lines)
	}
}

// A let assignment stores the expression's result, hard-coded from rax,
// at the stack slot the checker would have assigned the variable.
func TestLetAssignmentStoresFromRax(t *testing.T) {
	lines := generate(t, "def f(): void { let x = 1; return; }")
	found := false
	for _, line := range lines {
		if line == "mov [rbp - 8], rax" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a store to [rbp - 8] from rax, got %v", lines)
	}
}

// Boolean literals lower to a plain 0/1 immediate, the natural extension of
// mov_constant_to_reg beyond the integer-only case the source implements.
func TestBooleanLiteralLowersToImmediate(t *testing.T) {
	lines := generate(t, "def f(): void { let x = true; let y = false; return; }")
	foundTrue, foundFalse := false, false
	for _, line := range lines {
		if strings.HasSuffix(line, ", 1") {
			foundTrue = true
		}
		if strings.HasSuffix(line, ", 0") {
			foundFalse = true
		}
	}
	if !foundTrue {
		t.Errorf("expected a mov ..., 1 for the true literal, got %v", lines)
	}
	if !foundFalse {
		t.Errorf("expected a mov ..., 0 for the false literal, got %v", lines)
	}
}

// Documents the open-question latent bug: an identifier primary loads into
// last_used_reg, not last_used_reg+1, so when no prior step has advanced
// the register stack the load targets the blank zero register.
func TestIdentifierPrimaryUsesLastNotLastPlusOne(t *testing.T) {
	lines := generate(t, "def sum(a: int, b: int): int { return a + b; }")
	if !strings.Contains(lines[3], "mov , qword [rbp - 8]") {
		t.Fatalf("expected the documented blank-register load for the first identifier, got %q", lines[3])
	}
}

// Float primaries are outside this emitter's scope, matching
// original_source/codegen.c's codegen_primary, which asserts unimplemented
// for every primary kind other than integer.
func TestFloatingPrimaryIsUnimplemented(t *testing.T) {
	tokens := lexer.New("def f(): float { return 1.5; }", nil).Scan()
	p := parser.New(tokens, nil, func() { t.Fatalf("unexpected parse failure") })
	program, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	checked, err := compiler.New(nil).CheckProgram(program)
	if err != nil {
		t.Fatalf("check error: %v", err)
	}
	var buf bytes.Buffer
	err = New(&buf).GenerateProgram(checked)
	if err == nil {
		t.Fatalf("expected codegen to report floating-point primaries as unimplemented")
	}
	if _, ok := err.(compiler.DeveloperError); !ok {
		t.Errorf("expected a DeveloperError, got %T: %v", err, err)
	}
}

// A function with no explicit return still gets a complete epilogue.
func TestVoidFunctionWithoutExplicitReturnStillGetsEpilogue(t *testing.T) {
	lines := generate(t, "def f(): void { let x = 1; }")
	last := lines[len(lines)-3:]
	if last[0] != "mov rsp, rbp" || last[1] != "pop rbp" || last[2] != "ret" {
		t.Errorf("unexpected epilogue: %v", last)
	}
}

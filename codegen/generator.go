// Package codegen lowers a checked program to textual x86-64 assembly: an
// ad-hoc register-stack emitter with no allocator and no spilling beyond
// the rax-save convention around DIV.
package codegen

import (
	"fmt"
	"io"

	"nilan/ast"
	"nilan/compiler"
)

type functionInfo struct {
	returnSize int
}

// Generator walks a checked program's AST and writes one instruction per
// line to out. Its register stack and current frame are the same two
// pieces of state spec.md's Compiler state threads through codegen,
// rebuilt here over the already-checked AST instead of shared live with the
// checker's own scope.
type Generator struct {
	out       io.Writer
	registers Stack[Register]
	frame     *frame
	frameSize int
	functions map[string]functionInfo
}

// New creates a Generator that writes assembly text to out.
func New(out io.Writer) *Generator {
	return &Generator{out: out, functions: map[string]functionInfo{}}
}

func (g *Generator) emit(format string, args ...any) {
	fmt.Fprintf(g.out, format+"\n", args...)
}

// topReg is the register stack's current top, RegNone if nothing has been
// pushed onto it yet (the fresh-function starting state).
func (g *Generator) topReg() Register {
	if r, ok := g.registers.Peek(); ok {
		return r
	}
	return RegNone
}

// GenerateProgram emits every checked function in source order.
func (g *Generator) GenerateProgram(checked []compiler.CheckedFunction) error {
	for _, fn := range checked {
		g.functions[fn.Compiled.Name] = functionInfo{returnSize: fn.Compiled.ReturnType.Size}
	}
	for _, fn := range checked {
		if err := g.GenerateFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

// GenerateFunction emits one function's prologue, body, and (if its body
// doesn't already end in a return) a trailing epilogue. The prologue is a
// supplement original_source/main.c's hand-assembled smoke test never
// needed: push rbp; mov rbp, rsp; sub rsp, <frame_size>, sized off the
// checker's frame high-water mark.
func (g *Generator) GenerateFunction(fn compiler.CheckedFunction) error {
	g.registers = nil
	g.frameSize = 0
	g.pushFrame()

	g.emit("push rbp")
	g.emit("mov rbp, rsp")
	g.emit("sub rsp, %d", fn.FrameSize)

	for _, param := range fn.Compiled.Parameters {
		g.insertVariable(param.Name, param.Type.Size)
	}

	terminated := false
	for _, stmt := range fn.Definition.Body.Statements {
		t, err := g.codegenStatement(stmt)
		if err != nil {
			g.popFrame()
			return err
		}
		terminated = t
	}
	g.popFrame()

	if !terminated {
		g.codegenEpilogue()
	}
	return nil
}

func (g *Generator) codegenEpilogue() {
	// add rsp, <frame_size> is deliberately not emitted here: mov rsp, rbp
	// already restores rsp from rbp, making a separate deallocation
	// redundant, matching original_source/codegen.c's epilogue shape.
	g.emit("mov rsp, rbp")
	g.emit("pop rbp")
	g.emit("ret")
}

func (g *Generator) codegenStatement(stmt ast.Stmt) (bool, error) {
	switch s := stmt.(type) {
	case ast.Block:
		return g.codegenBlock(s)
	case ast.LetAssignment:
		return false, g.codegenLetAssignment(s)
	case ast.Return:
		return true, g.codegenReturn(s)
	default:
		return false, compiler.DeveloperError{Message: fmt.Sprintf("codegen: unhandled statement %T", stmt)}
	}
}

func (g *Generator) codegenBlock(block ast.Block) (bool, error) {
	g.pushFrame()
	terminated := false
	for _, stmt := range block.Statements {
		t, err := g.codegenStatement(stmt)
		if err != nil {
			g.popFrame()
			return terminated, err
		}
		terminated = t
	}
	g.popFrame()
	return terminated, nil
}

// codegenLetAssignment evaluates the RHS then stores rax unconditionally —
// hard-coded in original_source/codegen.c on the assumption that the
// register stack was empty before the assignment, so the expression's
// result always lands in rax.
func (g *Generator) codegenLetAssignment(let ast.LetAssignment) error {
	size, err := g.sizeOf(let.Expr)
	if err != nil {
		return err
	}
	if err := g.codegenExpression(let.Expr); err != nil {
		return err
	}
	v := g.insertVariable(let.Name, size)
	g.emit("mov [rbp - %d], rax", v.address+v.size)
	return nil
}

// codegenReturn generates the expression (if any) then the function
// epilogue. codegen_return has no body in original_source/codegen.c (only
// declared in codegen.h); this is the textual lowering spec.md §4.4
// describes in its place.
func (g *Generator) codegenReturn(ret ast.Return) error {
	if ret.Expr != nil {
		if err := g.codegenExpression(ret.Expr); err != nil {
			return err
		}
	}
	g.codegenEpilogue()
	return nil
}

func isPrimary(expr ast.Expression) bool {
	_, isBinary := expr.(ast.Binary)
	return !isBinary
}

func (g *Generator) codegenExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case ast.Integer:
		return g.codegenIntegerPrimary(e)
	case ast.Boolean:
		return g.codegenBooleanPrimary(e)
	case ast.Identifier:
		return g.codegenIdentifierPrimary(e)
	case ast.Floating:
		return compiler.DeveloperError{Message: "codegen: floating-point primaries are unimplemented"}
	case ast.Funcall:
		return compiler.DeveloperError{Message: fmt.Sprintf("codegen: call to '%s' is unimplemented", e.Name)}
	case ast.Binary:
		return g.codegenBinary(e)
	default:
		return compiler.DeveloperError{Message: fmt.Sprintf("codegen: unhandled expression %T", expr)}
	}
}

func (g *Generator) codegenIntegerPrimary(integer ast.Integer) error {
	g.movConstantToReg(g.topReg()+1, integer.Value)
	return nil
}

// codegenBooleanPrimary extends original_source/codegen.c's integer-only
// codegen_primary (which asserts unimplemented for anything else) to the
// other literal the register stack can hold as a plain 0/1 immediate.
func (g *Generator) codegenBooleanPrimary(boolean ast.Boolean) error {
	value := int64(0)
	if boolean.Value {
		value = 1
	}
	g.movConstantToReg(g.topReg()+1, value)
	return nil
}

func (g *Generator) movConstantToReg(dst Register, value int64) {
	g.emit("mov %s, %d", dst, value)
	g.registers.Push(dst)
}

// codegenIdentifierPrimary loads into the register stack's current top,
// not the next free register above it — a latent inconsistency with the
// integer/boolean case, carried over verbatim per spec.md §9's instruction
// to document it rather than silently fix it. Accordingly it never pushes:
// an identifier leaf leaves the register stack exactly as it found it.
func (g *Generator) codegenIdentifierPrimary(id ast.Identifier) error {
	v := g.findVariable(id.Name)
	if v == nil {
		return compiler.DeveloperError{Message: fmt.Sprintf("codegen: unresolved variable '%s'", id.Name)}
	}
	g.emit("mov %s, qword [rbp - %d]", g.topReg(), v.address+v.size)
	return nil
}

func (g *Generator) codegenBinary(b ast.Binary) error {
	if isPrimary(b.LHS) && !isPrimary(b.RHS) {
		if err := g.codegenExpression(b.RHS); err != nil {
			return err
		}
		if err := g.codegenExpression(b.LHS); err != nil {
			return err
		}
		g.emit("xchg %s, %s", g.topReg()-1, g.topReg())
	} else {
		if err := g.codegenExpression(b.LHS); err != nil {
			return err
		}
		if err := g.codegenExpression(b.RHS); err != nil {
			return err
		}
	}
	return g.codegenBinop(b.Op)
}

// codegenBinop mirrors codegen_binop exactly for the four arithmetic
// operators it lowers: the instruction consumes the top two registers on
// the stack and the result lives in the new top after popping one off. The
// eight boolean-producing operators (==, !=, <, >, <=, >=, or, and) have no
// lowering in original_source/codegen.c either — its switch falls through
// to assert(false && "unimplemented") for them, same as the non-integer
// primaries above.
func (g *Generator) codegenBinop(op ast.BinaryOp) error {
	top := g.topReg()
	switch op {
	case ast.Add:
		g.emit("add %s, %s", top-1, top)
	case ast.Sub:
		g.emit("sub %s, %s", top-1, top)
	case ast.Mul:
		g.emit("imul %s, %s", top-1, top)
	case ast.Div:
		if top > RBX {
			g.emit("push rax")
			g.emit("mov %s, %s", RAX, top-1)
			g.emit("div %s", top)
			g.emit("mov %s, %s", top-1, RAX)
			g.emit("pop rax")
		} else {
			g.emit("div %s", top)
		}
	default:
		return compiler.DeveloperError{Message: fmt.Sprintf("codegen: unimplemented binary operator '%s'", op)}
	}
	g.registers.Pop()
	return nil
}

// sizeOf recovers the byte footprint a let-bound expression's result needs
// in its stack slot, without redoing any of the checker's validation — the
// checker already proved the program well-typed, so this is bookkeeping
// only: literals have a fixed size, an identifier's size is whatever slot
// it already occupies, a funcall's is its callee's return type, and a
// binary's is its LHS's (the checker already proved both operands agree).
func (g *Generator) sizeOf(expr ast.Expression) (int, error) {
	switch e := expr.(type) {
	case ast.Integer:
		return 8, nil
	case ast.Floating:
		return 8, nil
	case ast.Boolean:
		return 1, nil
	case ast.Identifier:
		v := g.findVariable(e.Name)
		if v == nil {
			return 0, compiler.DeveloperError{Message: fmt.Sprintf("codegen: unresolved variable '%s'", e.Name)}
		}
		return v.size, nil
	case ast.Funcall:
		info, ok := g.functions[e.Name]
		if !ok {
			return 0, compiler.DeveloperError{Message: fmt.Sprintf("codegen: unresolved function '%s'", e.Name)}
		}
		return info.returnSize, nil
	case ast.Binary:
		return g.sizeOf(e.LHS)
	default:
		return 0, compiler.DeveloperError{Message: fmt.Sprintf("codegen: unhandled expression %T", expr)}
	}
}

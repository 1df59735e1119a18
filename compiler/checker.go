// Package compiler implements the type-and-scope checker: AST in, checked
// functions with frame layout and a function table out.
package compiler

import (
	"fmt"

	"nilan/ast"
	"nilan/diag"
	"nilan/token"
)

// Compiler holds all state threaded through a single checking pass: the
// current scope chain, the running frame size (and its high-water mark,
// used to size the function prologue codegen emits), and the flat,
// insertion-ordered function table.
type Compiler struct {
	scope     *Scope
	frameSize int

	// peakFrameSize is the largest frameSize has reached since the last
	// reset, used to size a function's stack frame for codegen. Unlike
	// frameSize, popScope never shrinks it back down.
	peakFrameSize int

	functions []CompiledFunction
	sink      diag.Sink
}

// New creates an empty Compiler. sink may be nil to discard diagnostics.
func New(sink diag.Sink) *Compiler {
	return &Compiler{sink: sink}
}

// CheckedFunction pairs a checked function's AST with the frame size its
// code generator needs to allocate (params plus every local ever live at
// once, not merely those live when the body finishes checking).
type CheckedFunction struct {
	Definition ast.FunctionDefinition
	Compiled   CompiledFunction
	FrameSize  int
}

// CheckProgram checks every function definition in source order. A
// function is inserted into the function table only once its own body
// checks clean, so a call is valid only against a function whose
// definition was checked earlier — no forward references.
func (c *Compiler) CheckProgram(program ast.Program) ([]CheckedFunction, error) {
	checked := make([]CheckedFunction, 0, len(program.Functions))
	for _, fn := range program.Functions {
		cf, err := c.checkFunctionDefinition(fn)
		if err != nil {
			if c.sink != nil {
				if se, ok := err.(SemanticError); ok {
					c.sink.Error(se.Location, se.Message)
				}
			}
			return checked, err
		}
		checked = append(checked, cf)
	}
	return checked, nil
}

func (c *Compiler) checkFunctionDefinition(fn ast.FunctionDefinition) (CheckedFunction, error) {
	compiled, err := c.checkFunctionSignature(fn.Signature)
	if err != nil {
		return CheckedFunction{}, err
	}

	c.peakFrameSize = 0
	c.pushScope()
	for _, param := range compiled.Parameters {
		c.insertVar(CompiledVariable{Name: param.Name, Type: param.Type, Address: c.frameSize})
	}

	sawReturn, err := c.checkBlock(fn.Body, compiled.ReturnType)
	if err != nil {
		c.popScope()
		return CheckedFunction{}, err
	}
	if !sawReturn && compiled.ReturnType.Kind != Void {
		c.popScope()
		return CheckedFunction{}, newError(UnexpectedType, fn.Body.Loc,
			"function '%s' declares return type '%s' but has no return statement", fn.Signature.Name, compiled.ReturnType.Repr)
	}

	frameSize := c.peakFrameSize
	c.popScope()

	c.functions = append(c.functions, compiled)

	return CheckedFunction{Definition: fn, Compiled: compiled, FrameSize: frameSize}, nil
}

func (c *Compiler) checkFunctionSignature(sig ast.FunctionSignature) (CompiledFunction, error) {
	if c.findFunction(sig.Name) != nil {
		return CompiledFunction{}, newError(FunAlreadyExists, sig.Loc, "function '%s' already exists", sig.Name)
	}

	returnType, err := c.resolveType(sig.ReturnType, sig.Loc)
	if err != nil {
		return CompiledFunction{}, err
	}

	seen := make(map[string]bool, len(sig.Parameters))
	params := make([]CompiledParameter, 0, len(sig.Parameters))
	for _, p := range sig.Parameters {
		if seen[p.Name] {
			return CompiledFunction{}, newError(VarAlreadyExists, p.Loc, "duplicate parameter '%s'", p.Name)
		}
		seen[p.Name] = true

		t, err := c.resolveType(p.Type, p.Loc)
		if err != nil {
			return CompiledFunction{}, err
		}
		if !t.ValidVariableType {
			return CompiledFunction{}, newError(UnexpectedType, p.Loc, "type '%s' is not valid for a parameter", t.Repr)
		}
		params = append(params, CompiledParameter{Name: p.Name, Type: t})
	}

	return CompiledFunction{Name: sig.Name, ReturnType: returnType, Parameters: params}, nil
}

func (c *Compiler) resolveType(name string, loc token.Location) (TypeInfo, error) {
	t, ok := BuiltinTypeInfo(name)
	if !ok {
		return TypeInfo{}, newError(TypeNotExists, loc, "no such type '%s'", name)
	}
	return t, nil
}

// checkBlock checks a block's statements in order inside a scope of their
// own. A block statement opening its own scope is a deliberate addition:
// the source's compile_block never pushes one, but the Data Model
// invariants and the shadowing property both describe nested blocks as
// hiding their outer bindings, which only holds if entering one pushes a
// scope. sawReturn reports whether any statement directly in block (or one
// of its nested blocks) was a return, so the caller can enforce that a
// non-void function actually returns on every definite path it checks.
func (c *Compiler) checkBlock(block ast.Block, declared TypeInfo) (bool, error) {
	c.pushScope()
	sawReturn := false
	for _, stmt := range block.Statements {
		returned, err := c.checkStatement(stmt, declared)
		if err != nil {
			c.popScope()
			return sawReturn, err
		}
		if returned {
			sawReturn = true
		}
	}
	c.popScope()
	return sawReturn, nil
}

func (c *Compiler) checkStatement(stmt ast.Stmt, declared TypeInfo) (bool, error) {
	switch s := stmt.(type) {
	case ast.Block:
		return c.checkBlock(s, declared)
	case ast.LetAssignment:
		return false, c.checkLetAssignment(s)
	case ast.Return:
		return true, c.checkReturn(s, declared)
	default:
		return false, DeveloperError{Message: fmt.Sprintf("checkStatement: unhandled statement %T", stmt)}
	}
}

func (c *Compiler) checkLetAssignment(let ast.LetAssignment) error {
	t, err := c.checkExpression(let.Expr)
	if err != nil {
		return err
	}
	if !t.ValidVariableType {
		return newError(UnexpectedType, let.Loc, "type '%s' is not valid for a variable", t.Repr)
	}
	for _, v := range c.scope.vars {
		if v.Name == let.Name {
			return newError(VarAlreadyExists, let.Loc, "cannot declare '%s' since it already exists", let.Name)
		}
	}
	c.insertVar(CompiledVariable{Name: let.Name, Type: t, Address: c.frameSize})
	return nil
}

// checkReturn enforces the stricter return-type rule: a return's expression
// (if any) must have exactly the declared return type, and a void-declared
// function must use a bare return.
func (c *Compiler) checkReturn(ret ast.Return, declared TypeInfo) error {
	if ret.Expr == nil {
		if declared.Kind != Void {
			return newError(UnexpectedType, ret.Loc, "expected a return value of type '%s'", declared.Repr)
		}
		return nil
	}
	if declared.Kind == Void {
		return newError(UnexpectedType, ret.Loc, "function returns void but a value was given")
	}
	t, err := c.checkExpression(ret.Expr)
	if err != nil {
		return err
	}
	if t.Kind != declared.Kind {
		return newError(UnexpectedType, ret.Loc, "expected return type '%s', got '%s'", declared.Repr, t.Repr)
	}
	return nil
}

func (c *Compiler) checkExpression(expr ast.Expression) (TypeInfo, error) {
	switch e := expr.(type) {
	case ast.Integer:
		t, _ := BuiltinTypeInfo("int")
		return t, nil
	case ast.Floating:
		t, _ := BuiltinTypeInfo("float")
		return t, nil
	case ast.Boolean:
		t, _ := BuiltinTypeInfo("bool")
		return t, nil
	case ast.Identifier:
		return c.checkIdentifier(e)
	case ast.Funcall:
		return c.checkFuncall(e)
	case ast.Binary:
		return c.checkBinary(e)
	default:
		return TypeInfo{}, DeveloperError{Message: fmt.Sprintf("checkExpression: unhandled expression %T", expr)}
	}
}

func (c *Compiler) checkIdentifier(id ast.Identifier) (TypeInfo, error) {
	v := c.findVariable(id.Name)
	if v == nil {
		return TypeInfo{}, newError(VarNotExists, id.Loc, "no such variable '%s'", id.Name)
	}
	return v.Type, nil
}

func (c *Compiler) checkFuncall(call ast.Funcall) (TypeInfo, error) {
	fn := c.findFunction(call.Name)
	if fn == nil {
		return TypeInfo{}, newError(FunNotExists, call.Loc, "no such function '%s'", call.Name)
	}
	if len(call.Arguments) != len(fn.Parameters) {
		return TypeInfo{}, newError(FunArityNotMatch, call.Loc,
			"function '%s' expects %d argument(s), got %d", call.Name, len(fn.Parameters), len(call.Arguments))
	}
	for i, arg := range call.Arguments {
		t, err := c.checkExpression(arg)
		if err != nil {
			return TypeInfo{}, err
		}
		param := fn.Parameters[i]
		if t.Kind != param.Type.Kind {
			return TypeInfo{}, newError(TypeMismatch, arg.Location(),
				"argument %d of '%s' expects type '%s', got '%s'", i+1, call.Name, param.Type.Repr, t.Repr)
		}
	}
	return fn.ReturnType, nil
}

// checkBinary mirrors check_valid_binop's order exactly: operand kinds must
// match before anything else is checked, then the operator family (boolean
// vs arithmetic) validates both operand kinds, then an ordering operator
// additionally demands ValidOrderingOperand.
func (c *Compiler) checkBinary(b ast.Binary) (TypeInfo, error) {
	lhs, err := c.checkExpression(b.LHS)
	if err != nil {
		return TypeInfo{}, err
	}
	rhs, err := c.checkExpression(b.RHS)
	if err != nil {
		return TypeInfo{}, err
	}
	if lhs.Kind != rhs.Kind {
		return TypeInfo{}, newError(TypeMismatch, b.Loc,
			"mismatched operand types '%s' and '%s' for '%s'", lhs.Repr, rhs.Repr, b.Op)
	}

	if b.Op.IsBoolProducing() {
		if !lhs.ValidBooleanOperand {
			return TypeInfo{}, newError(TypeInvalidOperands, b.Loc,
				"type '%s' is not a valid operand for '%s'", lhs.Repr, b.Op)
		}
	} else {
		if !lhs.ValidArithmeticOperand {
			return TypeInfo{}, newError(TypeInvalidOperands, b.Loc,
				"type '%s' is not a valid operand for '%s'", lhs.Repr, b.Op)
		}
	}

	if b.Op.IsOrdering() && !lhs.ValidOrderingOperand {
		return TypeInfo{}, newError(TypeInvalidOperands, b.Loc,
			"type '%s' is not a valid operand for '%s'", lhs.Repr, b.Op)
	}

	if b.Op.IsBoolProducing() {
		boolType, _ := BuiltinTypeInfo("bool")
		return boolType, nil
	}
	return lhs, nil
}

// function.go contains the top-level function definition nodes. These sit
// above the Expression/Statement visitor hierarchy: a program is simply an
// ordered sequence of FunctionDefinition values, checked and code-generated
// in source order.

package ast

import "nilan/token"

// Parameter is one entry of a function signature's parameter list.
type Parameter struct {
	Name string
	Type string // type name as written in source; resolved during checking
	Loc  token.Location
}

func (p Parameter) Location() token.Location { return p.Loc }

// FunctionSignature is a function's name, parameter list, and declared
// return type name.
type FunctionSignature struct {
	Name       string
	Parameters []Parameter
	ReturnType string
	Loc        token.Location
}

func (s FunctionSignature) Location() token.Location { return s.Loc }

// FunctionDefinition is a signature paired with its body.
type FunctionDefinition struct {
	Signature FunctionSignature
	Body      Block
	Loc       token.Location
}

func (f FunctionDefinition) Location() token.Location { return f.Loc }

// Program is the ordered sequence of top-level function definitions that a
// single source file compiles to.
type Program struct {
	Functions []FunctionDefinition
}

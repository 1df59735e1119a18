package compiler

// CompiledParameter is a resolved function parameter: name and type only
// (no address — parameters get their frame address when the caller pushes
// the function's scope and inserts them as CompiledVariable values).
type CompiledParameter struct {
	Name string
	Type TypeInfo
}

// CompiledFunction is a checked function's call-site contract: its return
// type and ordered parameter list. The function table holds one of these
// per definition, in source (insertion) order.
type CompiledFunction struct {
	Name       string
	ReturnType TypeInfo
	Parameters []CompiledParameter
}

// findFunction looks up a previously-checked function by name. Because the
// table is populated strictly in source order and never searched until a
// function has been fully checked, a call to f only resolves if f's
// definition was checked earlier in the source.
func (c *Compiler) findFunction(name string) *CompiledFunction {
	for i := range c.functions {
		if c.functions[i].Name == name {
			return &c.functions[i]
		}
	}
	return nil
}

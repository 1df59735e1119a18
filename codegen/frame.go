package codegen

// variable is one binding's frame layout as codegen rebuilds it: the offset
// its slot starts at and the number of bytes it occupies. The checker
// already computed and validated this same layout; codegen redoes the
// bookkeeping (not the validation) over the now-checked AST so each stage
// can be driven and tested independently.
type variable struct {
	name    string
	address int
	size    int
}

// frame is one entry of codegen's scope chain, mirroring compiler.Scope.
type frame struct {
	parent *frame
	vars   []variable
}

func newFrame(parent *frame) *frame {
	return &frame{parent: parent}
}

func (g *Generator) pushFrame() {
	g.frame = newFrame(g.frame)
}

// popFrame closes the current frame, shrinking frameSize back down so a
// sibling block can reuse the same stack slots — mirroring
// compiler.popScope exactly, since the prologue's sub rsp was already sized
// off the checker's frameSize high-water mark, not the sum of all slots
// ever allocated.
func (g *Generator) popFrame() {
	current := g.frame
	g.frame = current.parent

	dealloc := 0
	for _, v := range current.vars {
		dealloc += v.size
	}
	g.frameSize -= dealloc
}

func (g *Generator) insertVariable(name string, size int) variable {
	v := variable{name: name, address: g.frameSize, size: size}
	g.frame.vars = append(g.frame.vars, v)
	g.frameSize += size
	return v
}

// findVariable walks the frame chain innermost-first, matching
// compiler.findVariable's documented (innermost-wins) resolution.
func (g *Generator) findVariable(name string) *variable {
	for f := g.frame; f != nil; f = f.parent {
		var found *variable
		for i := range f.vars {
			if f.vars[i].name == name {
				found = &f.vars[i]
			}
		}
		if found != nil {
			return found
		}
	}
	return nil
}

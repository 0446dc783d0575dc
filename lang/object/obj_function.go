package object

import "fmt"

// Function is a compiled function: its arity, its upvalue count, its
// compiled chunk, and an optional name (absent for the top-level script).
type Function struct {
	header
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *String // nil for the top-level script
}

// NewFunction returns a Function under construction; the caller fills in
// Chunk, Arity and UpvalueCount as compilation of its body proceeds.
func NewFunction() *Function { return &Function{Chunk: NewChunk()} }

func (f *Function) objKind() objKind { return objFunction }
func (f *Function) typeName() string { return "function" }

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

func (f *Function) trace(h *Heap) {
	if f.Name != nil {
		h.mark(f.Name)
	}
	for _, c := range f.Chunk.Constants {
		h.markValue(c)
	}
}

func (f *Function) approxSize() uintptr {
	return uintptr(64 + len(f.Chunk.Code) + len(f.Chunk.Constants)*16)
}

package object

import "fmt"

// Closure wraps a Function together with the upvalues it captured at
// creation time. len(Upvalues) always equals Function.UpvalueCount.
type Closure struct {
	header
	Function *Function
	Upvalues []*Upvalue
}

// NewClosure returns a Closure over fn with space for its upvalues.
func NewClosure(fn *Function) *Closure {
	return &Closure{Function: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
}

func (c *Closure) objKind() objKind { return objClosure }
func (c *Closure) typeName() string { return "closure" }
func (c *Closure) String() string   { return fmt.Sprintf("<closure %s>", c.Function) }

func (c *Closure) trace(h *Heap) {
	h.mark(c.Function)
	for _, uv := range c.Upvalues {
		if uv != nil {
			h.mark(uv)
		}
	}
}

func (c *Closure) approxSize() uintptr {
	return uintptr(16 + len(c.Upvalues)*8)
}

package object

import "fmt"

// Class is a runtime class object: its name and its method table. A
// subclass receives a *copy* of its superclass's method table at
// class-creation time (OpInherit), rather than walking a superclass chain
// at dispatch time.
type Class struct {
	header
	Name    *String
	Methods *Table
}

// NewClass returns a new, method-less class named name.
func NewClass(name *String) *Class {
	return &Class{Name: name, Methods: NewTable()}
}

func (c *Class) objKind() objKind { return objClass }
func (c *Class) typeName() string { return "class" }
func (c *Class) String() string   { return fmt.Sprintf("<class %s>", c.Name.Chars) }

func (c *Class) trace(h *Heap) {
	h.mark(c.Name)
	c.Methods.trace(h)
}

func (c *Class) approxSize() uintptr {
	return uintptr(32 + c.Methods.approxSize())
}

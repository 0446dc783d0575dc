package object

import "fmt"

// Instance is a runtime instance of a Class, holding its own field table.
type Instance struct {
	header
	Class  *Class
	Fields *Table
}

// NewInstance returns a fresh, field-less instance of class.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: NewTable()}
}

func (i *Instance) objKind() objKind { return objInstance }
func (i *Instance) typeName() string { return "instance" }
func (i *Instance) String() string   { return fmt.Sprintf("<%s instance>", i.Class.Name.Chars) }

func (i *Instance) trace(h *Heap) {
	h.mark(i.Class)
	i.Fields.trace(h)
}

func (i *Instance) approxSize() uintptr {
	return uintptr(32 + i.Fields.approxSize())
}

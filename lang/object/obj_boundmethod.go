package object

import "fmt"

// BoundMethod pairs a receiver with the Closure implementing one of its
// class's methods, produced whenever a method is accessed as a value
// rather than called immediately via
// OpInvoke.
type BoundMethod struct {
	header
	Receiver Value
	Method   *Closure
}

// NewBoundMethod returns method bound to receiver.
func NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	return &BoundMethod{Receiver: receiver, Method: method}
}

func (b *BoundMethod) objKind() objKind { return objBoundMethod }
func (b *BoundMethod) typeName() string { return "bound method" }
func (b *BoundMethod) String() string   { return fmt.Sprintf("<bound %s>", b.Method.Function) }

func (b *BoundMethod) trace(h *Heap) {
	h.markValue(b.Receiver)
	h.mark(b.Method)
}

func (b *BoundMethod) approxSize() uintptr { return 24 }

package object

import "fmt"

// NativeFn is the calling convention for host-provided native functions:
// given the argument count and a slice of exactly that many arguments,
// it returns a result value or a runtime error.
type NativeFn func(args []Value) (Value, error)

// Native is a heap object wrapping a host function pointer and its
// declared arity. Equality between Native values is by reference
// identity.
type Native struct {
	header
	Name  string
	Arity int
	Fn    NativeFn
}

// NewNative returns a Native wrapping fn, reporting itself as name/arity
// in error messages and disassembly.
func NewNative(name string, arity int, fn NativeFn) *Native {
	return &Native{Name: name, Arity: arity, Fn: fn}
}

func (n *Native) objKind() objKind { return objNative }
func (n *Native) typeName() string { return "native" }
func (n *Native) String() string   { return fmt.Sprintf("<native fn %s>", n.Name) }
func (n *Native) trace(h *Heap)    {}
func (n *Native) approxSize() uintptr { return 32 }

// Package object implements the runtime data model shared by the compiler
// and the virtual machine: the tagged Value union, the heap object kinds
// that back it, the bytecode Chunk format, the open-addressed Table used
// for interning and globals, and the tracing garbage collector that owns
// every heap object's lifetime.
package object

import (
	"fmt"
	"strconv"
)

// Kind discriminates the tag of a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is a tagged union over nil, boolean, 64-bit float and heap-object
// reference. It is deliberately small and copyable so that it can live
// directly on the operand stack and in local slots without a separate
// allocation.
type Value struct {
	kind Kind
	num  float64
	obj  Obj
}

// Nil is the singular nil value.
var Nil = Value{kind: KindNil}

// Bool returns the Value for the given boolean.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool, num: 0}
}

// Number returns the Value wrapping a 64-bit float.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// FromObj returns the Value referencing a heap object.
func FromObj(o Obj) Value { return Value{kind: KindObj, obj: o} }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool    { return v.kind == KindObj }

func (v Value) AsBool() bool      { return v.num != 0 }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsObj() Obj        { return v.obj }

// IsString reports whether v holds a *String object.
func (v Value) IsString() bool {
	if v.kind != KindObj {
		return false
	}
	_, ok := v.obj.(*String)
	return ok
}

// AsString returns the underlying Go string of a string Value. It panics if
// v is not a string, matching the VM's "trust the compiler" discipline for
// internal invariants.
func (v Value) AsString() string { return v.obj.(*String).Chars }

// Truthy reports the truthiness of v: nil and false are falsey, everything
// else, including 0 and the empty string, is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.num != 0
	default:
		return true
	}
}

// Equal reports whether v and o are equal: value equality for primitives,
// reference identity for heap objects (which, for strings, is made
// equivalent to byte equality by interning).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool, KindNumber:
		return v.num == o.num
	case KindObj:
		return v.obj == o.obj
	default:
		return false
	}
}

// TypeName returns a short string describing the value's type, used in
// runtime error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObj:
		return v.obj.typeName()
	default:
		return "unknown"
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.num)
	case KindObj:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Obj is implemented by every heap object kind. It is embedded in the
// Value union via FromObj/AsObj rather than switched on directly by most
// callers, which instead use the typed accessors (String, Function,
// Closure, ...) after a type switch or assertion.
type Obj interface {
	fmt.Stringer
	objKind() objKind
	typeName() string

	marked() bool
	setMarked(bool)
	next() Obj
	setNext(Obj)
	// trace pushes every Obj this object directly references onto the
	// collector's grey worklist.
	trace(h *Heap)
	// approxSize estimates the bytes this object contributes to
	// bytes_allocated, driving the allocation-triggered GC heuristic.
	approxSize() uintptr
}

type objKind uint8

const (
	objString objKind = iota
	objFunction
	objClosure
	objUpvalue
	objClass
	objInstance
	objBoundMethod
	objNative
)

// header is embedded by every concrete Obj implementation. It carries the
// GC mark bit and the intrusive singly-linked heap-object list pointer.
type header struct {
	mark bool
	nxt  Obj
}

func (h *header) marked() bool     { return h.mark }
func (h *header) setMarked(b bool) { h.mark = b }
func (h *header) next() Obj        { return h.nxt }
func (h *header) setNext(o Obj)    { h.nxt = o }

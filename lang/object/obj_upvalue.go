package object

// Upvalue is a reference to a local variable captured by a closure. While
// open, Location points into a live call frame's stack slot; Close copies
// the value into Closed and repoints Location at it, implementing
// OpCloseUpvalue's semantics.
//
// The VM tracks which upvalues are open (and in what order to close them)
// itself, keyed by stack slot rather than through a field on Upvalue.
type Upvalue struct {
	header
	Location *Value
	Closed   Value
}

// NewUpvalue returns an open Upvalue pointing at slot.
func NewUpvalue(slot *Value) *Upvalue {
	return &Upvalue{Location: slot}
}

// IsOpen reports whether the upvalue still refers to a live stack slot.
func (u *Upvalue) IsOpen() bool { return u.Location != &u.Closed }

// Close closes the upvalue over its current value, after which Location
// points at the Closed field regardless of where the original stack slot
// goes.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

func (u *Upvalue) objKind() objKind { return objUpvalue }
func (u *Upvalue) typeName() string { return "upvalue" }
func (u *Upvalue) String() string   { return "<upvalue>" }

func (u *Upvalue) trace(h *Heap) {
	h.markValue(*u.Location)
}

func (u *Upvalue) approxSize() uintptr { return 32 }

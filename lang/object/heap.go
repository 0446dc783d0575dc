package object

// RootProvider is implemented by every component that owns live references
// to heap objects outside the Heap itself: the compiler (functions under
// construction) and the VM (the operand stack, call frames, globals table,
// and open-upvalue list). The Heap never imports those packages; instead it
// calls back into them through this interface at the start of every GC
// cycle.
type RootProvider interface {
	MarkRoots(h *Heap)
}

// Config groups the collector's tunables. Zero value is not usable;
// construct via DefaultConfig and override as needed.
type Config struct {
	// InitialNextGC is the bytes_allocated threshold that triggers the
	// first collection.
	InitialNextGC uintptr
	// GrowthFactor multiplies bytes_allocated (after a collection) to
	// compute the next threshold.
	GrowthFactor float64
	// StressGC, when true, runs a collection before every single
	// allocation, for shaking out GC bugs in tests.
	StressGC bool
}

// DefaultConfig returns the collector's default tuning, matching clox's
// own constants.
func DefaultConfig() Config {
	return Config{
		InitialNextGC: 1 << 20, // 1 MiB
		GrowthFactor:  2.0,
	}
}

// Heap owns every allocated object's lifetime: it allocates, interns
// strings, and runs a mark-and-sweep collector.
type Heap struct {
	cfg Config

	objects Obj // head of the intrusive linked list of every live object
	strings *Table // intern table, weakly swept after tracing

	bytesAllocated uintptr
	nextGC         uintptr

	grey []Obj // grey worklist used during Trace

	roots []RootProvider

	// LogCycle, if set, is called with (before, after bytesAllocated) at
	// the end of every collection, for debug tracing.
	LogCycle func(before, after uintptr)
}

// NewHeap returns an empty Heap configured per cfg.
func NewHeap(cfg Config) *Heap {
	return &Heap{
		cfg:     cfg,
		strings: NewTable(),
		nextGC:  cfg.InitialNextGC,
	}
}

// Register adds rp to the set of root providers consulted at the start of
// every collection. The compiler registers itself while compiling, the VM
// registers itself for its entire lifetime.
func (h *Heap) Register(rp RootProvider) {
	h.roots = append(h.roots, rp)
}

// Unregister removes rp, e.g. once the compiler has finished and its
// in-progress Function roots are now reachable only via the VM.
func (h *Heap) Unregister(rp RootProvider) {
	for i, r := range h.roots {
		if r == rp {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// BytesAllocated returns the collector's current live-bytes estimate.
func (h *Heap) BytesAllocated() uintptr { return h.bytesAllocated }

// maybeCollect runs a collection if the allocation-triggered heuristic
// fires, or unconditionally under StressGC. Every NewXxx allocator below
// calls this *before* constructing the new object, so a collection never
// runs while an about-to-be-rooted object exists that isn't reachable
// from any root yet.
func (h *Heap) maybeCollect() {
	if h.cfg.StressGC || h.bytesAllocated > h.nextGC {
		h.Collect()
	}
}

// track adds a newly constructed object to the heap's object list and
// bytes_allocated counter. Every NewXxx allocator calls this exactly once
// on the object it returns.
func (h *Heap) track(o Obj) {
	o.setNext(h.objects)
	h.objects = o
	h.bytesAllocated += o.approxSize()
}

// Collect runs one full mark-and-sweep cycle.
func (h *Heap) Collect() {
	before := h.bytesAllocated

	h.markRoots()
	h.trace()
	h.strings.removeWhite()
	h.sweep()

	h.nextGC = uintptr(float64(h.bytesAllocated) * h.cfg.GrowthFactor)
	if h.nextGC < h.cfg.InitialNextGC {
		h.nextGC = h.cfg.InitialNextGC
	}

	if h.LogCycle != nil {
		h.LogCycle(before, h.bytesAllocated)
	}
}

func (h *Heap) markRoots() {
	for _, rp := range h.roots {
		rp.MarkRoots(h)
	}
}

// mark marks o reachable and pushes it onto the grey worklist, unless it
// is nil or already marked. o may be a nil concrete pointer wrapped in a
// non-nil Obj interface value (e.g. an optional *String field read
// through the interface); the type switch below catches the common
// concrete nil cases before the interface-level nil check, since a nil
// *String boxed in Obj is never == nil itself.
func (h *Heap) mark(o Obj) {
	if o == nil || isNilObj(o) {
		return
	}
	if o.marked() {
		return
	}
	o.setMarked(true)
	h.grey = append(h.grey, o)
}

// isNilObj reports whether o wraps a nil concrete pointer, guarding every
// trace() implementation against the nil-pointer-in-non-nil-interface
// footgun when an optional *String/*Closure/etc. field is passed to mark.
func isNilObj(o Obj) bool {
	switch v := o.(type) {
	case *String:
		return v == nil
	case *Function:
		return v == nil
	case *Closure:
		return v == nil
	case *Upvalue:
		return v == nil
	case *Class:
		return v == nil
	case *Instance:
		return v == nil
	case *BoundMethod:
		return v == nil
	case *Native:
		return v == nil
	default:
		return false
	}
}

// markValue marks the Value's referenced object, if it holds one.
func (h *Heap) markValue(v Value) {
	if v.IsObj() {
		h.mark(v.AsObj())
	}
}

// Mark marks o (and everything it transitively references) reachable. It
// is the entry point RootProvider implementations outside this package
// use from MarkRoots, since mark/markValue are unexported.
func (h *Heap) Mark(o Obj) { h.mark(o) }

// MarkValue marks v's referenced object, if any. See Mark.
func (h *Heap) MarkValue(v Value) { h.markValue(v) }

// trace drains the grey worklist, marking everything each grey object
// directly references.
func (h *Heap) trace() {
	for len(h.grey) > 0 {
		n := len(h.grey) - 1
		o := h.grey[n]
		h.grey = h.grey[:n]
		o.trace(h)
	}
}

// sweep walks the intrusive object list, freeing every unmarked object and
// clearing the mark bit on every surviving one.
func (h *Heap) sweep() {
	var prev Obj
	cur := h.objects
	for cur != nil {
		if cur.marked() {
			cur.setMarked(false)
			prev = cur
			cur = cur.next()
			continue
		}
		dead := cur
		cur = cur.next()
		if prev == nil {
			h.objects = cur
		} else {
			prev.setNext(cur)
		}
		h.bytesAllocated -= dead.approxSize()
	}
}

// InternString returns the canonical *String for chars, allocating and
// interning a new one only if no equal string is already interned.
func (h *Heap) InternString(chars string) *String {
	hash := hashFNV1a(chars)
	if s := h.strings.FindString(chars, hash); s != nil {
		return s
	}
	h.maybeCollect()
	s := &String{Chars: chars, Hash: hash}
	h.track(s)
	// Root s in the intern table itself across the call by setting it
	// before any further allocation can run; Set never allocates a
	// heap object, only grows the table's backing array.
	h.strings.Set(s, Nil)
	return s
}

// NewFunction allocates a new, empty Function.
func (h *Heap) NewFunction() *Function {
	h.maybeCollect()
	f := NewFunction()
	h.track(f)
	return f
}

// NewClosure allocates a Closure over fn.
func (h *Heap) NewClosure(fn *Function) *Closure {
	h.maybeCollect()
	c := NewClosure(fn)
	h.track(c)
	return c
}

// NewUpvalue allocates an open Upvalue over slot.
func (h *Heap) NewUpvalue(slot *Value) *Upvalue {
	h.maybeCollect()
	u := NewUpvalue(slot)
	h.track(u)
	return u
}

// NewClass allocates a new, method-less Class named name.
func (h *Heap) NewClass(name *String) *Class {
	h.maybeCollect()
	c := NewClass(name)
	h.track(c)
	return c
}

// NewInstance allocates a new, field-less Instance of class.
func (h *Heap) NewInstance(class *Class) *Instance {
	h.maybeCollect()
	i := NewInstance(class)
	h.track(i)
	return i
}

// NewBoundMethod allocates a BoundMethod pairing receiver with method.
func (h *Heap) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	h.maybeCollect()
	b := NewBoundMethod(receiver, method)
	h.track(b)
	return b
}

// NewNative allocates a Native wrapping fn.
func (h *Heap) NewNative(name string, arity int, fn NativeFn) *Native {
	h.maybeCollect()
	n := NewNative(name, arity, fn)
	h.track(n)
	return n
}

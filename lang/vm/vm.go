// Package vm implements a stack-based bytecode virtual machine: a
// fixed-size operand stack, a fixed-size call-frame stack, the
// global-variable table, and the call/upvalue/class dispatch rules that
// drive every compiled Function to a result.
package vm

import (
	"fmt"
	"io"

	"github.com/mna/loxa/lang/compiler"
	"github.com/mna/loxa/lang/object"
)

const (
	defaultMaxFrames = 64
	framesStackRatio = 256 // slots per frame: 64 x 256 = 16384
)

// Config groups the VM's tunables, mirroring the field-documentation style
// of nenuphar's lang/machine/thread.go Thread struct.
type Config struct {
	object.Config

	// StackMax bounds the operand stack (default 64*256 = 16384 Values).
	StackMax int
	// MaxFrames bounds recursion depth (default 64).
	MaxFrames int
}

// DefaultConfig returns the VM's default tuning.
func DefaultConfig() Config {
	maxFrames := defaultMaxFrames
	return Config{
		Config:    object.DefaultConfig(),
		StackMax:  maxFrames * framesStackRatio,
		MaxFrames: maxFrames,
	}
}

// VM is the single process-wide interpreter instance. It owns the heap, the
// operand and frame stacks, the globals table, and the open-upvalue set.
type VM struct {
	cfg  Config
	heap *object.Heap
	out  io.Writer

	stack  []object.Value
	frames []frame

	globals *object.Table

	// openUpvalues tracks, for each still-open stack slot, the single
	// shared Upvalue two closures capturing that slot both observe. Kept
	// sorted by descending slot so closeUpvalues can stop at the first
	// entry below floor, without relying on raw pointer arithmetic.
	openUpvalues []openUpvalue

	initString *object.String
}

type openUpvalue struct {
	slot int
	uv   *object.Upvalue
}

// New returns a ready-to-use VM writing PRINT output to out.
func New(cfg Config, out io.Writer) *VM {
	vm := &VM{
		cfg:     cfg,
		heap:    object.NewHeap(cfg.Config),
		out:     out,
		stack:   make([]object.Value, 0, cfg.StackMax),
		globals: object.NewTable(),
	}
	vm.heap.Register(vm)
	vm.initString = vm.heap.InternString("init")
	vm.defineNatives()
	return vm
}

// Heap exposes the VM's heap, e.g. so the CLI can report GC stats.
func (vm *VM) Heap() *object.Heap { return vm.heap }

// MarkRoots implements object.RootProvider: every
// Value on the operand stack, every closure referenced by an active call
// frame, every open upvalue, every key and value in the globals table,
// and the cached "init" string.
func (vm *VM) MarkRoots(h *object.Heap) {
	for _, v := range vm.stack {
		h.MarkValue(v)
	}
	for _, fr := range vm.frames {
		h.Mark(fr.closure)
	}
	for _, ou := range vm.openUpvalues {
		h.Mark(ou.uv)
	}
	vm.globals.Each(func(key *object.String, v object.Value) {
		h.Mark(key)
		h.MarkValue(v)
	})
	h.Mark(vm.initString)
}

// Interpret compiles and runs one program. Compile errors are returned
// without ever reaching the dispatch loop; runtime errors are returned
// as a *RuntimeError after the stack and frame stack have been cleared.
func (vm *VM) Interpret(src []byte) error {
	fn, err := compiler.Compile(src, vm.heap)
	if err != nil {
		return err
	}

	if err := vm.push(object.FromObj(fn)); err != nil {
		return err
	}
	closure := vm.heap.NewClosure(fn)
	vm.stack[len(vm.stack)-1] = object.FromObj(closure)
	if err := vm.callClosure(closure, 0); err != nil {
		vm.resetStacks()
		return err
	}

	if err := vm.run(); err != nil {
		vm.resetStacks()
		return err
	}
	return nil
}

func (vm *VM) resetStacks() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil
}

func (vm *VM) push(v object.Value) *RuntimeError {
	if len(vm.stack) >= vm.cfg.StackMax {
		return vm.runtimeError("stack overflow")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() object.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(distFromTop int) object.Value {
	return vm.stack[len(vm.stack)-1-distFromTop]
}

// run is the fetch-decode-dispatch loop.
func (vm *VM) run() error {
	for {
		fr := &vm.frames[len(vm.frames)-1]
		op := object.Opcode(vm.readByte(fr))

		switch op {
		case object.OpConstant:
			idx := int(vm.readByte(fr))
			if err := vm.push(fr.closure.Function.Chunk.Constants[idx]); err != nil {
				return err
			}
		case object.OpConstantLong:
			idx := vm.readU24(fr)
			if err := vm.push(fr.closure.Function.Chunk.Constants[idx]); err != nil {
				return err
			}
		case object.OpNil:
			if err := vm.push(object.Nil); err != nil {
				return err
			}
		case object.OpTrue:
			if err := vm.push(object.Bool(true)); err != nil {
				return err
			}
		case object.OpFalse:
			if err := vm.push(object.Bool(false)); err != nil {
				return err
			}
		case object.OpNegate:
			v := vm.peek(0)
			if !v.IsNumber() {
				return vm.runtimeError("operand must be a number")
			}
			vm.stack[len(vm.stack)-1] = object.Number(-v.AsNumber())
		case object.OpNot:
			v := vm.pop()
			if err := vm.push(object.Bool(!v.Truthy())); err != nil {
				return err
			}
		case object.OpEqual, object.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			eq := a.Equal(b)
			if op == object.OpNotEqual {
				eq = !eq
			}
			if err := vm.push(object.Bool(eq)); err != nil {
				return err
			}
		case object.OpLess, object.OpLessEqual, object.OpGreater, object.OpGreaterEqual:
			b, a := vm.pop(), vm.pop()
			if !a.IsNumber() || !b.IsNumber() {
				return vm.runtimeError("operands must be numbers")
			}
			var r bool
			switch op {
			case object.OpLess:
				r = a.AsNumber() < b.AsNumber()
			case object.OpLessEqual:
				r = a.AsNumber() <= b.AsNumber()
			case object.OpGreater:
				r = a.AsNumber() > b.AsNumber()
			case object.OpGreaterEqual:
				r = a.AsNumber() >= b.AsNumber()
			}
			if err := vm.push(object.Bool(r)); err != nil {
				return err
			}
		case object.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case object.OpSubtract, object.OpMultiply, object.OpDivide:
			b, a := vm.pop(), vm.pop()
			if !a.IsNumber() || !b.IsNumber() {
				return vm.runtimeError("operands must be numbers")
			}
			var r float64
			switch op {
			case object.OpSubtract:
				r = a.AsNumber() - b.AsNumber()
			case object.OpMultiply:
				r = a.AsNumber() * b.AsNumber()
			case object.OpDivide:
				r = a.AsNumber() / b.AsNumber()
			}
			if err := vm.push(object.Number(r)); err != nil {
				return err
			}
		case object.OpPop:
			vm.pop()
		case object.OpPopN:
			n := int(vm.readByte(fr))
			vm.closeUpvalues(len(vm.stack) - n)
			vm.stack = vm.stack[:len(vm.stack)-n]
		case object.OpDuplicate:
			if err := vm.push(vm.peek(0)); err != nil {
				return err
			}
		case object.OpDefineGlobal:
			if err := vm.defineGlobal(); err != nil {
				return err
			}
		case object.OpGetGlobal:
			if err := vm.getGlobal(); err != nil {
				return err
			}
		case object.OpSetGlobal:
			if err := vm.setGlobal(); err != nil {
				return err
			}
		case object.OpGetLocal:
			slot := int(vm.readByte(fr))
			if err := vm.push(vm.stack[fr.base+slot]); err != nil {
				return err
			}
		case object.OpSetLocal:
			slot := int(vm.readByte(fr))
			vm.stack[fr.base+slot] = vm.peek(0)
		case object.OpGetUpvalue:
			idx := int(vm.readByte(fr))
			if err := vm.push(*fr.closure.Upvalues[idx].Location); err != nil {
				return err
			}
		case object.OpSetUpvalue:
			idx := int(vm.readByte(fr))
			*fr.closure.Upvalues[idx].Location = vm.peek(0)
		case object.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()
		case object.OpJump:
			off := vm.readShort(fr)
			fr.ip += int(off)
		case object.OpJumpIfFalse:
			off := vm.readShort(fr)
			if !vm.peek(0).Truthy() {
				fr.ip += int(off)
			}
		case object.OpCall:
			argc := int(vm.readByte(fr))
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
		case object.OpInvoke:
			idx := int(vm.readByte(fr))
			argc := int(vm.readByte(fr))
			name := fr.closure.Function.Chunk.Constants[idx].AsObj().(*object.String)
			if err := vm.invoke(name, argc); err != nil {
				return err
			}
		case object.OpInvokeLong:
			idx := vm.readU24(fr)
			argc := int(vm.readByte(fr))
			name := fr.closure.Function.Chunk.Constants[idx].AsObj().(*object.String)
			if err := vm.invoke(name, argc); err != nil {
				return err
			}
		case object.OpClosure, object.OpClosureLong:
			if err := vm.closureOp(fr, op); err != nil {
				return err
			}
		case object.OpMethod:
			idx := int(vm.readByte(fr))
			name := fr.closure.Function.Chunk.Constants[idx].AsObj().(*object.String)
			closure := vm.pop().AsObj().(*object.Closure)
			class := vm.peek(0).AsObj().(*object.Class)
			class.Methods.Set(name, object.FromObj(closure))
		case object.OpInherit:
			if err := vm.inherit(); err != nil {
				return err
			}
		case object.OpGetSuper:
			idx := int(vm.readByte(fr))
			name := fr.closure.Function.Chunk.Constants[idx].AsObj().(*object.String)
			if err := vm.getSuper(name); err != nil {
				return err
			}
		case object.OpReturn:
			done, err := vm.doReturn()
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		case object.OpPrint:
			v := vm.pop()
			fmt.Fprintln(vm.out, v.String())
		default:
			return vm.runtimeError("illegal opcode %s", op)
		}
	}
}

// add implements ADD's dual numeric/string behavior. Both
// operands are peeked (not popped) until the result is computed, so they
// stay rooted across the InternString allocation a string concatenation
// performs.
func (vm *VM) add() *RuntimeError {
	b, a := vm.peek(0), vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.stack = vm.stack[:len(vm.stack)-2]
		return vm.push(object.Number(a.AsNumber() + b.AsNumber()))
	case a.IsString() && b.IsString():
		s := vm.heap.InternString(a.AsString() + b.AsString())
		vm.stack = vm.stack[:len(vm.stack)-2]
		return vm.push(object.FromObj(s))
	default:
		return vm.runtimeError("operands must be two numbers or two strings")
	}
}

func (vm *VM) defineGlobal() *RuntimeError {
	value := vm.pop()
	name := vm.pop().AsObj().(*object.String)
	if _, existed := vm.globals.Get(name); existed {
		return vm.runtimeError("global variable %q is already defined", name.Chars)
	}
	vm.globals.Set(name, value)
	return nil
}

func (vm *VM) getGlobal() *RuntimeError {
	name := vm.pop().AsObj().(*object.String)
	v, ok := vm.globals.Get(name)
	if !ok {
		return vm.runtimeError("undefined global %q", name.Chars)
	}
	return vm.push(v)
}

func (vm *VM) setGlobal() *RuntimeError {
	value := vm.peek(0)
	name := vm.peek(1).AsObj().(*object.String)
	if _, ok := vm.globals.Get(name); !ok {
		return vm.runtimeError("assignment to undefined global %q", name.Chars)
	}
	vm.globals.Set(name, value)
	vm.stack[len(vm.stack)-2] = value
	vm.stack = vm.stack[:len(vm.stack)-1]
	return nil
}

func (vm *VM) closureOp(fr *frame, op object.Opcode) *RuntimeError {
	var idx int
	if op == object.OpClosure {
		idx = int(vm.readByte(fr))
	} else {
		idx = vm.readU24(fr)
	}
	fn := fr.closure.Function.Chunk.Constants[idx].AsObj().(*object.Function)

	// Root fn on the stack across NewClosure's allocation, then overwrite
	// the placeholder with the real closure once it exists.
	if err := vm.push(object.FromObj(fn)); err != nil {
		return err
	}
	closure := vm.heap.NewClosure(fn)
	vm.stack[len(vm.stack)-1] = object.FromObj(closure)

	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := vm.readByte(fr)
		index := vm.readByte(fr)
		if isLocal != 0 {
			closure.Upvalues[i] = vm.captureUpvalue(fr.base + int(index))
		} else {
			closure.Upvalues[i] = fr.closure.Upvalues[index]
		}
	}
	return nil
}

func (vm *VM) inherit() *RuntimeError {
	subVal := vm.peek(0)
	supVal := vm.peek(1)
	superclass, ok := supVal.AsObj().(*object.Class)
	if !ok {
		return vm.runtimeError("superclass must be a class")
	}
	subclass := subVal.AsObj().(*object.Class)
	superclass.Methods.Each(func(name *object.String, v object.Value) {
		subclass.Methods.Set(name, v)
	})
	vm.pop() // the subclass duplicate; the superclass below it becomes `super`
	return nil
}

func (vm *VM) getSuper(name *object.String) *RuntimeError {
	superclass := vm.pop().AsObj().(*object.Class)
	method, ok := superclass.Methods.Get(name)
	if !ok {
		return vm.runtimeError("undefined property %q", name.Chars)
	}
	closure := method.AsObj().(*object.Closure)
	receiver := vm.peek(0) // stays rooted on the stack during NewBoundMethod
	bound := vm.heap.NewBoundMethod(receiver, closure)
	vm.stack[len(vm.stack)-1] = object.FromObj(bound)
	return nil
}

// doReturn pops the current frame, closing its upvalues and moving the
// return value down to where the call sat. done is true once the
// outermost (script) frame returns.
func (vm *VM) doReturn() (done bool, rerr *RuntimeError) {
	result := vm.pop()
	fr := &vm.frames[len(vm.frames)-1]
	vm.closeUpvalues(fr.base)
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		vm.pop() // the top-level script closure
		return true, nil
	}
	vm.stack = vm.stack[:fr.base]
	if err := vm.push(result); err != nil {
		return true, err
	}
	return false, nil
}

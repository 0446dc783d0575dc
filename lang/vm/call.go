package vm

import "github.com/mna/loxa/lang/object"

// callValue dispatches a call based on the runtime type of the callee
// sitting argc slots below the top of the stack.
func (vm *VM) callValue(callee object.Value, argc int) *RuntimeError {
	if !callee.IsObj() {
		return vm.runtimeError("can only call functions and classes")
	}
	switch o := callee.AsObj().(type) {
	case *object.Closure:
		return vm.callClosure(o, argc)
	case *object.Native:
		return vm.callNative(o, argc)
	case *object.Class:
		return vm.callClass(o, argc)
	case *object.BoundMethod:
		// Swap the receiver into the callee's own slot, then dispatch the
		// underlying closure exactly like a direct call.
		vm.stack[len(vm.stack)-1-argc] = o.Receiver
		return vm.callClosure(o.Method, argc)
	default:
		return vm.runtimeError("can only call functions and classes")
	}
}

// callClosure pushes a new frame over closure, checking arity and
// frame-depth first.
func (vm *VM) callClosure(closure *object.Closure, argc int) *RuntimeError {
	if argc != closure.Function.Arity {
		return vm.runtimeError("expected %d arguments but got %d", closure.Function.Arity, argc)
	}
	if len(vm.frames) >= vm.cfg.MaxFrames {
		return vm.runtimeError("call stack overflow")
	}
	vm.frames = append(vm.frames, frame{
		closure: closure,
		base:    len(vm.stack) - argc - 1,
	})
	return nil
}

// callNative calls a host function with a copy of its arguments, then
// replaces the callee and its arguments on the stack with the single
// result value.
func (vm *VM) callNative(n *object.Native, argc int) *RuntimeError {
	if argc != n.Arity {
		return vm.runtimeError("expected %d arguments but got %d", n.Arity, argc)
	}
	args := make([]object.Value, argc)
	copy(args, vm.stack[len(vm.stack)-argc:])
	result, err := n.Fn(args)
	if err != nil {
		return vm.runtimeError("call to native function failed: %s", err.Error())
	}
	vm.stack = vm.stack[:len(vm.stack)-argc-1]
	return vm.push(result)
}

// callClass constructs a new Instance of class, then runs its init
// method (if any) as an ordinary method call over the instance. A class
// with no init requires argc == 0.
func (vm *VM) callClass(class *object.Class, argc int) *RuntimeError {
	instance := vm.heap.NewInstance(class)
	vm.stack[len(vm.stack)-1-argc] = object.FromObj(instance)

	initVal, ok := class.Methods.Get(vm.initString)
	if !ok {
		if argc != 0 {
			return vm.runtimeError("expected 0 arguments but got %d", argc)
		}
		return nil
	}
	return vm.callClosure(initVal.AsObj().(*object.Closure), argc)
}

// invoke implements OpInvoke's fused property-lookup-and-call: it first
// checks the receiver's own fields (a field can shadow a method), falling
// back to a method lookup and a direct closure call without materializing
// an intermediate BoundMethod.
func (vm *VM) invoke(name *object.String, argc int) *RuntimeError {
	receiverVal := vm.peek(argc)
	instance, ok := receiverVal.AsObj().(*object.Instance)
	if !ok {
		return vm.runtimeError("only instances have methods")
	}
	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-1-argc] = field
		return vm.callValue(field, argc)
	}
	method, ok := instance.Class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("undefined property %q", name.Chars)
	}
	return vm.callClosure(method.AsObj().(*object.Closure), argc)
}

// captureUpvalue returns the shared Upvalue for the stack slot at the
// given absolute index, reusing an already-open one if two closures
// capture the same local.
func (vm *VM) captureUpvalue(slot int) *object.Upvalue {
	for _, ou := range vm.openUpvalues {
		if ou.slot == slot {
			return ou.uv
		}
		if ou.slot < slot {
			break
		}
	}
	uv := vm.heap.NewUpvalue(&vm.stack[slot])

	i := 0
	for i < len(vm.openUpvalues) && vm.openUpvalues[i].slot > slot {
		i++
	}
	vm.openUpvalues = append(vm.openUpvalues, openUpvalue{})
	copy(vm.openUpvalues[i+1:], vm.openUpvalues[i:])
	vm.openUpvalues[i] = openUpvalue{slot: slot, uv: uv}
	return uv
}

// closeUpvalues closes every open upvalue at or above floor, copying each
// captured local's current value out of the stack before the frame that
// owns it is popped.
func (vm *VM) closeUpvalues(floor int) {
	i := 0
	for i < len(vm.openUpvalues) && vm.openUpvalues[i].slot >= floor {
		vm.openUpvalues[i].uv.Close()
		i++
	}
	vm.openUpvalues = vm.openUpvalues[i:]
}

package vm

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mna/loxa/lang/object"
)

// startTime anchors the clock native's "seconds since program start"
// reading. It is set once, when the package is initialized, and is
// shared by every VM in the process.
var startTime = time.Now()

// defineNatives registers every built-in native as a global, binding host
// functions as ordinary globals rather than reserved keywords.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", 0, nativeClock)
	vm.defineNative("rand", 0, nativeRand)
	vm.defineNative("sqrt", 1, nativeSqrt)
	vm.defineNative("len", 1, vm.nativeLen)
	vm.defineNative("print", 1, vm.nativePrint)
	vm.defineNative("hasProp", 2, vm.nativeHasProp)
	vm.defineNative("getProp", 2, vm.nativeGetProp)
	vm.defineNative("setProp", 3, vm.nativeSetProp)
	vm.defineNative("delProp", 2, vm.nativeDelProp)
}

func (vm *VM) defineNative(name string, arity int, fn object.NativeFn) {
	n := vm.heap.NewNative(name, arity, fn)
	// Root n on the stack across the Set call below, mirroring the
	// allocation discipline OpClosure/add follow: Set itself never
	// allocates, but keeping n on the stack until it's safely in the
	// globals table costs nothing and documents the invariant.
	vm.stack = append(vm.stack, object.FromObj(n))
	nameStr := vm.heap.InternString(name)
	vm.globals.Set(nameStr, object.FromObj(n))
	vm.pop()
}

func nativeClock(args []object.Value) (object.Value, error) {
	return object.Number(time.Since(startTime).Seconds()), nil
}

func nativeRand(args []object.Value) (object.Value, error) {
	return object.Number(rand.Float64()), nil
}

func nativeSqrt(args []object.Value) (object.Value, error) {
	v := args[0]
	if !v.IsNumber() {
		return object.Nil, fmt.Errorf("sqrt: argument must be a number")
	}
	if v.AsNumber() < 0 {
		return object.Nil, fmt.Errorf("sqrt: argument must not be negative")
	}
	return object.Number(math.Sqrt(v.AsNumber())), nil
}

func (vm *VM) nativeLen(args []object.Value) (object.Value, error) {
	v := args[0]
	if !v.IsString() {
		return object.Nil, fmt.Errorf("len: argument must be a string")
	}
	return object.Number(float64(len(v.AsString()))), nil
}

func (vm *VM) nativePrint(args []object.Value) (object.Value, error) {
	fmt.Fprintln(vm.out, args[0].String())
	return object.Nil, nil
}

func (vm *VM) asInstance(v object.Value, who string) (*object.Instance, error) {
	if v.IsObj() {
		if inst, ok := v.AsObj().(*object.Instance); ok {
			return inst, nil
		}
	}
	return nil, fmt.Errorf("%s: first argument must be an instance", who)
}

func (vm *VM) asPropName(v object.Value, who string) (*object.String, error) {
	if !v.IsString() {
		return nil, fmt.Errorf("%s: property name must be a string", who)
	}
	return vm.heap.InternString(v.AsString()), nil
}

func (vm *VM) nativeHasProp(args []object.Value) (object.Value, error) {
	inst, err := vm.asInstance(args[0], "hasProp")
	if err != nil {
		return object.Nil, err
	}
	name, err := vm.asPropName(args[1], "hasProp")
	if err != nil {
		return object.Nil, err
	}
	if _, ok := inst.Fields.Get(name); ok {
		return object.Bool(true), nil
	}
	_, ok := inst.Class.Methods.Get(name)
	return object.Bool(ok), nil
}

func (vm *VM) nativeGetProp(args []object.Value) (object.Value, error) {
	inst, err := vm.asInstance(args[0], "getProp")
	if err != nil {
		return object.Nil, err
	}
	name, err := vm.asPropName(args[1], "getProp")
	if err != nil {
		return object.Nil, err
	}
	if v, ok := inst.Fields.Get(name); ok {
		return v, nil
	}
	if m, ok := inst.Class.Methods.Get(name); ok {
		bound := vm.heap.NewBoundMethod(args[0], m.AsObj().(*object.Closure))
		return object.FromObj(bound), nil
	}
	return object.Nil, fmt.Errorf("getProp: undefined property %q", name.Chars)
}

func (vm *VM) nativeSetProp(args []object.Value) (object.Value, error) {
	inst, err := vm.asInstance(args[0], "setProp")
	if err != nil {
		return object.Nil, err
	}
	name, err := vm.asPropName(args[1], "setProp")
	if err != nil {
		return object.Nil, err
	}
	inst.Fields.Set(name, args[2])
	return args[2], nil
}

func (vm *VM) nativeDelProp(args []object.Value) (object.Value, error) {
	inst, err := vm.asInstance(args[0], "delProp")
	if err != nil {
		return object.Nil, err
	}
	name, err := vm.asPropName(args[1], "delProp")
	if err != nil {
		return object.Nil, err
	}
	inst.Fields.Delete(name)
	return object.Nil, nil
}

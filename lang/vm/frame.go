package vm

import "github.com/mna/loxa/lang/object"

// frame is one active call: the closure being executed, an instruction
// pointer into its function's chunk, and a base index into the VM's
// shared operand stack. Slot 0 relative to base is the called value
// itself; slots 1..arity are the arguments; everything above is locals
// and temporaries.
type frame struct {
	closure *object.Closure
	ip      int
	base    int
}

func (vm *VM) readByte(fr *frame) byte {
	b := fr.closure.Function.Chunk.Code[fr.ip]
	fr.ip++
	return b
}

// readShort reads a signed 16-bit jump offset, big-endian, matching
// emitJump/patchJump's encoding in the compiler.
func (vm *VM) readShort(fr *frame) int16 {
	hi := vm.readByte(fr)
	lo := vm.readByte(fr)
	return int16(uint16(hi)<<8 | uint16(lo))
}

// readU24 reads a 24-bit big-endian constant-pool index, matching the
// compiler's _LONG opcode encoding.
func (vm *VM) readU24(fr *frame) int {
	hi := vm.readByte(fr)
	mid := vm.readByte(fr)
	lo := vm.readByte(fr)
	return int(hi)<<16 | int(mid)<<8 | int(lo)
}

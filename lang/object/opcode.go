package object

import "fmt"

// Opcode identifies a bytecode instruction.
type Opcode uint8

//nolint:revive
const (
	OpConstant     Opcode = iota // u8 pool index
	OpConstantLong               // u24 pool index
	OpNil
	OpTrue
	OpFalse
	OpNegate
	OpNot
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpPop
	OpPopN // u8 count
	OpDuplicate
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetLocal   // u8 slot
	OpSetLocal   // u8 slot
	OpGetUpvalue // u8 index
	OpSetUpvalue // u8 index
	OpCloseUpvalue
	OpJump         // i16 offset
	OpJumpIfFalse  // i16 offset
	OpCall         // u8 argc
	OpInvoke       // u8 nameConst, u8 argc
	OpInvokeLong   // u24 nameConst, u8 argc
	OpClosure      // u8 funcConst, then upvalue pairs
	OpClosureLong  // u24 funcConst, then upvalue pairs
	OpMethod       // u8 nameConst
	OpInherit
	OpGetSuper  // u8 nameConst
	OpReturn
	OpPrint

	maxOpcode
)

var opcodeNames = [...]string{
	OpConstant:     "constant",
	OpConstantLong: "constant_long",
	OpNil:          "nil",
	OpTrue:         "true",
	OpFalse:        "false",
	OpNegate:       "negate",
	OpNot:          "not",
	OpEqual:        "equal",
	OpNotEqual:     "not_equal",
	OpLess:         "less",
	OpLessEqual:    "less_equal",
	OpGreater:      "greater",
	OpGreaterEqual: "greater_equal",
	OpAdd:          "add",
	OpSubtract:     "subtract",
	OpMultiply:     "multiply",
	OpDivide:       "divide",
	OpPop:          "pop",
	OpPopN:         "popn",
	OpDuplicate:    "duplicate",
	OpDefineGlobal: "define_global",
	OpGetGlobal:    "get_global",
	OpSetGlobal:    "set_global",
	OpGetLocal:     "get_local",
	OpSetLocal:     "set_local",
	OpGetUpvalue:   "get_upvalue",
	OpSetUpvalue:   "set_upvalue",
	OpCloseUpvalue: "close_upvalue",
	OpJump:         "jump",
	OpJumpIfFalse:  "jump_if_false",
	OpCall:         "call",
	OpInvoke:       "invoke",
	OpInvokeLong:   "invoke_long",
	OpClosure:      "closure",
	OpClosureLong:  "closure_long",
	OpMethod:       "method",
	OpInherit:      "inherit",
	OpGetSuper:     "get_super",
	OpReturn:       "return",
	OpPrint:        "print",
}

func (op Opcode) String() string {
	if op < maxOpcode {
		if n := opcodeNames[op]; n != "" {
			return n
		}
	}
	return fmt.Sprintf("illegal opcode (%d)", op)
}

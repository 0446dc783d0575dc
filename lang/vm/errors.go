package vm

import (
	"fmt"
	"strings"
)

// RuntimeError is returned by Interpret for a failure during bytecode
// execution: an operator applied to the wrong type, an undefined global,
// a failed native call, a stack/frame overflow, and so on.
// It carries the full innermost-first call stack at the point of failure.
type RuntimeError struct {
	Message string
	Trace   []string // one line per frame, innermost first: "[line N] in <fn NAME>"
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, line := range e.Trace {
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return b.String()
}

// runtimeError builds a RuntimeError stamped with the current call stack,
// newest frame first, matching clox's runtimeError trace order.
func (vm *VM) runtimeError(format string, args ...any) *RuntimeError {
	re := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		line := fr.closure.Function.Chunk.LineAt(fr.ip - 1)
		name := "script"
		if fr.closure.Function.Name != nil {
			name = fr.closure.Function.String()
		}
		re.Trace = append(re.Trace, fmt.Sprintf("[line %d] in %s", line, name))
	}
	return re
}

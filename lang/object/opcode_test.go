package object

import (
	"strings"
	"testing"
)

func TestOpcodeString(t *testing.T) {
	for op := Opcode(0); op < maxOpcode; op++ {
		if opcodeNames[op] == "" {
			t.Errorf("missing string representation of opcode %d", op)
		}
		if s := op.String(); strings.Contains(s, "illegal") {
			t.Errorf("invalid string representation of opcode %d", op)
		}
	}
	if s := maxOpcode.String(); !strings.Contains(s, "illegal") {
		t.Errorf("expected maxOpcode to report as illegal, got %q", s)
	}
}

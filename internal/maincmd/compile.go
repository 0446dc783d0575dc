package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/loxa/lang/compiler"
	"github.com/mna/loxa/lang/object"
)

// Compile compiles each named file and prints the disassembled bytecode
// of every function reachable from the top-level script, without running
// it.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var firstErr error
	for _, path := range args {
		if err := compileFile(stdio, path); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func compileFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	heap := object.NewHeap(object.DefaultConfig())
	fn, err := compiler.Compile(src, heap)
	if err != nil {
		return err
	}
	fmt.Fprint(stdio.Stdout, fn.Chunk.Disassemble("<script>"))
	disassembleNested(stdio, fn.Chunk)
	return nil
}

// disassembleNested walks every function folded into chunk's constants
// pool and disassembles it too, recursively, so nested functions and
// methods show up in `compile` output the same way top-level ones do.
func disassembleNested(stdio mainer.Stdio, chunk *object.Chunk) {
	for _, cst := range chunk.Constants {
		if !cst.IsObj() {
			continue
		}
		fn, ok := cst.AsObj().(*object.Function)
		if !ok {
			continue
		}
		name := "<anonymous>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		fmt.Fprint(stdio.Stdout, fn.Chunk.Disassemble(name))
		disassembleNested(stdio, fn.Chunk)
	}
}

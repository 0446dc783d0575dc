package maincmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/loxa/lang/vm"
)

// Run implements the default command-line contract: zero paths enters a
// line-based REPL, one path compiles and runs that file with exit codes
// 0/65/70, and more than one path is a usage error (rejected earlier, in
// Validate).
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	switch len(args) {
	case 0:
		return c.repl(ctx, stdio)
	case 1:
		return c.runFile(ctx, stdio, args[0])
	default:
		fmt.Fprint(stdio.Stderr, shortUsage)
		return &exitCodeError{code: int(mainer.InvalidArgs)}
	}
}

func (c *Cmd) runFile(ctx context.Context, stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return &exitCodeError{code: 70}
	}

	machine := vm.New(c.vmConfig(), stdio.Stdout)
	if err := machine.Interpret(src); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		var rerr *vm.RuntimeError
		if errors.As(err, &rerr) {
			return &exitCodeError{code: 70}
		}
		return &exitCodeError{code: 65}
	}
	return nil
}

// repl evaluates one line at a time against a single persistent VM, so
// globals declared on one line remain visible on the next.
func (c *Cmd) repl(ctx context.Context, stdio mainer.Stdio) error {
	machine := vm.New(c.vmConfig(), stdio.Stdout)
	scan := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			return scan.Err()
		}
		line := scan.Text()
		if err := machine.Interpret([]byte(line)); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
		}
	}
}

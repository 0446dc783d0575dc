// Package maincmd owns the CLI wiring for the loxa interpreter: argument
// parsing, dispatch to the run/tokenize/compile commands, and exit-code
// selection, following the organization of nenuphar's own
// internal/maincmd package.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"

	"github.com/mna/loxa/lang/vm"
)

const binName = "loxa"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<path>]
       %[1]s tokenize <path>...
       %[1]s compile <path>...
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<path>]
       %[1]s tokenize <path>...
       %[1]s compile <path>...
       %[1]s -h|--help
       %[1]s -v|--version

Bytecode compiler and virtual machine for the %[1]s scripting language.

With no <path>, enters a line-based REPL reading from standard input until
EOF. With one <path>, compiles and runs the named script, exiting 0 on
success, 65 on a compile error, 70 on a runtime error.

The <command> can be one of:
       tokenize                  Scan the named file(s) and print their
                                 token stream, one token per line.
       compile                  Compile the named file(s) and print the
                                 disassembled bytecode of every function,
                                 without running it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --stress-gc               Run a GC cycle before every allocation.

Environment variables (override the VM's default tuning):
       LOXA_GC_GROWTH_FACTOR     Heap growth factor after each collection.
       LOXA_STRESS_GC            Same as --stress-gc.

More information on the %[1]s repository:
       https://github.com/mna/loxa
`, binName)
)

// envConfig overrides vm.Config fields from the environment.
type envConfig struct {
	GrowthFactor float64 `env:"LOXA_GC_GROWTH_FACTOR" envDefault:"2.0"`
	StressGC     bool    `env:"LOXA_STRESS_GC" envDefault:"false"`
}

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help     bool `flag:"h,help"`
	Version  bool `flag:"v,version"`
	StressGC bool `flag:"stress-gc"`

	args    []string
	flags   map[string]bool
	cmdFn   func(context.Context, mainer.Stdio, []string) error
	cmdArgs []string
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		c.cmdFn = c.Run
		c.cmdArgs = nil
		return nil
	}

	commands := buildCmds(c)
	if fn, ok := commands[c.args[0]]; ok {
		if len(c.args[1:]) == 0 {
			return fmt.Errorf("%s: at least one file must be provided", c.args[0])
		}
		c.cmdFn = fn
		c.cmdArgs = c.args[1:]
		return nil
	}

	if len(c.args) > 1 {
		return errors.New("usage: loxa [<path>]")
	}
	c.cmdFn = c.Run
	c.cmdArgs = c.args
	return nil
}

func (c *Cmd) vmConfig() vm.Config {
	cfg := vm.DefaultConfig()
	var ec envConfig
	if err := env.Parse(&ec); err == nil {
		cfg.GrowthFactor = ec.GrowthFactor
		cfg.StressGC = ec.StressGC
	}
	if c.StressGC {
		cfg.StressGC = true
	}
	return cfg
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.cmdArgs); err != nil {
		if ce, ok := err.(*exitCodeError); ok {
			return mainer.ExitCode(ce.code)
		}
		return mainer.Failure
	}
	return mainer.Success
}

// exitCodeError lets Run report the precise 65/70 exit codes, while every
// other command falls back to mainer.Failure.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string { return fmt.Sprintf("exit %d", e.code) }

// buildCmds reflects over v's methods to find the ones usable as
// sub-commands, mirroring nenuphar's own dispatch-by-reflection
// convention.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		name := strings.ToLower(m.Name)
		if name == "run" {
			continue // Run is the default, not a named sub-command
		}
		cmds[name] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}

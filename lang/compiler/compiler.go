// Package compiler implements the single-pass Pratt-parser compiler: it
// consumes a token stream and emits bytecode directly as it parses,
// performing lexical scope analysis, upvalue resolution for closures, and
// inline constant folding.
package compiler

import (
	"math"

	"github.com/mna/loxa/lang/object"
	"github.com/mna/loxa/lang/token"
)

// funcType distinguishes the kind of function a Compiler is assembling,
// since methods and initializers reserve local slot 0 for the receiver
// while plain functions and the top-level script do not.
type funcType int

const (
	funcTypeScript funcType = iota
	funcTypeFunction
	funcTypeMethod
	funcTypeInitializer
)

// maxLocals and maxUpvalues bound the fixed-size arrays a real call frame
// would allocate; exceeding either is a compile error.
const (
	maxLocals   = math.MaxUint8 + 1
	maxUpvalues = math.MaxUint8 + 1
	maxArgs     = math.MaxUint8
)

// local is one entry in a Compiler's slot table.
type local struct {
	name       token.Token
	depth      int // -1 until the declaring initializer has been emitted
	isConst    bool
	isCaptured bool
}

const depthUninitialized = -1

// upvalueRef records how a function captures a variable from an enclosing
// function: either by lifting one of the enclosing function's own locals
// (isLocal true, index = local slot), or by forwarding one of the
// enclosing function's own upvalues (isLocal false, index = upvalue
// index), threading "non-local" upvalues through each intermediate frame.
type upvalueRef struct {
	index   byte
	isLocal bool
}

// loopState tracks one active loop so break/continue can be compiled:
// continueTarget is the bytecode offset `continue` jumps back to, depth
// is the scope depth at loop entry (used to compute how many locals a
// break/continue must pop), and breakJumps accumulates the jump
// instructions `break` emits, patched to the loop's end once known.
type loopState struct {
	continueTarget int
	depth          int
	breakJumps     []int
}

// classState tracks the class currently being compiled, so `this` and
// `super` can be resolved and nested class declarations restore their
// enclosing class on exit.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Compiler holds the per-function compilation state: the function object
// under construction, its locals and upvalues, current scope depth, and
// active loops. Each nested function literal gets its own Compiler linked
// to the one enclosing it, one compiler record per function being
// compiled.
type Compiler struct {
	enclosing *Compiler
	function  *object.Function
	funcType  funcType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int

	loops []loopState
}

// newCompiler returns a Compiler for fn, reserving local slot 0 for the
// called value itself for a plain function or the script, or the
// receiver (bound to the name "this") for a method.
func newCompiler(enclosing *Compiler, ft funcType, fn *object.Function) *Compiler {
	c := &Compiler{enclosing: enclosing, function: fn, funcType: ft}
	slot0Name := ""
	if ft == funcTypeMethod || ft == funcTypeInitializer {
		slot0Name = "this"
	}
	c.locals = append(c.locals, local{
		name:  token.Token{Kind: token.IDENT, Lexeme: slot0Name},
		depth: 0,
	})
	return c
}

func (c *Compiler) currentChunk() *object.Chunk { return c.function.Chunk }

// beginScope/endScope bracket a lexical block. endScope pops (and, for
// captured locals, closes) every local declared at the scope being
// exited.
func (c *Compiler) beginScope() { c.scopeDepth++ }

// endScope returns, innermost first, whether each of the scope's locals
// was captured; the caller (Parser) emits the matching pop or close so it
// can attribute the right source line.
func (c *Compiler) endScope() (toClose []bool) {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		n := len(c.locals) - 1
		toClose = append(toClose, c.locals[n].isCaptured)
		c.locals = c.locals[:n]
	}
	return toClose
}

// addLocal declares name as a new local in the current scope, left
// uninitialized until markInitialized is called.
func (c *Compiler) addLocal(name token.Token, isConst bool) bool {
	if len(c.locals) >= maxLocals {
		return false
	}
	c.locals = append(c.locals, local{name: name, depth: depthUninitialized, isConst: isConst})
	return true
}

// markInitialized marks the most recently declared local as ready to be
// read, i.e. sets its depth to the current scope depth. For a
// function-level declaration at global scope, this is a no-op: globals
// are never declared as locals.
func (c *Compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

// resolveLocal searches this Compiler's own locals (innermost scope
// first). The bool result is false (slot ignored) if no local matches.
func (c *Compiler) resolveLocal(name string) (slot int, isConst bool, found bool, uninitialized bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name.Lexeme == name {
			if l.depth == depthUninitialized {
				return 0, false, true, true
			}
			return i, l.isConst, true, false
		}
	}
	return 0, false, false, false
}

// resolveUpvalue resolves name as a captured variable from an enclosing
// function, recursively threading upvalues through every intermediate
// Compiler. Returns found=false if name is not a local anywhere in the
// enclosing chain (i.e. it is global).
func (c *Compiler) resolveUpvalue(name string) (index int, isConst bool, found bool) {
	if c.enclosing == nil {
		return 0, false, false
	}
	if slot, isConst, ok, _ := c.enclosing.resolveLocal(name); ok {
		c.enclosing.locals[slot].isCaptured = true
		idx, _ := c.addUpvalue(byte(slot), true)
		return idx, isConst, true
	}
	if idx, isConst, ok := c.enclosing.resolveUpvalue(name); ok {
		upIdx, _ := c.addUpvalue(byte(idx), false)
		return upIdx, isConst, true
	}
	return 0, false, false
}

// addUpvalue de-duplicates by (index, isLocal) pair and
// appends a new upvalue descriptor otherwise.
func (c *Compiler) addUpvalue(index byte, isLocal bool) (int, bool) {
	for i, uv := range c.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i, true
		}
	}
	if len(c.upvalues) >= maxUpvalues {
		return 0, false
	}
	c.upvalues = append(c.upvalues, upvalueRef{index: index, isLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1, true
}

// inLoop reports whether a loop is currently open.
func (c *Compiler) inLoop() bool { return len(c.loops) > 0 }

func (c *Compiler) currentLoop() *loopState { return &c.loops[len(c.loops)-1] }

func (c *Compiler) pushLoop(continueTarget int) {
	c.loops = append(c.loops, loopState{continueTarget: continueTarget, depth: c.scopeDepth})
}

func (c *Compiler) popLoop() loopState {
	n := len(c.loops) - 1
	l := c.loops[n]
	c.loops = c.loops[:n]
	return l
}

package compiler

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/josharian/intern"
	"github.com/sirupsen/logrus"

	"github.com/mna/loxa/lang/object"
	"github.com/mna/loxa/lang/scanner"
	"github.com/mna/loxa/lang/token"
)

// Debug gates disassembly logging emitted at the end of every function's
// compilation, in the manner of rami3l/golox's debug.DEBUG switch.
var Debug = false

// Parser drives the single-pass compile: it owns the token cursor, the
// chain of per-function Compilers, and the accumulated compile errors.
// There is exactly one Parser per call to Compile.
type Parser struct {
	scanner *scanner.Scanner
	heap    *object.Heap

	prev, cur token.Token

	compiler *Compiler
	class    *classState

	// constGlobals records every global declared with `const`, checked by
	// namedVariable to reject reassignment.
	constGlobals map[string]bool

	errs      *multierror.Error
	panicMode bool
}

// Compile parses src and emits a top-level Function wrapping the whole
// program. The heap is used for every string and function allocation
// performed during compilation and is registered as a GC root source for
// the duration of the call.
func Compile(src []byte, heap *object.Heap) (*object.Function, error) {
	p := &Parser{
		scanner:      scanner.New(src),
		heap:         heap,
		constGlobals: map[string]bool{},
	}
	script := heap.NewFunction()
	p.compiler = newCompiler(nil, funcTypeScript, script)
	heap.Register(p)
	defer heap.Unregister(p)

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	fn := p.endCompiler()
	return fn, p.errs.ErrorOrNil()
}

// MarkRoots implements object.RootProvider: every function currently
// under construction anywhere in the enclosing chain (and its folded
// constants) is a GC root while compilation is in progress.
func (p *Parser) MarkRoots(h *object.Heap) {
	for c := p.compiler; c != nil; c = c.enclosing {
		h.Mark(c.function)
	}
}

/* token stream */

func (p *Parser) advance() {
	p.prev = p.cur
	for {
		p.cur = p.scanner.Scan()
		if p.cur.Kind != token.ILLEGAL {
			break
		}
		p.errorAt(p.cur, p.cur.Lexeme)
	}
}

func (p *Parser) check(k token.Kind) bool { return p.cur.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(k token.Kind, msg string) {
	if p.check(k) {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

/* error reporting */

func (p *Parser) errorAtCurrent(msg string) { p.errorAt(p.cur, msg) }
func (p *Parser) error(msg string)          { p.errorAt(p.prev, msg) }

func (p *Parser) errorAt(tok token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	ce := &compileError{Line: tok.Line, Message: msg}
	if tok.Kind == token.EOF {
		ce.AtEnd = true
	} else {
		ce.Lexeme = tok.Lexeme
	}
	p.errs = multierror.Append(p.errs, ce)
	if Debug {
		logrus.Debugln(ce.Error())
	}
}

// sync implements panic-mode recovery: skip tokens until a statement
// boundary (a semicolon just consumed, or a keyword that starts a new
// declaration/statement).
func (p *Parser) sync() {
	p.panicMode = false
	for !p.check(token.EOF) {
		if p.prev.Kind == token.SEMICOLON {
			return
		}
		switch p.cur.Kind {
		case token.CLASS, token.FUN, token.VAR, token.CONST, token.FOR,
			token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

/* emission */

func (p *Parser) currentChunk() *object.Chunk { return p.compiler.currentChunk() }

func (p *Parser) emitByte(b byte) { p.currentChunk().Write(b, p.prev.Line) }

func (p *Parser) emitOp(op object.Opcode) { p.emitByte(byte(op)) }

func (p *Parser) emitOps(ops ...object.Opcode) {
	for _, op := range ops {
		p.emitOp(op)
	}
}

// emitConstant folds v into the current chunk's constants pool and emits
// either the short (u8 index) or long (u24 index) form: the 256th
// constant still fits short form, the 257th requires long form.
func (p *Parser) emitConstant(short, long object.Opcode, v object.Value) {
	idx := p.currentChunk().AddConstant(v)
	if idx <= math.MaxUint8 {
		p.emitOp(short)
		p.emitByte(byte(idx))
		return
	}
	if idx > 0xFFFFFF {
		p.error("too many constants in one chunk")
		return
	}
	p.emitOp(long)
	p.emitByte(byte(idx >> 16))
	p.emitByte(byte(idx >> 8))
	p.emitByte(byte(idx))
}

func (p *Parser) identifierConstant(name string) object.Value {
	return object.FromObj(p.heap.InternString(intern.String(name)))
}

// emitJump emits op followed by a 2-byte placeholder and returns the
// placeholder's offset, to be patched later by patchJump.
func (p *Parser) emitJump(op object.Opcode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.currentChunk().Code) - 2
}

// patchJump backfills the placeholder at offset with the signed 16-bit
// distance from the byte just after the operand to the current end of
// the chunk.
func (p *Parser) patchJump(offset int) {
	code := p.currentChunk().Code
	jump := len(code) - offset - 2
	if jump > math.MaxInt16 {
		p.error("too much code to jump over")
		return
	}
	code[offset] = byte(uint16(jump) >> 8)
	code[offset+1] = byte(uint16(jump))
}

// emitLoop emits an unconditional JUMP back to start (used for `while`
// and `for` increments/bodies and for `continue`).
func (p *Parser) emitLoop(start int) {
	p.emitOp(object.OpJump)
	back := len(p.currentChunk().Code) - start + 2
	if back > math.MaxInt16 {
		p.error("loop body too large")
		return
	}
	neg := -back
	p.emitByte(byte(uint16(neg) >> 8))
	p.emitByte(byte(uint16(neg)))
}

func (p *Parser) emitReturn() {
	if p.compiler.funcType == funcTypeInitializer {
		// init implicitly returns the receiver (slot 0), per the
		// constructor-call convention.
		p.emitOp(object.OpGetLocal)
		p.emitByte(0)
	} else {
		p.emitOp(object.OpNil)
	}
	p.emitOp(object.OpReturn)
}

// endCompiler finishes the function under construction, logs its
// disassembly under Debug, and restores the enclosing Compiler.
func (p *Parser) endCompiler() *object.Function {
	p.emitReturn()
	fn := p.compiler.function
	if Debug {
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		logrus.Debugln(fmt.Sprintf("== %s ==\n%s", name, fn.Chunk.Disassemble(name)))
	}
	p.compiler = p.compiler.enclosing
	return fn
}

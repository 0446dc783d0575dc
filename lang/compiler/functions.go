package compiler

import (
	"math"

	"github.com/mna/loxa/lang/object"
	"github.com/mna/loxa/lang/token"
)

// functionBody compiles one function's parameter list and body into a
// fresh child Compiler, leaving the Parser pointed back at the enclosing
// Compiler on return. displayName seeds the compiled Function's Name for
// stack traces; it is empty for anonymous bodies (there are none in this
// grammar, but the plumbing mirrors rami3l/golox's fun_/wrapCompiler).
func (p *Parser) functionBody(ft funcType, displayName string) *Compiler {
	fn := p.heap.NewFunction()
	if displayName != "" {
		fn.Name = p.heap.InternString(displayName)
	}
	child := newCompiler(p.compiler, ft, fn)
	p.compiler = child

	p.compiler.beginScope()
	p.consume(token.LEFT_PAREN, "expect '(' after function name")
	if !p.check(token.RIGHT_PAREN) {
		for {
			fn.Arity++
			if fn.Arity > maxArgs {
				p.errorAtCurrent("too many parameters")
			}
			p.consume(token.IDENT, "expect parameter name")
			p.declareVariable(p.prev, false)
			p.compiler.markInitialized()
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "expect ')' after parameters")
	p.consume(token.LEFT_BRACE, "expect '{' before function body")
	p.block()

	p.endCompiler()
	return child
}

// emitClosure folds child's finished Function into the enclosing chunk's
// constants pool and emits OpClosure/OpClosureLong, followed by one
// (isLocal, index) pair per upvalue the child captures.
func (p *Parser) emitClosure(child *Compiler) {
	idx := p.currentChunk().AddConstant(object.FromObj(child.function))
	switch {
	case idx <= math.MaxUint8:
		p.emitOp(object.OpClosure)
		p.emitByte(byte(idx))
	case idx <= 0xFFFFFF:
		p.emitOp(object.OpClosureLong)
		p.emitByte(byte(idx >> 16))
		p.emitByte(byte(idx >> 8))
		p.emitByte(byte(idx))
	default:
		p.error("too many constants in one chunk")
		return
	}
	for _, uv := range child.upvalues {
		if uv.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(uv.index)
	}
}

// classDeclaration compiles a class literal as a folded constant: the
// instruction set has no class-allocation opcode, and METHOD/INHERIT/
// GET_SUPER all presuppose a class value already sitting on the stack, so
// the Class object itself is built once at compile time like a Function
// and pushed via OpConstant, same as every other literal.
func (p *Parser) classDeclaration() {
	p.consume(token.IDENT, "expect class name")
	className := p.prev
	isGlobal := p.compiler.scopeDepth == 0

	classObj := p.heap.NewClass(p.heap.InternString(className.Lexeme))
	classVal := object.FromObj(classObj)

	if isGlobal {
		nameVal := p.identifierConstant(className.Lexeme)
		p.emitConstant(object.OpConstant, object.OpConstantLong, nameVal)
	} else {
		p.declareVariable(className, false)
	}
	p.emitConstant(object.OpConstant, object.OpConstantLong, classVal)
	if isGlobal {
		p.emitOp(object.OpDefineGlobal)
	} else {
		p.compiler.markInitialized()
	}

	cs := &classState{enclosing: p.class}
	p.class = cs

	if p.match(token.LESS) {
		p.consume(token.IDENT, "expect superclass name")
		if p.prev.Lexeme == className.Lexeme {
			p.error("a class can't inherit from itself")
		}
		p.namedVariable(p.prev, false) // push superclass value

		p.beginScope()
		p.compiler.addLocal(superToken, false)
		p.compiler.markInitialized()

		p.namedVariable(className, false) // push subclass value
		p.emitOp(object.OpInherit)
		cs.hasSuperclass = true
	}

	p.namedVariable(className, false) // push subclass value, for method binding
	p.consume(token.LEFT_BRACE, "expect '{' before class body")
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RIGHT_BRACE, "expect '}' after class body")
	p.emitOp(object.OpPop) // the subclass value used for method binding

	if cs.hasSuperclass {
		p.exitScope()
	}
	p.class = cs.enclosing
}

// method compiles a single `name(params) { body }` entry and binds it
// onto the class value currently sitting on top of the stack via
// OpMethod. A method named "init" compiles as an
// initializer, whose implicit return yields the receiver instead of nil.
func (p *Parser) method() {
	p.consume(token.IDENT, "expect method name")
	name := p.prev
	nameVal := p.identifierConstant(name.Lexeme)
	ft := funcTypeMethod
	if name.Lexeme == "init" {
		ft = funcTypeInitializer
	}

	child := p.functionBody(ft, name.Lexeme)
	p.emitClosure(child)

	idx := p.currentChunk().AddConstant(nameVal)
	if idx > math.MaxUint8 {
		p.error("too many constants in one chunk")
		return
	}
	p.emitOp(object.OpMethod)
	p.emitByte(byte(idx))
}

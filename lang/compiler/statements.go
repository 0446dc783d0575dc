package compiler

import (
	"math"

	"github.com/mna/loxa/lang/object"
	"github.com/mna/loxa/lang/token"
)

// declaration compiles one top-level-or-block item: a declaration form or,
// failing that, a plain statement. Panic-mode recovery happens here so a
// single malformed declaration doesn't cascade into spurious errors for
// the rest of the block.
func (p *Parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	case p.match(token.CONST):
		p.constDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.sync()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.SWITCH):
		p.switchStatement()
	case p.match(token.BREAK):
		p.breakStatement()
	case p.match(token.CONTINUE):
		p.continueStatement()
	case p.match(token.LEFT_BRACE):
		p.beginScope()
		p.block()
		p.exitScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) beginScope() { p.compiler.beginScope() }

// exitScope discards the current scope's locals, closing the ones
// captured by a live closure instead of merely popping them.
func (p *Parser) exitScope() {
	for _, captured := range p.compiler.endScope() {
		if captured {
			p.emitOp(object.OpCloseUpvalue)
		} else {
			p.emitOp(object.OpPop)
		}
	}
}

func (p *Parser) block() {
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RIGHT_BRACE, "expect '}' after block")
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "expect ';' after expression")
	p.emitOp(object.OpPop)
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "expect ';' after value")
	p.emitOp(object.OpPrint)
}

func (p *Parser) ifStatement() {
	p.consume(token.LEFT_PAREN, "expect '(' after 'if'")
	p.expression()
	p.consume(token.RIGHT_PAREN, "expect ')' after condition")

	thenJump := p.emitJump(object.OpJumpIfFalse)
	p.emitOp(object.OpPop)
	p.statement()

	elseJump := p.emitJump(object.OpJump)
	p.patchJump(thenJump)
	p.emitOp(object.OpPop)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)
	p.compiler.pushLoop(loopStart)

	p.consume(token.LEFT_PAREN, "expect '(' after 'while'")
	p.expression()
	p.consume(token.RIGHT_PAREN, "expect ')' after condition")

	exitJump := p.emitJump(object.OpJumpIfFalse)
	p.emitOp(object.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	loop := p.compiler.popLoop()
	p.patchJump(exitJump)
	p.emitOp(object.OpPop)
	for _, bj := range loop.breakJumps {
		p.patchJump(bj)
	}
}

// forStatement lowers `for (init; cond; incr) body`. When the initializer
// declares a variable, the body runs in its own inner scope holding a
// fresh copy of that variable each iteration, and writes any mutation
// back before the increment runs: this gives closures formed inside the
// body a distinct binding per iteration instead of clox's single shared slot.
func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LEFT_PAREN, "expect '(' after 'for'")

	hasLoopVar := false
	var loopVarName string
	var outerSlot int
	switch {
	case p.match(token.SEMICOLON):
	case p.match(token.VAR):
		p.consume(token.IDENT, "expect variable name")
		name := p.prev
		p.declareVariable(name, false)
		if p.match(token.EQUAL) {
			p.expression()
		} else {
			p.emitOp(object.OpNil)
		}
		p.consume(token.SEMICOLON, "expect ';' after loop initializer")
		p.compiler.markInitialized()
		outerSlot = len(p.compiler.locals) - 1
		loopVarName = name.Lexeme
		hasLoopVar = true
	default:
		p.expressionStatement()
	}

	condStart := len(p.currentChunk().Code)
	exitJump := -1
	if !p.match(token.SEMICOLON) {
		p.expression()
		p.consume(token.SEMICOLON, "expect ';' after loop condition")
		exitJump = p.emitJump(object.OpJumpIfFalse)
		p.emitOp(object.OpPop)
	}

	incrStart := condStart
	if !p.check(token.RIGHT_PAREN) {
		bodyJump := p.emitJump(object.OpJump)
		incrStart = len(p.currentChunk().Code)
		p.expression()
		p.emitOp(object.OpPop)
		p.consume(token.RIGHT_PAREN, "expect ')' after for clauses")
		p.emitLoop(condStart)
		p.patchJump(bodyJump)
	} else {
		p.consume(token.RIGHT_PAREN, "expect ')' after for clauses")
	}

	p.compiler.pushLoop(incrStart)

	if hasLoopVar {
		p.beginScope()
		p.emitOp(object.OpGetLocal)
		p.emitByte(byte(outerSlot))
		p.compiler.addLocal(token.Token{Kind: token.IDENT, Lexeme: loopVarName}, false)
		p.compiler.markInitialized()
		shadowSlot := len(p.compiler.locals) - 1

		p.statement()

		p.emitOp(object.OpGetLocal)
		p.emitByte(byte(shadowSlot))
		p.emitOp(object.OpSetLocal)
		p.emitByte(byte(outerSlot))
		p.emitOp(object.OpPop)
		p.exitScope()
	} else {
		p.statement()
	}

	loop := p.compiler.popLoop()
	p.emitLoop(incrStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(object.OpPop)
	}
	for _, bj := range loop.breakJumps {
		p.patchJump(bj)
	}
	p.exitScope()
}

// switchStatement compiles a duplicate/compare/jump chain: no fallthrough,
// and an optional `default` arm that must come last.
func (p *Parser) switchStatement() {
	p.consume(token.LEFT_PAREN, "expect '(' after 'switch'")
	p.expression()
	p.consume(token.RIGHT_PAREN, "expect ')' after switch value")
	p.consume(token.LEFT_BRACE, "expect '{' before switch body")

	var endJumps []int
	seenDefault := false
	for p.match(token.CASE) {
		if seenDefault {
			p.error("'case' cannot follow 'default'")
		}
		p.emitOp(object.OpDuplicate)
		p.expression()
		p.consume(token.COLON, "expect ':' after case value")
		p.emitOp(object.OpEqual)
		nextCase := p.emitJump(object.OpJumpIfFalse)
		p.emitOp(object.OpPop) // comparison result, match path
		p.emitOp(object.OpPop) // the switch value itself, consumed
		for !p.check(token.CASE) && !p.check(token.DEFAULT) && !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
			p.statement()
		}
		endJumps = append(endJumps, p.emitJump(object.OpJump))
		p.patchJump(nextCase)
		p.emitOp(object.OpPop) // comparison result, no-match path
	}
	if p.match(token.DEFAULT) {
		seenDefault = true
		p.consume(token.COLON, "expect ':' after 'default'")
		p.emitOp(object.OpPop) // the switch value
		for !p.check(token.CASE) && !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
			p.statement()
		}
		if p.check(token.CASE) {
			p.errorAtCurrent("'case' cannot follow 'default'")
		}
	} else {
		p.emitOp(object.OpPop) // the switch value, unmatched
	}
	for _, j := range endJumps {
		p.patchJump(j)
	}
	p.consume(token.RIGHT_BRACE, "expect '}' after switch body")
}

func (p *Parser) breakStatement() {
	if !p.compiler.inLoop() {
		p.error("can't use 'break' outside of a loop")
		return
	}
	p.consume(token.SEMICOLON, "expect ';' after 'break'")
	p.popLocalsAboveLoop()
	hole := p.emitJump(object.OpJump)
	loop := p.compiler.currentLoop()
	loop.breakJumps = append(loop.breakJumps, hole)
}

func (p *Parser) continueStatement() {
	if !p.compiler.inLoop() {
		p.error("can't use 'continue' outside of a loop")
		return
	}
	p.consume(token.SEMICOLON, "expect ';' after 'continue'")
	p.popLocalsAboveLoop()
	p.emitLoop(p.compiler.currentLoop().continueTarget)
}

// popLocalsAboveLoop emits a single OpPopN discarding every local declared
// since loop entry.
func (p *Parser) popLocalsAboveLoop() {
	loop := p.compiler.currentLoop()
	n := 0
	for i := len(p.compiler.locals) - 1; i >= 0 && p.compiler.locals[i].depth > loop.depth; i-- {
		n++
	}
	if n == 0 {
		return
	}
	if n > math.MaxUint8 {
		p.error("too many locals to discard for break/continue")
		return
	}
	p.emitOp(object.OpPopN)
	p.emitByte(byte(n))
}

func (p *Parser) returnStatement() {
	if p.compiler.funcType == funcTypeScript {
		p.error("can't return from top-level code")
	}
	if p.match(token.SEMICOLON) {
		p.emitReturn()
		return
	}
	if p.compiler.funcType == funcTypeInitializer {
		p.error("can't return a value from an initializer")
	}
	p.expression()
	p.consume(token.SEMICOLON, "expect ';' after return value")
	p.emitOp(object.OpReturn)
}

/* declarations */

func (p *Parser) varDeclaration()   { p.varDeclLike(false) }
func (p *Parser) constDeclaration() { p.varDeclLike(true) }

// varDeclLike compiles both `var` and `const` declarations. For a global
// (scope depth 0), the name is pushed as a runtime string constant ahead
// of the initializer value and OpDefineGlobal consumes both: name =
// stack[-2], value = stack[-1]; a local simply leaves its initializer
// value sitting in its reserved stack slot.
func (p *Parser) varDeclLike(isConst bool) {
	p.consume(token.IDENT, "expect variable name")
	name := p.prev
	if p.compiler.scopeDepth > 0 {
		p.declareVariable(name, isConst)
	}

	var nameVal object.Value
	isGlobal := p.compiler.scopeDepth == 0
	if isGlobal {
		nameVal = p.identifierConstant(name.Lexeme)
		p.emitConstant(object.OpConstant, object.OpConstantLong, nameVal)
	}

	if isConst {
		p.consume(token.EQUAL, "const declaration requires an initializer")
		p.expression()
	} else if p.match(token.EQUAL) {
		p.expression()
	} else {
		p.emitOp(object.OpNil)
	}
	p.consume(token.SEMICOLON, "expect ';' after variable declaration")

	if !isGlobal {
		p.compiler.markInitialized()
		return
	}
	if isConst {
		p.constGlobals[name.Lexeme] = true
	}
	p.emitOp(object.OpDefineGlobal)
}

// declareVariable registers name as a local in the current scope,
// rejecting a duplicate name already declared at this same depth.
func (p *Parser) declareVariable(name token.Token, isConst bool) {
	if p.compiler.scopeDepth == 0 {
		return
	}
	for i := len(p.compiler.locals) - 1; i >= 0; i-- {
		l := p.compiler.locals[i]
		if l.depth != depthUninitialized && l.depth < p.compiler.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			p.error("already a variable with this name in this scope")
		}
	}
	if !p.compiler.addLocal(name, isConst) {
		p.error("too many local variables in function")
	}
}

func (p *Parser) funDeclaration() {
	p.consume(token.IDENT, "expect function name")
	name := p.prev
	isGlobal := p.compiler.scopeDepth == 0

	if isGlobal {
		nameVal := p.identifierConstant(name.Lexeme)
		p.emitConstant(object.OpConstant, object.OpConstantLong, nameVal)
	} else {
		p.declareVariable(name, false)
		// Marking the local initialized before the body compiles lets the
		// function refer to itself by name for recursion.
		p.compiler.markInitialized()
	}

	child := p.functionBody(funcTypeFunction, name.Lexeme)
	p.emitClosure(child)

	if isGlobal {
		p.emitOp(object.OpDefineGlobal)
	}
}

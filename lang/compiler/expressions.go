package compiler

import (
	"math"
	"strconv"

	"github.com/mna/loxa/lang/object"
	"github.com/mna/loxa/lang/token"
)

func (p *Parser) number(_ bool) {
	v, err := strconv.ParseFloat(p.prev.Lexeme, 64)
	if err != nil {
		p.error("invalid number literal")
		return
	}
	p.emitConstant(object.OpConstant, object.OpConstantLong, object.Number(v))
}

// stringLiteral strips the surrounding quotes and interns the remaining
// bytes verbatim: there is no escape processing.
func (p *Parser) stringLiteral(_ bool) {
	raw := p.prev.Lexeme
	unquoted := raw[1 : len(raw)-1]
	s := p.heap.InternString(unquoted)
	p.emitConstant(object.OpConstant, object.OpConstantLong, object.FromObj(s))
}

func (p *Parser) literal(_ bool) {
	switch p.prev.Kind {
	case token.FALSE:
		p.emitOp(object.OpFalse)
	case token.NIL:
		p.emitOp(object.OpNil)
	case token.TRUE:
		p.emitOp(object.OpTrue)
	}
}

func (p *Parser) grouping(_ bool) {
	p.expression()
	p.consume(token.RIGHT_PAREN, "expect ')' after expression")
}

func (p *Parser) unary(_ bool) {
	op := p.prev.Kind
	p.parsePrecedence(precUnary)
	switch op {
	case token.BANG:
		p.emitOp(object.OpNot)
	case token.MINUS:
		p.emitOp(object.OpNegate)
	}
}

func (p *Parser) binary(_ bool) {
	op := p.prev.Kind
	rule := p.getRule(op)
	p.parsePrecedence(rule.prec + 1)
	switch op {
	case token.PLUS:
		p.emitOp(object.OpAdd)
	case token.MINUS:
		p.emitOp(object.OpSubtract)
	case token.STAR:
		p.emitOp(object.OpMultiply)
	case token.SLASH:
		p.emitOp(object.OpDivide)
	case token.BANG_EQUAL:
		p.emitOp(object.OpNotEqual)
	case token.EQUAL_EQUAL:
		p.emitOp(object.OpEqual)
	case token.GREATER:
		p.emitOp(object.OpGreater)
	case token.GREATER_EQUAL:
		p.emitOp(object.OpGreaterEqual)
	case token.LESS:
		p.emitOp(object.OpLess)
	case token.LESS_EQUAL:
		p.emitOp(object.OpLessEqual)
	}
}

func (p *Parser) and(_ bool) {
	endJump := p.emitJump(object.OpJumpIfFalse)
	p.emitOp(object.OpPop)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *Parser) or(_ bool) {
	elseJump := p.emitJump(object.OpJumpIfFalse)
	endJump := p.emitJump(object.OpJump)
	p.patchJump(elseJump)
	p.emitOp(object.OpPop)
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func (p *Parser) call(_ bool) {
	argc := p.argumentList()
	p.emitOp(object.OpCall)
	p.emitByte(byte(argc))
}

// dot compiles `receiver.name(args)`. Per the OpInvoke/OpInvokeLong
// semantics (look up property on instance; if field, call as function;
// if method, fast-call), property access is only ever compiled in call
// position; bare `obj.field` reads/writes use the
// hasProp/getProp/setProp/delProp natives instead (see DESIGN.md).
func (p *Parser) dot(_ bool) {
	p.consume(token.IDENT, "expect property name after '.'")
	nameVal := p.identifierConstant(p.prev.Lexeme)
	if !p.match(token.LEFT_PAREN) {
		p.error("expect '(' after property name")
		return
	}
	argc := p.argumentList()
	p.emitInvoke(nameVal, argc)
}

func (p *Parser) emitInvoke(nameVal object.Value, argc int) {
	idx := p.currentChunk().AddConstant(nameVal)
	switch {
	case idx <= math.MaxUint8:
		p.emitOp(object.OpInvoke)
		p.emitByte(byte(idx))
		p.emitByte(byte(argc))
	case idx <= 0xFFFFFF:
		p.emitOp(object.OpInvokeLong)
		p.emitByte(byte(idx >> 16))
		p.emitByte(byte(idx >> 8))
		p.emitByte(byte(idx))
		p.emitByte(byte(argc))
	default:
		p.error("too many constants in one chunk")
	}
}

func (p *Parser) argumentList() int {
	argc := 0
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.expression()
			if argc >= maxArgs {
				p.error("too many arguments")
			}
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "expect ')' after arguments")
	return argc
}

func (p *Parser) variable(canAssign bool) {
	p.namedVariable(p.prev, canAssign)
}

// namedVariable resolves name through the local / upvalue / global chain
// and, when canAssign and an `=` follows, compiles an assignment instead
// of a read.
func (p *Parser) namedVariable(name token.Token, canAssign bool) {
	if slot, isConst, found, uninitialized := p.compiler.resolveLocal(name.Lexeme); found {
		if uninitialized {
			p.error("can't read local variable in its own initializer")
		}
		if canAssign && p.match(token.EQUAL) {
			if isConst {
				p.error("assignment to const")
			}
			p.expression()
			p.emitOp(object.OpSetLocal)
			p.emitByte(byte(slot))
			return
		}
		p.emitOp(object.OpGetLocal)
		p.emitByte(byte(slot))
		return
	}

	if idx, isConst, found := p.compiler.resolveUpvalue(name.Lexeme); found {
		if canAssign && p.match(token.EQUAL) {
			if isConst {
				p.error("assignment to const")
			}
			p.expression()
			p.emitOp(object.OpSetUpvalue)
			p.emitByte(byte(idx))
			return
		}
		p.emitOp(object.OpGetUpvalue)
		p.emitByte(byte(idx))
		return
	}

	nameVal := p.identifierConstant(name.Lexeme)
	if canAssign && p.match(token.EQUAL) {
		if p.constGlobals[name.Lexeme] {
			p.error("reassignment to const global")
		}
		p.emitConstant(object.OpConstant, object.OpConstantLong, nameVal)
		p.expression()
		p.emitOp(object.OpSetGlobal)
		return
	}
	p.emitConstant(object.OpConstant, object.OpConstantLong, nameVal)
	p.emitOp(object.OpGetGlobal)
}

var thisToken = token.Token{Kind: token.IDENT, Lexeme: "this"}
var superToken = token.Token{Kind: token.IDENT, Lexeme: "super"}

func (p *Parser) this(_ bool) {
	if p.class == nil {
		p.error("can't use 'this' outside of a class")
		return
	}
	p.namedVariable(thisToken, false)
}

func (p *Parser) super(_ bool) {
	switch {
	case p.class == nil:
		p.error("can't use 'super' outside of a class")
	case !p.class.hasSuperclass:
		p.error("can't use 'super' in a class with no superclass")
	}
	p.consume(token.DOT, "expect '.' after 'super'")
	p.consume(token.IDENT, "expect superclass method name")
	nameVal := p.identifierConstant(p.prev.Lexeme)

	p.namedVariable(thisToken, false)
	p.namedVariable(superToken, false)

	idx := p.currentChunk().AddConstant(nameVal)
	if idx > math.MaxUint8 {
		p.error("too many constants in one chunk")
		return
	}
	p.emitOp(object.OpGetSuper)
	p.emitByte(byte(idx))
}

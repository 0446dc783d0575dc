package compiler

import "github.com/mna/loxa/lang/token"

// parseFn is a single parselet: a prefix parselet consumes and compiles a
// primary expression, an infix parselet consumes and compiles the
// right-hand side of an operator whose left-hand side is already on the
// (virtual) stack. canAssign is true iff the parselet was reached from a
// context at or below assignment precedence.
type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix, infix parseFn
	prec          precedence
}

// rules is the fixed table keyed by token kind that drives parsePrecedence.
var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LEFT_PAREN:    {(*Parser).grouping, (*Parser).call, precCall},
		token.DOT:           {nil, (*Parser).dot, precCall},
		token.MINUS:         {(*Parser).unary, (*Parser).binary, precTerm},
		token.PLUS:          {nil, (*Parser).binary, precTerm},
		token.SLASH:         {nil, (*Parser).binary, precFactor},
		token.STAR:          {nil, (*Parser).binary, precFactor},
		token.BANG:          {(*Parser).unary, nil, precNone},
		token.BANG_EQUAL:    {nil, (*Parser).binary, precEquality},
		token.EQUAL_EQUAL:   {nil, (*Parser).binary, precEquality},
		token.GREATER:       {nil, (*Parser).binary, precComparison},
		token.GREATER_EQUAL: {nil, (*Parser).binary, precComparison},
		token.LESS:          {nil, (*Parser).binary, precComparison},
		token.LESS_EQUAL:    {nil, (*Parser).binary, precComparison},
		token.IDENT:         {(*Parser).variable, nil, precNone},
		token.STRING:        {(*Parser).stringLiteral, nil, precNone},
		token.NUMBER:        {(*Parser).number, nil, precNone},
		token.AND:           {nil, (*Parser).and, precAnd},
		token.OR:            {nil, (*Parser).or, precOr},
		token.FALSE:         {(*Parser).literal, nil, precNone},
		token.NIL:           {(*Parser).literal, nil, precNone},
		token.TRUE:          {(*Parser).literal, nil, precNone},
		token.THIS:          {(*Parser).this, nil, precNone},
		token.SUPER:         {(*Parser).super, nil, precNone},
	}
}

func (p *Parser) getRule(k token.Kind) parseRule { return rules[k] }

// expression parses at assignment precedence.
func (p *Parser) expression() { p.parsePrecedence(precAssignment) }

// parsePrecedence implements the Pratt-parser core.
func (p *Parser) parsePrecedence(prec precedence) {
	p.advance()
	prefix := p.getRule(p.prev.Kind).prefix
	if prefix == nil {
		p.error("expect expression")
		return
	}
	canAssign := prec <= precAssignment
	prefix(p, canAssign)

	for prec <= p.getRule(p.cur.Kind).prec {
		p.advance()
		infix := p.getRule(p.prev.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQUAL) {
		p.error("invalid assignment target")
	}
}

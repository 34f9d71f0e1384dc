package compiler

import "github.com/mna/lumen/lang/token"

// precedence is the lattice parsePrecedence climbs, lowest first.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// parseFn is either a prefix or an infix parse handler. canAssign is true
// only when the surrounding expression is parsed at precedence <=
// precAssignment; only the identifier handler uses it, to choose between
// emitting a GET or a SET.
type parseFn func(c *compilerState, canAssign bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Type]rule

func init() {
	rules = map[token.Type]rule{
		token.LPAREN:    {prefix: (*compilerState).grouping, infix: (*compilerState).call, precedence: precCall},
		token.MINUS:     {prefix: (*compilerState).unary, infix: (*compilerState).binary, precedence: precTerm},
		token.PLUS:      {infix: (*compilerState).binary, precedence: precTerm},
		token.SLASH:     {infix: (*compilerState).binary, precedence: precFactor},
		token.STAR:      {infix: (*compilerState).binary, precedence: precFactor},
		token.BANG:      {prefix: (*compilerState).unary},
		token.BANGEQ:    {infix: (*compilerState).binary, precedence: precEquality},
		token.EQEQ:      {infix: (*compilerState).binary, precedence: precEquality},
		token.GT:        {infix: (*compilerState).binary, precedence: precComparison},
		token.GE:        {infix: (*compilerState).binary, precedence: precComparison},
		token.LT:        {infix: (*compilerState).binary, precedence: precComparison},
		token.LE:        {infix: (*compilerState).binary, precedence: precComparison},
		token.IDENT:     {prefix: (*compilerState).variable},
		token.STRING:    {prefix: (*compilerState).stringLit},
		token.NUMBER:    {prefix: (*compilerState).number},
		token.AND:       {infix: (*compilerState).and_, precedence: precAnd},
		token.OR:        {infix: (*compilerState).or_, precedence: precOr},
		token.FALSE:     {prefix: (*compilerState).literal},
		token.TRUE:      {prefix: (*compilerState).literal},
		token.NIL:       {prefix: (*compilerState).literal},
	}
}

func getRule(t token.Type) rule { return rules[t] }

// parsePrecedence is the core of the Pratt parser: dispatch the previous
// token's prefix rule, then keep dispatching infix rules of precedence >=
// p.
func (c *compilerState) parsePrecedence(p precedence) {
	c.p.advance()
	prefixRule := getRule(c.p.previous.Type).prefix
	if prefixRule == nil {
		c.p.errorAtPrevious("Expect expression.")
		return
	}

	canAssign := p <= precAssignment
	prefixRule(c, canAssign)

	for p <= getRule(c.p.current.Type).precedence {
		c.p.advance()
		infixRule := getRule(c.p.previous.Type).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.p.match(token.EQ) {
		c.p.errorAtPrevious("Invalid assignment target.")
	}
}

func (c *compilerState) expression() {
	c.parsePrecedence(precAssignment)
}

package compiler

import (
	"strconv"

	"github.com/mna/lumen/lang/bytecode"
	"github.com/mna/lumen/lang/token"
	"github.com/mna/lumen/lang/value"
)

const maxArgs = 255

func (c *compilerState) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.p.previous.Lexeme, 64)
	if err != nil {
		c.p.errorAtPrevious("Invalid number literal.")
		return
	}
	c.emitConstant(value.NumberValue(n))
}

func (c *compilerState) stringLit(canAssign bool) {
	lex := c.p.previous.Lexeme
	raw := lex[1 : len(lex)-1] // strip surrounding quotes
	s := c.p.internString(raw)
	c.emitConstant(value.ObjValue(s))
}

func (c *compilerState) literal(canAssign bool) {
	switch c.p.previous.Type {
	case token.FALSE:
		c.emitOp(bytecode.FALSE)
	case token.TRUE:
		c.emitOp(bytecode.TRUE)
	case token.NIL:
		c.emitOp(bytecode.NIL)
	}
}

func (c *compilerState) grouping(canAssign bool) {
	c.expression()
	c.p.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *compilerState) unary(canAssign bool) {
	opType := c.p.previous.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case token.MINUS:
		c.emitOp(bytecode.NEGATE)
	case token.BANG:
		c.emitOp(bytecode.NOT)
	}
}

// binary compiles the right-hand operand at precedence+1 (left
// associative) and emits the opcode(s) for the operator just consumed,
// desugaring != as EQUAL+NOT and >=/<= as their reverse plus NOT.
func (c *compilerState) binary(canAssign bool) {
	opType := c.p.previous.Type
	r := getRule(opType)
	c.parsePrecedence(r.precedence + 1)

	switch opType {
	case token.BANGEQ:
		c.emitOps(bytecode.EQUAL, bytecode.NOT)
	case token.EQEQ:
		c.emitOp(bytecode.EQUAL)
	case token.GT:
		c.emitOp(bytecode.GREATER)
	case token.GE:
		c.emitOps(bytecode.LESS, bytecode.NOT)
	case token.LT:
		c.emitOp(bytecode.LESS)
	case token.LE:
		c.emitOps(bytecode.GREATER, bytecode.NOT)
	case token.PLUS:
		c.emitOp(bytecode.ADD)
	case token.MINUS:
		c.emitOp(bytecode.SUBTRACT)
	case token.STAR:
		c.emitOp(bytecode.MULTIPLY)
	case token.SLASH:
		c.emitOp(bytecode.DIVIDE)
	}
}

// and_ short-circuits: the left operand stays on the stack; if it's
// falsey we skip evaluating the right operand entirely, otherwise we pop
// it and leave the right operand's value as the result.
func (c *compilerState) and_(canAssign bool) {
	endJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitOp(bytecode.POP)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or_ mirrors and_: if the left operand is truthy, skip the right operand.
func (c *compilerState) or_(canAssign bool) {
	elseJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	endJump := c.emitJump(bytecode.JUMP)

	c.patchJump(elseJump)
	c.emitOp(bytecode.POP)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *compilerState) call(canAssign bool) {
	argc := c.argumentList()
	c.emitOp(bytecode.CALL)
	c.emit(argc)
}

func (c *compilerState) argumentList() byte {
	var argc int
	if !c.p.check(token.RPAREN) {
		for {
			c.expression()
			if argc == maxArgs {
				c.p.errorAtPrevious("Can't have more than 255 arguments.")
			}
			argc++
			if !c.p.match(token.COMMA) {
				break
			}
		}
	}
	c.p.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argc)
}

// variable compiles a name reference, resolving it in priority order
// local -> upvalue -> global, emitting a SET when canAssign and an '='
// follows, a GET otherwise.
func (c *compilerState) variable(canAssign bool) {
	c.namedVariable(c.p.previous, canAssign)
}

func (c *compilerState) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp bytecode.Op
	var arg int

	if idx := c.resolveLocal(name.Lexeme); idx != -1 {
		arg, getOp, setOp = idx, bytecode.GET_LOCAL, bytecode.SET_LOCAL
	} else if idx := c.resolveUpvalue(name.Lexeme); idx != -1 {
		arg, getOp, setOp = idx, bytecode.GET_UPVALUE, bytecode.SET_UPVALUE
	} else {
		arg, getOp, setOp = c.identifierConstant(name), bytecode.GET_GLOBAL, bytecode.SET_GLOBAL
	}

	if canAssign && c.p.match(token.EQ) {
		c.expression()
		c.emitOp(setOp)
	} else {
		c.emitOp(getOp)
	}
	c.emit(byte(arg))
}

// identifierConstant interns name's lexeme and adds it to the chunk's
// constant pool, returning its index. Globals are late bound by this
// name, never by slot.
func (c *compilerState) identifierConstant(name token.Token) int {
	s := c.p.internString(name.Lexeme)
	idx := c.chunk().AddConstant(value.ObjValue(s))
	if idx > 0xFF {
		c.p.errorAtPrevious("Too many identifier constants (only 256 are allowed in one chunk).")
	}
	return idx
}

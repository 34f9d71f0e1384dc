package compiler

import (
	"github.com/mna/lumen/lang/bytecode"
	"github.com/mna/lumen/lang/token"
)

// declaration parses one top-level or block-level declaration, recovering
// at the next synchronization point if a compile error was reported while
// parsing it.
func (c *compilerState) declaration() {
	switch {
	case c.p.match(token.VAR):
		c.varDeclaration()
	case c.p.match(token.FUN):
		c.funDeclaration()
	default:
		c.statement()
	}

	if c.p.panicMode {
		c.synchronize()
	}
}

// synchronize discards tokens until one that plausibly starts a new
// statement: a statement-terminating ';', or a token that begins a new
// declaration.
func (c *compilerState) synchronize() {
	c.p.panicMode = false

	for c.p.current.Type != token.EOF {
		if c.p.previous.Type == token.SEMICOLON {
			return
		}
		switch c.p.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.p.advance()
	}
}

func (c *compilerState) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.p.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(bytecode.NIL)
	}
	c.p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

// parseVariable consumes the variable's name, declares it as a local if
// we're in a scope, and returns the identifier-constant index to use for
// defineVariable at global scope (the return value is meaningless, and
// ignored, at local scope).
func (c *compilerState) parseVariable(errMsg string) int {
	c.p.consume(token.IDENT, errMsg)
	name := c.p.previous

	c.declareVariable(name)
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

// defineVariable completes a declaration: at local scope it just marks
// the most recent local initialized (its stack slot already holds the
// value); at global scope it emits DEFINE_GLOBAL.
func (c *compilerState) defineVariable(global int) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOp(bytecode.DEFINE_GLOBAL)
	c.emit(byte(global))
}

func (c *compilerState) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	// mark initialized before compiling the body so the function can call
	// itself recursively by name.
	c.markInitialized()
	c.compileFunction(typeFunction)
	c.defineVariable(global)
}

func (c *compilerState) compileFunction(fnType functionType) {
	fc := newCompiler(c, fnType, c.p)
	fc.beginScope()

	c.p.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.p.check(token.RPAREN) {
		for {
			fc.function.Arity++
			if fc.function.Arity > maxArgs {
				c.p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := fc.parseVariable("Expect parameter name.")
			fc.defineVariable(constant)
			if !c.p.match(token.COMMA) {
				break
			}
		}
	}
	c.p.consume(token.RPAREN, "Expect ')' after parameters.")
	c.p.consume(token.LBRACE, "Expect '{' before function body.")
	fc.block()

	fc.end()
}

func (c *compilerState) statement() {
	switch {
	case c.p.match(token.PRINT):
		c.printStatement()
	case c.p.match(token.IF):
		c.ifStatement()
	case c.p.match(token.WHILE):
		c.whileStatement()
	case c.p.match(token.FOR):
		c.forStatement()
	case c.p.match(token.RETURN):
		c.returnStatement()
	case c.p.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compilerState) block() {
	for !c.p.check(token.RBRACE) && !c.p.check(token.EOF) {
		c.declaration()
	}
	c.p.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *compilerState) printStatement() {
	c.expression()
	c.p.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(bytecode.PRINT)
}

func (c *compilerState) expressionStatement() {
	c.expression()
	c.p.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(bytecode.POP)
}

func (c *compilerState) returnStatement() {
	if c.fnType == typeScript {
		c.p.errorAtPrevious("Can't return from top-level code.")
	}
	if c.p.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	c.expression()
	c.p.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(bytecode.RETURN)
}

func (c *compilerState) ifStatement() {
	c.p.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.p.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitOp(bytecode.POP)
	c.statement()

	elseJump := c.emitJump(bytecode.JUMP)
	c.patchJump(thenJump)
	c.emitOp(bytecode.POP)

	if c.p.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compilerState) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.p.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitOp(bytecode.POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.POP)
}

// forStatement desugars into while: init runs once, then cond/body/incr
// loop with incr compiled after the body and reached by jumping over it
// on the very first iteration.
func (c *compilerState) forStatement() {
	c.beginScope()
	c.p.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.p.match(token.SEMICOLON):
		// no initializer
	case c.p.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.p.match(token.SEMICOLON) {
		c.expression()
		c.p.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.JUMP_IF_FALSE)
		c.emitOp(bytecode.POP)
	}

	if !c.p.match(token.RPAREN) {
		bodyJump := c.emitJump(bytecode.JUMP)
		incrStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(bytecode.POP)
		c.p.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.POP)
	}

	c.endScope()
}

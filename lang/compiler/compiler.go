// Package compiler implements lumen's single-pass compiler: a Pratt parser
// that resolves lexical scope and emits bytecode directly as it parses,
// with no intermediate AST.
package compiler

import (
	"fmt"
	goscanner "go/scanner"
	gotoken "go/token"

	"github.com/mna/lumen/lang/bytecode"
	"github.com/mna/lumen/lang/scanner"
	"github.com/mna/lumen/lang/token"
	"github.com/mna/lumen/lang/value"
)

// Error and ErrorList are the standard library's go/scanner diagnostic
// types, reused directly rather than hand-rolled: they already provide
// exactly the accumulate-many/sort/join-into-one-error behavior compile
// errors need.
type (
	Error     = goscanner.Error
	ErrorList = goscanner.ErrorList
)

const maxLocals = 256 // UINT8_COUNT: one byte addresses a local or upvalue slot

// Compile compiles source into a top-level script function. intern is
// called for every identifier and string literal the compiler sees, so
// that the returned function's constant pool only ever references
// strings already admitted to the VM's intern set.
//
// The returned error, if non-nil, is a non-empty ErrorList.
func Compile(source []byte, intern func(string) *value.ObjString) (*value.ObjFunction, error) {
	p := &parser{scan: scanner.New(source), intern: intern}
	c := newCompiler(nil, typeScript, p)

	p.advance()
	for !p.match(token.EOF) {
		c.declaration()
	}
	fn := c.end()

	if p.hadError {
		p.errors.Sort()
		return nil, p.errors.Err()
	}
	return fn, nil
}

// functionType distinguishes the implicit top-level script from a
// user-declared function, the only two kinds of compile unit.
type functionType int

const (
	typeScript functionType = iota
	typeFunction
)

// local is a lexically scoped variable bound to a stack slot. depth == -1
// means "declared but not yet initialized".
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef records how a function's compiler resolved one free
// variable: either directly from the enclosing function's locals
// (isLocal) or by forwarding the enclosing function's own upvalue.
type upvalueRef struct {
	index   byte
	isLocal bool
}

// compilerState is the per-function compile-time state, one per nested
// function being compiled, forming a stack through enclosing.
type compilerState struct {
	p         *parser
	enclosing *compilerState
	fnType    functionType

	function *value.ObjFunction

	locals     [maxLocals]local
	localCount int
	scopeDepth int

	upvalues     [maxLocals]upvalueRef
	upvalueCount int
}

func newCompiler(enclosing *compilerState, fnType functionType, p *parser) *compilerState {
	c := &compilerState{
		p:         p,
		enclosing: enclosing,
		fnType:    fnType,
		function:  &value.ObjFunction{},
	}
	// slot 0 is reserved: for a function it is occupied by the callee's
	// own closure, and carries no user-visible name.
	c.locals[0] = local{name: "", depth: 0}
	c.localCount = 1

	if fnType == typeFunction {
		c.function.Name = p.previous.Lexeme
	}
	return c
}

func (c *compilerState) chunk() *value.Chunk { return &c.function.Chunk }

func (c *compilerState) emit(b byte) {
	c.chunk().Write(b, c.p.previous.Line)
}

func (c *compilerState) emitOp(op bytecode.Op) {
	c.chunk().WriteOp(op, c.p.previous.Line)
}

func (c *compilerState) emitOps(op1, op2 bytecode.Op) {
	c.emitOp(op1)
	c.emitOp(op2)
}

func (c *compilerState) emitConstant(v value.Value) {
	c.chunk().WriteConstant(v, c.p.previous.Line)
}

func (c *compilerState) emitJump(op bytecode.Op) int {
	return c.chunk().WriteJump(op, c.p.previous.Line)
}

func (c *compilerState) patchJump(offset int) {
	if !c.chunk().PatchJump(offset) {
		c.p.errorAtPrevious("Too much code to jump over.")
	}
}

func (c *compilerState) emitLoop(loopStart int) {
	if !c.chunk().WriteLoop(loopStart, c.p.previous.Line) {
		c.p.errorAtPrevious("Loop body too large.")
	}
}

func (c *compilerState) emitReturn() {
	c.emitOp(bytecode.NIL)
	c.emitOp(bytecode.RETURN)
}

// end finalizes the function being compiled: emits the implicit trailing
// `nil; return` and pops back to the enclosing compiler, emitting the
// OP_CLOSURE that wraps it when there is one.
func (c *compilerState) end() *value.ObjFunction {
	c.emitReturn()
	fn := c.function
	fn.UpvalueCount = c.upvalueCount

	if c.enclosing != nil {
		enc := c.enclosing
		idx := enc.chunk().AddConstant(value.ObjValue(fn))
		enc.emitOp(bytecode.CLOSURE)
		if idx > 0xFF {
			enc.p.errorAtPrevious("Too many constants in one chunk.")
		}
		enc.emit(byte(idx))
		for i := 0; i < fn.UpvalueCount; i++ {
			uv := c.upvalues[i]
			enc.emit(boolByte(uv.isLocal))
			enc.emit(uv.index)
		}
	}
	return fn
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (c *compilerState) beginScope() { c.scopeDepth++ }

// endScope pops every local declared in the scope being left, emitting
// CLOSE_UPVALUE for locals captured by a closure and POP otherwise.
func (c *compilerState) endScope() {
	c.scopeDepth--
	for c.localCount > 0 && c.locals[c.localCount-1].depth > c.scopeDepth {
		if c.locals[c.localCount-1].isCaptured {
			c.emitOp(bytecode.CLOSE_UPVALUE)
		} else {
			c.emitOp(bytecode.POP)
		}
		c.localCount--
	}
}

// parser holds the two-token cursor and error-recovery state shared by
// every nested compilerState.
type parser struct {
	scan   *scanner.Scanner
	intern func(string) *value.ObjString

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errors    ErrorList
}

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scan.Scan()
		if p.current.Type != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *parser) check(t token.Type) bool { return p.current.Type == t }

func (p *parser) match(t token.Type) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(t token.Type, msg string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *parser) errorAtPrevious(msg string) { p.errorAt(p.previous, msg) }

// errorAt reports msg at tok's line. While in panic mode, cascaded errors
// are suppressed until synchronize() finds a recovery point.
func (p *parser) errorAt(tok token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	where := msg
	if tok.Type == token.EOF {
		where = fmt.Sprintf("%s at end", msg)
	} else if tok.Type != token.ILLEGAL {
		where = fmt.Sprintf("%s at '%s'", msg, tok.Lexeme)
	}
	p.errors.Add(gotoken.Position{Line: tok.Line}, where)
}

// intern, when called for a literal or identifier, must always go through
// this helper so every ObjString the compiler ever puts in a constant
// pool is the VM's canonical interned instance.
func (p *parser) internString(s string) *value.ObjString {
	return p.intern(s)
}

package compiler

import "github.com/mna/lumen/lang/token"

// declareVariable registers the identifier just consumed as a new local
// in the current scope (no-op at global scope, where variables are late
// bound by name). Redeclaring a name already local to this exact scope is
// an error.
func (c *compilerState) declareVariable(name token.Token) {
	if c.scopeDepth == 0 {
		return
	}
	for i := c.localCount - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name == name.Lexeme {
			c.p.errorAtPrevious("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *compilerState) addLocal(name token.Token) {
	if c.localCount == maxLocals {
		c.p.errorAtPrevious("Too many local variables in function.")
		return
	}
	c.locals[c.localCount] = local{name: name.Lexeme, depth: -1}
	c.localCount++
}

// markInitialized completes the declaration of the most recently added
// local by setting its depth, making it visible to subsequent reads. At
// global scope there is no local to mark.
func (c *compilerState) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[c.localCount-1].depth = c.scopeDepth
}

// resolveLocal scans locals top-down for name, returning its slot index,
// or -1 if name is not a local in this function. A match whose depth is
// still -1 (declared but not yet initialized) is a self-referential
// initializer: it is reported as a compile error here, and its slot is
// still returned.
func (c *compilerState) resolveLocal(name string) int {
	for i := c.localCount - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name == name {
			if l.depth == -1 {
				c.p.errorAtPrevious("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue finds name in an enclosing function, walking outward one
// level at a time and threading an upvalue reference through every
// intervening function so each one can forward it to the next. Returns
// -1 if name is not found in any enclosing function (it must then be a
// global).
func (c *compilerState) resolveUpvalue(name string) int {
	if c.enclosing == nil {
		return -1
	}
	if localIdx := c.enclosing.resolveLocal(name); localIdx != -1 {
		c.enclosing.locals[localIdx].isCaptured = true
		return c.addUpvalue(byte(localIdx), true)
	}
	if upvalIdx := c.enclosing.resolveUpvalue(name); upvalIdx != -1 {
		return c.addUpvalue(byte(upvalIdx), false)
	}
	return -1
}

// addUpvalue deduplicates within a function: an upvalue already
// referencing the same (index, isLocal) pair is reused rather than
// duplicated.
func (c *compilerState) addUpvalue(index byte, isLocal bool) int {
	for i := 0; i < c.upvalueCount; i++ {
		uv := c.upvalues[i]
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if c.upvalueCount == maxLocals {
		c.p.errorAtPrevious("Too many closure variables in function.")
		return 0
	}
	c.upvalues[c.upvalueCount] = upvalueRef{index: index, isLocal: isLocal}
	c.upvalueCount++
	return c.upvalueCount - 1
}

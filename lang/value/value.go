// Package value defines lumen's runtime value representation: the tagged
// Value union and the heap Obj variants it can carry.
package value

import (
	"fmt"
	"strconv"

	"github.com/mna/lumen/lang/bytecode"
)

// Kind discriminates the variant held by a Value.
type Kind uint8

const (
	Nil Kind = iota
	Bool
	Number
	ObjKind
)

// Value is a small tagged union, not a heap-boxed interface value: every
// Value is a plain struct copied by assignment, a compact tagged
// representation that avoids boxing every nil, bool, and number on the heap.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	obj     Obj
}

// NilValue is the singleton nil value.
var NilValue = Value{kind: Nil}

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{kind: Bool, boolean: b} }

// NumberValue wraps n.
func NumberValue(n float64) Value { return Value{kind: Number, number: n} }

// ObjValue wraps a heap object.
func ObjValue(o Obj) Value { return Value{kind: ObjKind, obj: o} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool { return v.kind == Nil }
func (v Value) IsBool() bool { return v.kind == Bool }
func (v Value) IsNumber() bool { return v.kind == Number }
func (v Value) IsObj() bool { return v.kind == ObjKind }

// AsBool returns the boolean payload; callers must check IsBool first.
func (v Value) AsBool() bool { return v.boolean }

// AsNumber returns the float64 payload; callers must check IsNumber first.
func (v Value) AsNumber() float64 { return v.number }

// AsObj returns the Obj payload; callers must check IsObj first.
func (v Value) AsObj() Obj { return v.obj }

// IsString reports whether v holds an *ObjString.
func (v Value) IsString() bool {
	_, ok := v.obj.(*ObjString)
	return v.kind == ObjKind && ok
}

// AsString returns the *ObjString payload; callers must check IsString first.
func (v Value) AsString() *ObjString { return v.obj.(*ObjString) }

// Falsey reports whether v is falsey: only nil and false are falsey,
// everything else (including 0 and "") is truthy.
func (v Value) Falsey() bool {
	switch v.kind {
	case Nil:
		return true
	case Bool:
		return !v.boolean
	default:
		return false
	}
}

// Equal implements value equality: differing kinds are unequal, Nil
// equals Nil, Bool/Number compare by value, Obj compares by pointer
// identity (correct for strings because they are interned).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Nil:
		return true
	case Bool:
		return a.boolean == b.boolean
	case Number:
		return a.number == b.number
	case ObjKind:
		return a.obj == b.obj
	default:
		return false
	}
}

// Print renders v the way the VM's PRINT opcode does: %g-format numbers,
// true/false, nil, raw string bytes, and each Obj variant's own printed
// form.
func Print(v Value) string {
	switch v.kind {
	case Nil:
		return "nil"
	case Bool:
		if v.boolean {
			return "true"
		}
		return "false"
	case Number:
		return strconv.FormatFloat(v.number, 'g', -1, 64)
	case ObjKind:
		return v.obj.print()
	default:
		return fmt.Sprintf("<unknown value kind %d>", v.kind)
	}
}

// TypeName returns the printed type name used by the type() native.
func TypeName(v Value) string {
	switch v.kind {
	case Nil:
		return "nil"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case ObjKind:
		return v.obj.typeName()
	default:
		return "unknown"
	}
}

// Obj is the interface implemented by every heap object variant. Pointer
// identity on the concrete pointer type gives Value's required
// equality-by-identity for Obj values.
type Obj interface {
	// print returns this object's printed form, as used by the PRINT opcode
	// and the str() native.
	print() string
	// typeName returns this object's printed type name, as used by the
	// type() native.
	typeName() string
	// header returns the object's list-threading header.
	header() *objHeader
}

// objHeader threads every heap object onto the VM's process-wide object
// list, dropped as a whole at shutdown. Go's garbage collector makes this
// unnecessary for memory safety; it exists so the VM's object count can
// be asserted in tests.
type objHeader struct {
	next Obj
}

func (h *objHeader) header() *objHeader { return h }

// Chunk is a compiled bytecode unit: opcodes and inline operands, a
// parallel source-line map, and the constant pool the opcodes index into.
// It lives in this package (not lang/bytecode) because its constant pool
// is a []Value and ObjFunction embeds a Chunk — putting Chunk here keeps
// the dependency one-directional (value imports bytecode for Op, bytecode
// imports nothing of value's).
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// Write appends a single instruction byte (an opcode or a raw operand
// byte) to the chunk, recording line as the source line it compiled from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp is Write for a bytecode.Op, saving callers a byte() conversion.
func (c *Chunk) WriteOp(op bytecode.Op, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// WriteConstant emits the instruction(s) to push v, choosing OP_CONSTANT
// with a 1-byte operand when the constant pool index fits in a byte, or
// OP_CONSTANT_LONG with a 3-byte big-endian operand otherwise.
func (c *Chunk) WriteConstant(v Value, line int) {
	idx := c.AddConstant(v)
	if idx <= 0xFF {
		c.WriteOp(bytecode.CONSTANT, line)
		c.Write(byte(idx), line)
		return
	}
	c.WriteOp(bytecode.CONSTANT_LONG, line)
	c.Write(byte(idx>>16), line)
	c.Write(byte(idx>>8), line)
	c.Write(byte(idx), line)
}

// WriteJump emits op followed by a placeholder 2-byte jump offset and
// returns the offset of the first placeholder byte, for PatchJump to fill
// in once the jump target is known.
func (c *Chunk) WriteJump(op bytecode.Op, line int) int {
	c.WriteOp(op, line)
	c.Write(0xFF, line)
	c.Write(0xFF, line)
	return len(c.Code) - 2
}

// PatchJump backfills the 2-byte operand written by WriteJump at offset
// so that it jumps to the current end of the chunk. ok is false if the
// jump distance does not fit in 16 bits.
func (c *Chunk) PatchJump(offset int) (ok bool) {
	jump := len(c.Code) - offset - 2
	if jump > 0xFFFF {
		return false
	}
	c.Code[offset] = byte(jump >> 8)
	c.Code[offset+1] = byte(jump)
	return true
}

// WriteLoop emits OP_LOOP with a 2-byte backward offset to loopStart. ok is
// false if the loop body is too large to fit in 16 bits.
func (c *Chunk) WriteLoop(loopStart int, line int) (ok bool) {
	c.WriteOp(bytecode.LOOP, line)
	offset := len(c.Code) - loopStart + 2
	if offset > 0xFFFF {
		return false
	}
	c.Write(byte(offset>>8), line)
	c.Write(byte(offset), line)
	return true
}

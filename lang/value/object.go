package value

import "fmt"

// HashString computes the 32-bit FNV-1a hash of s, exactly as clox's
// hash_string: an offset basis of 2166136261, prime 16777619, folded byte
// by byte.
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// ObjString is an immutable, interned string. Two ObjStrings with equal
// bytes are always the same *ObjString pointer once interned by the VM's
// string table; callers outside the VM's interning path (e.g. the
// compiler copying a literal) must still route through the VM's intern
// set before use.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

// NewString builds an ObjString with its hash precomputed. It does not
// intern s; callers intern through the VM's string table.
func NewString(s string) *ObjString {
	return &ObjString{Chars: s, Hash: HashString(s)}
}

func (s *ObjString) print() string    { return s.Chars }
func (s *ObjString) typeName() string { return "string" }

// NextObj and SetNextObj give package vm access to the otherwise-private
// intrusive list pointer every Obj carries, so the VM can thread each new
// allocation onto its process-wide object list without this package
// needing to know anything about the VM.
func NextObj(o Obj) Obj        { return o.header().next }
func SetNextObj(o, next Obj) { o.header().next = next }

// ObjFunction is a user-defined function: its compiled body, arity, the
// number of upvalues its closures must capture, and an optional name
// (empty ⇒ the top-level script).
type ObjFunction struct {
	objHeader
	Name         string
	Arity        int
	UpvalueCount int
	Chunk        Chunk
}

func (f *ObjFunction) print() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}
func (f *ObjFunction) typeName() string { return "function" }

// NativeFn is the signature a host-provided native function must
// implement: given its arguments, it returns a result or an error.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a host callable reachable from script code by name.
type ObjNative struct {
	objHeader
	Name string
	Fn   NativeFn
}

func (n *ObjNative) print() string    { return "<native fn>" }
func (n *ObjNative) typeName() string { return "native" }

// ObjUpvalue references a captured local. While Open, Location points at
// a live stack slot and Slot records that slot's index (used only to
// order the VM's open-upvalue list; meaningless once closed). Once
// Closed, Location points at the upvalue's own Closed field, which owns a
// copy of the value. Next threads the VM's global open-upvalue list,
// kept in strictly descending Slot order, here expressed as a slot index
// rather than a raw stack address since Go gives no ordered comparison
// over pointers.
type ObjUpvalue struct {
	objHeader
	Location *Value
	Slot     int
	Closed   Value
	Next     *ObjUpvalue
}

// NewUpvalue returns an open upvalue pointing at the stack slot at index
// slot, located at loc.
func NewUpvalue(loc *Value, slot int) *ObjUpvalue {
	return &ObjUpvalue{Location: loc, Slot: slot}
}

// Close copies the current value at Location into Closed and redirects
// Location to point at it, detaching the upvalue from open-list duty.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

func (u *ObjUpvalue) print() string    { return "<upvalue>" }
func (u *ObjUpvalue) typeName() string { return "upvalue" }

// ObjClosure pairs an ObjFunction with the resolved upvalues its body
// references; it is the callable runtime value for user-defined
// functions.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

// NewClosure wraps fn, allocating an empty upvalue slice sized to the
// function's upvalue count, to be filled in by the VM's OP_CLOSURE
// handler.
func NewClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
}

// print/typeName delegate to the underlying function: a closure prints
// and types exactly as its function would.
func (c *ObjClosure) print() string    { return c.Function.print() }
func (c *ObjClosure) typeName() string { return "closure" }

package value

import (
	"errors"

	"github.com/dolthub/swiss"
)

// ErrUnsupportedMapKey is returned when map_set is asked to key by a
// non-hashable value (function, closure, map, upvalue). map_get does not
// return it: Get yields nil for such keys.
var ErrUnsupportedMapKey = errors.New("unsupported map key type")

// ObjMap is a built-in hash map value, reachable only through the
// map/map_set/map_get/map_len natives, never through new syntax or
// opcodes. Backed by github.com/dolthub/swiss, a generic open-addressed
// map.
type ObjMap struct {
	objHeader
	m *swiss.Map[Value, Value]
}

// NewMap returns an empty map.
func NewMap() *ObjMap {
	return &ObjMap{m: swiss.NewMap[Value, Value](0)}
}

// Hashable reports whether v may be used as a map key: only nil, bool,
// number, and string values are hashable.
func Hashable(v Value) bool {
	switch v.kind {
	case Nil, Bool, Number:
		return true
	case ObjKind:
		return v.IsString()
	default:
		return false
	}
}

// Set stores value under key, returning ErrUnsupportedMapKey if key is not
// hashable.
func (m *ObjMap) Set(key, val Value) error {
	if !Hashable(key) {
		return ErrUnsupportedMapKey
	}
	m.m.Put(key, val)
	return nil
}

// Get returns the value stored under key, or NilValue if absent or key is
// not hashable.
func (m *ObjMap) Get(key Value) Value {
	if !Hashable(key) {
		return NilValue
	}
	v, ok := m.m.Get(key)
	if !ok {
		return NilValue
	}
	return v
}

// Len returns the number of entries in m.
func (m *ObjMap) Len() int { return int(m.m.Count()) }

func (m *ObjMap) print() string    { return "<map>" }
func (m *ObjMap) typeName() string { return "map" }

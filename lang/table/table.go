// Package table implements the VM-internal open-addressed hash table
// keyed by interned strings, with tombstone deletion. It is hand-rolled
// rather than a reusable generic map because its load-factor and
// tombstone bookkeeping are directly observable VM behavior, not an
// implementation detail to hide behind a generic container.
package table

import "github.com/mna/lumen/lang/value"

// maxLoad is the load factor above which Table grows, matching clox's
// TABLE_MAX_LOAD.
const maxLoad = 0.75

// initialCapacity is the first capacity a Table grows to, matching
// clox's GROW_CAPACITY(0).
const initialCapacity = 8

// entry is a single table slot. A nil Key with a Nil value is an empty
// slot never yet occupied; a nil Key with a true Bool value is a
// tombstone: a slot that held an entry which was deleted. Probing must
// traverse tombstones; inserts may reclaim the first one seen.
type entry struct {
	Key   *value.ObjString
	Value value.Value
}

func (e entry) isEmpty() bool {
	return e.Key == nil && e.Value.IsNil()
}

func (e entry) isTombstone() bool {
	return e.Key == nil && e.Value.IsBool() && e.Value.AsBool()
}

// Table is an open-addressed hash map from interned strings to Values.
type Table struct {
	count   int // live entries plus tombstones, drives the load factor
	entries []entry
}

// New returns an empty Table.
func New() *Table {
	return &Table{}
}

// Count returns the number of live (non-tombstone) entries.
func (t *Table) Count() int {
	return t.count - t.tombstones()
}

func (t *Table) tombstones() int {
	n := 0
	for _, e := range t.entries {
		if e.isTombstone() {
			n++
		}
	}
	return n
}

// Get returns the value stored under key, and whether it was present.
func (t *Table) Get(key *value.ObjString) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.NilValue, false
	}
	e := t.findEntry(t.entries, key)
	if e.Key == nil {
		return value.NilValue, false
	}
	return e.Value, true
}

// Set stores val under key, growing the table first if doing so would
// push the load factor (count+1)/capacity above 0.75. It returns true if
// this created a new entry, false if it overwrote an existing one.
func (t *Table) Set(key *value.ObjString, val value.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.grow(growCapacity(len(t.entries)))
	}
	e := t.findEntry(t.entries, key)
	isNew := e.Key == nil
	if isNew && e.Value.IsNil() {
		t.count++
	}
	e.Key = key
	e.Value = val
	return isNew
}

// Delete replaces the entry for key with a tombstone, if present. count is
// left unchanged: tombstones still count toward the load factor until the
// next growth discards them.
func (t *Table) Delete(key *value.ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = value.BoolValue(true)
	return true
}

// FindString probes the table by raw byte content and hash rather than by
// *ObjString identity; it is used only by the VM's intern set to answer
// "is there already an interned string with these exact bytes?"
func (t *Table) FindString(chars string, hash uint32) *value.ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := uint32(len(t.entries))
	idx := hash % capacity
	for {
		e := &t.entries[idx]
		switch {
		case e.Key == nil:
			if e.Value.IsNil() {
				return nil
			}
		case e.Key.Hash == hash && e.Key.Chars == chars:
			return e.Key
		}
		idx = (idx + 1) % capacity
	}
}

// Keys returns every live (non-tombstone) key, in unspecified order.
func (t *Table) Keys() []*value.ObjString {
	keys := make([]*value.ObjString, 0, t.Count())
	for _, e := range t.entries {
		if e.Key != nil {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// AddAll copies every live entry of src into t (used nowhere in the core
// VM path today, kept for parity with clox's table_add_all; grow does its
// own reinsertion and does not call it).
func (t *Table) AddAll(src *Table) {
	for _, e := range src.entries {
		if e.Key != nil {
			t.Set(e.Key, e.Value)
		}
	}
}

// findEntry linearly probes from hash(key) % capacity, matching clox's
// find_entry: it returns the matching live slot, or the first tombstone
// seen if none matches, or the first empty slot otherwise.
func (t *Table) findEntry(entries []entry, key *value.ObjString) *entry {
	capacity := uint32(len(entries))
	idx := key.Hash % capacity
	var tombstone *entry
	for {
		e := &entries[idx]
		switch {
		case e.Key == nil:
			if e.Value.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.Key == key:
			return e
		}
		idx = (idx + 1) % capacity
	}
}

// grow reallocates the table at newCapacity, reinserting every live entry
// (dropping tombstones) and resetting count to the live population,
// exactly as clox's adjust_capacity.
func (t *Table) grow(newCapacity int) {
	next := make([]entry, newCapacity)
	for i := range next {
		next[i] = entry{Value: value.NilValue}
	}

	liveCount := 0
	for _, e := range t.entries {
		if e.Key == nil {
			continue
		}
		dst := t.findEntry(next, e.Key)
		dst.Key = e.Key
		dst.Value = e.Value
		liveCount++
	}

	t.entries = next
	t.count = liveCount
}

func growCapacity(capacity int) int {
	if capacity < initialCapacity {
		return initialCapacity
	}
	return capacity * 2
}

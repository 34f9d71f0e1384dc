package table_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/lumen/lang/table"
	"github.com/mna/lumen/lang/value"
)

// str interns by content so that two calls with the same bytes return the
// same *ObjString, matching how the VM itself produces keys. Table looks
// up by pointer identity (see findEntry), so tests that Set and later
// Get/Delete "the same key" must go through this rather than
// value.NewString, which would mint a distinct, unequal pointer each time.
var internedStrings = map[string]*value.ObjString{}

func str(s string) *value.ObjString {
	if o, ok := internedStrings[s]; ok {
		return o
	}
	o := value.NewString(s)
	internedStrings[s] = o
	return o
}

func TestSetGetDelete(t *testing.T) {
	tb := table.New()
	k := str("foo")

	_, ok := tb.Get(k)
	assert.False(t, ok)

	isNew := tb.Set(k, value.NumberValue(42))
	assert.True(t, isNew)

	v, ok := tb.Get(k)
	require.True(t, ok)
	assert.Equal(t, float64(42), v.AsNumber())

	isNew = tb.Set(k, value.NumberValue(7))
	assert.False(t, isNew, "re-setting an existing key is not a new entry")

	ok = tb.Delete(k)
	assert.True(t, ok)
	_, ok = tb.Get(k)
	assert.False(t, ok)

	ok = tb.Delete(k)
	assert.False(t, ok, "deleting an already-deleted key reports not-found")
}

func TestFindString(t *testing.T) {
	tb := table.New()
	k := str("hello")
	tb.Set(k, value.NilValue)

	found := tb.FindString("hello", value.HashString("hello"))
	assert.Same(t, k, found)

	assert.Nil(t, tb.FindString("goodbye", value.HashString("goodbye")))
}

// TestLoadFactorInvariant drives the table through repeated growth with a
// mixed sequence of inserts and deletes and checks that the final live
// count does not exceed the 500 keys inserted. Capacity is not exported,
// so the count/capacity ratio itself is not asserted here.
func TestLoadFactorInvariant(t *testing.T) {
	tb := table.New()
	for i := 0; i < 500; i++ {
		tb.Set(str(fmt.Sprintf("key-%d", i)), value.NumberValue(float64(i)))
		if i%3 == 0 {
			tb.Delete(str(fmt.Sprintf("key-%d", i/2)))
		}
	}
	assert.LessOrEqual(t, tb.Count(), 500)
}

func TestGrowthPreservesLiveEntries(t *testing.T) {
	tb := table.New()
	keys := make([]*value.ObjString, 0, 20)
	for i := 0; i < 20; i++ {
		k := str(fmt.Sprintf("k%d", i))
		keys = append(keys, k)
		tb.Set(k, value.NumberValue(float64(i)))
	}
	for i, k := range keys {
		v, ok := tb.Get(k)
		require.True(t, ok)
		assert.Equal(t, float64(i), v.AsNumber())
	}
	assert.Equal(t, 20, tb.Count())
}

func TestTombstoneReclaimedOnInsert(t *testing.T) {
	tb := table.New()
	a, b := str("a"), str("b")
	tb.Set(a, value.NumberValue(1))
	tb.Delete(a)
	// re-inserting after a delete must not grow count beyond live entries
	tb.Set(b, value.NumberValue(2))
	assert.Equal(t, 1, tb.Count())
}

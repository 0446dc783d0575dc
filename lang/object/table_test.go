package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetGetDelete(t *testing.T) {
	tbl := NewTable()
	k1 := &String{Chars: "a", Hash: hashFNV1a("a")}
	k2 := &String{Chars: "b", Hash: hashFNV1a("b")}

	isNew := tbl.Set(k1, Number(1))
	assert.True(t, isNew)
	isNew = tbl.Set(k2, Number(2))
	assert.True(t, isNew)

	v, ok := tbl.Get(k1)
	require.True(t, ok)
	assert.Equal(t, float64(1), v.AsNumber())

	isNew = tbl.Set(k1, Number(9))
	assert.False(t, isNew, "overwriting an existing key is not a new entry")
	v, ok = tbl.Get(k1)
	require.True(t, ok)
	assert.Equal(t, float64(9), v.AsNumber())

	assert.True(t, tbl.Delete(k1))
	_, ok = tbl.Get(k1)
	assert.False(t, ok)

	// deleting k1 leaves a tombstone; k2 must still be found afterwards.
	v, ok = tbl.Get(k2)
	require.True(t, ok)
	assert.Equal(t, float64(2), v.AsNumber())
}

func TestTableGrowRehashesLiveEntries(t *testing.T) {
	tbl := NewTable()
	keys := make([]*String, 0, 64)
	for i := 0; i < 64; i++ {
		s := string(rune('a' + i%26))
		s += string(rune('A' + i%26))
		k := &String{Chars: s, Hash: hashFNV1a(s)}
		keys = append(keys, k)
		tbl.Set(k, Number(float64(i)))
	}
	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		assert.Equal(t, float64(i), v.AsNumber())
	}
	assert.Equal(t, 64, tbl.Count())
}

func TestTableFindString(t *testing.T) {
	tbl := NewTable()
	k := &String{Chars: "hello", Hash: hashFNV1a("hello")}
	tbl.Set(k, Nil)

	found := tbl.FindString("hello", hashFNV1a("hello"))
	assert.Same(t, k, found)

	assert.Nil(t, tbl.FindString("missing", hashFNV1a("missing")))
}

func TestTableRemoveWhite(t *testing.T) {
	tbl := NewTable()
	live := &String{Chars: "live", Hash: hashFNV1a("live")}
	dead := &String{Chars: "dead", Hash: hashFNV1a("dead")}
	tbl.Set(live, Nil)
	tbl.Set(dead, Nil)

	live.setMarked(true)
	tbl.removeWhite()

	_, ok := tbl.Get(live)
	assert.True(t, ok)
	_, ok = tbl.Get(dead)
	assert.False(t, ok)
}

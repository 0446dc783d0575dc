package object

// Table is an open-addressed hash table keyed by interned *String,
// storing Values. It is implemented directly rather than wrapping a
// generic map: linear probing, tombstone deletion, a power-of-two
// capacity grown at a 0.75 load factor, and a weak-traversal mode used by
// the Heap to sweep dead strings out of the intern table without keeping
// them alive.
type Table struct {
	count   int // live entries, not counting tombstones
	entries []entry
}

type entry struct {
	key   *String // nil = empty or tombstone, disambiguated by dead
	value Value
	dead  bool // tombstone: was occupied, now empty
}

const tableMaxLoad = 0.75

// NewTable returns an empty Table.
func NewTable() *Table { return &Table{} }

// Count returns the number of live entries.
func (t *Table) Count() int { return t.count }

// Get returns the value stored under key, if any.
func (t *Table) Get(key *String) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	e := t.find(key)
	if e == nil || e.key == nil {
		return Nil, false
	}
	return e.value, true
}

// Set stores value under key, growing the table first if that would push
// the load factor past tableMaxLoad. Returns true if this created a new
// entry (as opposed to overwriting an existing one).
func (t *Table) Set(key *String, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow()
	}
	e := t.find(key)
	isNew := e.key == nil
	if isNew {
		t.count++
	}
	e.key = key
	e.value = value
	e.dead = false
	return isNew
}

// Delete removes key, leaving a tombstone so later probes that skipped
// over it during insertion still find their targets.
func (t *Table) Delete(key *String) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e == nil || e.key == nil {
		return false
	}
	e.key = nil
	e.dead = true
	t.count--
	return true
}

// find locates the slot key belongs in: either the slot already holding
// it, or the first empty/tombstone slot probed along its linear run.
func (t *Table) find(key *String) *entry {
	n := len(t.entries)
	idx := int(key.Hash) & (n - 1)
	var tombstone *entry
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil && !e.dead:
			if tombstone != nil {
				return tombstone
			}
			return e
		case e.key == nil && e.dead:
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		idx = (idx + 1) & (n - 1)
	}
}

// FindString probes for an interned string with the given bytes and hash
// without allocating one, so the Heap can canonicalize new string
// literals/concatenation results against existing interned strings.
func (t *Table) FindString(chars string, hash uint32) *String {
	if len(t.entries) == 0 {
		return nil
	}
	n := len(t.entries)
	idx := int(hash) & (n - 1)
	for {
		e := &t.entries[idx]
		if e.key == nil && !e.dead {
			return nil
		}
		if e.key != nil && e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		idx = (idx + 1) & (n - 1)
	}
}

// grow doubles capacity (from a zero-value table, starts at 8) and
// rehashes every live entry into the new array, dropping tombstones.
func (t *Table) grow() {
	newCap := 8
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for _, e := range old {
		if e.key == nil {
			continue
		}
		ne := t.find(e.key)
		ne.key = e.key
		ne.value = e.value
		t.count++
	}
}

// Each calls fn for every live entry. Iteration order is unspecified.
func (t *Table) Each(fn func(key *String, value Value)) {
	for _, e := range t.entries {
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}

// trace marks every live key and value as reachable, for use by Table
// instances owned by a Class's methods or an Instance's fields.
func (t *Table) trace(h *Heap) {
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		h.mark(e.key)
		h.markValue(e.value)
	}
}

// removeWhite sweeps out every entry whose key is unmarked, used by the
// Heap to purge dead strings from the intern table after tracing without
// itself rooting (and thereby immortalizing) every interned string.
func (t *Table) removeWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.marked() {
			e.key = nil
			e.dead = true
			t.count--
		}
	}
}

func (t *Table) approxSize() uintptr {
	return uintptr(len(t.entries) * 40)
}

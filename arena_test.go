package nodegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaInsertGet(t *testing.T) {
	var a arena[string]

	h1 := a.insert("one")
	h2 := a.insert("two")
	assert.Equal(t, 2, a.len())

	v, ok := a.get(h1)
	require.True(t, ok)
	assert.Equal(t, "one", *v)

	v, ok = a.get(h2)
	require.True(t, ok)
	assert.Equal(t, "two", *v)
}

func TestArenaStaleHandle(t *testing.T) {
	var a arena[string]

	h := a.insert("one")
	removed, ok := a.remove(h)
	require.True(t, ok)
	assert.Equal(t, "one", removed)

	// The handle is dead from now on, whatever reuses the slot.
	_, ok = a.get(h)
	assert.False(t, ok)
	_, ok = a.remove(h)
	assert.False(t, ok)

	h2 := a.insert("two")
	assert.Equal(t, h.slot, h2.slot, "slot should be reused")
	assert.NotEqual(t, h.generation, h2.generation)

	_, ok = a.get(h)
	assert.False(t, ok)
	v, ok := a.get(h2)
	require.True(t, ok)
	assert.Equal(t, "two", *v)
}

func TestArenaClearInvalidatesHandles(t *testing.T) {
	var a arena[int]

	h1 := a.insert(1)
	h2 := a.insert(2)
	a.clear()
	assert.Equal(t, 0, a.len())

	_, ok := a.get(h1)
	assert.False(t, ok)
	_, ok = a.get(h2)
	assert.False(t, ok)

	h3 := a.insert(3)
	_, ok = a.get(h1)
	assert.False(t, ok, "pre-clear handle must not alias the new entry")
	v, ok := a.get(h3)
	require.True(t, ok)
	assert.Equal(t, 3, *v)
}

func TestArenaKeys(t *testing.T) {
	var a arena[int]

	h1 := a.insert(1)
	h2 := a.insert(2)
	h3 := a.insert(3)
	a.remove(h2)

	var seen []handle
	for h := range a.keys() {
		seen = append(seen, h)
	}
	assert.ElementsMatch(t, []handle{h1, h3}, seen)
}

func TestArenaInsertAt(t *testing.T) {
	var a arena[string]

	a.insertAt(handle{slot: 3, generation: 7}, "late")
	a.insertAt(handle{slot: 0, generation: 2}, "early")
	a.rebuildFree()

	v, ok := a.get(handle{slot: 3, generation: 7})
	require.True(t, ok)
	assert.Equal(t, "late", *v)

	_, ok = a.get(handle{slot: 3, generation: 6})
	assert.False(t, ok)

	// Free slots 1 and 2 get reused before the arena grows.
	h := a.insert("filler")
	assert.Less(t, h.slot, uint32(3))
	assert.Equal(t, 3, a.len())
}

func TestArenaClone(t *testing.T) {
	var a arena[int]
	h := a.insert(42)

	c := a.clone()
	v, ok := c.get(h)
	require.True(t, ok)
	assert.Equal(t, 42, *v)

	// Mutating the clone leaves the original alone.
	c.remove(h)
	_, ok = a.get(h)
	assert.True(t, ok)
}

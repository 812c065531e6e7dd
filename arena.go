package nodegraph

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// handle is a generational index into an arena: a slot number tagged with the
// generation the slot carried when the entry was inserted. Removing an entry
// bumps the slot's generation, so a handle held across a remove stops
// resolving instead of aliasing whatever reuses the slot.
type handle struct {
	slot       uint32
	generation uint32
}

func (h handle) String() string {
	return fmt.Sprintf("%d:%d", h.slot, h.generation)
}

func parseHandle(s string) (handle, error) {
	slotStr, genStr, ok := strings.Cut(s, ":")
	if !ok {
		return handle{}, fmt.Errorf("nodegraph: malformed id %q", s)
	}
	slot, err := strconv.ParseUint(slotStr, 10, 32)
	if err != nil {
		return handle{}, fmt.Errorf("nodegraph: malformed id %q", s)
	}
	gen, err := strconv.ParseUint(genStr, 10, 32)
	if err != nil {
		return handle{}, fmt.Errorf("nodegraph: malformed id %q", s)
	}
	return handle{slot: uint32(slot), generation: uint32(gen)}, nil
}

type arenaSlot[T any] struct {
	generation uint32
	occupied   bool
	value      T
}

// arena is a generational-index store. Slots are reused through a free list,
// and every removal bumps the slot's generation so stale handles resolve to
// "not found" rather than to the new occupant.
type arena[T any] struct {
	slots []arenaSlot[T]
	free  []uint32
	count int
}

func (a *arena[T]) insert(v T) handle {
	if n := len(a.free); n > 0 {
		slot := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[slot].occupied = true
		a.slots[slot].value = v
		a.count++
		return handle{slot: slot, generation: a.slots[slot].generation}
	}
	// Fresh slots start at generation 1, so the zero handle is never live.
	a.slots = append(a.slots, arenaSlot[T]{generation: 1, occupied: true, value: v})
	a.count++
	return handle{slot: uint32(len(a.slots) - 1), generation: 1}
}

// insertAt places a value at an exact (slot, generation) position. It is used
// when rebuilding a graph from a snapshot, where handles must come back at
// their recorded positions. The free list is rebuilt by the caller via
// rebuildFree once all entries are placed.
func (a *arena[T]) insertAt(h handle, v T) {
	for uint32(len(a.slots)) <= h.slot {
		a.slots = append(a.slots, arenaSlot[T]{})
	}
	s := &a.slots[h.slot]
	s.generation = h.generation
	s.occupied = true
	s.value = v
	a.count++
}

func (a *arena[T]) rebuildFree() {
	a.free = a.free[:0]
	for i := range a.slots {
		if !a.slots[i].occupied {
			if a.slots[i].generation == 0 {
				a.slots[i].generation = 1
			}
			a.free = append(a.free, uint32(i))
		}
	}
}

func (a *arena[T]) get(h handle) (*T, bool) {
	if h.slot >= uint32(len(a.slots)) {
		return nil, false
	}
	s := &a.slots[h.slot]
	if !s.occupied || s.generation != h.generation {
		return nil, false
	}
	return &s.value, true
}

func (a *arena[T]) remove(h handle) (T, bool) {
	var zero T
	if h.slot >= uint32(len(a.slots)) {
		return zero, false
	}
	s := &a.slots[h.slot]
	if !s.occupied || s.generation != h.generation {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.occupied = false
	s.generation++
	a.free = append(a.free, h.slot)
	a.count--
	return v, true
}

func (a *arena[T]) len() int { return a.count }

// clear removes every entry. Generations are bumped slot by slot so handles
// issued before the clear stay invalid afterwards.
func (a *arena[T]) clear() {
	var zero T
	for i := range a.slots {
		if a.slots[i].occupied {
			a.slots[i].occupied = false
			a.slots[i].generation++
			a.slots[i].value = zero
			a.free = append(a.free, uint32(i))
		}
	}
	a.count = 0
}

// keys yields the handle of every live entry. The sequence is invalidated by
// any mutation of the arena; collect it first if you mutate while iterating.
func (a *arena[T]) keys() iter.Seq[handle] {
	return func(yield func(handle) bool) {
		for i := range a.slots {
			if !a.slots[i].occupied {
				continue
			}
			if !yield(handle{slot: uint32(i), generation: a.slots[i].generation}) {
				return
			}
		}
	}
}

// clone copies the arena. Values are copied by assignment; interface-typed
// payloads end up shared between the two arenas.
func (a *arena[T]) clone() arena[T] {
	c := arena[T]{
		slots: make([]arenaSlot[T], len(a.slots)),
		free:  make([]uint32, len(a.free)),
		count: a.count,
	}
	copy(c.slots, a.slots)
	copy(c.free, a.free)
	return c
}

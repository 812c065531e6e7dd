package nodegraph

// outputCache memoizes the last value computed for each output. It is a pure
// memoization layer: only the evaluation engine writes it, only the mutation
// API evicts from it, and it never holds a value for an input.
type outputCache struct {
	values map[OutputID]Value
}

func newOutputCache() outputCache {
	return outputCache{values: make(map[OutputID]Value)}
}

func (c *outputCache) insert(out OutputID, v Value) {
	c.values[out] = v
}

func (c *outputCache) get(out OutputID) (Value, bool) {
	v, ok := c.values[out]
	return v, ok
}

func (c *outputCache) remove(out OutputID) {
	delete(c.values, out)
}

func (c *outputCache) len() int { return len(c.values) }

func (c *outputCache) clear() {
	clear(c.values)
}

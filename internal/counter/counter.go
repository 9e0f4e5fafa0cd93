// Package counter implements the sparse edge counter shared by the run and
// cumulative coverage maps.
package counter

import "sync"

// Counter maps an edge id to a non-negative count and keeps an append-only
// log of keys that have gone non-zero, so callers can enumerate touched
// edges without scanning the whole key space.
//
// The non-zero log may contain duplicates and zero-valued keys: a key is
// appended whenever its prior value is zero, so IncrementBy(k, 0) on an
// untouched key logs k while its value stays 0, and a later increment of k
// logs it again. Consumers must treat it as a superset of the true non-zero
// key set, never as a deduplicated list.
type Counter struct {
	mu      sync.Mutex
	values  map[uint32]uint32
	nonZero []uint32
}

// New returns an empty Counter.
func New() *Counter {
	return &Counter{values: make(map[uint32]uint32)}
}

// Increment adds 1 to key and returns the new count.
func (c *Counter) Increment(key uint32) uint32 {
	return c.IncrementBy(key, 1)
}

// IncrementBy adds delta to key and returns the new count. If the prior
// value was zero, key is appended to the non-zero log.
func (c *Counter) IncrementBy(key uint32, delta uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.values[key]
	next := prev + delta
	c.values[key] = next
	if prev == 0 {
		c.nonZero = append(c.nonZero, key)
	}
	return next
}

// Get returns the current count for key, 0 if never touched.
func (c *Counter) Get(key uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key]
}

// Size returns the number of distinct keys in the value map, including keys
// stored with value zero by a zero-delta IncrementBy.
func (c *Counter) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// NonZeroSize returns the number of keys whose current value is non-zero.
// This is an O(n) scan over the underlying map, not the non-zero log.
func (c *Counter) NonZeroSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.values {
		if v != 0 {
			n++
		}
	}
	return n
}

// NonZeroKeys returns a copy of the append-only non-zero key log. It may
// contain duplicates and entries for keys whose value is zero (logged by a
// zero-delta IncrementBy); callers must re-check Get before trusting a key.
func (c *Counter) NonZeroKeys() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint32, len(c.nonZero))
	copy(out, c.nonZero)
	return out
}

// NonZeroValues returns, for each entry in the non-zero log, the key's
// current value (0 for a key logged by a zero-delta IncrementBy).
func (c *Counter) NonZeroValues() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint32, len(c.nonZero))
	for i, k := range c.nonZero {
		out[i] = c.values[k]
	}
	return out
}

// Clear empties both the value map and the non-zero log.
func (c *Counter) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[uint32]uint32)
	c.nonZero = nil
}

// CopyFrom replaces the receiver's contents with a snapshot of src.
func (c *Counter) CopyFrom(src *Counter) {
	src.mu.Lock()
	values := make(map[uint32]uint32, len(src.values))
	for k, v := range src.values {
		values[k] = v
	}
	nonZero := make([]uint32, len(src.nonZero))
	copy(nonZero, src.nonZero)
	src.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = values
	c.nonZero = nonZero
}

// Each calls fn once for every distinct key in the non-zero log whose
// current value is non-zero, skipping duplicate and zero-valued entries.
func (c *Counter) Each(fn func(key, value uint32)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[uint32]struct{}, len(c.nonZero))
	for _, k := range c.nonZero {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if v := c.values[k]; v != 0 {
			fn(k, v)
		}
	}
}

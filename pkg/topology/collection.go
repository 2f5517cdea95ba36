package topology

import "iter"

// Collection is a map that remembers insertion order. Re-putting an
// existing key replaces its value in place; deleting and re-adding moves
// the key to the end.
type Collection[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// NewCollection returns an empty collection.
func NewCollection[K comparable, V any]() *Collection[K, V] {
	return &Collection[K, V]{values: make(map[K]V)}
}

// Put stores v under k.
func (c *Collection[K, V]) Put(k K, v V) {
	if _, ok := c.values[k]; !ok {
		c.keys = append(c.keys, k)
	}
	c.values[k] = v
}

// Get returns the value stored under k.
func (c *Collection[K, V]) Get(k K) (V, bool) {
	v, ok := c.values[k]
	return v, ok
}

// Has reports whether k is present.
func (c *Collection[K, V]) Has(k K) bool {
	_, ok := c.values[k]
	return ok
}

// Delete removes k. It is a no-op if k is absent.
func (c *Collection[K, V]) Delete(k K) {
	if _, ok := c.values[k]; !ok {
		return
	}
	delete(c.values, k)
	for i, key := range c.keys {
		if key == k {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (c *Collection[K, V]) Len() int {
	return len(c.keys)
}

// Keys returns the keys in insertion order.
func (c *Collection[K, V]) Keys() []K {
	out := make([]K, len(c.keys))
	copy(out, c.keys)
	return out
}

// All iterates entries in insertion order. The collection must not be
// modified during iteration.
func (c *Collection[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range c.keys {
			if !yield(k, c.values[k]) {
				return
			}
		}
	}
}

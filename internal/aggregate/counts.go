// Package aggregate implements the streaming frequency aggregation used by
// every analysis axis: batched scans over a row source, additive merging of
// per-batch partial counts, and top-N extraction over the final totals.
package aggregate

// Entry is one key/count pair of a frequency mapping.
type Entry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Counts is a frequency mapping from key to occurrence count that remembers
// the order in which keys were first inserted. Insertion order is what makes
// top-N tie-breaking deterministic: Go map iteration order is randomized, so
// the order slice is the source of truth for traversal.
//
// Counts is owned by a single scan and is not safe for concurrent mutation.
type Counts struct {
	counts map[string]int
	order  []string
}

// NewCounts creates an empty frequency mapping.
func NewCounts() *Counts {
	return &Counts{
		counts: make(map[string]int),
	}
}

// Add increments the count for key by one.
func (c *Counts) Add(key string) {
	c.AddN(key, 1)
}

// AddN increments the count for key by n. Keys absent from the mapping start
// at zero. Non-positive increments are ignored so merges cannot remove keys.
func (c *Counts) AddN(key string, n int) {
	if n <= 0 {
		return
	}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

// Merge folds other into c by key-wise addition. Keys new to c keep the
// first-insertion position they had in other, so merging per-batch partials
// in batch order yields the same insertion order as a single-batch scan.
func (c *Counts) Merge(other *Counts) {
	if other == nil {
		return
	}
	for _, key := range other.order {
		c.AddN(key, other.counts[key])
	}
}

// Get returns the count for key, zero when absent.
func (c *Counts) Get(key string) int {
	return c.counts[key]
}

// Len returns the number of distinct keys.
func (c *Counts) Len() int {
	return len(c.counts)
}

// Sum returns the total of all counts: the number of key occurrences that
// contributed to the mapping.
func (c *Counts) Sum() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Entries returns the mapping as a slice in first-insertion order.
func (c *Counts) Entries() []Entry {
	entries := make([]Entry, 0, len(c.order))
	for _, key := range c.order {
		entries = append(entries, Entry{Key: key, Count: c.counts[key]})
	}
	return entries
}

// Keys returns the distinct keys in first-insertion order.
func (c *Counts) Keys() []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

package aggregate

import "sort"

// TopN returns the n highest-count entries of the mapping, sorted by count
// descending. Ties keep first-insertion order: the stable sort starts from
// the insertion-ordered entries, so among equal counts the key seen first
// in the scan comes first. Returns all entries when n exceeds the key count
// and nil when n is not positive.
func TopN(c *Counts, n int) []Entry {
	if c == nil || n <= 0 {
		return nil
	}

	entries := c.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

package aggregate

import (
	"reflect"
	"testing"
)

func TestTopN(t *testing.T) {
	t.Parallel()

	build := func(pairs ...Entry) *Counts {
		c := NewCounts()
		for _, p := range pairs {
			c.AddN(p.Key, p.Count)
		}
		return c
	}

	tests := []struct {
		name     string
		counts   *Counts
		n        int
		expected []Entry
	}{
		{
			name:     "unique counts sorted descending",
			counts:   build(Entry{"plos one", 2}, Entry{"nature", 5}, Entry{"lancet", 3}),
			n:        3,
			expected: []Entry{{"nature", 5}, {"lancet", 3}, {"plos one", 2}},
		},
		{
			name:     "truncates to n",
			counts:   build(Entry{"a", 4}, Entry{"b", 3}, Entry{"c", 2}, Entry{"d", 1}),
			n:        2,
			expected: []Entry{{"a", 4}, {"b", 3}},
		},
		{
			name:     "ties keep first insertion order",
			counts:   build(Entry{"bmj", 2}, Entry{"cell", 2}, Entry{"nature", 2}),
			n:        3,
			expected: []Entry{{"bmj", 2}, {"cell", 2}, {"nature", 2}},
		},
		{
			name:     "tie below a higher count",
			counts:   build(Entry{"late", 1}, Entry{"top", 7}, Entry{"early", 1}),
			n:        2,
			expected: []Entry{{"top", 7}, {"late", 1}},
		},
		{
			name:     "n larger than key count returns all",
			counts:   build(Entry{"x", 1}),
			n:        10,
			expected: []Entry{{"x", 1}},
		},
		{
			name:     "zero n returns nil",
			counts:   build(Entry{"x", 1}),
			n:        0,
			expected: nil,
		},
		{
			name:     "negative n returns nil",
			counts:   build(Entry{"x", 1}),
			n:        -1,
			expected: nil,
		},
		{
			name:     "empty mapping",
			counts:   NewCounts(),
			n:        5,
			expected: []Entry{},
		},
		{
			name:     "nil mapping",
			counts:   nil,
			n:        5,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := TopN(tt.counts, tt.n)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("TopN(n=%d) = %v, want %v", tt.n, got, tt.expected)
			}
		})
	}
}

func TestTopN_DeterministicAcrossRebuilds(t *testing.T) {
	t.Parallel()

	// The same insertion sequence must yield the same top-N on every build,
	// regardless of map iteration randomization.
	sequence := []string{"beta", "alpha", "gamma", "alpha", "beta", "delta"}

	var first []Entry
	for i := 0; i < 20; i++ {
		c := NewCounts()
		for _, k := range sequence {
			c.Add(k)
		}
		got := TopN(c, 3)
		if first == nil {
			first = got
			continue
		}
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("TopN changed between identical builds: %v vs %v", got, first)
		}
	}

	want := []Entry{{"beta", 2}, {"alpha", 2}, {"gamma", 1}}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("TopN = %v, want %v", first, want)
	}
}

func TestTopN_DoesNotMutateCounts(t *testing.T) {
	t.Parallel()

	c := NewCounts()
	c.Add("b")
	c.AddN("a", 3)

	_ = TopN(c, 2)

	want := []Entry{{"b", 1}, {"a", 3}}
	if got := c.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v after TopN, want %v", got, want)
	}
}

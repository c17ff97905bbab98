package analysis

import "github.com/cse140l/digigrade/gatestats"

// Cache keeps gate statistics by circuit name for the duration of a run.
// It is not safe for concurrent use.
type Cache struct {
	entries map[string]gatestats.Result
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]gatestats.Result{}}
}

// Get returns the cached statistics of circuit.
func (c *Cache) Get(circuit string) (gatestats.Result, bool) {
	res, ok := c.entries[circuit]
	return res, ok
}

// Put stores the statistics of circuit.
func (c *Cache) Put(circuit string, res gatestats.Result) {
	c.entries[circuit] = res
}

// Len returns the number of cached circuits.
func (c *Cache) Len() int {
	return len(c.entries)
}

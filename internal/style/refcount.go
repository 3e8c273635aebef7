package style

import (
	"sort"

	"mindnoscape/workbook/internal/registry"
)

// RefCounter counts how many attached elements use each style.
type RefCounter struct {
	counts map[string]int
}

// NewRefCounter returns an empty counter.
func NewRefCounter() *RefCounter {
	return &RefCounter{counts: make(map[string]int)}
}

// Increase adds one reference to id. An empty id is ignored.
func (c *RefCounter) Increase(id string) {
	if id == "" {
		return
	}
	c.counts[id]++
}

// Decrease drops one reference to id. An empty id is ignored; dropping a reference that
// was never taken panics with *registry.LifecycleError.
func (c *RefCounter) Decrease(id string) {
	if id == "" {
		return
	}
	n, ok := c.counts[id]
	if !ok || n <= 0 {
		panic(&registry.LifecycleError{Op: "releasing unreferenced style", ID: id})
	}
	if n == 1 {
		delete(c.counts, id)
		return
	}
	c.counts[id] = n - 1
}

// Count returns the number of references to id.
func (c *RefCounter) Count(id string) int {
	return c.counts[id]
}

// Snapshot returns a copy of all non-zero counts.
func (c *RefCounter) Snapshot() map[string]int {
	out := make(map[string]int, len(c.counts))
	for id, n := range c.counts {
		out[id] = n
	}
	return out
}

// Referenced returns the ids with at least one reference, sorted.
func (c *RefCounter) Referenced() []string {
	ids := make([]string, 0, len(c.counts))
	for id := range c.counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Package aggregate holds the concurrent maps filled during the aggregation phase.
package aggregate

import (
	"sort"
	"sync"
)

// Index maps a label (category or language) to the identifiers of articles carrying it.
// Appends are safe from many workers; readers sort on demand.
type Index struct {
	mu     sync.Mutex
	labels map[string][]string
}

// NewIndex builds an empty index.
func NewIndex() *Index {
	return &Index{labels: make(map[string][]string)}
}

// Add appends id to the list of label.
func (x *Index) Add(label, id string) {
	x.mu.Lock()
	x.labels[label] = append(x.labels[label], id)
	x.mu.Unlock()
}

// Keys returns all labels in ascending order.
func (x *Index) Keys() []string {
	x.mu.Lock()
	keys := make([]string, 0, len(x.labels))
	for k := range x.labels {
		keys = append(keys, k)
	}
	x.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Sorted returns a lexicographically sorted copy of the identifiers under label.
func (x *Index) Sorted(label string) []string {
	x.mu.Lock()
	ids := make([]string, len(x.labels[label]))
	copy(ids, x.labels[label])
	x.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// Len returns the number of identifiers under label.
func (x *Index) Len(label string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.labels[label])
}

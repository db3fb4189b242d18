// Package dedup tracks how often identifiers and titles occur across the corpus.
package dedup

import (
	"sync"

	"NewsAggregator/internal/domain"
)

// Count is a saturating occurrence counter.
type Count uint8

const (
	Unseen Count = iota
	Once
	Many
)

// Registry keeps saturating counters by article identifier and by title.
// It is written during ingestion and only read afterwards.
type Registry struct {
	ids    counterMap
	titles counterMap
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ids:    counterMap{m: make(map[string]Count)},
		titles: counterMap{m: make(map[string]Count)},
	}
}

// RecordIdentifier registers one occurrence of id and reports whether it was the first.
func (r *Registry) RecordIdentifier(id string) bool {
	return r.ids.record(id)
}

// RecordTitle registers one occurrence of title and reports whether it was the first.
func (r *Registry) RecordTitle(title string) bool {
	return r.titles.record(title)
}

// IdentifierCount returns the counter for id.
func (r *Registry) IdentifierCount(id string) Count {
	return r.ids.get(id)
}

// TitleCount returns the counter for title.
func (r *Registry) TitleCount(title string) Count {
	return r.titles.get(title)
}

// Unique reports whether both the identifier and the title of a were seen exactly once.
func (r *Registry) Unique(a domain.Article) bool {
	return r.IdentifierCount(a.UUID()) == Once && r.TitleCount(a.Title()) == Once
}

type counterMap struct {
	mu sync.RWMutex
	m  map[string]Count
}

func (c *counterMap) record(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.m[key]; ok {
		c.m[key] = Many
		return false
	}
	c.m[key] = Once
	return true
}

func (c *counterMap) get(key string) Count {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m[key]
}

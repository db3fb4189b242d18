package batch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"NewsAggregator/internal/domain"
)

// Format decodes one wire format of article batches (JSON array, JSON lines, etc.).
type Format interface {
	Name() string
	Extensions() []string
	Decode(ctx context.Context, r io.Reader) ([]domain.Record, error)
}

// Registry keeps a mapping from format names and file extensions to implementations.
type Registry struct {
	formats    map[string]Format
	extensions map[string]Format
	fallback   string
}

// NewRegistry builds an empty registry. Locations with an unknown extension are
// decoded with the fallback format when it is registered.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		formats:    map[string]Format{},
		extensions: map[string]Format{},
		fallback:   fallback,
	}
}

// Register adds or replaces a format implementation.
func (r *Registry) Register(format Format) {
	if r.formats == nil {
		r.formats = map[string]Format{}
		r.extensions = map[string]Format{}
	}
	r.formats[format.Name()] = format
	for _, ext := range format.Extensions() {
		r.extensions[strings.ToLower(ext)] = format
	}
}

// Resolve returns a format by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Format, error) {
	if format, ok := r.formats[name]; ok {
		return format, nil
	}
	return nil, fmt.Errorf("batch format %s is not registered", name)
}

// ForLocation picks a format from the location's file extension.
func (r *Registry) ForLocation(location string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(location))
	if format, ok := r.extensions[ext]; ok {
		return format, nil
	}
	if r.fallback != "" {
		return r.Resolve(r.fallback)
	}
	return nil, fmt.Errorf("no batch format for %s", location)
}

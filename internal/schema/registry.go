package schema

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

var ErrSchemaNotFound = errors.New("schema not found")

// Entry is a stored schema with its revision metadata.
type Entry struct {
	Name      string    `json:"name"`
	Schema    *Schema   `json:"schema"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Registry is a thread-safe in-memory store of named schemas. Saving an
// existing name replaces it and bumps its version.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Save checks and stores s under name, returning the new version.
func (r *Registry) Save(name string, s *Schema) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("schema name cannot be empty")
	}
	if err := s.Check(); err != nil {
		return 0, fmt.Errorf("invalid schema %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	version := r.entries[name].Version + 1
	r.entries[name] = Entry{
		Name:      name,
		Schema:    s,
		Version:   version,
		UpdatedAt: time.Now().UTC(),
	}
	return version, nil
}

func (r *Registry) Get(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	return e, nil
}

func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	delete(r.entries, name)
	return nil
}

// List returns schema names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

package core

import (
	"fmt"
	"sort"
	"sync"
)

// ImportSchema describes one importable file layout.
type ImportSchema struct {
	Key    string // Registry key; component schemas use the kind name
	Label  string
	Fields []FieldSpec

	// Example is written as the second row of downloadable templates.
	Example []string

	// BuildComponent converts a validated record into an inventory row. It is
	// nil for schemas that do not produce components.
	BuildComponent func(Record) Component
}

// Columns returns the canonical column names in template order.
func (s ImportSchema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Required returns the names of the mandatory columns.
func (s ImportSchema) Required() []string {
	var req []string
	for _, f := range s.Fields {
		if f.Required {
			req = append(req, f.Name)
		}
	}
	return req
}

var (
	registry   = make(map[string]ImportSchema)
	registryMu sync.RWMutex
)

// RegisterSchema adds a schema to the registry.
// Panics if a schema with the same key is already registered.
func RegisterSchema(s ImportSchema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.Key]; exists {
		panic(fmt.Sprintf("import schema already registered: %s", s.Key))
	}
	registry[s.Key] = s
}

// GetSchema returns a schema by key.
func GetSchema(key string) (ImportSchema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[key]
	return s, ok
}

// ComponentSchema returns the schema registered for a component kind.
func ComponentSchema(kind ComponentKind) (ImportSchema, error) {
	s, ok := GetSchema(string(kind))
	if !ok || s.BuildComponent == nil {
		return ImportSchema{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s, nil
}

// Schemas returns all registered schemas sorted by key.
func Schemas() []ImportSchema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]ImportSchema, 0, len(registry))
	for _, s := range registry {
		result = append(result, s)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// SchemaCount returns the number of registered schemas.
func SchemaCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

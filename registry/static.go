package registry

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semgate/vocabulary"
)

// Static is an in-memory TypeRegistry loaded from a YAML vocabulary
// file. It serves self-contained ecosystems that ship their ontology
// next to the resource descriptions, and it backs tests.
type Static struct {
	mu       sync.RWMutex
	types    map[string]*TypeInfo
	props    map[string]*PropertyInfo
	prefixes vocabulary.Prefixes
	seeds    map[string][]string // type id -> persisted seed URIs
}

// staticFile is the YAML shape of a vocabulary file.
type staticFile struct {
	Prefixes   map[string]string        `yaml:"prefixes"`
	Types      map[string]*TypeInfo     `yaml:"types"`
	Properties map[string]*PropertyInfo `yaml:"properties"`
}

// NewStatic creates an empty static registry.
func NewStatic() *Static {
	return &Static{
		types:    make(map[string]*TypeInfo),
		props:    make(map[string]*PropertyInfo),
		prefixes: vocabulary.DefaultPrefixes(),
		seeds:    make(map[string][]string),
	}
}

// LoadStatic reads a YAML vocabulary file into a static registry.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var file staticFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse vocabulary file: %w", err)
	}

	s := NewStatic()
	s.prefixes = s.prefixes.Merge(vocabulary.Prefixes(file.Prefixes))
	for id, info := range file.Types {
		s.types[id] = info
	}
	for id, info := range file.Properties {
		s.props[id] = info
	}
	return s, nil
}

// AddType registers a type. Intended for tests and programmatic setup.
func (s *Static) AddType(id string, info *TypeInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[id] = info
}

// AddProperty registers a property.
func (s *Static) AddProperty(id string, info *PropertyInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props[id] = info
}

// BindPrefix adds a namespace prefix.
func (s *Static) BindPrefix(prefix, base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefixes[prefix] = base
}

// RecordSeed persists a seed URI under a type, mirroring what a real
// registry service does when the query planner registers seeds.
func (s *Static) RecordSeed(typeID, uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds[typeID] = append(s.seeds[typeID], uri)
}

// SeedsForType returns the persisted seed URIs for a type.
func (s *Static) SeedsForType(typeID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.seeds[typeID]))
	copy(out, s.seeds[typeID])
	return out
}

// GetType implements TypeRegistry.
func (s *Static) GetType(_ context.Context, id string) (*TypeInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if info, ok := s.types[id]; ok {
		return info, nil
	}
	return nil, fmt.Errorf("type %s: %w", id, ErrNotFound)
}

// GetProperty implements TypeRegistry.
func (s *Static) GetProperty(_ context.Context, id string) (*PropertyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if info, ok := s.props[id]; ok {
		return info, nil
	}
	return nil, fmt.Errorf("property %s: %w", id, ErrNotFound)
}

// Prefixes implements TypeRegistry.
func (s *Static) Prefixes(_ context.Context) (vocabulary.Prefixes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := vocabulary.Prefixes{}
	return out.Merge(s.prefixes), nil
}

// DeleteTypeSeeds implements TypeRegistry.
func (s *Static) DeleteTypeSeeds(_ context.Context, typeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seeds, typeID)
	return nil
}

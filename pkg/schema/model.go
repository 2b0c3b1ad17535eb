package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

//go:embed schemas/kubernetes.json
var kubernetesSchema []byte

// Descriptor is one schema-derived constraint for a key: the scalar type its
// value should have and the keys permitted directly beneath it. A key may
// carry several descriptors when it is legal under different parents.
type Descriptor struct {
	Type     string
	Children []string
}

// Model is the flattened adjacency model the validator consumes: the set of
// keys legal at document root plus a key -> descriptors table. A Model is
// immutable after Build and safe to share across concurrent validations.
type Model struct {
	roots    map[string]struct{}
	children map[string][]Descriptor
}

// New constructs a model directly from explicit tables. The maps are copied,
// so later mutation of the arguments does not affect the model.
func New(roots []string, children map[string][]Descriptor) *Model {
	m := &Model{
		roots:    make(map[string]struct{}, len(roots)),
		children: make(map[string][]Descriptor, len(children)),
	}
	for _, r := range roots {
		m.roots[r] = struct{}{}
	}
	for key, descriptors := range children {
		m.children[key] = append([]Descriptor(nil), descriptors...)
	}
	return m
}

// Build flattens a JSON-schema-style document (already decoded to a map) into
// an adjacency model. Top-level properties become root keys; every nested
// property contributes a descriptor keyed by its name, including properties
// reached through array items.
func Build(doc map[string]any) (*Model, error) {
	props, ok := doc["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return nil, fmt.Errorf("schema document has no properties")
	}

	m := &Model{
		roots:    make(map[string]struct{}),
		children: make(map[string][]Descriptor),
	}
	for name, ps := range props {
		m.roots[name] = struct{}{}
		m.flatten(name, ps)
	}
	return m, nil
}

// Load decodes raw schema JSON and builds a model from it.
func Load(data []byte) (*Model, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode schema JSON: %w", err)
	}
	return Build(doc)
}

// LoadFile builds a model from a schema file on disk.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Load(data)
}

var (
	defaultOnce  sync.Once
	defaultModel *Model
	defaultErr   error
)

// Default returns the model built from the embedded Kubernetes schema.
func Default() (*Model, error) {
	defaultOnce.Do(func() {
		defaultModel, defaultErr = Load(kubernetesSchema)
	})
	return defaultModel, defaultErr
}

// DefaultSchemaJSON returns the raw embedded Kubernetes schema document, for
// callers that need to compile it (strict mode).
func DefaultSchemaJSON() []byte {
	return kubernetesSchema
}

// flatten registers a descriptor for name and recurses into its property
// subtrees.
func (m *Model) flatten(name string, raw any) {
	ps, ok := raw.(map[string]any)
	if !ok {
		return
	}

	childProps := propertyMap(ps)
	m.children[name] = append(m.children[name], Descriptor{
		Type:     declaredType(ps, childProps),
		Children: sortedKeys(childProps),
	})

	for childName, childSchema := range childProps {
		m.flatten(childName, childSchema)
	}
}

// propertyMap collects the child properties of a schema node. For arrays the
// item properties count as the key's children, matching how list entries nest
// in a manifest.
func propertyMap(ps map[string]any) map[string]any {
	if props, ok := ps["properties"].(map[string]any); ok && len(props) > 0 {
		return props
	}
	if items, ok := ps["items"].(map[string]any); ok {
		if props, ok := items["properties"].(map[string]any); ok && len(props) > 0 {
			return props
		}
	}
	return nil
}

func declaredType(ps map[string]any, childProps map[string]any) string {
	if t, ok := ps["type"].(string); ok && t != "" {
		return t
	}
	if len(childProps) > 0 {
		return "object"
	}
	return "string"
}

func sortedKeys(props map[string]any) []string {
	if len(props) == 0 {
		return nil
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsRoot reports whether key is legal at document root.
func (m *Model) IsRoot(key string) bool {
	_, ok := m.roots[key]
	return ok
}

// HasKey reports whether key is known anywhere in the schema.
func (m *Model) HasKey(key string) bool {
	_, ok := m.children[key]
	return ok
}

// Descriptors returns all descriptors registered for key.
func (m *Model) Descriptors(key string) []Descriptor {
	return m.children[key]
}

// ChildSet unions the child lists of every descriptor for key into a
// deduplicated membership set.
func (m *Model) ChildSet(key string) map[string]struct{} {
	descriptors, ok := m.children[key]
	if !ok {
		return nil
	}
	set := make(map[string]struct{})
	for _, d := range descriptors {
		for _, child := range d.Children {
			set[child] = struct{}{}
		}
	}
	return set
}

// TypeSet unions the declared scalar types of every descriptor for key.
func (m *Model) TypeSet(key string) map[string]struct{} {
	descriptors, ok := m.children[key]
	if !ok {
		return nil
	}
	set := make(map[string]struct{})
	for _, d := range descriptors {
		if d.Type != "" {
			set[d.Type] = struct{}{}
		}
	}
	return set
}

// Roots returns the sorted root key names.
func (m *Model) Roots() []string {
	keys := make([]string, 0, len(m.roots))
	for k := range m.roots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package schema provides the read-only schema view the cache consumes.
// The registry itself (how models are declared, persisted, or edited) is
// out of scope here; this package only defines the contract and a
// YAML-backed reference implementation.
package schema

import "github.com/northlane/recordcache/pkg/recordmodel"

// RelationshipDef declares one relationship on a model: its kind, the
// model type it targets, and the optional name of the inverse
// relationship declared on that target model.
type RelationshipDef struct {
	Kind    recordmodel.RelationshipKind
	Model   string
	Inverse string // empty means "no declared inverse"
}

// HasInverse reports whether this relationship declares an inverse.
func (d RelationshipDef) HasInverse() bool {
	return d.Inverse != ""
}

// ModelSchema is everything the cache needs to know about one model
// type: its declared attribute names, key names, and relationships.
type ModelSchema struct {
	Type          string
	Attributes    map[string]struct{}
	Keys          map[string]struct{}
	Relationships map[string]RelationshipDef
}

// HasAttribute reports whether name is declared on this model.
func (m ModelSchema) HasAttribute(name string) bool {
	_, ok := m.Attributes[name]
	return ok
}

// HasKey reports whether name is declared on this model.
func (m ModelSchema) HasKey(name string) bool {
	_, ok := m.Keys[name]
	return ok
}

// Relationship looks up a relationship declaration by name.
func (m ModelSchema) Relationship(name string) (RelationshipDef, bool) {
	rel, ok := m.Relationships[name]
	return rel, ok
}

// View is the read-only schema contract the cache is built against.
// Concrete implementations are supplied by the host.
type View interface {
	// GetModel returns the schema declaration for type, or ok=false if
	// type is not declared.
	GetModel(modelType string) (ModelSchema, bool)
	// ModelTypes returns every declared model type, used to pre-populate
	// the primary store's buckets at construction.
	ModelTypes() []string
}

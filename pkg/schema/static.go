package schema

import "github.com/northlane/recordcache/pkg/recordmodel"

// StaticView is the simplest View implementation: an in-process map of
// already-built ModelSchema values. Builders like LoadFile construct one
// of these; tests construct them directly.
type StaticView struct {
	models map[string]ModelSchema
	order  []string
}

// NewStaticView builds a StaticView from a list of models.
func NewStaticView(models ...ModelSchema) *StaticView {
	v := &StaticView{models: make(map[string]ModelSchema, len(models))}
	for _, m := range models {
		v.models[m.Type] = m
		v.order = append(v.order, m.Type)
	}
	return v
}

// GetModel implements View.
func (v *StaticView) GetModel(modelType string) (ModelSchema, bool) {
	m, ok := v.models[modelType]
	return m, ok
}

// ModelTypes implements View.
func (v *StaticView) ModelTypes() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Builder constructs a ModelSchema field by field; used by LoadFile and
// by tests that want something less verbose than literal struct values.
type Builder struct {
	m ModelSchema
}

// NewBuilder starts a ModelSchema declaration for modelType.
func NewBuilder(modelType string) *Builder {
	return &Builder{m: ModelSchema{
		Type:          modelType,
		Attributes:    map[string]struct{}{},
		Keys:          map[string]struct{}{},
		Relationships: map[string]RelationshipDef{},
	}}
}

// Attribute declares an attribute name.
func (b *Builder) Attribute(name string) *Builder {
	b.m.Attributes[name] = struct{}{}
	return b
}

// Key declares a key name.
func (b *Builder) Key(name string) *Builder {
	b.m.Keys[name] = struct{}{}
	return b
}

// HasOne declares a hasOne relationship.
func (b *Builder) HasOne(name, targetModel, inverse string) *Builder {
	b.m.Relationships[name] = RelationshipDef{Kind: recordmodel.HasOne, Model: targetModel, Inverse: inverse}
	return b
}

// HasMany declares a hasMany relationship.
func (b *Builder) HasMany(name, targetModel, inverse string) *Builder {
	b.m.Relationships[name] = RelationshipDef{Kind: recordmodel.HasMany, Model: targetModel, Inverse: inverse}
	return b
}

// Build finalizes the ModelSchema.
func (b *Builder) Build() ModelSchema {
	return b.m
}

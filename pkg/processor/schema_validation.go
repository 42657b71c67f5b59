package processor

import (
	"github.com/northlane/recordcache/pkg/cacheerr"
	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

// SchemaValidation checks that every identity an operation references
// has a declared type, and that addRecord/replaceRecord only mention
// declared key/attribute/relationship names.
type SchemaValidation struct {
	Base
	view schema.View
}

// NewSchemaValidation builds the validator against a schema view.
func NewSchemaValidation(view schema.View) *SchemaValidation {
	return &SchemaValidation{view: view}
}

func (p *SchemaValidation) checkType(id recordmodel.Identity) error {
	if _, ok := p.view.GetModel(id.Type); !ok {
		return &cacheerr.SchemaValidationError{Identity: id, Reason: "undeclared model type"}
	}
	return nil
}

func (p *SchemaValidation) checkRecordFields(r *recordmodel.Record) error {
	model, ok := p.view.GetModel(r.Identity.Type)
	if !ok {
		return &cacheerr.SchemaValidationError{Identity: r.Identity, Reason: "undeclared model type"}
	}
	for name := range r.Keys {
		if !model.HasKey(name) {
			return &cacheerr.SchemaValidationError{Identity: r.Identity, Field: name, Reason: "undeclared key"}
		}
	}
	for name := range r.Attributes {
		if !model.HasAttribute(name) {
			return &cacheerr.SchemaValidationError{Identity: r.Identity, Field: name, Reason: "undeclared attribute"}
		}
	}
	for name, rel := range r.Relationships {
		decl, ok := model.Relationship(name)
		if !ok {
			return &cacheerr.SchemaValidationError{Identity: r.Identity, Field: name, Reason: "undeclared relationship"}
		}
		if decl.Kind != rel.Kind {
			return &cacheerr.SchemaValidationError{Identity: r.Identity, Field: name, Reason: "relationship kind mismatch: declared " + string(decl.Kind) + ", got " + string(rel.Kind)}
		}
	}
	return nil
}

// Validate implements Processor.
func (p *SchemaValidation) Validate(op ops.Operation) error {
	if err := p.checkType(op.Identity()); err != nil {
		return err
	}
	switch o := op.(type) {
	case ops.AddRecord:
		return p.checkRecordFields(o.Record)
	case ops.ReplaceRecord:
		if err := p.checkRecordFields(o.Record); err != nil {
			return err
		}
		model, _ := p.view.GetModel(o.Record.Identity.Type)
		for _, k := range o.UnsetKeys {
			if !model.HasKey(k) {
				return &cacheerr.SchemaValidationError{Identity: o.Record.Identity, Field: k, Reason: "undeclared key"}
			}
		}
		for _, a := range o.UnsetAttributes {
			if !model.HasAttribute(a) {
				return &cacheerr.SchemaValidationError{Identity: o.Record.Identity, Field: a, Reason: "undeclared attribute"}
			}
		}
		return nil
	case ops.ReplaceKey:
		return p.checkField(o.Record, o.Name, fieldKey)
	case ops.ReplaceAttribute:
		return p.checkField(o.Record, o.Name, fieldAttribute)
	case ops.AddToRelatedRecords:
		return p.checkRelationship(o.Record, o.Relationship, recordmodel.HasMany)
	case ops.RemoveFromRelatedRecords:
		return p.checkRelationship(o.Record, o.Relationship, recordmodel.HasMany)
	case ops.ReplaceRelatedRecords:
		return p.checkRelationship(o.Record, o.Relationship, recordmodel.HasMany)
	case ops.ReplaceRelatedRecord:
		return p.checkRelationship(o.Record, o.Relationship, recordmodel.HasOne)
	case ops.RemoveRecord:
		return nil
	default:
		return &cacheerr.OperatorNotFoundError{Op: string(op.Kind())}
	}
}

type fieldKind int

const (
	fieldKey fieldKind = iota
	fieldAttribute
)

func (p *SchemaValidation) checkField(id recordmodel.Identity, name string, kind fieldKind) error {
	model, ok := p.view.GetModel(id.Type)
	if !ok {
		return &cacheerr.SchemaValidationError{Identity: id, Reason: "undeclared model type"}
	}
	var declared bool
	var reason string
	switch kind {
	case fieldKey:
		declared, reason = model.HasKey(name), "undeclared key"
	case fieldAttribute:
		declared, reason = model.HasAttribute(name), "undeclared attribute"
	}
	if !declared {
		return &cacheerr.SchemaValidationError{Identity: id, Field: name, Reason: reason}
	}
	return nil
}

func (p *SchemaValidation) checkRelationship(id recordmodel.Identity, name string, kind recordmodel.RelationshipKind) error {
	model, ok := p.view.GetModel(id.Type)
	if !ok {
		return &cacheerr.SchemaValidationError{Identity: id, Reason: "undeclared model type"}
	}
	decl, ok := model.Relationship(name)
	if !ok {
		return &cacheerr.SchemaValidationError{Identity: id, Field: name, Reason: "undeclared relationship"}
	}
	if decl.Kind != kind {
		return &cacheerr.SchemaValidationError{Identity: id, Field: name, Reason: "relationship kind mismatch: declared " + string(decl.Kind) + ", got " + string(kind)}
	}
	return nil
}

var _ Processor = (*SchemaValidation)(nil)

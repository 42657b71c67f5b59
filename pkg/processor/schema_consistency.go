package processor

import (
	"github.com/northlane/recordcache/pkg/accessor"
	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

// SchemaConsistency keeps a relationship and its declared inverse in sync:
// whenever one side of a two-way relationship changes, it computes the
// matching change on the other side so both directions agree without the
// caller having to issue both writes. Where a relationship is being
// replaced wholesale, the old pointer's inverse is cleared via before (so
// the read happens ahead of the main mutation) and the new pointer's
// inverse is set via after.
type SchemaConsistency struct {
	Base
	view schema.View
}

// NewSchemaConsistency builds the propagator against a schema view.
func NewSchemaConsistency(view schema.View) *SchemaConsistency {
	return &SchemaConsistency{view: view}
}

// Before implements Processor.
func (p *SchemaConsistency) Before(a accessor.Accessor, op ops.Operation) []ops.Operation {
	switch o := op.(type) {
	case ops.AddToRelatedRecords:
		return p.propagateSet(a, o.Record, o.Relationship, o.Related)
	case ops.RemoveFromRelatedRecords:
		return p.propagateClear(a, o.Record, o.Relationship, o.Related)
	case ops.ReplaceRelatedRecord:
		removed, _ := p.propagateReplaceOne(a, o.Record, o.Relationship, o.Related)
		return removed
	case ops.ReplaceRelatedRecords:
		removed, _ := p.propagateReplaceMany(a, o.Record, o.Relationship, o.Related)
		return removed
	case ops.AddRecord:
		removed, _ := p.propagateRecord(a, o.Record)
		return removed
	case ops.ReplaceRecord:
		removed, _ := p.propagateRecord(a, o.Record)
		return removed
	default:
		return nil
	}
}

// After implements Processor.
func (p *SchemaConsistency) After(a accessor.Accessor, op ops.Operation) []ops.Operation {
	switch o := op.(type) {
	case ops.ReplaceRelatedRecord:
		_, added := p.propagateReplaceOne(a, o.Record, o.Relationship, o.Related)
		return added
	case ops.ReplaceRelatedRecords:
		_, added := p.propagateReplaceMany(a, o.Record, o.Relationship, o.Related)
		return added
	case ops.AddRecord:
		_, added := p.propagateRecord(a, o.Record)
		return added
	case ops.ReplaceRecord:
		_, added := p.propagateRecord(a, o.Record)
		return added
	default:
		return nil
	}
}

func (p *SchemaConsistency) inverseOf(ownerType, relationship string) (schema.RelationshipDef, bool) {
	model, ok := p.view.GetModel(ownerType)
	if !ok {
		return schema.RelationshipDef{}, false
	}
	def, ok := model.Relationship(relationship)
	if !ok || !def.HasInverse() {
		return schema.RelationshipDef{}, false
	}
	return def, true
}

// setInverse points target's invName relationship back at owner, if it
// doesn't already.
func (p *SchemaConsistency) setInverse(a accessor.Accessor, target recordmodel.Identity, invName string, owner recordmodel.Identity) []ops.Operation {
	targetModel, ok := p.view.GetModel(target.Type)
	if !ok {
		return nil
	}
	invDef, ok := targetModel.Relationship(invName)
	if !ok {
		return nil
	}
	if invDef.Kind == recordmodel.HasMany {
		if accessor.RelatedRecordsInclude(a, target, invName, owner) {
			return nil
		}
		return []ops.Operation{ops.AddToRelatedRecords{Record: target, Relationship: invName, Related: owner}}
	}
	if accessor.RelatedRecordEquals(a, target, invName, owner) {
		return nil
	}
	return []ops.Operation{ops.ReplaceRelatedRecord{Record: target, Relationship: invName, Related: owner}}
}

// clearInverse removes owner from target's invName relationship, if present.
func (p *SchemaConsistency) clearInverse(a accessor.Accessor, target recordmodel.Identity, invName string, owner recordmodel.Identity) []ops.Operation {
	targetModel, ok := p.view.GetModel(target.Type)
	if !ok {
		return nil
	}
	invDef, ok := targetModel.Relationship(invName)
	if !ok {
		return nil
	}
	if invDef.Kind == recordmodel.HasMany {
		if !accessor.RelatedRecordsInclude(a, target, invName, owner) {
			return nil
		}
		return []ops.Operation{ops.RemoveFromRelatedRecords{Record: target, Relationship: invName, Related: owner}}
	}
	if !accessor.RelatedRecordEquals(a, target, invName, owner) {
		return nil
	}
	return []ops.Operation{ops.ReplaceRelatedRecord{Record: target, Relationship: invName, Related: recordmodel.Null}}
}

func (p *SchemaConsistency) propagateSet(a accessor.Accessor, owner recordmodel.Identity, relationship string, target recordmodel.Identity) []ops.Operation {
	def, ok := p.inverseOf(owner.Type, relationship)
	if !ok || target.IsNull() {
		return nil
	}
	return p.setInverse(a, target, def.Inverse, owner)
}

func (p *SchemaConsistency) propagateClear(a accessor.Accessor, owner recordmodel.Identity, relationship string, target recordmodel.Identity) []ops.Operation {
	def, ok := p.inverseOf(owner.Type, relationship)
	if !ok || target.IsNull() {
		return nil
	}
	return p.clearInverse(a, target, def.Inverse, owner)
}

// propagateReplaceOne returns the sub-ops that clear the previous
// target's inverse (removed) separately from those that set the new
// target's inverse (added).
func (p *SchemaConsistency) propagateReplaceOne(a accessor.Accessor, owner recordmodel.Identity, relationship string, newTarget recordmodel.Identity) (removed, added []ops.Operation) {
	def, ok := p.inverseOf(owner.Type, relationship)
	if !ok {
		return nil, nil
	}
	current := recordmodel.Null
	if rec, ok := a.GetRecord(owner); ok {
		current = rec.RelatedOne(relationship)
	}
	if current == newTarget {
		return nil, nil
	}
	if !current.IsNull() {
		removed = p.clearInverse(a, current, def.Inverse, owner)
	}
	if !newTarget.IsNull() {
		added = p.setInverse(a, newTarget, def.Inverse, owner)
	}
	return removed, added
}

func (p *SchemaConsistency) propagateReplaceMany(a accessor.Accessor, owner recordmodel.Identity, relationship string, newTargets []recordmodel.Identity) (removed, added []ops.Operation) {
	def, ok := p.inverseOf(owner.Type, relationship)
	if !ok {
		return nil, nil
	}
	var current []recordmodel.Identity
	if rec, ok := a.GetRecord(owner); ok {
		current = rec.RelatedMany(relationship)
	}
	for _, t := range recordmodel.Difference(current, newTargets) {
		removed = append(removed, p.clearInverse(a, t, def.Inverse, owner)...)
	}
	for _, t := range recordmodel.Difference(newTargets, current) {
		added = append(added, p.setInverse(a, t, def.Inverse, owner)...)
	}
	return removed, added
}

// propagateRecord handles the relationships carried directly on an
// addRecord/replaceRecord payload, treating each as a wholesale replace
// of that relationship's value against whatever the record held before
// (nothing, for addRecord).
func (p *SchemaConsistency) propagateRecord(a accessor.Accessor, r *recordmodel.Record) (removed, added []ops.Operation) {
	if r == nil || len(r.Relationships) == 0 {
		return nil, nil
	}
	for name, rel := range r.Relationships {
		var rm, ad []ops.Operation
		if rel.Kind == recordmodel.HasOne {
			rm, ad = p.propagateReplaceOne(a, r.Identity, name, rel.One)
		} else {
			rm, ad = p.propagateReplaceMany(a, r.Identity, name, rel.Many)
		}
		removed = append(removed, rm...)
		added = append(added, ad...)
	}
	return removed, added
}

var _ Processor = (*SchemaConsistency)(nil)

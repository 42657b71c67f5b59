package processor

import (
	"github.com/northlane/recordcache/pkg/accessor"
	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

// CacheIntegrity maintains the reverse-reference index that backs
// GetInverselyRelatedRecords, and cascades record removal so nothing is
// left pointing at an identity that no longer exists. The index is kept
// only for relationships whose schema declaration names an inverse;
// one-way relationships are never indexed.
type CacheIntegrity struct {
	Base
	view schema.View
}

// NewCacheIntegrity builds the integrity processor against a schema view.
func NewCacheIntegrity(view schema.View) *CacheIntegrity {
	return &CacheIntegrity{view: view}
}

// After implements Processor. Reading pre-mutation state, it drops the
// inverse-index entries for the pointer a relationship op is about to
// overwrite, and for removeRecord it reads every back-ref pointing at the
// departing identity and turns each into a cleanup op on the referencing
// record.
func (p *CacheIntegrity) After(a accessor.Accessor, op ops.Operation) []ops.Operation {
	switch o := op.(type) {
	case ops.ReplaceRelatedRecord:
		p.clearOne(a, o.Record, o.Relationship)
	case ops.ReplaceRelatedRecords:
		p.clearMany(a, o.Record, o.Relationship)
	case ops.RemoveFromRelatedRecords:
		if p.hasInverse(o.Record.Type, o.Relationship) {
			a.RemoveInverselyRelatedRecord(o.Related, recordmodel.BackRef{Owner: o.Record, Relationship: o.Relationship})
		}
	case ops.ReplaceRecord:
		p.clearAll(a, o.Record.Identity)
	case ops.RemoveRecord:
		return p.cascadeRemoval(a, o.Record)
	}
	return nil
}

// Finally implements Processor: once the main mutation (and, for
// removeRecord, the cascade) has landed, insert the inverse-index entries
// for whatever the relationship now points at.
func (p *CacheIntegrity) Finally(a accessor.Accessor, op ops.Operation) []ops.Operation {
	switch o := op.(type) {
	case ops.AddToRelatedRecords:
		if p.hasInverse(o.Record.Type, o.Relationship) {
			a.AddInverselyRelatedRecord(o.Related, recordmodel.BackRef{Owner: o.Record, Relationship: o.Relationship})
		}
	case ops.ReplaceRelatedRecord:
		if !o.Related.IsNull() && p.hasInverse(o.Record.Type, o.Relationship) {
			a.AddInverselyRelatedRecord(o.Related, recordmodel.BackRef{Owner: o.Record, Relationship: o.Relationship})
		}
	case ops.ReplaceRelatedRecords:
		if p.hasInverse(o.Record.Type, o.Relationship) {
			for _, t := range o.Related {
				a.AddInverselyRelatedRecord(t, recordmodel.BackRef{Owner: o.Record, Relationship: o.Relationship})
			}
		}
	case ops.AddRecord:
		p.insertAll(a, o.Record)
	case ops.ReplaceRecord:
		if rec, ok := a.GetRecord(o.Record.Identity); ok {
			p.insertAll(a, rec)
		}
	case ops.RemoveRecord:
		a.RemoveInverseRelationships(o.Record)
	}
	return nil
}

// hasInverse reports whether modelType declares relationship with a named
// inverse, which is the only case the index is maintained for.
func (p *CacheIntegrity) hasInverse(modelType, relationship string) bool {
	model, ok := p.view.GetModel(modelType)
	if !ok {
		return false
	}
	def, ok := model.Relationship(relationship)
	return ok && def.HasInverse()
}

func (p *CacheIntegrity) clearOne(a accessor.Accessor, owner recordmodel.Identity, relationship string) {
	if !p.hasInverse(owner.Type, relationship) {
		return
	}
	rec, ok := a.GetRecord(owner)
	if !ok {
		return
	}
	target := rec.RelatedOne(relationship)
	if !target.IsNull() {
		a.RemoveInverselyRelatedRecord(target, recordmodel.BackRef{Owner: owner, Relationship: relationship})
	}
}

func (p *CacheIntegrity) clearMany(a accessor.Accessor, owner recordmodel.Identity, relationship string) {
	if !p.hasInverse(owner.Type, relationship) {
		return
	}
	rec, ok := a.GetRecord(owner)
	if !ok {
		return
	}
	for _, t := range rec.RelatedMany(relationship) {
		a.RemoveInverselyRelatedRecord(t, recordmodel.BackRef{Owner: owner, Relationship: relationship})
	}
}

// clearAll drops every inverse-index entry id's current relationships
// contribute, skipping any relationship with no declared inverse.
func (p *CacheIntegrity) clearAll(a accessor.Accessor, id recordmodel.Identity) {
	rec, ok := a.GetRecord(id)
	if !ok {
		return
	}
	for name, rel := range rec.Relationships {
		if !p.hasInverse(id.Type, name) {
			continue
		}
		if rel.Kind == recordmodel.HasOne {
			if !rel.One.IsNull() {
				a.RemoveInverselyRelatedRecord(rel.One, recordmodel.BackRef{Owner: id, Relationship: name})
			}
			continue
		}
		for _, t := range rel.Many {
			a.RemoveInverselyRelatedRecord(t, recordmodel.BackRef{Owner: id, Relationship: name})
		}
	}
}

// insertAll registers an inverse-index entry for every relationship r
// currently carries that declares an inverse.
func (p *CacheIntegrity) insertAll(a accessor.Accessor, r *recordmodel.Record) {
	if r == nil {
		return
	}
	for name, rel := range r.Relationships {
		if !p.hasInverse(r.Identity.Type, name) {
			continue
		}
		if rel.Kind == recordmodel.HasOne {
			if !rel.One.IsNull() {
				a.AddInverselyRelatedRecord(rel.One, recordmodel.BackRef{Owner: r.Identity, Relationship: name})
			}
			continue
		}
		for _, t := range rel.Many {
			a.AddInverselyRelatedRecord(t, recordmodel.BackRef{Owner: r.Identity, Relationship: name})
		}
	}
}

// cascadeRemoval reads every back-ref pointing at id and turns each into
// an operation that prunes the dangling pointer from the referencing
// record, then drops id's own outbound inverse-index entries. Back-refs
// are only ever recorded for inverse-declared relationships, but the
// check is repeated here too in case the schema changed underneath a
// long-lived index.
func (p *CacheIntegrity) cascadeRemoval(a accessor.Accessor, id recordmodel.Identity) []ops.Operation {
	refs := a.GetInverselyRelatedRecords(id)
	var out []ops.Operation
	for _, ref := range refs {
		model, ok := p.view.GetModel(ref.Owner.Type)
		if !ok {
			continue
		}
		def, ok := model.Relationship(ref.Relationship)
		if !ok || !def.HasInverse() {
			continue
		}
		if def.Kind == recordmodel.HasMany {
			out = append(out, ops.RemoveFromRelatedRecords{Record: ref.Owner, Relationship: ref.Relationship, Related: id})
		} else {
			out = append(out, ops.ReplaceRelatedRecord{Record: ref.Owner, Relationship: ref.Relationship, Related: recordmodel.Null})
		}
	}
	p.clearAll(a, id)
	return out
}

var _ Processor = (*CacheIntegrity)(nil)

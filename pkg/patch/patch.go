// Package patch implements the forward patch operators: pure functions,
// one per operation kind, that mutate an accessor to realize an
// operation and return the resulting record.
package patch

import (
	"github.com/northlane/recordcache/pkg/accessor"
	"github.com/northlane/recordcache/pkg/cacheerr"
	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/recordmodel"
)

// Apply runs the patch operator for op.Kind(), mutating a, and returns
// the value that should be appended to a primary PatchResult's data list
// (a record, or nil). It returns OperatorNotFoundError only
// if op is some Operation implementation outside the closed set; the op
// set is closed by design, so this should never happen with operations
// produced by this module.
func Apply(a accessor.Accessor, op ops.Operation) (any, error) {
	switch o := op.(type) {
	case ops.AddRecord:
		return addRecord(a, o), nil
	case ops.ReplaceRecord:
		return replaceRecord(a, o), nil
	case ops.RemoveRecord:
		return removeRecord(a, o), nil
	case ops.ReplaceKey:
		return replaceKey(a, o), nil
	case ops.ReplaceAttribute:
		return replaceAttribute(a, o), nil
	case ops.AddToRelatedRecords:
		return addToRelatedRecords(a, o), nil
	case ops.RemoveFromRelatedRecords:
		return removeFromRelatedRecords(a, o), nil
	case ops.ReplaceRelatedRecords:
		return replaceRelatedRecords(a, o), nil
	case ops.ReplaceRelatedRecord:
		return replaceRelatedRecord(a, o), nil
	default:
		return nil, &cacheerr.OperatorNotFoundError{Op: string(op.Kind())}
	}
}

func addRecord(a accessor.Accessor, o ops.AddRecord) *recordmodel.Record {
	a.SetRecord(o.Record)
	return o.Record
}

// replaceRecord deep-merges per grouping: attributes, keys, and
// relationships are each shallow-merged field-by-field into the existing
// record. If no existing record, the incoming record becomes the record
// verbatim.
func replaceRecord(a accessor.Accessor, o ops.ReplaceRecord) *recordmodel.Record {
	existing, ok := a.GetRecord(o.Record.Identity)
	if !ok {
		a.SetRecord(o.Record)
		return o.Record
	}

	merged := existing.Clone()
	for k, v := range o.Record.Keys {
		if merged.Keys == nil {
			merged.Keys = map[string]string{}
		}
		merged.Keys[k] = v
	}
	for k, v := range o.Record.Attributes {
		if merged.Attributes == nil {
			merged.Attributes = map[string]any{}
		}
		merged.Attributes[k] = v
	}
	for k, v := range o.Record.Relationships {
		if merged.Relationships == nil {
			merged.Relationships = map[string]recordmodel.Relationship{}
		}
		merged.Relationships[k] = v
	}
	for _, k := range o.UnsetKeys {
		delete(merged.Keys, k)
	}
	for _, k := range o.UnsetAttributes {
		delete(merged.Attributes, k)
	}
	a.SetRecord(merged)
	return merged
}

func removeRecord(a accessor.Accessor, o ops.RemoveRecord) *recordmodel.Record {
	return a.RemoveRecord(o.Record)
}

func replaceKey(a accessor.Accessor, o ops.ReplaceKey) *recordmodel.Record {
	rec := loadOrSynthesize(a, o.Record)
	if o.Unset {
		delete(rec.Keys, o.Name)
	} else {
		if rec.Keys == nil {
			rec.Keys = map[string]string{}
		}
		rec.Keys[o.Name] = o.Value
	}
	a.SetRecord(rec)
	return rec
}

func replaceAttribute(a accessor.Accessor, o ops.ReplaceAttribute) *recordmodel.Record {
	rec := loadOrSynthesize(a, o.Record)
	if o.Unset {
		delete(rec.Attributes, o.Name)
	} else {
		if rec.Attributes == nil {
			rec.Attributes = map[string]any{}
		}
		rec.Attributes[o.Name] = o.Value
	}
	a.SetRecord(rec)
	return rec
}

func addToRelatedRecords(a accessor.Accessor, o ops.AddToRelatedRecords) *recordmodel.Record {
	rec := loadOrSynthesize(a, o.Record)
	rel := rec.Relationships[o.Relationship]
	rel.Kind = recordmodel.HasMany
	// Raw-append semantics: duplicates possible if the caller adds a
	// member already present; the pre-check lives only in the inverse
	// operator.
	rel.Many = append(rel.Many, o.Related)
	if rec.Relationships == nil {
		rec.Relationships = map[string]recordmodel.Relationship{}
	}
	rec.Relationships[o.Relationship] = rel
	a.SetRecord(rec)
	return rec
}

func removeFromRelatedRecords(a accessor.Accessor, o ops.RemoveFromRelatedRecords) *recordmodel.Record {
	rec, ok := a.GetRecord(o.Record)
	if !ok {
		return nil
	}
	rel := rec.Relationships[o.Relationship]
	rel.Kind = recordmodel.HasMany
	rel.Many = recordmodel.Without(rel.Many, o.Related)
	if rec.Relationships == nil {
		rec.Relationships = map[string]recordmodel.Relationship{}
	}
	rec.Relationships[o.Relationship] = rel
	a.SetRecord(rec)
	return rec
}

func replaceRelatedRecords(a accessor.Accessor, o ops.ReplaceRelatedRecords) *recordmodel.Record {
	rec := loadOrSynthesize(a, o.Record)
	if rec.Relationships == nil {
		rec.Relationships = map[string]recordmodel.Relationship{}
	}
	rec.Relationships[o.Relationship] = recordmodel.NewHasMany(o.Related)
	a.SetRecord(rec)
	return rec
}

func replaceRelatedRecord(a accessor.Accessor, o ops.ReplaceRelatedRecord) *recordmodel.Record {
	rec := loadOrSynthesize(a, o.Record)
	if rec.Relationships == nil {
		rec.Relationships = map[string]recordmodel.Relationship{}
	}
	rec.Relationships[o.Relationship] = recordmodel.NewHasOne(o.Related)
	a.SetRecord(rec)
	return rec
}

// loadOrSynthesize loads id's current record, or synthesizes a bare
// (identity-only) record if none exists — what allows relationship-only
// writes to create skeleton records.
func loadOrSynthesize(a accessor.Accessor, id recordmodel.Identity) *recordmodel.Record {
	if rec, ok := a.GetRecord(id); ok {
		return rec
	}
	return recordmodel.Bare(id)
}

// Package accessor implements the abstract record accessor: the
// primitive read/write surface over a typed record store and a
// reverse-reference (inverse) index. Any backend plugged in here must
// keep records filed under their own type bucket and keep the inverse
// index consistent with whatever relationships are currently stored.
package accessor

import "github.com/northlane/recordcache/pkg/recordmodel"

// Accessor is the abstract surface patch operators, inverse-patch
// operators, and processors are written against. All operations are
// synchronous and infallible: absence is represented in return values,
// never by error.
type Accessor interface {
	// GetRecord returns the stored record and true, or (nil, false) if
	// absent. This distinguishes "absent" from "present but empty".
	GetRecord(id recordmodel.Identity) (*recordmodel.Record, bool)
	// GetRecords returns every record of the given type. Order is
	// unspecified.
	GetRecords(modelType string) []*recordmodel.Record
	// SetRecord upserts a record.
	SetRecord(r *recordmodel.Record)
	// SetRecords bulk-upserts records, all of the given type. Declared
	// for backend flexibility though unused by the core pipeline.
	SetRecords(modelType string, records []*recordmodel.Record)
	// RemoveRecord deletes a record, returning the prior value if one
	// existed, or nil.
	RemoveRecord(id recordmodel.Identity) *recordmodel.Record
	// RemoveRecords bulk-deletes, returning the prior records that
	// existed.
	RemoveRecords(modelType string, ids []recordmodel.Identity) []*recordmodel.Record

	// GetInverselyRelatedRecords returns the back-refs pointing at id.
	GetInverselyRelatedRecords(id recordmodel.Identity) []recordmodel.BackRef
	// AddInverselyRelatedRecord appends a back-ref to id's list.
	// Correct pipeline use must not create duplicates.
	AddInverselyRelatedRecord(id recordmodel.Identity, ref recordmodel.BackRef)
	// RemoveInverselyRelatedRecord removes every back-ref on id matching
	// ref's owner and relationship name.
	RemoveInverselyRelatedRecord(id recordmodel.Identity, ref recordmodel.BackRef)
	// RemoveInverseRelationships clears id's entire back-ref list.
	RemoveInverseRelationships(id recordmodel.Identity)
}

// GetRelatedRecord resolves a hasOne relationship's target record. It is
// a pure derivation over GetRecord, not a primitive.
func GetRelatedRecord(a Accessor, owner recordmodel.Identity, relationship string) (*recordmodel.Record, bool) {
	rec, ok := a.GetRecord(owner)
	if !ok {
		return nil, false
	}
	target := rec.RelatedOne(relationship)
	if target.IsNull() {
		return nil, false
	}
	return a.GetRecord(target)
}

// GetRelatedRecords resolves a hasMany relationship's target records, in
// declared order, skipping any target that no longer exists.
func GetRelatedRecords(a Accessor, owner recordmodel.Identity, relationship string) []*recordmodel.Record {
	rec, ok := a.GetRecord(owner)
	if !ok {
		return nil
	}
	targets := rec.RelatedMany(relationship)
	out := make([]*recordmodel.Record, 0, len(targets))
	for _, t := range targets {
		if related, ok := a.GetRecord(t); ok {
			out = append(out, related)
		}
	}
	return out
}

// RelatedRecordEquals reports whether owner's hasOne relationship
// currently targets expected.
func RelatedRecordEquals(a Accessor, owner recordmodel.Identity, relationship string, expected recordmodel.Identity) bool {
	rec, ok := a.GetRecord(owner)
	if !ok {
		return expected.IsNull()
	}
	return rec.RelatedOne(relationship) == expected
}

// RelatedRecordsInclude reports whether owner's hasMany relationship
// currently includes target.
func RelatedRecordsInclude(a Accessor, owner recordmodel.Identity, relationship string, target recordmodel.Identity) bool {
	rec, ok := a.GetRecord(owner)
	if !ok {
		return false
	}
	return recordmodel.Contains(rec.RelatedMany(relationship), target)
}

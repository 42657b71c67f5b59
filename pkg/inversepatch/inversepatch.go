// Package inversepatch implements the inverse-patch operators: pure
// reads of the accessor's *current* state that compute the operation
// which would undo a pending mutation. None of these mutate.
package inversepatch

import (
	"github.com/northlane/recordcache/pkg/accessor"
	"github.com/northlane/recordcache/pkg/cacheerr"
	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/recordmodel"
)

// Compute returns the inverse of op against a's current state, and
// ok=true if an inverse is needed. ok=false signals both "no inverse
// needed" and "skip applying the main patch operator"; the pipeline
// preserves that coupling.
func Compute(a accessor.Accessor, op ops.Operation) (ops.Operation, bool, error) {
	switch o := op.(type) {
	case ops.AddRecord:
		return addRecord(a, o)
	case ops.ReplaceRecord:
		return replaceRecord(a, o)
	case ops.RemoveRecord:
		return removeRecord(a, o)
	case ops.ReplaceKey:
		return replaceKey(a, o)
	case ops.ReplaceAttribute:
		return replaceAttribute(a, o)
	case ops.AddToRelatedRecords:
		return addToRelatedRecords(a, o)
	case ops.RemoveFromRelatedRecords:
		return removeFromRelatedRecords(a, o)
	case ops.ReplaceRelatedRecords:
		return replaceRelatedRecords(a, o)
	case ops.ReplaceRelatedRecord:
		return replaceRelatedRecord(a, o)
	default:
		return nil, false, &cacheerr.OperatorNotFoundError{Op: string(op.Kind())}
	}
}

func addRecord(a accessor.Accessor, o ops.AddRecord) (ops.Operation, bool, error) {
	current, ok := a.GetRecord(o.Record.Identity)
	if !ok {
		return ops.RemoveRecord{Record: o.Record.Identity}, true, nil
	}
	if current.Equal(o.Record, recordmodel.ValueEqual) {
		return nil, false, nil
	}
	return ops.ReplaceRecord{Record: current}, true, nil
}

// replaceRecord builds a delta inverse: for each attributes/keys field
// present in o.Record whose value differs from current, the inverse
// carries the current value; for each relationship field present whose
// data differs (identity-set equality for hasMany), the inverse carries
// the current data. Fields o.Record sets that current did not have at
// all are marked for removal (UnsetKeys/UnsetAttributes) so re-applying
// the inverse restores true absence, not an explicit null.
func replaceRecord(a accessor.Accessor, o ops.ReplaceRecord) (ops.Operation, bool, error) {
	current, ok := a.GetRecord(o.Record.Identity)
	if !ok {
		return ops.RemoveRecord{Record: o.Record.Identity}, true, nil
	}

	inv := &recordmodel.Record{Identity: o.Record.Identity}
	var unsetKeys, unsetAttrs []string
	changed := false

	for name, v := range o.Record.Keys {
		cv, existed := current.Keys[name]
		if existed && cv == v {
			continue
		}
		changed = true
		if existed {
			if inv.Keys == nil {
				inv.Keys = map[string]string{}
			}
			inv.Keys[name] = cv
		} else {
			unsetKeys = append(unsetKeys, name)
		}
	}
	for name, v := range o.Record.Attributes {
		cv, existed := current.Attributes[name]
		if existed && recordmodel.ValueEqual(cv, v) {
			continue
		}
		changed = true
		if existed {
			if inv.Attributes == nil {
				inv.Attributes = map[string]any{}
			}
			inv.Attributes[name] = cv
		} else {
			unsetAttrs = append(unsetAttrs, name)
		}
	}
	for name, rel := range o.Record.Relationships {
		crel, existed := current.Relationships[name]
		if existed && crel.Equal(rel) {
			continue
		}
		changed = true
		if inv.Relationships == nil {
			inv.Relationships = map[string]recordmodel.Relationship{}
		}
		if existed {
			inv.Relationships[name] = crel
		} else if rel.Kind == recordmodel.HasMany {
			inv.Relationships[name] = recordmodel.NewHasMany(nil)
		} else {
			inv.Relationships[name] = recordmodel.NewHasOne(recordmodel.Null)
		}
	}

	if !changed {
		return nil, false, nil
	}
	return ops.ReplaceRecord{Record: inv, UnsetKeys: unsetKeys, UnsetAttributes: unsetAttrs}, true, nil
}

func removeRecord(a accessor.Accessor, o ops.RemoveRecord) (ops.Operation, bool, error) {
	current, ok := a.GetRecord(o.Record)
	if !ok {
		return nil, false, nil
	}
	return ops.AddRecord{Record: current}, true, nil
}

func replaceKey(a accessor.Accessor, o ops.ReplaceKey) (ops.Operation, bool, error) {
	current, _ := a.GetRecord(o.Record)
	var currentValue string
	existed := false
	if current != nil {
		currentValue, existed = current.Keys[o.Name]
	}
	if existed && currentValue == o.Value && !o.Unset {
		return nil, false, nil
	}
	if !existed && o.Unset {
		return nil, false, nil
	}
	return ops.ReplaceKey{Record: o.Record, Name: o.Name, Value: currentValue, Unset: !existed}, true, nil
}

func replaceAttribute(a accessor.Accessor, o ops.ReplaceAttribute) (ops.Operation, bool, error) {
	current, _ := a.GetRecord(o.Record)
	var currentValue any
	existed := false
	if current != nil {
		currentValue, existed = current.Attributes[o.Name]
	}
	if existed && recordmodel.ValueEqual(currentValue, o.Value) && !o.Unset {
		return nil, false, nil
	}
	if !existed && o.Unset {
		return nil, false, nil
	}
	// The inverse for replaceAttribute against an absent record uses the
	// operation's own identity rather than a just-synthesized record,
	// since the op's Record field already is just the identity in this
	// model.
	return ops.ReplaceAttribute{Record: o.Record, Name: o.Name, Value: currentValue, Unset: !existed}, true, nil
}

func addToRelatedRecords(a accessor.Accessor, o ops.AddToRelatedRecords) (ops.Operation, bool, error) {
	if accessor.RelatedRecordsInclude(a, o.Record, o.Relationship, o.Related) {
		return nil, false, nil
	}
	return ops.RemoveFromRelatedRecords{Record: o.Record, Relationship: o.Relationship, Related: o.Related}, true, nil
}

func removeFromRelatedRecords(a accessor.Accessor, o ops.RemoveFromRelatedRecords) (ops.Operation, bool, error) {
	if !accessor.RelatedRecordsInclude(a, o.Record, o.Relationship, o.Related) {
		return nil, false, nil
	}
	return ops.AddToRelatedRecords{Record: o.Record, Relationship: o.Relationship, Related: o.Related}, true, nil
}

func replaceRelatedRecords(a accessor.Accessor, o ops.ReplaceRelatedRecords) (ops.Operation, bool, error) {
	current, _ := a.GetRecord(o.Record)
	currentSet := current.RelatedMany(o.Relationship)
	if recordmodel.SetEqual(currentSet, o.Related) {
		return nil, false, nil
	}
	return ops.ReplaceRelatedRecords{Record: o.Record, Relationship: o.Relationship, Related: currentSet}, true, nil
}

func replaceRelatedRecord(a accessor.Accessor, o ops.ReplaceRelatedRecord) (ops.Operation, bool, error) {
	current, _ := a.GetRecord(o.Record)
	currentOne := current.RelatedOne(o.Relationship)
	if currentOne == o.Related {
		return nil, false, nil
	}
	return ops.ReplaceRelatedRecord{Record: o.Record, Relationship: o.Relationship, Related: currentOne}, true, nil
}

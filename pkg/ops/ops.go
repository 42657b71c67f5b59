// Package ops defines the closed operation algebra the cache dispatches
// on. Each kind is its own struct implementing Operation; dispatch is by
// type switch in the patch, inverse-patch, and processor tables, never
// by open extension.
package ops

import "github.com/northlane/recordcache/pkg/recordmodel"

// Kind tags an Operation for logging and error messages.
type Kind string

const (
	KindAddRecord               Kind = "addRecord"
	KindReplaceRecord           Kind = "replaceRecord"
	KindRemoveRecord            Kind = "removeRecord"
	KindReplaceKey              Kind = "replaceKey"
	KindReplaceAttribute        Kind = "replaceAttribute"
	KindAddToRelatedRecords     Kind = "addToRelatedRecords"
	KindRemoveFromRelatedRecords Kind = "removeFromRelatedRecords"
	KindReplaceRelatedRecords   Kind = "replaceRelatedRecords"
	KindReplaceRelatedRecord    Kind = "replaceRelatedRecord"
)

// Operation is the sum type every patch/inverse-patch operator and
// processor dispatches on.
type Operation interface {
	Kind() Kind
	// Identity returns the record identity this operation targets,
	// shared by every op kind.
	Identity() recordmodel.Identity
}

// AddRecord unconditionally sets a bucket entry.
type AddRecord struct {
	Record *recordmodel.Record
}

func (o AddRecord) Kind() Kind                       { return KindAddRecord }
func (o AddRecord) Identity() recordmodel.Identity { return o.Record.Identity }

// ReplaceRecord deep-merges keys/attributes/relationships field-by-field
// into the existing record, or stores Record verbatim if absent.
//
// UnsetKeys and UnsetAttributes name fields that should be removed
// entirely from the merged record rather than overwritten, used by the
// inverse-patch operator to undo a replaceRecord that added a field the
// prior record didn't have, restoring true absence rather than an
// explicit null.
type ReplaceRecord struct {
	Record          *recordmodel.Record
	UnsetKeys       []string
	UnsetAttributes []string
}

func (o ReplaceRecord) Kind() Kind                       { return KindReplaceRecord }
func (o ReplaceRecord) Identity() recordmodel.Identity { return o.Record.Identity }

// RemoveRecord deletes a record.
type RemoveRecord struct {
	Record recordmodel.Identity
}

func (o RemoveRecord) Kind() Kind                       { return KindRemoveRecord }
func (o RemoveRecord) Identity() recordmodel.Identity { return o.Record }

// ReplaceKey deep-sets keys[Name] = Value on Record (loading or
// synthesizing it first).
type ReplaceKey struct {
	Record recordmodel.Identity
	Name   string
	Value  string
	Unset  bool // true means "remove this key", used by inverse ops
}

func (o ReplaceKey) Kind() Kind                       { return KindReplaceKey }
func (o ReplaceKey) Identity() recordmodel.Identity { return o.Record }

// ReplaceAttribute deep-sets attributes[Name] = Value on Record.
type ReplaceAttribute struct {
	Record recordmodel.Identity
	Name   string
	Value  any
	Unset  bool
}

func (o ReplaceAttribute) Kind() Kind                       { return KindReplaceAttribute }
func (o ReplaceAttribute) Identity() recordmodel.Identity { return o.Record }

// AddToRelatedRecords appends Related to relationships[Relationship].data.
type AddToRelatedRecords struct {
	Record       recordmodel.Identity
	Relationship string
	Related      recordmodel.Identity
}

func (o AddToRelatedRecords) Kind() Kind                       { return KindAddToRelatedRecords }
func (o AddToRelatedRecords) Identity() recordmodel.Identity { return o.Record }

// RemoveFromRelatedRecords removes every entry matching Related from
// relationships[Relationship].data. No-op if Record is absent.
type RemoveFromRelatedRecords struct {
	Record       recordmodel.Identity
	Relationship string
	Related      recordmodel.Identity
}

func (o RemoveFromRelatedRecords) Kind() Kind                       { return KindRemoveFromRelatedRecords }
func (o RemoveFromRelatedRecords) Identity() recordmodel.Identity { return o.Record }

// ReplaceRelatedRecords sets relationships[Relationship].data = Related
// wholesale (hasMany).
type ReplaceRelatedRecords struct {
	Record       recordmodel.Identity
	Relationship string
	Related      []recordmodel.Identity
}

func (o ReplaceRelatedRecords) Kind() Kind                       { return KindReplaceRelatedRecords }
func (o ReplaceRelatedRecords) Identity() recordmodel.Identity { return o.Record }

// ReplaceRelatedRecord sets relationships[Relationship].data = Related
// (hasOne), which may be the null identity.
type ReplaceRelatedRecord struct {
	Record       recordmodel.Identity
	Relationship string
	Related      recordmodel.Identity
}

func (o ReplaceRelatedRecord) Kind() Kind                       { return KindReplaceRelatedRecord }
func (o ReplaceRelatedRecord) Identity() recordmodel.Identity { return o.Record }

// Package query implements the read-only expression language the cache
// evaluates: find a single record by identity, find a filtered/sorted/
// paged collection, and traverse a relationship to its target record(s).
package query

import (
	"sort"

	"github.com/northlane/recordcache/pkg/accessor"
	"github.com/northlane/recordcache/pkg/cacheerr"
	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

// AttributeOp is a comparison operator for an AttributePredicate.
type AttributeOp string

const (
	OpEqual AttributeOp = "equal"
	OpGT    AttributeOp = "gt"
	OpGTE   AttributeOp = "gte"
	OpLT    AttributeOp = "lt"
	OpLTE   AttributeOp = "lte"
)

// SetOp is a comparison operator for a RelatedRecordsPredicate.
type SetOp string

const (
	SetEqual SetOp = "equal"
	SetAll   SetOp = "all"
	SetSome  SetOp = "some"
	SetNone  SetOp = "none"
)

// Predicate is one clause of a findRecords filter; clauses combine with
// logical AND.
type Predicate interface {
	match(r *recordmodel.Record) (bool, error)
}

// AttributePredicate matches an attribute value against a comparison
// operator. Comparison is structural: deep equality for OpEqual, native
// ordering for the rest. An absent attribute never matches.
type AttributePredicate struct {
	Name  string
	Op    AttributeOp
	Value any
}

func (p AttributePredicate) match(r *recordmodel.Record) (bool, error) {
	v, ok := r.Attributes[p.Name]
	if !ok {
		return false, nil
	}
	switch p.Op {
	case OpEqual:
		return recordmodel.ValueEqual(v, p.Value), nil
	case OpGT, OpGTE, OpLT, OpLTE:
		cmp, ok := compareValues(v, p.Value)
		if !ok {
			return false, nil
		}
		switch p.Op {
		case OpGT:
			return cmp > 0, nil
		case OpGTE:
			return cmp >= 0, nil
		case OpLT:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	default:
		return false, &cacheerr.QueryExpressionParseError{Reason: "unknown attribute operator " + string(p.Op)}
	}
}

// RelatedRecordsPredicate matches a hasMany relationship's current target
// set against an expected set of identities.
type RelatedRecordsPredicate struct {
	Name       string
	Op         SetOp
	Identities []recordmodel.Identity
}

func (p RelatedRecordsPredicate) match(r *recordmodel.Record) (bool, error) {
	actual := r.RelatedMany(p.Name)
	switch p.Op {
	case SetEqual:
		return recordmodel.SetEqual(actual, p.Identities), nil
	case SetAll:
		for _, e := range p.Identities {
			if !recordmodel.Contains(actual, e) {
				return false, nil
			}
		}
		return true, nil
	case SetSome:
		for _, e := range p.Identities {
			if recordmodel.Contains(actual, e) {
				return true, nil
			}
		}
		return false, nil
	case SetNone:
		for _, e := range p.Identities {
			if recordmodel.Contains(actual, e) {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, &cacheerr.QueryExpressionParseError{Reason: "unknown relatedRecords operator " + string(p.Op)}
	}
}

// RelatedRecordPredicate matches a hasOne relationship's current target
// against one or more expected identities. Op is always "equal": the
// current target must equal one of Identities.
type RelatedRecordPredicate struct {
	Name       string
	Op         SetOp
	Identities []recordmodel.Identity
}

func (p RelatedRecordPredicate) match(r *recordmodel.Record) (bool, error) {
	if p.Op != SetEqual {
		return false, &cacheerr.QueryExpressionParseError{Reason: "unknown relatedRecord operator " + string(p.Op)}
	}
	current := r.RelatedOne(p.Name)
	return recordmodel.Contains(p.Identities, current), nil
}

// SortOrder directs ascending or descending comparison.
type SortOrder string

const (
	Ascending  SortOrder = "ascending"
	Descending SortOrder = "descending"
)

// SortSpec orders findRecords results by an attribute value. It is the
// only supported sort kind.
type SortSpec struct {
	Name  string
	Order SortOrder
}

// Page requests a sub-slice of a findRecords result. Limit must be
// positive; a Page with Limit <= 0 is a malformed pagination clause.
type Page struct {
	Limit  int
	Offset int
}

// FindRecord returns the record at id, or RecordNotFoundError if absent.
func FindRecord(a accessor.Accessor, id recordmodel.Identity) (*recordmodel.Record, error) {
	rec, ok := a.GetRecord(id)
	if !ok {
		return nil, &cacheerr.RecordNotFoundError{Identity: id}
	}
	return rec, nil
}

// FindRecords returns every record of modelType (or, if modelType is
// empty, of every type view declares) matching every predicate in
// filter, ordered per sort, then sliced per page.
func FindRecords(a accessor.Accessor, view schema.View, modelType string, filter []Predicate, sorts []SortSpec, page *Page) ([]*recordmodel.Record, error) {
	var candidates []*recordmodel.Record
	if modelType != "" {
		candidates = a.GetRecords(modelType)
	} else {
		for _, t := range view.ModelTypes() {
			candidates = append(candidates, a.GetRecords(t)...)
		}
	}

	matched := make([]*recordmodel.Record, 0, len(candidates))
	for _, rec := range candidates {
		ok := true
		for _, p := range filter {
			m, err := p.match(rec)
			if err != nil {
				return nil, err
			}
			if !m {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, rec)
		}
	}

	if err := applySort(matched, sorts); err != nil {
		return nil, err
	}

	if page == nil {
		return matched, nil
	}
	if page.Limit <= 0 {
		return nil, &cacheerr.QueryExpressionParseError{Reason: "page requires a positive limit"}
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// FindRelatedRecord resolves identity's hasOne relationship to its full
// target record, or nil if the relationship is empty or the target no
// longer exists.
func FindRelatedRecord(a accessor.Accessor, identity recordmodel.Identity, relationship string) (*recordmodel.Record, error) {
	rec, ok := accessor.GetRelatedRecord(a, identity, relationship)
	if !ok {
		return nil, nil
	}
	return rec, nil
}

// FindRelatedRecords resolves identity's hasMany relationship to its
// target records, in declared order, skipping any target that no longer
// exists.
func FindRelatedRecords(a accessor.Accessor, identity recordmodel.Identity, relationship string) ([]*recordmodel.Record, error) {
	return accessor.GetRelatedRecords(a, identity, relationship), nil
}

func applySort(records []*recordmodel.Record, specs []SortSpec) error {
	if len(specs) == 0 {
		return nil
	}
	for _, s := range specs {
		if s.Order != Ascending && s.Order != Descending {
			return &cacheerr.QueryExpressionParseError{Reason: "unsupported sort order " + string(s.Order)}
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, s := range specs {
			cmp := compareForSort(records[i], records[j], s)
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return nil
}

// compareForSort orders two records by one attribute sort spec. A record
// missing the attribute sorts last under ascending order, first under
// descending order.
func compareForSort(a, b *recordmodel.Record, spec SortSpec) int {
	va, oka := a.Attributes[spec.Name]
	vb, okb := b.Attributes[spec.Name]

	sign := 1
	if spec.Order == Descending {
		sign = -1
	}

	switch {
	case !oka && !okb:
		return 0
	case !oka:
		return sign
	case !okb:
		return -sign
	}

	cmp, ok := compareValues(va, vb)
	if !ok {
		return 0
	}
	return sign * cmp
}

// compareValues returns a native ordering comparison for two attribute
// values of the same comparable kind, or ok=false if they can't be
// ordered against one another.
func compareValues(a, b any) (cmp int, ok bool) {
	switch av := a.(type) {
	case int:
		if bv, ok := b.(int); ok {
			return compareOrdered(av, bv), true
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return compareOrdered(av, bv), true
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return compareOrdered(av, bv), true
		}
	case string:
		if bv, ok := b.(string); ok {
			return compareOrdered(av, bv), true
		}
	}
	return 0, false
}

func compareOrdered[T int | int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Package recordmodel defines the normalized record shape the cache stores:
// identities, records, and relationship values.
package recordmodel

import "fmt"

// Identity is a (type, id) pair. The zero value is the null identity: it
// equals only itself.
type Identity struct {
	Type string
	ID   string
}

// Null is the identity that compares equal only to itself.
var Null = Identity{}

// IsNull reports whether id is the null identity.
func (id Identity) IsNull() bool {
	return id == Null
}

// Equal reports component-wise equality.
func (id Identity) Equal(other Identity) bool {
	return id == other
}

// String renders "Type:ID", or "<null>" for the null identity.
func (id Identity) String() string {
	if id.IsNull() {
		return "<null>"
	}
	return fmt.Sprintf("%s:%s", id.Type, id.ID)
}

// IdentitySet returns a after removing any entries whose identity already
// appears earlier in the slice, preserving first-seen order. It is used
// wherever a hasMany relationship's possibly-duplicated data needs to be
// compared as a set.
func IdentitySet(ids []Identity) []Identity {
	seen := make(map[Identity]struct{}, len(ids))
	out := make([]Identity, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SetEqual reports whether a and b contain the same identities, ignoring
// order and duplicate count. This is hasMany's equality semantics.
func SetEqual(a, b []Identity) bool {
	sa, sb := IdentitySet(a), IdentitySet(b)
	if len(sa) != len(sb) {
		return false
	}
	lookup := make(map[Identity]struct{}, len(sb))
	for _, id := range sb {
		lookup[id] = struct{}{}
	}
	for _, id := range sa {
		if _, ok := lookup[id]; !ok {
			return false
		}
	}
	return true
}

// Contains reports whether ids includes target.
func Contains(ids []Identity, target Identity) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

// Without returns a copy of ids with every entry equal to target removed.
func Without(ids []Identity, target Identity) []Identity {
	out := make([]Identity, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Difference returns the identities in a that are not in b (by identity,
// ignoring duplicates), used by replaceRelatedRecords delta computation.
func Difference(a, b []Identity) []Identity {
	lookup := make(map[Identity]struct{}, len(b))
	for _, id := range b {
		lookup[id] = struct{}{}
	}
	out := make([]Identity, 0)
	seen := make(map[Identity]struct{})
	for _, id := range a {
		if _, ok := lookup[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package accessor

import (
	"sync"

	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

// ForkableAccessor is an in-memory Accessor whose buckets are shared by
// reference across forks until one side writes to them. Fork is O(model
// type count): it copies only the top-level type->bucket map, not the
// buckets themselves. A bucket is copied into this instance's own map on
// its first local write (copy-on-write), after which further writes to
// that bucket never touch the fork it came from.
//
// Sharing is bucket-granular, not entry-granular: a single write to a
// large bucket duplicates the whole bucket rather than a persistent
// trie's single path. This trades per-write cost for a much simpler
// read path, which fits this cache's read-heavy,
// batch-write access pattern.
type ForkableAccessor struct {
	mu sync.RWMutex

	records        map[string]map[string]*recordmodel.Record
	touchedRecords map[string]bool

	inverse        map[string]map[string][]recordmodel.BackRef
	touchedInverse map[string]bool
}

// NewForkableAccessor builds a ForkableAccessor with an empty bucket
// pre-populated for every model type the schema view declares.
func NewForkableAccessor(view schema.View) *ForkableAccessor {
	f := &ForkableAccessor{
		records:        make(map[string]map[string]*recordmodel.Record),
		touchedRecords: make(map[string]bool),
		inverse:        make(map[string]map[string][]recordmodel.BackRef),
		touchedInverse: make(map[string]bool),
	}
	for _, t := range view.ModelTypes() {
		f.records[t] = make(map[string]*recordmodel.Record)
		f.touchedRecords[t] = true
		f.inverse[t] = make(map[string][]recordmodel.BackRef)
		f.touchedInverse[t] = true
	}
	return f
}

// Fork returns a new accessor sharing every bucket with f by reference.
// Writes on either side copy a bucket before mutating it, so neither
// fork ever observes the other's subsequent writes.
func (f *ForkableAccessor) Fork() *ForkableAccessor {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := make(map[string]map[string]*recordmodel.Record, len(f.records))
	for t, b := range f.records {
		records[t] = b
	}
	inverse := make(map[string]map[string][]recordmodel.BackRef, len(f.inverse))
	for t, b := range f.inverse {
		inverse[t] = b
	}
	// Every bucket is now shared, so f must copy before its next write too.
	f.touchedRecords = make(map[string]bool, len(f.records))
	f.touchedInverse = make(map[string]bool, len(f.inverse))
	return &ForkableAccessor{
		records:        records,
		touchedRecords: make(map[string]bool, len(records)),
		inverse:        inverse,
		touchedInverse: make(map[string]bool, len(inverse)),
	}
}

// ensureOwnedRecords returns modelType's record bucket, copying it into
// this instance's own map on first call per bucket.
func (f *ForkableAccessor) ensureOwnedRecords(modelType string) map[string]*recordmodel.Record {
	if f.touchedRecords[modelType] {
		return f.records[modelType]
	}
	fresh := make(map[string]*recordmodel.Record, len(f.records[modelType]))
	for id, rec := range f.records[modelType] {
		fresh[id] = rec
	}
	f.records[modelType] = fresh
	f.touchedRecords[modelType] = true
	return fresh
}

func (f *ForkableAccessor) ensureOwnedInverse(modelType string) map[string][]recordmodel.BackRef {
	if f.touchedInverse[modelType] {
		return f.inverse[modelType]
	}
	fresh := make(map[string][]recordmodel.BackRef, len(f.inverse[modelType]))
	for id, refs := range f.inverse[modelType] {
		fresh[id] = refs[:len(refs):len(refs)]
	}
	f.inverse[modelType] = fresh
	f.touchedInverse[modelType] = true
	return fresh
}

// GetRecord implements Accessor.
func (f *ForkableAccessor) GetRecord(id recordmodel.Identity) (*recordmodel.Record, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	rec, ok := f.records[id.Type][id.ID]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// GetRecords implements Accessor.
func (f *ForkableAccessor) GetRecords(modelType string) []*recordmodel.Record {
	f.mu.RLock()
	defer f.mu.RUnlock()

	bucket := f.records[modelType]
	out := make([]*recordmodel.Record, 0, len(bucket))
	for _, rec := range bucket {
		out = append(out, rec.Clone())
	}
	return out
}

// SetRecord implements Accessor.
func (f *ForkableAccessor) SetRecord(r *recordmodel.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := f.ensureOwnedRecords(r.Identity.Type)
	bucket[r.Identity.ID] = r.Clone()
}

// SetRecords implements Accessor.
func (f *ForkableAccessor) SetRecords(modelType string, records []*recordmodel.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := f.ensureOwnedRecords(modelType)
	for _, r := range records {
		bucket[r.Identity.ID] = r.Clone()
	}
}

// RemoveRecord implements Accessor.
func (f *ForkableAccessor) RemoveRecord(id recordmodel.Identity) *recordmodel.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := f.ensureOwnedRecords(id.Type)
	prior, ok := bucket[id.ID]
	if !ok {
		return nil
	}
	delete(bucket, id.ID)
	return prior
}

// RemoveRecords implements Accessor.
func (f *ForkableAccessor) RemoveRecords(modelType string, ids []recordmodel.Identity) []*recordmodel.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := f.ensureOwnedRecords(modelType)
	out := make([]*recordmodel.Record, 0, len(ids))
	for _, id := range ids {
		if prior, ok := bucket[id.ID]; ok {
			out = append(out, prior)
			delete(bucket, id.ID)
		}
	}
	return out
}

// GetInverselyRelatedRecords implements Accessor.
func (f *ForkableAccessor) GetInverselyRelatedRecords(id recordmodel.Identity) []recordmodel.BackRef {
	f.mu.RLock()
	defer f.mu.RUnlock()

	refs := f.inverse[id.Type][id.ID]
	out := make([]recordmodel.BackRef, len(refs))
	copy(out, refs)
	return out
}

// AddInverselyRelatedRecord implements Accessor.
func (f *ForkableAccessor) AddInverselyRelatedRecord(id recordmodel.Identity, ref recordmodel.BackRef) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := f.ensureOwnedInverse(id.Type)
	bucket[id.ID] = append(bucket[id.ID], ref)
}

// RemoveInverselyRelatedRecord implements Accessor.
func (f *ForkableAccessor) RemoveInverselyRelatedRecord(id recordmodel.Identity, ref recordmodel.BackRef) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := f.ensureOwnedInverse(id.Type)
	refs := bucket[id.ID]
	kept := refs[:0:0]
	for _, r := range refs {
		if r.Owner == ref.Owner && r.Relationship == ref.Relationship {
			continue
		}
		kept = append(kept, r)
	}
	bucket[id.ID] = kept
}

// RemoveInverseRelationships implements Accessor.
func (f *ForkableAccessor) RemoveInverseRelationships(id recordmodel.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.ensureOwnedInverse(id.Type), id.ID)
}

var _ Accessor = (*ForkableAccessor)(nil)

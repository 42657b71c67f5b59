package accessor

import (
	"sync"

	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

// MemoryAccessor is a thread-safe, nested-map in-memory implementation of
// Accessor: a two-level map guarded by a single RWMutex, with
// deep-copy-on-read/write to keep callers from mutating stored state out
// from under the cache.
type MemoryAccessor struct {
	mu sync.RWMutex

	// records is type -> (id -> record), pre-populated with one empty
	// bucket per declared model type.
	records map[string]map[string]*recordmodel.Record

	// inverse is type -> (id -> back-ref list).
	inverse map[string]map[string][]recordmodel.BackRef
}

// NewMemoryAccessor builds a MemoryAccessor with an empty bucket
// pre-populated for every model type the schema view declares.
func NewMemoryAccessor(view schema.View) *MemoryAccessor {
	m := &MemoryAccessor{
		records: make(map[string]map[string]*recordmodel.Record),
		inverse: make(map[string]map[string][]recordmodel.BackRef),
	}
	for _, t := range view.ModelTypes() {
		m.records[t] = make(map[string]*recordmodel.Record)
		m.inverse[t] = make(map[string][]recordmodel.BackRef)
	}
	return m
}

func (m *MemoryAccessor) bucket(modelType string) map[string]*recordmodel.Record {
	b, ok := m.records[modelType]
	if !ok {
		b = make(map[string]*recordmodel.Record)
		m.records[modelType] = b
	}
	return b
}

func (m *MemoryAccessor) inverseBucket(modelType string) map[string][]recordmodel.BackRef {
	b, ok := m.inverse[modelType]
	if !ok {
		b = make(map[string][]recordmodel.BackRef)
		m.inverse[modelType] = b
	}
	return b
}

// GetRecord implements Accessor.
func (m *MemoryAccessor) GetRecord(id recordmodel.Identity) (*recordmodel.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bucket, ok := m.records[id.Type]
	if !ok {
		return nil, false
	}
	rec, ok := bucket[id.ID]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// GetRecords implements Accessor.
func (m *MemoryAccessor) GetRecords(modelType string) []*recordmodel.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bucket := m.records[modelType]
	out := make([]*recordmodel.Record, 0, len(bucket))
	for _, rec := range bucket {
		out = append(out, rec.Clone())
	}
	return out
}

// SetRecord implements Accessor. The record is always stored under its
// own Identity.Type bucket.
func (m *MemoryAccessor) SetRecord(r *recordmodel.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bucket(r.Identity.Type)[r.Identity.ID] = r.Clone()
}

// SetRecords implements Accessor.
func (m *MemoryAccessor) SetRecords(modelType string, records []*recordmodel.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.bucket(modelType)
	for _, r := range records {
		bucket[r.Identity.ID] = r.Clone()
	}
}

// RemoveRecord implements Accessor.
func (m *MemoryAccessor) RemoveRecord(id recordmodel.Identity) *recordmodel.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.records[id.Type]
	if !ok {
		return nil
	}
	prior, ok := bucket[id.ID]
	if !ok {
		return nil
	}
	delete(bucket, id.ID)
	return prior
}

// RemoveRecords implements Accessor.
func (m *MemoryAccessor) RemoveRecords(modelType string, ids []recordmodel.Identity) []*recordmodel.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.records[modelType]
	if !ok {
		return nil
	}
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
func (m *MemoryAccessor) GetInverselyRelatedRecords(id recordmodel.Identity) []recordmodel.BackRef {
	m.mu.RLock()
	defer m.mu.RUnlock()

	refs := m.inverse[id.Type][id.ID]
	out := make([]recordmodel.BackRef, len(refs))
	copy(out, refs)
	return out
}

// AddInverselyRelatedRecord implements Accessor.
func (m *MemoryAccessor) AddInverselyRelatedRecord(id recordmodel.Identity, ref recordmodel.BackRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.inverseBucket(id.Type)
	bucket[id.ID] = append(bucket[id.ID], ref)
}

// RemoveInverselyRelatedRecord implements Accessor.
func (m *MemoryAccessor) RemoveInverselyRelatedRecord(id recordmodel.Identity, ref recordmodel.BackRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.inverseBucket(id.Type)
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
func (m *MemoryAccessor) RemoveInverseRelationships(id recordmodel.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.inverseBucket(id.Type), id.ID)
}

var _ Accessor = (*MemoryAccessor)(nil)

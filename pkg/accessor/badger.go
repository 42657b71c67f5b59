package accessor

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/northlane/recordcache/pkg/recordmodel"
)

// BadgerAccessor is a persistent Accessor backed by a Badger key-value
// store, with a bounded in-memory hot cache in front of it. Records and
// back-ref lists are stored under distinct key prefixes so a single
// database can hold both without collision.
type BadgerAccessor struct {
	db    *badger.DB
	cache *lru.Cache[string, *recordmodel.Record]
}

const (
	prefixRecord  = "record:"
	prefixBackref = "backref:"
)

// NewBadgerAccessor opens (or creates) a Badger database rooted at dir,
// fronted by an LRU cache holding up to hotCacheSize records.
func NewBadgerAccessor(dir string, hotCacheSize int) (*BadgerAccessor, error) {
	db, err := badger.Open(badger.DefaultOptions(dir))
	if err != nil {
		return nil, fmt.Errorf("recordcache: open badger store: %w", err)
	}
	cache, err := lru.New[string, *recordmodel.Record](hotCacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("recordcache: build hot cache: %w", err)
	}
	return &BadgerAccessor{db: db, cache: cache}, nil
}

// Close releases the underlying Badger database.
func (b *BadgerAccessor) Close() error {
	return b.db.Close()
}

func recordKey(id recordmodel.Identity) []byte {
	return []byte(prefixRecord + id.Type + ":" + id.ID)
}

func recordPrefix(modelType string) []byte {
	return []byte(prefixRecord + modelType + ":")
}

func backrefKey(id recordmodel.Identity) []byte {
	return []byte(prefixBackref + id.Type + ":" + id.ID)
}

func hotKey(id recordmodel.Identity) string {
	return id.Type + ":" + id.ID
}

// GetRecord implements Accessor.
func (b *BadgerAccessor) GetRecord(id recordmodel.Identity) (*recordmodel.Record, bool) {
	if rec, ok := b.cache.Get(hotKey(id)); ok {
		return rec.Clone(), true
	}
	rec, ok := b.loadRecord(id)
	if !ok {
		return nil, false
	}
	b.cache.Add(hotKey(id), rec)
	return rec.Clone(), true
}

func (b *BadgerAccessor) loadRecord(id recordmodel.Identity) (*recordmodel.Record, bool) {
	var rec *recordmodel.Record
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec = &recordmodel.Record{}
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, false
	}
	return rec, true
}

// GetRecords implements Accessor.
func (b *BadgerAccessor) GetRecords(modelType string) []*recordmodel.Record {
	var out []*recordmodel.Record
	prefix := recordPrefix(modelType)
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec := &recordmodel.Record{}
				if err := json.Unmarshal(val, rec); err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out
}

// SetRecord implements Accessor.
func (b *BadgerAccessor) SetRecord(r *recordmodel.Record) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(r.Identity), data)
	})
	b.cache.Add(hotKey(r.Identity), r.Clone())
}

// SetRecords implements Accessor, batching the writes.
func (b *BadgerAccessor) SetRecords(modelType string, records []*recordmodel.Record) {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			continue
		}
		if err := wb.Set(recordKey(r.Identity), data); err != nil {
			continue
		}
	}
	if err := wb.Flush(); err != nil {
		return
	}
	for _, r := range records {
		b.cache.Add(hotKey(r.Identity), r.Clone())
	}
}

// RemoveRecord implements Accessor.
func (b *BadgerAccessor) RemoveRecord(id recordmodel.Identity) *recordmodel.Record {
	prior, ok := b.loadRecord(id)
	if !ok {
		return nil
	}
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
	b.cache.Remove(hotKey(id))
	return prior
}

// RemoveRecords implements Accessor.
func (b *BadgerAccessor) RemoveRecords(modelType string, ids []recordmodel.Identity) []*recordmodel.Record {
	out := make([]*recordmodel.Record, 0, len(ids))
	for _, id := range ids {
		if prior := b.RemoveRecord(id); prior != nil {
			out = append(out, prior)
		}
	}
	return out
}

// GetInverselyRelatedRecords implements Accessor.
func (b *BadgerAccessor) GetInverselyRelatedRecords(id recordmodel.Identity) []recordmodel.BackRef {
	refs, _ := b.loadBackrefs(id)
	return refs
}

func (b *BadgerAccessor) loadBackrefs(id recordmodel.Identity) ([]recordmodel.BackRef, error) {
	var refs []recordmodel.BackRef
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(backrefKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &refs)
		})
	})
	return refs, err
}

func (b *BadgerAccessor) storeBackrefs(id recordmodel.Identity, refs []recordmodel.BackRef) {
	data, err := json.Marshal(refs)
	if err != nil {
		return
	}
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(backrefKey(id), data)
	})
}

// AddInverselyRelatedRecord implements Accessor.
func (b *BadgerAccessor) AddInverselyRelatedRecord(id recordmodel.Identity, ref recordmodel.BackRef) {
	refs, _ := b.loadBackrefs(id)
	refs = append(refs, ref)
	b.storeBackrefs(id, refs)
}

// RemoveInverselyRelatedRecord implements Accessor.
func (b *BadgerAccessor) RemoveInverselyRelatedRecord(id recordmodel.Identity, ref recordmodel.BackRef) {
	refs, _ := b.loadBackrefs(id)
	kept := refs[:0:0]
	for _, r := range refs {
		if r.Owner == ref.Owner && r.Relationship == ref.Relationship {
			continue
		}
		kept = append(kept, r)
	}
	b.storeBackrefs(id, kept)
}

// RemoveInverseRelationships implements Accessor.
func (b *BadgerAccessor) RemoveInverseRelationships(id recordmodel.Identity) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(backrefKey(id))
	})
}

var _ Accessor = (*BadgerAccessor)(nil)

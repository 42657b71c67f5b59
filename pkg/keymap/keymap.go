// Package keymap implements the optional alternative-identity index. The
// cache calls PushRecord after any patch that could alter a record's
// keys; KeyMap implementations are expected to be internally consistent,
// the cache never validates them.
package keymap

import (
	"sync"

	"github.com/northlane/recordcache/pkg/recordmodel"
)

// KeyMap is the narrow contract the cache writes through. A nil KeyMap
// is valid: the cache treats it as "no key map configured" and skips the
// PushRecord calls entirely.
type KeyMap interface {
	// PushRecord learns a record's alternative keys.
	PushRecord(r *recordmodel.Record)
	// KeyToID looks up the id for a (type, keyName, keyValue), or
	// ok=false if unknown.
	KeyToID(modelType, keyName, keyValue string) (string, bool)
}

// Simple is a thread-safe, in-memory KeyMap implementation.
type Simple struct {
	mu   sync.RWMutex
	byKey map[string]map[string]map[string]string // type -> keyName -> keyValue -> id
}

// NewSimple builds an empty Simple key map.
func NewSimple() *Simple {
	return &Simple{byKey: make(map[string]map[string]map[string]string)}
}

// PushRecord implements KeyMap.
func (s *Simple) PushRecord(r *recordmodel.Record) {
	if r == nil || len(r.Keys) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, ok := s.byKey[r.Identity.Type]
	if !ok {
		byName = make(map[string]map[string]string)
		s.byKey[r.Identity.Type] = byName
	}
	for name, value := range r.Keys {
		byValue, ok := byName[name]
		if !ok {
			byValue = make(map[string]string)
			byName[name] = byValue
		}
		byValue[value] = r.Identity.ID
	}
}

// KeyToID implements KeyMap.
func (s *Simple) KeyToID(modelType, keyName, keyValue string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[modelType][keyName][keyValue]
	return id, ok
}

var _ KeyMap = (*Simple)(nil)

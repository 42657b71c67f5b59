// Package cache wires the schema view, record accessor, key map, patch
// pipeline, and query evaluator into the single façade applications use.
package cache

import (
	"github.com/northlane/recordcache/pkg/accessor"
	"github.com/northlane/recordcache/pkg/keymap"
	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/pipeline"
	"github.com/northlane/recordcache/pkg/processor"
	"github.com/northlane/recordcache/pkg/query"
	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

// Cache composes the five core collaborators and exposes Patch/Find as
// the application-facing surface.
type Cache struct {
	view     schema.View
	accessor accessor.Accessor
	keyMap   keymap.KeyMap
	pipeline *pipeline.Pipeline
}

// Option configures a Cache at construction.
type Option func(*config)

type config struct {
	accessor   accessor.Accessor
	keyMap     keymap.KeyMap
	processors []processor.Processor
	logger     pipeline.Logger
}

// WithAccessor overrides the default MemoryAccessor.
func WithAccessor(a accessor.Accessor) Option {
	return func(c *config) { c.accessor = a }
}

// WithKeyMap installs a key map. Without this option the cache runs with
// no key map and skips PushRecord entirely.
func WithKeyMap(km keymap.KeyMap) Option {
	return func(c *config) { c.keyMap = km }
}

// WithProcessors overrides the default SchemaValidation -> SchemaConsistency
// -> CacheIntegrity chain.
func WithProcessors(procs ...processor.Processor) Option {
	return func(c *config) { c.processors = procs }
}

// WithLogger installs l as the destination for pipeline diagnostics
// (validation failures, no-op skips, processor injection counts). Without
// this option the pipeline logs nothing.
func WithLogger(l pipeline.Logger) Option {
	return func(c *config) { c.logger = l }
}

// New builds a Cache against view. By default it uses an in-memory
// accessor, no key map, and the default processor chain.
func New(view schema.View, opts ...Option) *Cache {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.accessor == nil {
		cfg.accessor = accessor.NewMemoryAccessor(view)
	}
	if cfg.processors == nil {
		cfg.processors = processor.DefaultChain(view)
	}

	p := pipeline.New(cfg.accessor, cfg.processors, cfg.keyMap)
	if cfg.logger != nil {
		p.SetLogger(cfg.logger)
	}

	return &Cache{
		view:     view,
		accessor: cfg.accessor,
		keyMap:   cfg.keyMap,
		pipeline: p,
	}
}

// Patch applies one or more primary operations and returns the
// accumulated result (per-operation data plus the reversed inverse
// batch).
func (c *Cache) Patch(operations ...ops.Operation) (*pipeline.PatchResult, error) {
	return c.pipeline.Apply(operations...)
}

// OnPatch registers a listener for the patch event.
func (c *Cache) OnPatch(l pipeline.PatchListener) { c.pipeline.OnPatch(l) }

// OnReset registers a listener for the reset event.
func (c *Cache) OnReset(l pipeline.ResetListener) { c.pipeline.OnReset(l) }

// FindRecord returns the record at id, or RecordNotFoundError if absent.
func (c *Cache) FindRecord(id recordmodel.Identity) (*recordmodel.Record, error) {
	return query.FindRecord(c.accessor, id)
}

// FindRecords evaluates a filtered/sorted/paged query over modelType (or
// every declared type, if modelType is empty).
func (c *Cache) FindRecords(modelType string, filter []query.Predicate, sort []query.SortSpec, page *query.Page) ([]*recordmodel.Record, error) {
	return query.FindRecords(c.accessor, c.view, modelType, filter, sort, page)
}

// FindRelatedRecord resolves identity's hasOne relationship.
func (c *Cache) FindRelatedRecord(identity recordmodel.Identity, relationship string) (*recordmodel.Record, error) {
	return query.FindRelatedRecord(c.accessor, identity, relationship)
}

// FindRelatedRecords resolves identity's hasMany relationship.
func (c *Cache) FindRelatedRecords(identity recordmodel.Identity, relationship string) ([]*recordmodel.Record, error) {
	return query.FindRelatedRecords(c.accessor, identity, relationship)
}

// KeyToID resolves an alternative identifier through the configured key
// map, or ok=false if no key map is configured or the key is unknown.
func (c *Cache) KeyToID(modelType, keyName, keyValue string) (string, bool) {
	if c.keyMap == nil {
		return "", false
	}
	return c.keyMap.KeyToID(modelType, keyName, keyValue)
}

// Reset notifies listeners that the cache's backing state has been bulk
// replaced (e.g. a forking accessor adopting a new base).
func (c *Cache) Reset() {
	c.pipeline.Reset()
}

// Package processor implements the three operation processors:
// pluggable validators/propagators with hooks into the patch pipeline.
// They are always composed in the fixed order
// SchemaValidation -> SchemaConsistency -> CacheIntegrity.
package processor

import (
	"github.com/northlane/recordcache/pkg/accessor"
	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/schema"
)

// Processor is the hook contract every processor implements. The
// pipeline owns ordering; processors do not know about each other.
type Processor interface {
	// Validate runs before anything else for op; a non-nil error aborts
	// the whole patch.
	Validate(op ops.Operation) error
	// Before returns sub-operations to run immediately, recursed through
	// the pipeline ahead of op's own mutation.
	Before(a accessor.Accessor, op ops.Operation) []ops.Operation
	// After returns sub-operations computed now (reading pre-mutation
	// state) but applied after op's main mutation.
	After(a accessor.Accessor, op ops.Operation) []ops.Operation
	// Immediate runs for side effects only; any returned value is
	// ignored.
	Immediate(a accessor.Accessor, op ops.Operation)
	// Finally returns sub-operations to run after everything else.
	Finally(a accessor.Accessor, op ops.Operation) []ops.Operation
}

// Base provides no-op implementations of every hook so a processor only
// needs to override the ones it cares about.
type Base struct{}

func (Base) Validate(ops.Operation) error                                    { return nil }
func (Base) Before(accessor.Accessor, ops.Operation) []ops.Operation         { return nil }
func (Base) After(accessor.Accessor, ops.Operation) []ops.Operation          { return nil }
func (Base) Immediate(accessor.Accessor, ops.Operation)                      {}
func (Base) Finally(accessor.Accessor, ops.Operation) []ops.Operation        { return nil }

// DefaultChain returns the three processors in the fixed composition
// order the pipeline requires.
func DefaultChain(view schema.View) []Processor {
	return []Processor{
		NewSchemaValidation(view),
		NewSchemaConsistency(view),
		NewCacheIntegrity(view),
	}
}

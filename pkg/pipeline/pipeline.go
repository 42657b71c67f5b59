// Package pipeline orchestrates the patch lifecycle: validate, compute
// inverse, run processor hooks around the patch operator, and accumulate
// the inverse batch and result data.
package pipeline

import (
	"github.com/northlane/recordcache/pkg/accessor"
	"github.com/northlane/recordcache/pkg/inversepatch"
	"github.com/northlane/recordcache/pkg/keymap"
	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/patch"
	"github.com/northlane/recordcache/pkg/processor"
	"github.com/northlane/recordcache/pkg/recordmodel"
)

// PatchResult carries the accumulated outcome of applying one batch of
// primary operations: the data produced by each primary operation (in
// order, one entry per input operation) and the full inverse batch
// (reversed, so applying it in order undoes the whole patch).
type PatchResult struct {
	Inverse []ops.Operation
	Data    []any
}

// Pipeline wires an accessor, an ordered processor chain, and an optional
// key map into the patch/inverse-patch operator tables.
type Pipeline struct {
	events

	accessor   accessor.Accessor
	processors []processor.Processor
	keyMap     keymap.KeyMap
	logger     Logger
}

// New builds a Pipeline. keyMap may be nil.
func New(a accessor.Accessor, processors []processor.Processor, keyMap keymap.KeyMap) *Pipeline {
	return &Pipeline{accessor: a, processors: processors, keyMap: keyMap}
}

// OnPatch registers a listener for the patch event.
func (p *Pipeline) OnPatch(l PatchListener) { p.onPatch(l) }

// OnReset registers a listener for the reset event.
func (p *Pipeline) OnReset(l ResetListener) { p.onReset(l) }

// SetLogger installs l as the destination for pipeline diagnostics. A nil
// logger (the default) disables logging entirely.
func (p *Pipeline) SetLogger(l Logger) { p.logger = l }

func (p *Pipeline) log(level, msg string, fields map[string]any) {
	if p.logger == nil {
		return
	}
	p.logger.Log(level, msg, fields)
}

// Apply runs one batch of primary operations through the pipeline in
// order and returns the accumulated result. An error aborts the batch
// immediately; mutations already applied are not rolled back.
func (p *Pipeline) Apply(operations ...ops.Operation) (*PatchResult, error) {
	result := &PatchResult{}
	for _, op := range operations {
		if err := p.applyOne(op, true, result); err != nil {
			return nil, err
		}
	}
	reverse(result.Inverse)
	p.log("debug", "patch applied", map[string]any{
		"primaryOps": len(operations),
		"inverseOps": len(result.Inverse),
	})
	return result, nil
}

// Reset notifies listeners of a bulk reset. Clearing the underlying
// storage (and, for a forking accessor, sharing structure with a base
// cache) is the caller's responsibility; the pipeline itself holds no
// state to clear.
func (p *Pipeline) Reset() {
	p.emitReset()
}

func (p *Pipeline) applyOne(op ops.Operation, primary bool, result *PatchResult) error {
	for _, proc := range p.processors {
		if err := proc.Validate(op); err != nil {
			p.log("warn", "validation failed", map[string]any{
				"op":    string(op.Kind()),
				"error": err.Error(),
			})
			return err
		}
	}

	inv, ok, err := inversepatch.Compute(p.accessor, op)
	if err != nil {
		return err
	}
	if !ok {
		if primary {
			result.Data = append(result.Data, nil)
		}
		p.log("debug", "no-op skip", map[string]any{"op": string(op.Kind())})
		return nil
	}
	result.Inverse = append(result.Inverse, inv)

	for _, proc := range p.processors {
		for _, sub := range proc.Before(p.accessor, op) {
			if err := p.applyOne(sub, false, result); err != nil {
				return err
			}
		}
	}

	var staged []ops.Operation
	for _, proc := range p.processors {
		staged = append(staged, proc.After(p.accessor, op)...)
	}
	if len(staged) > 0 {
		p.log("debug", "processor injected sub-ops", map[string]any{
			"op":    string(op.Kind()),
			"stage": "after",
			"count": len(staged),
		})
	}

	data, err := patch.Apply(p.accessor, op)
	if err != nil {
		return err
	}
	if primary {
		result.Data = append(result.Data, data)
	}

	for _, proc := range p.processors {
		proc.Immediate(p.accessor, op)
	}

	if p.keyMap != nil {
		if rec, ok := data.(*recordmodel.Record); ok {
			p.keyMap.PushRecord(rec)
		}
	}

	p.emitPatch(op, data)

	for _, sub := range staged {
		if err := p.applyOne(sub, false, result); err != nil {
			return err
		}
	}

	for _, proc := range p.processors {
		for _, sub := range proc.Finally(p.accessor, op) {
			if err := p.applyOne(sub, false, result); err != nil {
				return err
			}
		}
	}

	return nil
}

func reverse(s []ops.Operation) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

package pipeline

import (
	"sync"

	"github.com/northlane/recordcache/pkg/ops"
)

// PatchListener observes a primary or sub-operation once its main mutation
// has landed, alongside the value appended to that operation's result data.
type PatchListener func(op ops.Operation, data any)

// ResetListener observes a bulk reset of the cache.
type ResetListener func()

// events is a synchronous callback registry keyed by event name ("patch",
// "reset"). Listeners run in registration order on the calling goroutine;
// they must not re-enter Apply on the same pipeline.
type events struct {
	mu    sync.Mutex
	patch []PatchListener
	reset []ResetListener
}

func (e *events) onPatch(l PatchListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.patch = append(e.patch, l)
}

func (e *events) onReset(l ResetListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset = append(e.reset, l)
}

func (e *events) emitPatch(op ops.Operation, data any) {
	e.mu.Lock()
	listeners := make([]PatchListener, len(e.patch))
	copy(listeners, e.patch)
	e.mu.Unlock()

	for _, l := range listeners {
		l(op, data)
	}
}

func (e *events) emitReset() {
	e.mu.Lock()
	listeners := make([]ResetListener, len(e.reset))
	copy(listeners, e.reset)
	e.mu.Unlock()

	for _, l := range listeners {
		l()
	}
}

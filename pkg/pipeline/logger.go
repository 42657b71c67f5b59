package pipeline

import (
	"encoding/json"
	"log"
)

// Logger receives structured diagnostics emitted while a patch batch is
// applied: validation failures, no-op skips (an operation whose inverse
// computed to nothing), the number of sub-operations each operation's
// After hooks staged, and a per-batch summary of primary and inverse
// operation counts.
//
// This is intentionally minimal to avoid coupling the pipeline to a
// specific logging library. Implementations should treat fields as a
// stable, machine-readable contract.
type Logger interface {
	Log(level string, msg string, fields map[string]any)
}

type stdLogger struct{}

// DefaultLogger logs through the standard log package, each line tagged
// "[pipeline]" and carrying a JSON payload.
func DefaultLogger() Logger { return stdLogger{} }

func (stdLogger) Log(level string, msg string, fields map[string]any) {
	payload := map[string]any{"level": level, "msg": msg}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[pipeline] level=%s msg=%s fields=%v", level, msg, fields)
		return
	}
	log.Printf("[pipeline] %s", string(b))
}

package pipeline

import (
	"testing"

	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/recordmodel"
)

type recordingLogger struct {
	entries []string
}

func (l *recordingLogger) Log(level, msg string, fields map[string]any) {
	l.entries = append(l.entries, level+": "+msg)
}

func TestPipeline_Logger_RecordsValidationFailure(t *testing.T) {
	p, _ := newTestPipeline()
	rec := &recordingLogger{}
	p.SetLogger(rec)

	_, err := p.Apply(ops.AddRecord{Record: &recordmodel.Record{
		Identity:   recordmodel.Identity{Type: "starship", ID: "s1"},
	}})
	if err == nil {
		t.Fatal("expected a validation error for an undeclared type")
	}
	found := false
	for _, e := range rec.entries {
		if e == "warn: validation failed" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a validation-failed log entry, got %v", rec.entries)
	}
}

func TestPipeline_Logger_RecordsNoOpSkip(t *testing.T) {
	p, _ := newTestPipeline()
	rec := &recordingLogger{}
	p.SetLogger(rec)

	moon := recordmodel.Identity{Type: "moon", ID: "m1"}
	if _, err := p.Apply(ops.ReplaceAttribute{Record: moon, Name: "name", Unset: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, e := range rec.entries {
		if e == "debug: no-op skip" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a no-op-skip log entry, got %v", rec.entries)
	}
}

func TestPipeline_NoLogger_DoesNotPanic(t *testing.T) {
	p, _ := newTestPipeline()
	planet := recordmodel.Identity{Type: "planet", ID: "p1"}
	if _, err := p.Apply(ops.AddRecord{Record: &recordmodel.Record{Identity: planet}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

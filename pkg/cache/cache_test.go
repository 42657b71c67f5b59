package cache

import (
	"testing"

	"github.com/northlane/recordcache/pkg/keymap"
	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/processor"
	"github.com/northlane/recordcache/pkg/query"
	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

func testView() schema.View {
	planet := schema.NewBuilder("planet").
		Attribute("name").
		Key("slug").
		HasMany("moons", "moon", "planet").
		Build()
	moon := schema.NewBuilder("moon").
		Attribute("name").
		HasOne("planet", "planet", "moons").
		Build()
	return schema.NewStaticView(planet, moon)
}

func TestCache_New_DefaultsToMemoryAccessorAndDefaultProcessors(t *testing.T) {
	c := New(testView())
	planet := recordmodel.Identity{Type: "planet", ID: "p1"}

	if _, err := c.Patch(ops.AddRecord{Record: &recordmodel.Record{Identity: planet}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.FindRecord(planet); err != nil {
		t.Fatalf("expected to find the added record: %v", err)
	}
}

func TestCache_Patch_RejectsUndeclaredType(t *testing.T) {
	c := New(testView())
	_, err := c.Patch(ops.AddRecord{Record: &recordmodel.Record{Identity: recordmodel.Identity{Type: "asteroid", ID: "a1"}}})
	if err == nil {
		t.Fatal("expected an error for an undeclared model type")
	}
}

func TestCache_WithKeyMap_ResolvesKeyToID(t *testing.T) {
	c := New(testView(), WithKeyMap(keymap.NewSimple()))
	planet := recordmodel.Identity{Type: "planet", ID: "p1"}

	if _, err := c.Patch(ops.AddRecord{Record: &recordmodel.Record{Identity: planet, Keys: map[string]string{"slug": "tatooine"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, ok := c.KeyToID("planet", "slug", "tatooine")
	if !ok || id != "p1" {
		t.Errorf("expected slug lookup to resolve p1, got %q ok=%v", id, ok)
	}
}

func TestCache_WithoutKeyMap_KeyToIDAlwaysMisses(t *testing.T) {
	c := New(testView())
	if _, ok := c.KeyToID("planet", "slug", "tatooine"); ok {
		t.Error("expected KeyToID to miss when no key map is configured")
	}
}

func TestCache_FindRecords_And_FindRelatedRecords(t *testing.T) {
	c := New(testView())
	planet := recordmodel.Identity{Type: "planet", ID: "p1"}
	moon := recordmodel.Identity{Type: "moon", ID: "m1"}

	if _, err := c.Patch(
		ops.AddRecord{Record: &recordmodel.Record{Identity: planet, Attributes: map[string]any{"name": "Tatooine"}}},
		ops.AddRecord{Record: &recordmodel.Record{Identity: moon}},
		ops.AddToRelatedRecords{Record: planet, Relationship: "moons", Related: moon},
	); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := c.FindRecords("planet", []query.Predicate{
		query.AttributePredicate{Name: "name", Op: query.OpEqual, Value: "Tatooine"},
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 match, got %d", len(records))
	}

	related, err := c.FindRelatedRecords(planet, "moons")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(related) != 1 || related[0].Identity != moon {
		t.Errorf("expected to resolve the moon, got %+v", related)
	}

	one, err := c.FindRelatedRecord(moon, "planet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if one == nil || one.Identity != planet {
		t.Errorf("expected to resolve the planet, got %+v", one)
	}
}

func TestCache_OnPatch_AndReset(t *testing.T) {
	c := New(testView())
	events := 0
	c.OnPatch(func(op ops.Operation, data any) { events++ })

	if _, err := c.Patch(ops.AddRecord{Record: &recordmodel.Record{Identity: recordmodel.Identity{Type: "planet", ID: "p1"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events == 0 {
		t.Error("expected at least one patch event")
	}

	resetFired := false
	c.OnReset(func() { resetFired = true })
	c.Reset()
	if !resetFired {
		t.Error("expected the reset listener to fire")
	}
}

func TestCache_WithProcessors_OverridesDefaultChain(t *testing.T) {
	view := testView()
	// A chain with only schema validation skips the inverse-relationship
	// propagation that SchemaConsistency would otherwise add.
	c := New(view, WithProcessors(processor.NewSchemaValidation(view)))

	planet := recordmodel.Identity{Type: "planet", ID: "p1"}
	moon := recordmodel.Identity{Type: "moon", ID: "m1"}
	if _, err := c.Patch(
		ops.AddRecord{Record: &recordmodel.Record{Identity: planet}},
		ops.AddRecord{Record: &recordmodel.Record{Identity: moon}},
		ops.AddToRelatedRecords{Record: planet, Relationship: "moons", Related: moon},
	); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := c.FindRecord(moon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.RelatedOne("planet") != recordmodel.Null {
		t.Errorf("expected no inverse propagation without SchemaConsistency, got %+v", rec.RelatedOne("planet"))
	}
}

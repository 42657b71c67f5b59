package query

import (
	"testing"

	"github.com/northlane/recordcache/pkg/accessor"
	"github.com/northlane/recordcache/pkg/cacheerr"
	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

func testView() schema.View {
	planet := schema.NewBuilder("planet").
		Attribute("name").
		Attribute("population").
		HasMany("moons", "moon", "planet").
		Build()
	moon := schema.NewBuilder("moon").
		Attribute("name").
		HasOne("planet", "planet", "moons").
		Build()
	return schema.NewStaticView(planet, moon)
}

func seedPlanets(a accessor.Accessor) {
	a.SetRecord(&recordmodel.Record{
		Identity:   recordmodel.Identity{Type: "planet", ID: "p1"},
		Attributes: map[string]any{"name": "Tatooine", "population": 200000},
	})
	a.SetRecord(&recordmodel.Record{
		Identity:   recordmodel.Identity{Type: "planet", ID: "p2"},
		Attributes: map[string]any{"name": "Alderaan", "population": 2000000000},
	})
	a.SetRecord(&recordmodel.Record{
		Identity:   recordmodel.Identity{Type: "planet", ID: "p3"},
		Attributes: map[string]any{"name": "Hoth"},
	})
}

func TestFindRecord_ReturnsRecordNotFound(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	_, err := FindRecord(a, recordmodel.Identity{Type: "planet", ID: "missing"})
	if err == nil {
		t.Fatal("expected RecordNotFoundError")
	}
	if _, ok := err.(*cacheerr.RecordNotFoundError); !ok {
		t.Fatalf("expected *cacheerr.RecordNotFoundError, got %T", err)
	}
}

func TestFindRecords_AttributeEqualFilter(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	seedPlanets(a)

	results, err := FindRecords(a, testView(), "planet", []Predicate{
		AttributePredicate{Name: "name", Op: OpEqual, Value: "Tatooine"},
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Identity.ID != "p1" {
		t.Errorf("expected exactly p1, got %+v", results)
	}
}

func TestFindRecords_MissingAttributeNeverMatches(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	seedPlanets(a)

	results, err := FindRecords(a, testView(), "planet", []Predicate{
		AttributePredicate{Name: "population", Op: OpGT, Value: 0},
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if r.Identity.ID == "p3" {
			t.Error("expected Hoth (no population attribute) to be excluded")
		}
	}
	if len(results) != 2 {
		t.Errorf("expected 2 matches, got %d", len(results))
	}
}

func TestFindRecords_ComparisonOperators(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	seedPlanets(a)

	results, err := FindRecords(a, testView(), "planet", []Predicate{
		AttributePredicate{Name: "population", Op: OpGTE, Value: 2000000000},
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Identity.ID != "p2" {
		t.Errorf("expected exactly p2, got %+v", results)
	}
}

func TestFindRecords_SortAscendingAndDescending(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	seedPlanets(a)

	asc, err := FindRecords(a, testView(), "planet", nil, []SortSpec{{Name: "name", Order: Ascending}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asc[0].Attributes["name"] != "Alderaan" {
		t.Errorf("expected Alderaan first ascending, got %v", asc[0].Attributes["name"])
	}

	desc, err := FindRecords(a, testView(), "planet", nil, []SortSpec{{Name: "name", Order: Descending}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc[0].Attributes["name"] != "Tatooine" {
		t.Errorf("expected Tatooine first descending, got %v", desc[0].Attributes["name"])
	}
}

func TestFindRecords_SortMissingAttributeSortsLastAscending(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	seedPlanets(a)

	results, err := FindRecords(a, testView(), "planet", nil, []SortSpec{{Name: "population", Order: Ascending}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[len(results)-1].Identity.ID != "p3" {
		t.Errorf("expected Hoth (no population) to sort last ascending, got %+v", results)
	}
}

func TestFindRecords_PageRequiresPositiveLimit(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	seedPlanets(a)

	_, err := FindRecords(a, testView(), "planet", nil, nil, &Page{Limit: 0})
	if err == nil {
		t.Fatal("expected an error for a non-positive page limit")
	}
	if _, ok := err.(*cacheerr.QueryExpressionParseError); !ok {
		t.Fatalf("expected *cacheerr.QueryExpressionParseError, got %T", err)
	}
}

func TestFindRecords_PageSlices(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	seedPlanets(a)

	results, err := FindRecords(a, testView(), "planet", nil, []SortSpec{{Name: "name", Order: Ascending}}, &Page{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Attributes["name"] != "Hoth" {
		t.Errorf("expected the second page to contain Hoth, got %+v", results)
	}
}

func TestFindRecords_PageBeyondResultsReturnsEmpty(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	seedPlanets(a)

	results, err := FindRecords(a, testView(), "planet", nil, nil, &Page{Limit: 10, Offset: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results past the end, got %+v", results)
	}
}

func TestFindRecords_EmptyModelTypeSearchesEverything(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	seedPlanets(a)
	a.SetRecord(&recordmodel.Record{Identity: recordmodel.Identity{Type: "moon", ID: "m1"}, Attributes: map[string]any{"name": "Pezi"}})

	results, err := FindRecords(a, testView(), "", nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("expected 4 records across all types, got %d", len(results))
	}
}

func TestRelatedRecordsPredicate_Operators(t *testing.T) {
	rec := &recordmodel.Record{
		Relationships: map[string]recordmodel.Relationship{
			"moons": recordmodel.NewHasMany([]recordmodel.Identity{
				{Type: "moon", ID: "m1"},
				{Type: "moon", ID: "m2"},
			}),
		},
	}

	p := RelatedRecordsPredicate{Name: "moons", Op: SetAll, Identities: []recordmodel.Identity{{Type: "moon", ID: "m1"}}}
	ok, err := p.match(rec)
	if err != nil || !ok {
		t.Errorf("expected SetAll to match a subset, got ok=%v err=%v", ok, err)
	}

	p = RelatedRecordsPredicate{Name: "moons", Op: SetNone, Identities: []recordmodel.Identity{{Type: "moon", ID: "m3"}}}
	ok, err = p.match(rec)
	if err != nil || !ok {
		t.Errorf("expected SetNone to match an absent identity, got ok=%v err=%v", ok, err)
	}

	p = RelatedRecordsPredicate{Name: "moons", Op: SetEqual, Identities: []recordmodel.Identity{{Type: "moon", ID: "m1"}, {Type: "moon", ID: "m2"}}}
	ok, err = p.match(rec)
	if err != nil || !ok {
		t.Errorf("expected SetEqual to match the full set, got ok=%v err=%v", ok, err)
	}
}

func TestRelatedRecordPredicate_MatchesCurrentTarget(t *testing.T) {
	target := recordmodel.Identity{Type: "planet", ID: "p1"}
	rec := &recordmodel.Record{Relationships: map[string]recordmodel.Relationship{"planet": recordmodel.NewHasOne(target)}}

	p := RelatedRecordPredicate{Name: "planet", Op: SetEqual, Identities: []recordmodel.Identity{target}}
	ok, err := p.match(rec)
	if err != nil || !ok {
		t.Errorf("expected match against current hasOne target, got ok=%v err=%v", ok, err)
	}
}

func TestFindRelatedRecord_ResolvesTarget(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	planet := recordmodel.Identity{Type: "planet", ID: "p1"}
	moon := recordmodel.Identity{Type: "moon", ID: "m1"}
	a.SetRecord(&recordmodel.Record{Identity: planet})
	a.SetRecord(&recordmodel.Record{
		Identity:      moon,
		Relationships: map[string]recordmodel.Relationship{"planet": recordmodel.NewHasOne(planet)},
	})

	rec, err := FindRelatedRecord(a, moon, "planet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil || rec.Identity != planet {
		t.Errorf("expected to resolve the planet, got %+v", rec)
	}
}

func TestFindRelatedRecords_SkipsDanglingTargets(t *testing.T) {
	a := accessor.NewMemoryAccessor(testView())
	planet := recordmodel.Identity{Type: "planet", ID: "p1"}
	moon := recordmodel.Identity{Type: "moon", ID: "m1"}
	a.SetRecord(&recordmodel.Record{
		Identity:      planet,
		Relationships: map[string]recordmodel.Relationship{"moons": recordmodel.NewHasMany([]recordmodel.Identity{moon, {Type: "moon", ID: "ghost"}})},
	})
	a.SetRecord(&recordmodel.Record{Identity: moon})

	recs, err := FindRelatedRecords(a, planet, "moons")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Identity != moon {
		t.Errorf("expected only the existing moon, got %+v", recs)
	}
}

package accessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

func testView() schema.View {
	return schema.NewStaticView(
		schema.NewBuilder("planet").Attribute("name").HasMany("moons", "moon", "planet").Build(),
		schema.NewBuilder("moon").HasOne("planet", "planet", "moons").Build(),
	)
}

func TestNewMemoryAccessor_PrepopulatesBuckets(t *testing.T) {
	a := NewMemoryAccessor(testView())
	assert.Empty(t, a.GetRecords("planet"))
	assert.Empty(t, a.GetRecords("moon"))
}

func TestMemoryAccessor_SetGetRecord(t *testing.T) {
	a := NewMemoryAccessor(testView())
	id := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	rec := &recordmodel.Record{Identity: id, Attributes: map[string]any{"name": "Jupiter"}}

	a.SetRecord(rec)

	got, ok := a.GetRecord(id)
	require.True(t, ok)
	assert.Equal(t, "Jupiter", got.Attributes["name"])

	t.Run("absent is distinguished from present-but-empty", func(t *testing.T) {
		empty := &recordmodel.Record{Identity: recordmodel.Identity{Type: "planet", ID: "mars"}}
		a.SetRecord(empty)
		got, ok := a.GetRecord(empty.Identity)
		require.True(t, ok)
		assert.Nil(t, got.Attributes)

		_, ok = a.GetRecord(recordmodel.Identity{Type: "planet", ID: "nonexistent"})
		assert.False(t, ok)
	})
}

func TestMemoryAccessor_GetRecord_IsACopy(t *testing.T) {
	a := NewMemoryAccessor(testView())
	id := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	a.SetRecord(&recordmodel.Record{Identity: id, Attributes: map[string]any{"name": "Jupiter"}})

	got, _ := a.GetRecord(id)
	got.Attributes["name"] = "mutated"

	again, _ := a.GetRecord(id)
	assert.Equal(t, "Jupiter", again.Attributes["name"])
}

func TestMemoryAccessor_RemoveRecord(t *testing.T) {
	a := NewMemoryAccessor(testView())
	id := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	a.SetRecord(&recordmodel.Record{Identity: id})

	prior := a.RemoveRecord(id)
	require.NotNil(t, prior)
	assert.Equal(t, id, prior.Identity)

	assert.Nil(t, a.RemoveRecord(id))
	_, ok := a.GetRecord(id)
	assert.False(t, ok)
}

func TestMemoryAccessor_BulkOperations(t *testing.T) {
	a := NewMemoryAccessor(testView())
	recs := []*recordmodel.Record{
		{Identity: recordmodel.Identity{Type: "planet", ID: "earth"}},
		{Identity: recordmodel.Identity{Type: "planet", ID: "mars"}},
	}
	a.SetRecords("planet", recs)
	assert.Len(t, a.GetRecords("planet"), 2)

	removed := a.RemoveRecords("planet", []recordmodel.Identity{
		{Type: "planet", ID: "earth"},
		{Type: "planet", ID: "nonexistent"},
	})
	assert.Len(t, removed, 1)
	assert.Len(t, a.GetRecords("planet"), 1)
}

func TestMemoryAccessor_InverseIndex(t *testing.T) {
	a := NewMemoryAccessor(testView())
	jupiter := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	io := recordmodel.Identity{Type: "moon", ID: "io"}

	assert.Empty(t, a.GetInverselyRelatedRecords(jupiter))

	ref := recordmodel.BackRef{Owner: io, Relationship: "planet"}
	a.AddInverselyRelatedRecord(jupiter, ref)
	assert.Equal(t, []recordmodel.BackRef{ref}, a.GetInverselyRelatedRecords(jupiter))

	a.RemoveInverselyRelatedRecord(jupiter, ref)
	assert.Empty(t, a.GetInverselyRelatedRecords(jupiter))

	a.AddInverselyRelatedRecord(jupiter, ref)
	a.RemoveInverseRelationships(jupiter)
	assert.Empty(t, a.GetInverselyRelatedRecords(jupiter))
}

func TestGetRelatedRecord(t *testing.T) {
	a := NewMemoryAccessor(testView())
	jupiter := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	io := recordmodel.Identity{Type: "moon", ID: "io"}
	a.SetRecord(&recordmodel.Record{Identity: jupiter})
	a.SetRecord(&recordmodel.Record{
		Identity:      io,
		Relationships: map[string]recordmodel.Relationship{"planet": recordmodel.NewHasOne(jupiter)},
	})

	related, ok := GetRelatedRecord(a, io, "planet")
	require.True(t, ok)
	assert.Equal(t, jupiter, related.Identity)

	assert.True(t, RelatedRecordEquals(a, io, "planet", jupiter))
	assert.False(t, RelatedRecordEquals(a, io, "planet", recordmodel.Identity{Type: "planet", ID: "mars"}))
}

func TestGetRelatedRecords_SkipsMissingTargets(t *testing.T) {
	a := NewMemoryAccessor(testView())
	jupiter := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	io := recordmodel.Identity{Type: "moon", ID: "io"}
	ghost := recordmodel.Identity{Type: "moon", ID: "ghost"}
	a.SetRecord(&recordmodel.Record{Identity: io})
	a.SetRecord(&recordmodel.Record{
		Identity:      jupiter,
		Relationships: map[string]recordmodel.Relationship{"moons": recordmodel.NewHasMany([]recordmodel.Identity{io, ghost})},
	})

	related := GetRelatedRecords(a, jupiter, "moons")
	require.Len(t, related, 1)
	assert.Equal(t, io, related[0].Identity)
	assert.True(t, RelatedRecordsInclude(a, jupiter, "moons", io))
	assert.False(t, RelatedRecordsInclude(a, jupiter, "moons", recordmodel.Identity{Type: "moon", ID: "europa"}))
}

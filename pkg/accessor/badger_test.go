package accessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northlane/recordcache/pkg/recordmodel"
)

func newTestBadgerAccessor(t *testing.T) *BadgerAccessor {
	t.Helper()
	b, err := NewBadgerAccessor(t.TempDir(), 16)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBadgerAccessor_SetGetRecord(t *testing.T) {
	b := newTestBadgerAccessor(t)
	id := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	rec := &recordmodel.Record{Identity: id, Attributes: map[string]any{"name": "Jupiter"}}

	b.SetRecord(rec)

	got, ok := b.GetRecord(id)
	require.True(t, ok)
	assert.Equal(t, "Jupiter", got.Attributes["name"])

	_, ok = b.GetRecord(recordmodel.Identity{Type: "planet", ID: "nonexistent"})
	assert.False(t, ok)
}

func TestBadgerAccessor_GetRecord_IsACopy(t *testing.T) {
	b := newTestBadgerAccessor(t)
	id := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	b.SetRecord(&recordmodel.Record{Identity: id, Attributes: map[string]any{"name": "Jupiter"}})

	got, _ := b.GetRecord(id)
	got.Attributes["name"] = "mutated"

	again, _ := b.GetRecord(id)
	assert.Equal(t, "Jupiter", again.Attributes["name"])
}

func TestBadgerAccessor_RemoveRecord(t *testing.T) {
	b := newTestBadgerAccessor(t)
	id := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	b.SetRecord(&recordmodel.Record{Identity: id})

	prior := b.RemoveRecord(id)
	require.NotNil(t, prior)
	assert.Equal(t, id, prior.Identity)

	assert.Nil(t, b.RemoveRecord(id))
	_, ok := b.GetRecord(id)
	assert.False(t, ok)
}

func TestBadgerAccessor_GetRecords_FiltersByType(t *testing.T) {
	b := newTestBadgerAccessor(t)
	b.SetRecord(&recordmodel.Record{Identity: recordmodel.Identity{Type: "planet", ID: "earth"}})
	b.SetRecord(&recordmodel.Record{Identity: recordmodel.Identity{Type: "planet", ID: "mars"}})
	b.SetRecord(&recordmodel.Record{Identity: recordmodel.Identity{Type: "moon", ID: "io"}})

	assert.Len(t, b.GetRecords("planet"), 2)
	assert.Len(t, b.GetRecords("moon"), 1)
}

func TestBadgerAccessor_SetRecords_Batches(t *testing.T) {
	b := newTestBadgerAccessor(t)
	recs := []*recordmodel.Record{
		{Identity: recordmodel.Identity{Type: "planet", ID: "earth"}},
		{Identity: recordmodel.Identity{Type: "planet", ID: "mars"}},
	}
	b.SetRecords("planet", recs)
	assert.Len(t, b.GetRecords("planet"), 2)

	removed := b.RemoveRecords("planet", []recordmodel.Identity{
		{Type: "planet", ID: "earth"},
		{Type: "planet", ID: "nonexistent"},
	})
	assert.Len(t, removed, 1)
	assert.Len(t, b.GetRecords("planet"), 1)
}

func TestBadgerAccessor_InverseIndex(t *testing.T) {
	b := newTestBadgerAccessor(t)
	jupiter := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	io := recordmodel.Identity{Type: "moon", ID: "io"}

	assert.Empty(t, b.GetInverselyRelatedRecords(jupiter))

	ref := recordmodel.BackRef{Owner: io, Relationship: "planet"}
	b.AddInverselyRelatedRecord(jupiter, ref)
	assert.Equal(t, []recordmodel.BackRef{ref}, b.GetInverselyRelatedRecords(jupiter))

	b.RemoveInverselyRelatedRecord(jupiter, ref)
	assert.Empty(t, b.GetInverselyRelatedRecords(jupiter))

	b.AddInverselyRelatedRecord(jupiter, ref)
	b.RemoveInverseRelationships(jupiter)
	assert.Empty(t, b.GetInverselyRelatedRecords(jupiter))
}

func TestBadgerAccessor_RepeatedReadsReturnSameData(t *testing.T) {
	b := newTestBadgerAccessor(t)
	id := recordmodel.Identity{Type: "planet", ID: "jupiter"}
	b.SetRecord(&recordmodel.Record{Identity: id, Attributes: map[string]any{"name": "Jupiter"}})

	// The write already filled the hot cache, so both reads are served
	// from it and must return the same data.
	first, ok := b.GetRecord(id)
	require.True(t, ok)
	second, ok := b.GetRecord(id)
	require.True(t, ok)
	assert.Equal(t, first.Attributes, second.Attributes)
}

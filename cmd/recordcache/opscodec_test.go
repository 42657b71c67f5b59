package main

import (
	"testing"

	"github.com/northlane/recordcache/pkg/ops"
)

func TestDecodeOperations_AddRecordGeneratesID(t *testing.T) {
	data := []byte(`[{"kind":"addRecord","record":{"Type":"planet","ID":""},"attributes":{"name":"Jakku"}}]`)
	decoded, err := decodeOperations(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(decoded))
	}
	add, ok := decoded[0].(ops.AddRecord)
	if !ok {
		t.Fatalf("expected AddRecord, got %T", decoded[0])
	}
	if add.Record.Identity.ID == "" {
		t.Error("expected a generated ID, got empty string")
	}
	if add.Record.Attributes["name"] != "Jakku" {
		t.Errorf("expected attribute name 'Jakku', got %v", add.Record.Attributes["name"])
	}
}

func TestDecodeOperations_AddRecordKeepsSuppliedID(t *testing.T) {
	data := []byte(`[{"kind":"addRecord","record":{"Type":"planet","ID":"p1"}}]`)
	decoded, err := decodeOperations(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	add := decoded[0].(ops.AddRecord)
	if add.Record.Identity.ID != "p1" {
		t.Errorf("expected ID 'p1', got %q", add.Record.Identity.ID)
	}
}

func TestDecodeOperations_ReplaceRelatedRecords(t *testing.T) {
	data := []byte(`[{
		"kind": "replaceRelatedRecords",
		"record": {"Type":"planet","ID":"p1"},
		"relationship": "moons",
		"relatedMany": [{"Type":"moon","ID":"m1"},{"Type":"moon","ID":"m2"}]
	}]`)
	decoded, err := decodeOperations(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op, ok := decoded[0].(ops.ReplaceRelatedRecords)
	if !ok {
		t.Fatalf("expected ReplaceRelatedRecords, got %T", decoded[0])
	}
	if len(op.Related) != 2 || op.Related[0].ID != "m1" || op.Related[1].ID != "m2" {
		t.Errorf("unexpected related identities: %+v", op.Related)
	}
}

func TestDecodeOperations_RemoveRecord(t *testing.T) {
	data := []byte(`[{"kind":"removeRecord","record":{"Type":"planet","ID":"p1"}}]`)
	decoded, err := decodeOperations(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op, ok := decoded[0].(ops.RemoveRecord)
	if !ok {
		t.Fatalf("expected RemoveRecord, got %T", decoded[0])
	}
	if op.Record.ID != "p1" {
		t.Errorf("expected identity ID 'p1', got %q", op.Record.ID)
	}
}

func TestDecodeOperations_UnknownKind(t *testing.T) {
	data := []byte(`[{"kind":"bogus","record":{"Type":"planet","ID":"p1"}}]`)
	if _, err := decodeOperations(data); err == nil {
		t.Error("expected an error for an unknown operation kind")
	}
}

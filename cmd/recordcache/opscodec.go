package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/northlane/recordcache/pkg/ops"
	"github.com/northlane/recordcache/pkg/recordmodel"
)

// opEnvelope is the wire shape one operation takes in an apply batch.
// Kind selects which ops.Operation fields are read; fields irrelevant to
// that kind are simply omitted from the JSON.
type opEnvelope struct {
	Kind            string                  `json:"kind"`
	Record          recordmodel.Identity    `json:"record"`
	Attributes      map[string]any          `json:"attributes,omitempty"`
	Keys            map[string]string       `json:"keys,omitempty"`
	Relationships   map[string]relEnvelope  `json:"relationships,omitempty"`
	UnsetKeys       []string                `json:"unsetKeys,omitempty"`
	UnsetAttributes []string                `json:"unsetAttributes,omitempty"`
	Name            string                  `json:"name,omitempty"`
	Value           any                     `json:"value,omitempty"`
	Relationship    string                  `json:"relationship,omitempty"`
	Related         recordmodel.Identity    `json:"related,omitempty"`
	RelatedMany     []recordmodel.Identity  `json:"relatedMany,omitempty"`
}

type relEnvelope struct {
	Kind string                 `json:"kind"`
	One  recordmodel.Identity   `json:"one,omitempty"`
	Many []recordmodel.Identity `json:"many,omitempty"`
}

// decodeOperations parses a JSON array of op envelopes into the closed
// operation algebra the pipeline dispatches on.
func decodeOperations(data []byte) ([]ops.Operation, error) {
	var envelopes []opEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	out := make([]ops.Operation, 0, len(envelopes))
	for i, e := range envelopes {
		op, err := e.toOperation()
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		out = append(out, op)
	}
	return out, nil
}

func (e opEnvelope) toOperation() (ops.Operation, error) {
	switch ops.Kind(e.Kind) {
	case ops.KindAddRecord:
		rec := e.toRecord()
		if rec.Identity.ID == "" {
			rec.Identity.ID = uuid.New().String()
		}
		return ops.AddRecord{Record: rec}, nil
	case ops.KindReplaceRecord:
		return ops.ReplaceRecord{
			Record:          e.toRecord(),
			UnsetKeys:       e.UnsetKeys,
			UnsetAttributes: e.UnsetAttributes,
		}, nil
	case ops.KindRemoveRecord:
		return ops.RemoveRecord{Record: e.Record}, nil
	case ops.KindReplaceKey:
		return ops.ReplaceKey{Record: e.Record, Name: e.Name, Value: fmt.Sprint(e.Value)}, nil
	case ops.KindReplaceAttribute:
		return ops.ReplaceAttribute{Record: e.Record, Name: e.Name, Value: e.Value}, nil
	case ops.KindAddToRelatedRecords:
		return ops.AddToRelatedRecords{Record: e.Record, Relationship: e.Relationship, Related: e.Related}, nil
	case ops.KindRemoveFromRelatedRecords:
		return ops.RemoveFromRelatedRecords{Record: e.Record, Relationship: e.Relationship, Related: e.Related}, nil
	case ops.KindReplaceRelatedRecords:
		return ops.ReplaceRelatedRecords{Record: e.Record, Relationship: e.Relationship, Related: e.RelatedMany}, nil
	case ops.KindReplaceRelatedRecord:
		return ops.ReplaceRelatedRecord{Record: e.Record, Relationship: e.Relationship, Related: e.Related}, nil
	default:
		return nil, fmt.Errorf("unknown operation kind %q", e.Kind)
	}
}

func (e opEnvelope) toRecord() *recordmodel.Record {
	r := recordmodel.Record{
		Identity:      e.Record,
		Keys:          e.Keys,
		Attributes:    e.Attributes,
		Relationships: make(map[string]recordmodel.Relationship, len(e.Relationships)),
	}
	for name, rel := range e.Relationships {
		switch recordmodel.RelationshipKind(rel.Kind) {
		case recordmodel.HasMany:
			r.Relationships[name] = recordmodel.NewHasMany(rel.Many)
		default:
			r.Relationships[name] = recordmodel.NewHasOne(rel.One)
		}
	}
	return &r
}

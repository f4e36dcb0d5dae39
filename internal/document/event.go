package document

import (
	"encoding/json"
	"fmt"
)

// Type discriminates event kinds. The set is closed; the codec and the replay
// fold both enumerate it exhaustively.
type Type string

const (
	TypeShapeCreated Type = "shape.created"
	TypeShapeDeleted Type = "shape.deleted"
	TypeAnchorAdded  Type = "anchor.added"
	TypeAnchorMoved  Type = "anchor.moved"
	TypeStyleSet     Type = "style.set"
	TypeDocRenamed   Type = "doc.renamed"
)

// Payload is the sealed union of per-kind event payloads.
type Payload interface{ isPayload() }

// ShapeCreated adds a new shape on top of the z-order.
type ShapeCreated struct {
	ShapeID string   `json:"shapeId"`
	Kind    string   `json:"kind"`
	Anchors []Anchor `json:"anchors"`
	Style   Style    `json:"style"`
	Closed  bool     `json:"closed"`
}

// ShapeDeleted removes a shape and its z-order slot.
type ShapeDeleted struct {
	ShapeID string `json:"shapeId"`
}

// AnchorAdded inserts an anchor at Index (append when Index == len).
type AnchorAdded struct {
	ShapeID string `json:"shapeId"`
	Index   int    `json:"index"`
	Anchor  Anchor `json:"anchor"`
}

// AnchorMoved replaces the anchor at Index. Continuous: gesture streams of
// these are throttled by the recorder's sampling policy.
type AnchorMoved struct {
	ShapeID string `json:"shapeId"`
	Index   int    `json:"index"`
	Anchor  Anchor `json:"anchor"`
}

// StyleSet replaces a shape's style. Continuous when driven by a picker drag.
type StyleSet struct {
	ShapeID string `json:"shapeId"`
	Style   Style  `json:"style"`
}

// DocRenamed sets the document name.
type DocRenamed struct {
	Name string `json:"name"`
}

func (ShapeCreated) isPayload() {}
func (ShapeDeleted) isPayload() {}
func (AnchorAdded) isPayload()  {}
func (AnchorMoved) isPayload()  {}
func (StyleSet) isPayload()     {}
func (DocRenamed) isPayload()   {}

// TypeOf returns the discriminator for a payload.
func TypeOf(p Payload) Type {
	switch p.(type) {
	case ShapeCreated:
		return TypeShapeCreated
	case ShapeDeleted:
		return TypeShapeDeleted
	case AnchorAdded:
		return TypeAnchorAdded
	case AnchorMoved:
		return TypeAnchorMoved
	case StyleSet:
		return TypeStyleSet
	case DocRenamed:
		return TypeDocRenamed
	default:
		panic(fmt.Sprintf("document: unregistered payload %T", p))
	}
}

// Event is one immutable log record. Seq is assigned at append time and is
// zero until then.
type Event struct {
	ID          string `json:"id"`
	DocID       string `json:"docId"`
	Seq         uint64 `json:"seq"`
	Type        Type   `json:"type"`
	TimestampMs int64  `json:"tsMs"`
	UserID      string `json:"userId,omitempty"`
	// SamplingIntervalMs is set when the event came out of the recorder's
	// throttling path.
	SamplingIntervalMs int `json:"samplingMs,omitempty"`
	// GroupID ties the event to its operation group; GroupStart/GroupEnd mark
	// the group's boundary events.
	GroupID    string  `json:"groupId,omitempty"`
	GroupStart bool    `json:"groupStart,omitempty"`
	GroupEnd   bool    `json:"groupEnd,omitempty"`
	Payload    Payload `json:"-"`
}

// wireEvent is the persisted JSON shape; the payload rides as raw JSON next
// to its discriminator.
type wireEvent struct {
	ID                 string          `json:"id"`
	DocID              string          `json:"docId"`
	Seq                uint64          `json:"seq"`
	Type               Type            `json:"type"`
	TimestampMs        int64           `json:"tsMs"`
	UserID             string          `json:"userId,omitempty"`
	SamplingIntervalMs int             `json:"samplingMs,omitempty"`
	GroupID            string          `json:"groupId,omitempty"`
	GroupStart         bool            `json:"groupStart,omitempty"`
	GroupEnd           bool            `json:"groupEnd,omitempty"`
	Payload            json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the event with its payload under the type discriminator.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("document: event %s has no payload", e.ID)
	}
	if got := TypeOf(e.Payload); got != e.Type {
		return nil, fmt.Errorf("document: event type %q does not match payload %q", e.Type, got)
	}
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{
		ID: e.ID, DocID: e.DocID, Seq: e.Seq, Type: e.Type,
		TimestampMs: e.TimestampMs, UserID: e.UserID,
		SamplingIntervalMs: e.SamplingIntervalMs,
		GroupID:            e.GroupID, GroupStart: e.GroupStart, GroupEnd: e.GroupEnd,
		Payload: raw,
	})
}

// UnmarshalJSON decodes the event, picking the payload struct by type.
func (e *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	payload, err := decodePayload(w.Type, w.Payload)
	if err != nil {
		return err
	}
	*e = Event{
		ID: w.ID, DocID: w.DocID, Seq: w.Seq, Type: w.Type,
		TimestampMs: w.TimestampMs, UserID: w.UserID,
		SamplingIntervalMs: w.SamplingIntervalMs,
		GroupID:            w.GroupID, GroupStart: w.GroupStart, GroupEnd: w.GroupEnd,
		Payload: payload,
	}
	return nil
}

func decodePayload(t Type, raw json.RawMessage) (Payload, error) {
	switch t {
	case TypeShapeCreated:
		var p ShapeCreated
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeShapeDeleted:
		var p ShapeDeleted
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeAnchorAdded:
		var p AnchorAdded
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeAnchorMoved:
		var p AnchorMoved
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeStyleSet:
		var p StyleSet
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeDocRenamed:
		var p DocRenamed
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("document: unknown event type %q", t)
	}
}

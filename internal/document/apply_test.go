package document

import (
	"bytes"
	"testing"
)

func ev(t Type, p Payload) Event {
	return Event{ID: "e", DocID: "d", Type: t, Payload: p}
}

func TestApplyShapeLifecycle(t *testing.T) {
	d := New("d")
	created := ShapeCreated{ShapeID: "s1", Kind: "path", Anchors: []Anchor{{X: 1, Y: 2}}}
	if err := Apply(d, ev(TypeShapeCreated, created)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(d.Shapes) != 1 || len(d.ZOrder) != 1 || d.ZOrder[0] != "s1" {
		t.Fatalf("unexpected state after create: %+v", d)
	}
	if err := Apply(d, ev(TypeShapeCreated, created)); err == nil {
		t.Fatalf("expected duplicate-create error")
	}
	if err := Apply(d, ev(TypeShapeDeleted, ShapeDeleted{ShapeID: "s1"})); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(d.Shapes) != 0 || len(d.ZOrder) != 0 {
		t.Fatalf("shape not fully removed")
	}
	if err := Apply(d, ev(TypeShapeDeleted, ShapeDeleted{ShapeID: "s1"})); err == nil {
		t.Fatalf("expected missing-shape error")
	}
}

func TestApplyAnchorEdits(t *testing.T) {
	d := New("d")
	_ = Apply(d, ev(TypeShapeCreated, ShapeCreated{ShapeID: "s1", Kind: "path", Anchors: []Anchor{{X: 0}, {X: 2}}}))

	if err := Apply(d, ev(TypeAnchorAdded, AnchorAdded{ShapeID: "s1", Index: 1, Anchor: Anchor{X: 1}})); err != nil {
		t.Fatalf("add: %v", err)
	}
	got := d.Shapes["s1"].Anchors
	if len(got) != 3 || got[0].X != 0 || got[1].X != 1 || got[2].X != 2 {
		t.Fatalf("insert order wrong: %+v", got)
	}

	if err := Apply(d, ev(TypeAnchorMoved, AnchorMoved{ShapeID: "s1", Index: 2, Anchor: Anchor{X: 9}})); err != nil {
		t.Fatalf("move: %v", err)
	}
	if d.Shapes["s1"].Anchors[2].X != 9 {
		t.Fatalf("move not applied")
	}

	if err := Apply(d, ev(TypeAnchorMoved, AnchorMoved{ShapeID: "s1", Index: 3, Anchor: Anchor{}})); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestApplyStyleAndRename(t *testing.T) {
	d := New("d")
	_ = Apply(d, ev(TypeShapeCreated, ShapeCreated{ShapeID: "s1", Kind: "rect"}))
	if err := Apply(d, ev(TypeStyleSet, StyleSet{ShapeID: "s1", Style: Style{FillColor: "#ff0000", Opacity: 1}})); err != nil {
		t.Fatalf("style: %v", err)
	}
	if d.Shapes["s1"].Style.FillColor != "#ff0000" {
		t.Fatalf("style not applied")
	}
	if err := Apply(d, ev(TypeDocRenamed, DocRenamed{Name: "sketch"})); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if d.Name != "sketch" {
		t.Fatalf("rename not applied")
	}
}

func TestCanonicalBytesStableAcrossClone(t *testing.T) {
	d := New("d")
	_ = Apply(d, ev(TypeShapeCreated, ShapeCreated{ShapeID: "b", Kind: "path"}))
	_ = Apply(d, ev(TypeShapeCreated, ShapeCreated{ShapeID: "a", Kind: "rect"}))
	_ = Apply(d, ev(TypeDocRenamed, DocRenamed{Name: "n"}))

	b1, err := d.MarshalCanonical()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b2, err := d.Clone().MarshalCanonical()
	if err != nil {
		t.Fatalf("marshal clone: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatalf("canonical bytes differ between original and clone")
	}

	restored, err := UnmarshalCanonical(b1)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b3, _ := restored.MarshalCanonical()
	if !bytes.Equal(b1, b3) {
		t.Fatalf("canonical bytes differ after roundtrip")
	}
}

func TestEventCodecRejectsUnknownType(t *testing.T) {
	var e Event
	err := e.UnmarshalJSON([]byte(`{"id":"x","docId":"d","type":"shape.teleported","payload":{}}`))
	if err == nil {
		t.Fatalf("expected unknown-type error")
	}
}

func TestEventCodecRoundtrip(t *testing.T) {
	orig := Event{
		ID: "ev1", DocID: "d", Seq: 7, Type: TypeAnchorMoved,
		TimestampMs: 1700000000123, GroupID: "g1", SamplingIntervalMs: 50,
		Payload: AnchorMoved{ShapeID: "s1", Index: 2, Anchor: Anchor{X: 3.5, Y: -1}},
	}
	b, err := orig.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Event
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Seq != 7 || back.Type != TypeAnchorMoved || back.SamplingIntervalMs != 50 {
		t.Fatalf("metadata lost: %+v", back)
	}
	p, ok := back.Payload.(AnchorMoved)
	if !ok || p.ShapeID != "s1" || p.Index != 2 || p.Anchor.X != 3.5 {
		t.Fatalf("payload lost: %+v", back.Payload)
	}
}

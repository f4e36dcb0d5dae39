package document

import "encoding/json"

// Anchor is one on-curve point of a path with its two bezier handles.
// Handle coordinates are absolute model-space positions.
type Anchor struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	HandleInX  float64 `json:"hInX"`
	HandleInY  float64 `json:"hInY"`
	HandleOutX float64 `json:"hOutX"`
	HandleOutY float64 `json:"hOutY"`
}

// Style carries the paint attributes of a shape.
type Style struct {
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   string  `json:"fillColor"`
	Opacity     float64 `json:"opacity"`
}

// Shape is a single drawable element.
type Shape struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"` // "path", "rect", "ellipse"
	Anchors []Anchor `json:"anchors"`
	Style   Style    `json:"style"`
	Closed  bool     `json:"closed"`
}

// Document is the full reconstructable editor state. Shapes are keyed by id;
// ZOrder holds the draw order bottom-to-top.
type Document struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Shapes map[string]*Shape `json:"shapes"`
	ZOrder []string          `json:"zOrder"`
}

// New returns an empty document.
func New(docID string) *Document {
	return &Document{ID: docID, Shapes: map[string]*Shape{}, ZOrder: []string{}}
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := &Document{
		ID:     d.ID,
		Name:   d.Name,
		Shapes: make(map[string]*Shape, len(d.Shapes)),
		ZOrder: append([]string(nil), d.ZOrder...),
	}
	for id, s := range d.Shapes {
		cp := *s
		cp.Anchors = append([]Anchor(nil), s.Anchors...)
		out.Shapes[id] = &cp
	}
	return out
}

// MarshalCanonical serializes the document to its canonical JSON form: the
// same state always yields the same bytes. Map keys are emitted sorted by
// encoding/json; struct fields follow declaration order.
func (d *Document) MarshalCanonical() ([]byte, error) {
	return json.Marshal(d)
}

// UnmarshalCanonical parses bytes produced by MarshalCanonical.
func UnmarshalCanonical(b []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	if d.Shapes == nil {
		d.Shapes = map[string]*Shape{}
	}
	if d.ZOrder == nil {
		d.ZOrder = []string{}
	}
	return &d, nil
}

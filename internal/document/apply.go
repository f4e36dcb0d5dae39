package document

import "fmt"

// Apply folds one event into the working document. It is the single
// transition function used by replay; it must stay deterministic and must not
// retain references into the event.
func Apply(d *Document, ev Event) error {
	switch p := ev.Payload.(type) {
	case ShapeCreated:
		if _, exists := d.Shapes[p.ShapeID]; exists {
			return fmt.Errorf("apply %s: shape %s already exists", ev.Type, p.ShapeID)
		}
		d.Shapes[p.ShapeID] = &Shape{
			ID:      p.ShapeID,
			Kind:    p.Kind,
			Anchors: append([]Anchor(nil), p.Anchors...),
			Style:   p.Style,
			Closed:  p.Closed,
		}
		d.ZOrder = append(d.ZOrder, p.ShapeID)
		return nil

	case ShapeDeleted:
		if _, exists := d.Shapes[p.ShapeID]; !exists {
			return fmt.Errorf("apply %s: shape %s not found", ev.Type, p.ShapeID)
		}
		delete(d.Shapes, p.ShapeID)
		for i, sid := range d.ZOrder {
			if sid == p.ShapeID {
				d.ZOrder = append(d.ZOrder[:i], d.ZOrder[i+1:]...)
				break
			}
		}
		return nil

	case AnchorAdded:
		s, exists := d.Shapes[p.ShapeID]
		if !exists {
			return fmt.Errorf("apply %s: shape %s not found", ev.Type, p.ShapeID)
		}
		if p.Index < 0 || p.Index > len(s.Anchors) {
			return fmt.Errorf("apply %s: index %d out of range for shape %s", ev.Type, p.Index, p.ShapeID)
		}
		s.Anchors = append(s.Anchors, Anchor{})
		copy(s.Anchors[p.Index+1:], s.Anchors[p.Index:])
		s.Anchors[p.Index] = p.Anchor
		return nil

	case AnchorMoved:
		s, exists := d.Shapes[p.ShapeID]
		if !exists {
			return fmt.Errorf("apply %s: shape %s not found", ev.Type, p.ShapeID)
		}
		if p.Index < 0 || p.Index >= len(s.Anchors) {
			return fmt.Errorf("apply %s: index %d out of range for shape %s", ev.Type, p.Index, p.ShapeID)
		}
		s.Anchors[p.Index] = p.Anchor
		return nil

	case StyleSet:
		s, exists := d.Shapes[p.ShapeID]
		if !exists {
			return fmt.Errorf("apply %s: shape %s not found", ev.Type, p.ShapeID)
		}
		s.Style = p.Style
		return nil

	case DocRenamed:
		d.Name = p.Name
		return nil

	default:
		return fmt.Errorf("apply: unhandled event type %q", ev.Type)
	}
}

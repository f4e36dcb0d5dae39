package recorder

import "github.com/scribe-editor/scribe/internal/document"

// Intent is one already-resolved edit handed down from the tool layer. An
// empty StreamID marks the intent atomic; a non-empty StreamID ties it to a
// continuous gesture stream subject to sampling.
type Intent struct {
	Payload document.Payload
	UserID  string
	// StreamID identifies the logical stream of a continuous intent, e.g.
	// one dragged anchor. Distinct streams sample independently.
	StreamID string
	// EndsGroup closes the open operation group right after this event,
	// overriding the idle timer.
	EndsGroup bool
}

// Group is one closed operation group, the unit of undo and redo. StartSeq
// and EndSeq are the first and last appended sequences carrying its ID.
type Group struct {
	ID       string
	StartSeq uint64
	EndSeq   uint64
}

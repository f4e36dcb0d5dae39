// Package undo navigates document history as a state machine over two stacks
// of operation groups. Undoing a group replays to just before its first
// event; redoing replays to its last. The stacks hold pointers into the log,
// never state, so navigation is always a replay and never a mutation.
//
// A navigator belongs to one open document session. It is constructed when
// the session opens and discarded when it closes.
package undo

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/scribe-editor/scribe/internal/document"
	"github.com/scribe-editor/scribe/internal/recorder"
	"github.com/scribe-editor/scribe/pkg/log"
)

// DefaultDepth bounds the undo stack; the oldest pointers fall off first.
const DefaultDepth = 100

// Reconstructor rebuilds document state at a target sequence.
type Reconstructor interface {
	Reconstruct(ctx context.Context, docID string, targetSeq uint64) (*document.Document, error)
}

// Navigator owns undo and redo for one document session. Undo, Redo and the
// scrub operations are no-ops, not errors, when their stack is empty or when
// another navigation is still in flight.
type Navigator struct {
	rec    Reconstructor
	docID  string
	depth  int
	logger log.Logger

	navigating atomic.Bool

	mu    sync.Mutex
	undos []recorder.Group
	redos []recorder.Group
}

// New builds a navigator. depth <= 0 selects DefaultDepth; logger may be nil.
func New(rec Reconstructor, docID string, depth int, logger log.Logger) *Navigator {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Navigator{
		rec:    rec,
		docID:  docID,
		depth:  depth,
		logger: logger.WithComponent("undo"),
	}
}

// PushGroup records a freshly closed operation group as the newest undo
// candidate. Any new edit invalidates the redo branch; the orphaned events
// stay in the log and remain addressable by sequence.
func (n *Navigator) PushGroup(g recorder.Group) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redos = n.redos[:0]
	n.undos = append(n.undos, g)
	if len(n.undos) > n.depth {
		n.undos = append(n.undos[:0], n.undos[len(n.undos)-n.depth:]...)
	}
}

// Undo replays to just before the newest group and moves it to the redo
// stack. ok is false when there is nothing to undo or a navigation is
// already running; the stacks are untouched unless the replay succeeds.
func (n *Navigator) Undo(ctx context.Context) (doc *document.Document, ok bool, err error) {
	if !n.navigating.CompareAndSwap(false, true) {
		return nil, false, nil
	}
	defer n.navigating.Store(false)

	n.mu.Lock()
	if len(n.undos) == 0 {
		n.mu.Unlock()
		return nil, false, nil
	}
	g := n.undos[len(n.undos)-1]
	n.mu.Unlock()

	doc, err = n.rec.Reconstruct(ctx, n.docID, g.StartSeq-1)
	if err != nil {
		return nil, false, err
	}

	n.mu.Lock()
	n.undos = n.undos[:len(n.undos)-1]
	n.redos = append(n.redos, g)
	n.mu.Unlock()
	n.logger.Debug("undo", log.Str("group", g.ID), log.Uint64("target", g.StartSeq-1))
	return doc, true, nil
}

// Redo is the mirror of Undo, replaying forward to the end of the most
// recently undone group.
func (n *Navigator) Redo(ctx context.Context) (doc *document.Document, ok bool, err error) {
	if !n.navigating.CompareAndSwap(false, true) {
		return nil, false, nil
	}
	defer n.navigating.Store(false)

	n.mu.Lock()
	if len(n.redos) == 0 {
		n.mu.Unlock()
		return nil, false, nil
	}
	g := n.redos[len(n.redos)-1]
	n.mu.Unlock()

	doc, err = n.rec.Reconstruct(ctx, n.docID, g.EndSeq)
	if err != nil {
		return nil, false, err
	}

	n.mu.Lock()
	n.redos = n.redos[:len(n.redos)-1]
	n.undos = append(n.undos, g)
	n.mu.Unlock()
	n.logger.Debug("redo", log.Str("group", g.ID), log.Uint64("target", g.EndSeq))
	return doc, true, nil
}

// ScrubToSequence jumps the visible state to an arbitrary sequence for a
// history-timeline view. The stacks are left alone; recording a new edit
// afterwards is what discards the redo branch, via PushGroup.
func (n *Navigator) ScrubToSequence(ctx context.Context, seq uint64) (*document.Document, bool, error) {
	if !n.navigating.CompareAndSwap(false, true) {
		return nil, false, nil
	}
	defer n.navigating.Store(false)

	doc, err := n.rec.Reconstruct(ctx, n.docID, seq)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// ScrubToGroup jumps to the state right after a group's last event.
func (n *Navigator) ScrubToGroup(ctx context.Context, g recorder.Group) (*document.Document, bool, error) {
	return n.ScrubToSequence(ctx, g.EndSeq)
}

// CanUndo reports whether the undo stack is non-empty.
func (n *Navigator) CanUndo() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.undos) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (n *Navigator) CanRedo() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.redos) > 0
}

// Depths returns the current stack sizes, newest-first semantics unchanged.
func (n *Navigator) Depths() (undos, redos int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.undos), len(n.redos)
}

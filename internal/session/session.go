package session

import (
	"context"
	"sync"
	"time"

	"github.com/scribe-editor/scribe/internal/document"
	"github.com/scribe-editor/scribe/internal/recorder"
	"github.com/scribe-editor/scribe/internal/replay"
	"github.com/scribe-editor/scribe/internal/snapshot"
	"github.com/scribe-editor/scribe/internal/undo"
	"github.com/scribe-editor/scribe/pkg/log"
)

// Session is the editing facade for one open document: intents go in
// through Record, state comes out of Document and the navigation calls.
type Session struct {
	rt       *Runtime
	docID    string
	logger   log.Logger
	rec      *recorder.Recorder
	replayer *replay.Replayer
	nav      *undo.Navigator
	snaps    *snapshot.Manager

	mu  sync.Mutex
	doc *document.Document
}

// OpenSession opens a document for editing. The document record is created
// if absent, the log tail is integrity-checked, and the visible state is
// reconstructed at the head. A second session on the same document is
// refused with ErrSessionOpen.
func (r *Runtime) OpenSession(ctx context.Context, docID string) (*Session, error) {
	s := &Session{
		rt:     r,
		docID:  docID,
		logger: r.logger.WithComponent("session").With(log.Str("doc", docID)),
	}
	if err := r.claim(docID, s); err != nil {
		return nil, err
	}

	if err := r.store.EnsureDocument(ctx, docID); err != nil {
		r.release(docID)
		return nil, err
	}
	head, err := r.store.OpenDocument(ctx, docID)
	if err != nil {
		r.release(docID)
		return nil, err
	}

	s.replayer = replay.NewReplayer(r.store, r.logger, r.obs)
	doc, err := s.replayer.Reconstruct(ctx, docID, head)
	if err != nil {
		r.release(docID)
		return nil, err
	}
	s.doc = doc

	s.nav = undo.New(s.replayer, docID, r.config.UndoDepth, r.logger)
	s.rec = recorder.New(r.store, docID, recorder.Options{
		SamplingInterval: r.config.SamplingInterval(),
		GroupIdleTimeout: r.config.GroupIdleTimeout(),
	}, r.logger, r.obs, s.nav.PushGroup)

	s.snaps = snapshot.NewManager(r.store, s.replayer, docID, snapshot.Options{
		EventThreshold: r.config.Snapshot.EventThreshold,
		MinInterval:    time.Duration(r.config.Snapshot.MinIntervalMs) * time.Millisecond,
		MaxInterval:    time.Duration(r.config.Snapshot.MaxIntervalMs) * time.Millisecond,
		BacklogLimit:   r.config.Snapshot.BacklogLimit,
		Retain:         r.config.Snapshot.Retain,
		Compress:       r.config.Snapshot.Compress,
	}, r.logger, r.obs)
	s.snaps.Start(context.Background())

	s.logger.Info("session opened", log.Uint64("head", head))
	return s, nil
}

// Document returns a copy of the current visible state.
func (s *Session) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Record hands one edit intent to the recorder.
func (s *Session) Record(ctx context.Context, in recorder.Intent) error {
	return s.rec.Record(ctx, in)
}

// Flush blocks until every recorded edit is durable.
func (s *Session) Flush(ctx context.Context) error {
	return s.rec.Flush(ctx)
}

// Refresh reconstructs the visible state at the durable head.
func (s *Session) Refresh(ctx context.Context) (*document.Document, error) {
	if err := s.rec.Flush(ctx); err != nil {
		return nil, err
	}
	head, err := s.rt.store.HeadSeq(s.docID)
	if err != nil {
		return nil, err
	}
	doc, err := s.replayer.Reconstruct(ctx, s.docID, head)
	if err != nil {
		return nil, err
	}
	s.setDoc(doc)
	return doc.Clone(), nil
}

// Undo steps back one operation group. ok is false when there is nothing to
// undo or another navigation is in flight.
func (s *Session) Undo(ctx context.Context) (*document.Document, bool, error) {
	doc, ok, err := s.nav.Undo(ctx)
	if ok {
		s.setDoc(doc)
	}
	return doc, ok, err
}

// Redo steps forward one previously undone group.
func (s *Session) Redo(ctx context.Context) (*document.Document, bool, error) {
	doc, ok, err := s.nav.Redo(ctx)
	if ok {
		s.setDoc(doc)
	}
	return doc, ok, err
}

// Scrub jumps the visible state to an arbitrary sequence.
func (s *Session) Scrub(ctx context.Context, seq uint64) (*document.Document, bool, error) {
	doc, ok, err := s.nav.ScrubToSequence(ctx, seq)
	if ok {
		s.setDoc(doc)
	}
	return doc, ok, err
}

// CanUndo reports whether an undo step is available.
func (s *Session) CanUndo() bool { return s.nav.CanUndo() }

// CanRedo reports whether a redo step is available.
func (s *Session) CanRedo() bool { return s.nav.CanRedo() }

// SnapshotNow forces a snapshot at the current head and waits for it.
func (s *Session) SnapshotNow(ctx context.Context) error {
	return s.snaps.SnapshotNow(ctx)
}

// Status returns snapshot backlog diagnostics.
func (s *Session) Status() snapshot.BacklogStatus {
	return s.snaps.Status()
}

// Close flushes pending edits, takes a best-effort final snapshot so the
// next open is cheap, and tears the session down.
func (s *Session) Close(ctx context.Context) error {
	err := s.rec.Close(ctx)
	if snapErr := s.snaps.SnapshotNow(ctx); snapErr != nil {
		s.logger.Warn("final snapshot failed", log.Err(snapErr))
	}
	s.snaps.Stop()
	s.rt.release(s.docID)
	s.logger.Info("session closed")
	return err
}

func (s *Session) setDoc(doc *document.Document) {
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}

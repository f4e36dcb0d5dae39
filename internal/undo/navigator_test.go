package undo

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-editor/scribe/internal/document"
	"github.com/scribe-editor/scribe/internal/eventlog"
	"github.com/scribe-editor/scribe/internal/recorder"
	"github.com/scribe-editor/scribe/internal/replay"
	pebblestore "github.com/scribe-editor/scribe/internal/storage/pebble"
)

func newTestStore(t *testing.T) *eventlog.Store {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := eventlog.NewStore(db, nil)
	require.NoError(t, store.EnsureDocument(context.Background(), "d1"))
	return store
}

// appendGroup appends n shape-create events under one group ID and returns
// the resulting group pointer.
func appendGroup(t *testing.T, store *eventlog.Store, gid string, n int) recorder.Group {
	t.Helper()
	ctx := context.Background()
	g := recorder.Group{ID: gid}
	for i := 0; i < n; i++ {
		seq, err := store.Append(ctx, document.Event{
			ID:      fmt.Sprintf("%s-%d", gid, i),
			DocID:   "d1",
			Type:    document.TypeShapeCreated,
			GroupID: gid,
			Payload: document.ShapeCreated{ShapeID: fmt.Sprintf("%s-s%d", gid, i), Kind: "path"},
		})
		require.NoError(t, err)
		if g.StartSeq == 0 {
			g.StartSeq = seq
		}
		g.EndSeq = seq
	}
	return g
}

func canonical(t *testing.T, d *document.Document) string {
	t.Helper()
	b, err := d.MarshalCanonical()
	require.NoError(t, err)
	return string(b)
}

func TestUndoEmptyStackIsNoOp(t *testing.T) {
	store := newTestStore(t)
	n := New(replay.NewReplayer(store, nil, nil), "d1", 0, nil)

	doc, ok, err := n.Undo(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, doc)
}

func TestUndoThenRedoRestoresState(t *testing.T) {
	store := newTestStore(t)
	r := replay.NewReplayer(store, nil, nil)
	n := New(r, "d1", 0, nil)
	ctx := context.Background()

	g1 := appendGroup(t, store, "g1", 2)
	g2 := appendGroup(t, store, "g2", 3)
	n.PushGroup(g1)
	n.PushGroup(g2)

	before, err := r.Reconstruct(ctx, "d1", g2.EndSeq)
	require.NoError(t, err)

	undone, ok, err := n.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	wantUndone, err := r.Reconstruct(ctx, "d1", g1.EndSeq)
	require.NoError(t, err)
	assert.Equal(t, canonical(t, wantUndone), canonical(t, undone))

	redone, ok, err := n.Redo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, canonical(t, before), canonical(t, redone))
}

func TestUndoToEmptyDocument(t *testing.T) {
	store := newTestStore(t)
	n := New(replay.NewReplayer(store, nil, nil), "d1", 0, nil)
	ctx := context.Background()

	n.PushGroup(appendGroup(t, store, "g1", 2))
	doc, ok, err := n.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, doc.Shapes)

	_, ok, err = n.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "stack exhausted")
}

func TestNewEditDiscardsRedoBranch(t *testing.T) {
	store := newTestStore(t)
	n := New(replay.NewReplayer(store, nil, nil), "d1", 0, nil)
	ctx := context.Background()

	n.PushGroup(appendGroup(t, store, "g1", 1))
	_, ok, err := n.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, n.CanRedo())

	n.PushGroup(appendGroup(t, store, "g2", 1))
	assert.False(t, n.CanRedo())

	_, ok, err = n.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDepthBoundDropsOldestPointer(t *testing.T) {
	store := newTestStore(t)
	n := New(replay.NewReplayer(store, nil, nil), "d1", 2, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n.PushGroup(appendGroup(t, store, fmt.Sprintf("g%d", i), 1))
	}
	undos, _ := n.Depths()
	assert.Equal(t, 2, undos)

	for i := 0; i < 2; i++ {
		_, ok, err := n.Undo(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	}
	_, ok, err := n.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "oldest pointer was forgotten, events remain in the log")

	head, err := store.HeadSeq("d1")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), head)
}

func TestScrubToSequence(t *testing.T) {
	store := newTestStore(t)
	r := replay.NewReplayer(store, nil, nil)
	n := New(r, "d1", 0, nil)
	ctx := context.Background()

	g := appendGroup(t, store, "g1", 5)
	doc, ok, err := n.ScrubToSequence(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, doc.Shapes, 3)

	doc, ok, err = n.ScrubToGroup(ctx, g)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, doc.Shapes, 5)
}

// reentrantReconstructor calls back into the navigator mid-replay.
type reentrantReconstructor struct {
	nav  *Navigator
	seen bool
}

func (r *reentrantReconstructor) Reconstruct(ctx context.Context, docID string, targetSeq uint64) (*document.Document, error) {
	_, ok, err := r.nav.Undo(ctx)
	r.seen = ok || err != nil
	return document.New(docID), nil
}

func TestOverlappingNavigationIsNoOp(t *testing.T) {
	rec := &reentrantReconstructor{}
	n := New(rec, "d1", 0, nil)
	rec.nav = n
	n.PushGroup(recorder.Group{ID: "g1", StartSeq: 1, EndSeq: 1})
	n.PushGroup(recorder.Group{ID: "g2", StartSeq: 2, EndSeq: 2})

	_, ok, err := n.Undo(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, rec.seen, "nested navigation must be rejected without error")
}

func TestFailedReplayLeavesStacksUntouched(t *testing.T) {
	store := newTestStore(t)
	n := New(replay.NewReplayer(store, nil, nil), "d1", 0, nil)
	ctx := context.Background()

	// Pointer beyond the head: replay refuses, the group stays undoable.
	n.PushGroup(recorder.Group{ID: "bogus", StartSeq: 5, EndSeq: 9})
	_, ok, err := n.Undo(ctx)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.True(t, n.CanUndo())
}

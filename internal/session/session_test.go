package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/scribe-editor/scribe/internal/config"
	"github.com/scribe-editor/scribe/internal/document"
	"github.com/scribe-editor/scribe/internal/recorder"
	pebblestore "github.com/scribe-editor/scribe/internal/storage/pebble"
)

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := Open(Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeAlways,
		Config:  cfgpkg.Default(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func createShape(id string, endsGroup bool) recorder.Intent {
	return recorder.Intent{
		Payload:   document.ShapeCreated{ShapeID: id, Kind: "path"},
		EndsGroup: endsGroup,
	}
}

func TestEditsSurviveReopen(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	s, err := rt.OpenSession(ctx, "d1")
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, createShape("s1", false)))
	require.NoError(t, s.Record(ctx, createShape("s2", false)))
	require.NoError(t, s.Close(ctx))

	s, err = rt.OpenSession(ctx, "d1")
	require.NoError(t, err)
	defer s.Close(ctx)
	assert.Len(t, s.Document().Shapes, 2)
}

func TestSingleWriterPerDocument(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	s, err := rt.OpenSession(ctx, "d1")
	require.NoError(t, err)
	defer s.Close(ctx)

	_, err = rt.OpenSession(ctx, "d1")
	assert.ErrorIs(t, err, ErrSessionOpen)

	// A different document is fine.
	other, err := rt.OpenSession(ctx, "d2")
	require.NoError(t, err)
	require.NoError(t, other.Close(ctx))
}

func TestUndoRedoRoundtrip(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	s, err := rt.OpenSession(ctx, "d1")
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Record(ctx, createShape("s1", true)))
	require.NoError(t, s.Record(ctx, createShape("s2", true)))
	require.NoError(t, s.Flush(ctx))

	before, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, before.Shapes, 2)
	require.True(t, s.CanUndo())

	doc, ok, err := s.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, doc.Shapes, 1)
	assert.Len(t, s.Document().Shapes, 1)

	doc, ok, err = s.Redo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, doc.Shapes, 2)
}

func TestScrubThenEditDiscardsRedo(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	s, err := rt.OpenSession(ctx, "d1")
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Record(ctx, createShape("s1", true)))
	require.NoError(t, s.Record(ctx, createShape("s2", true)))
	require.NoError(t, s.Flush(ctx))

	_, ok, err := s.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, s.CanRedo())

	doc, ok, err := s.Scrub(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, doc.Shapes, 1)

	require.NoError(t, s.Record(ctx, createShape("s3", true)))
	require.NoError(t, s.Flush(ctx))
	assert.False(t, s.CanRedo(), "new edit invalidates the redo branch")
}

func TestCloseLeavesSnapshotAtHead(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	s, err := rt.OpenSession(ctx, "d1")
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, createShape("s1", false)))
	require.NoError(t, s.Record(ctx, createShape("s2", false)))
	require.NoError(t, s.Close(ctx))

	snap, err := rt.Store().LatestSnapshot("d1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Seq)
}

func TestSnapshotNowAndStatus(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	s, err := rt.OpenSession(ctx, "d1")
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Record(ctx, createShape("s1", false)))
	require.NoError(t, s.Flush(ctx))
	require.NoError(t, s.SnapshotNow(ctx))

	st := s.Status()
	assert.Equal(t, uint64(1), st.HeadSeq)
	assert.Equal(t, uint64(1), st.LastSnapshotSeq)
	assert.Equal(t, 0, st.PendingJobs)
}

func TestSampledGestureThroughSession(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	rt.config.SamplingIntervalMs = int(time.Hour / time.Millisecond)
	s, err := rt.OpenSession(ctx, "d1")
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Record(ctx, createShape("s1", false)))
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Record(ctx, recorder.Intent{
			StreamID: "anchor/s1/0",
			Payload:  document.AnchorAdded{ShapeID: "s1", Index: 0, Anchor: document.Anchor{X: float64(i)}},
		}))
	}
	require.NoError(t, s.Flush(ctx))

	head, err := rt.Store().HeadSeq("d1")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), head, "create + window sample + terminal flush")
}

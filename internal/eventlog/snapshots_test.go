package eventlog

import (
	"context"
	"errors"
	"testing"
)

func TestSnapshotLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.EnsureDocument(ctx, "d1")

	if _, err := s.LatestSnapshot("d1"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("want ErrNoSnapshot, got %v", err)
	}
	for _, seq := range []uint64{100, 250, 500} {
		if err := s.PutSnapshot(ctx, "d1", seq, []byte{byte(seq)}); err != nil {
			t.Fatalf("put %d: %v", seq, err)
		}
	}

	latest, err := s.LatestSnapshot("d1")
	if err != nil || latest.Seq != 500 {
		t.Fatalf("latest = %d, %v", latest.Seq, err)
	}
	mid, err := s.SnapshotAtOrBefore("d1", 499)
	if err != nil || mid.Seq != 250 {
		t.Fatalf("atOrBefore(499) = %d, %v", mid.Seq, err)
	}
	exact, err := s.SnapshotAtOrBefore("d1", 250)
	if err != nil || exact.Seq != 250 {
		t.Fatalf("atOrBefore(250) = %d, %v", exact.Seq, err)
	}
	if _, err := s.SnapshotAtOrBefore("d1", 99); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("want ErrNoSnapshot below first, got %v", err)
	}
}

func TestSnapshotOrderEnforced(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.EnsureDocument(ctx, "d1")
	if err := s.PutSnapshot(ctx, "d1", 10, []byte("a")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutSnapshot(ctx, "d1", 10, []byte("b")); !errors.Is(err, ErrSnapshotOrder) {
		t.Fatalf("want ErrSnapshotOrder on equal seq, got %v", err)
	}
	if err := s.PutSnapshot(ctx, "d1", 5, []byte("c")); !errors.Is(err, ErrSnapshotOrder) {
		t.Fatalf("want ErrSnapshotOrder on lower seq, got %v", err)
	}
}

func TestPruneSnapshotsKeepsNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.EnsureDocument(ctx, "d1")
	for _, seq := range []uint64{10, 20, 30, 40} {
		_ = s.PutSnapshot(ctx, "d1", seq, []byte("x"))
	}
	n, err := s.PruneSnapshots(ctx, "d1", 2)
	if err != nil || n != 2 {
		t.Fatalf("prune = %d, %v", n, err)
	}
	seqs, _ := s.ListSnapshots("d1")
	if len(seqs) != 2 || seqs[0] != 30 || seqs[1] != 40 {
		t.Fatalf("kept %v, want [30 40]", seqs)
	}
	// keep below 1 still preserves the newest snapshot
	if _, err := s.PruneSnapshots(ctx, "d1", 0); err != nil {
		t.Fatalf("prune: %v", err)
	}
	seqs, _ = s.ListSnapshots("d1")
	if len(seqs) != 1 || seqs[0] != 40 {
		t.Fatalf("kept %v, want [40]", seqs)
	}
}

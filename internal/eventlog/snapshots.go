package eventlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

var (
	// ErrNoSnapshot means no snapshot satisfied the query.
	ErrNoSnapshot = errors.New("eventlog: no snapshot")
	// ErrSnapshotOrder means a snapshot write would not advance the snapshot
	// sequence; successive snapshots must be strictly increasing.
	ErrSnapshotOrder = errors.New("eventlog: snapshot sequence not increasing")
)

// SnapshotRecord is one persisted snapshot row. Frame holds the versioned
// binary frame (header + payload) exactly as written; the snapshot package
// owns its layout.
type SnapshotRecord struct {
	DocID string
	Seq   uint64
	Frame []byte
}

// PutSnapshot stores a snapshot frame at seq. The sequence must be strictly
// greater than any persisted snapshot for the document.
func (s *Store) PutSnapshot(ctx context.Context, docID string, seq uint64, frame []byte) error {
	st := s.state(docID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if latest, err := s.snapshotAtOrBefore(docID, ^uint64(0)); err == nil && latest.Seq >= seq {
		return fmt.Errorf("%w: have %d, put %d", ErrSnapshotOrder, latest.Seq, seq)
	} else if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return err
	}
	if err := s.db.Set(KeySnapshot(docID, seq), frame); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot for the document. Snapshot reads
// take no document lock; pebble iterators give a consistent view alongside
// concurrent appends.
func (s *Store) LatestSnapshot(docID string) (SnapshotRecord, error) {
	return s.snapshotAtOrBefore(docID, ^uint64(0))
}

// SnapshotAtOrBefore returns the newest snapshot with Seq <= seq.
func (s *Store) SnapshotAtOrBefore(docID string, seq uint64) (SnapshotRecord, error) {
	return s.snapshotAtOrBefore(docID, seq)
}

func (s *Store) snapshotAtOrBefore(docID string, seq uint64) (SnapshotRecord, error) {
	low := KeySnapshot(docID, 0)
	hi := KeySnapshot(docID, seq)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: append(hi, 0x00)})
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer iter.Close()
	if !iter.Last() {
		return SnapshotRecord{}, ErrNoSnapshot
	}
	return SnapshotRecord{
		DocID: docID,
		Seq:   seqFromKey(iter.Key()),
		Frame: append([]byte(nil), iter.Value()...),
	}, nil
}

// ListSnapshots returns all snapshot sequences for a document, ascending.
func (s *Store) ListSnapshots(docID string) ([]uint64, error) {
	low := KeySnapshot(docID, 0)
	hi := KeySnapshot(docID, ^uint64(0))
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: append(hi, 0x00)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer iter.Close()
	var seqs []uint64
	for ok := iter.First(); ok; ok = iter.Next() {
		seqs = append(seqs, seqFromKey(iter.Key()))
	}
	return seqs, nil
}

// PruneSnapshots keeps the newest keep snapshots and deletes the rest. The
// newest snapshot is never deleted. Events are never touched: the log stays
// sufficient to rebuild anything pruned.
func (s *Store) PruneSnapshots(ctx context.Context, docID string, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	seqs, err := s.ListSnapshots(docID)
	if err != nil {
		return 0, err
	}
	if len(seqs) <= keep {
		return 0, nil
	}
	doomed := seqs[:len(seqs)-keep]

	st := s.state(docID)
	st.mu.Lock()
	defer st.mu.Unlock()

	b := s.db.NewBatch()
	defer b.Close()
	for _, seq := range doomed {
		if err := b.Delete(KeySnapshot(docID, seq), nil); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return len(doomed), nil
}

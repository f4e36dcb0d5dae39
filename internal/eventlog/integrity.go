package eventlog

import (
	"context"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/scribe-editor/scribe/pkg/log"
)

// IntegrityReport summarizes an integrity scan of one document's log.
type IntegrityReport struct {
	DocID       string
	HeadSeq     uint64
	EventsOK    uint64
	FirstBadSeq uint64 // 0 when the log is clean
}

// OpenDocument loads the document's head and scans the log for sequence
// continuity and checksum validity. A corrupt or discontinuous tail is
// truncated and the head rewound to the last contiguous valid sequence;
// snapshots past the new head are pruned. Returns the (possibly rewound) head.
func (s *Store) OpenDocument(ctx context.Context, docID string) (uint64, error) {
	st := s.state(docID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := s.loadLocked(docID, st); err != nil {
		return 0, err
	}

	report, err := s.scan(docID, st.headSeq)
	if err != nil {
		return 0, err
	}
	if report.FirstBadSeq == 0 {
		return st.headSeq, nil
	}

	newHead := report.FirstBadSeq - 1
	s.logger.Warn("log corruption detected, truncating tail",
		log.Str("doc", docID),
		log.Uint64("firstBadSeq", report.FirstBadSeq),
		log.Uint64("newHead", newHead))

	if err := s.truncateTail(ctx, docID, st, newHead); err != nil {
		return 0, err
	}
	return newHead, nil
}

// Verify runs the integrity scan without repairing anything. Used by the
// offline verify tooling.
func (s *Store) Verify(docID string) (IntegrityReport, error) {
	st := s.state(docID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := s.loadLocked(docID, st); err != nil {
		return IntegrityReport{}, err
	}
	return s.scan(docID, st.headSeq)
}

// scan walks event rows 1..head checking continuity and checksums. Caller
// holds the document lock.
func (s *Store) scan(docID string, head uint64) (IntegrityReport, error) {
	report := IntegrityReport{DocID: docID, HeadSeq: head}

	low := KeyEvent(docID, 0)
	hi := KeyEvent(docID, ^uint64(0))
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: append(hi, 0x00)})
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer iter.Close()

	expect := uint64(1)
	for ok := iter.First(); ok; ok = iter.Next() {
		seq := seqFromKey(iter.Key())
		if seq != expect {
			report.FirstBadSeq = expect
			return report, nil
		}
		if _, valid := DecodeRow(iter.Value()); !valid {
			report.FirstBadSeq = seq
			return report, nil
		}
		report.EventsOK++
		expect++
	}
	// Rows exhausted before the recorded head: the tail is missing.
	if expect <= head {
		report.FirstBadSeq = expect
	}
	return report, nil
}

// truncateTail deletes event rows > newHead, rewinds the head, and prunes
// snapshots past it. Caller holds the document lock.
func (s *Store) truncateTail(ctx context.Context, docID string, st *docState, newHead uint64) error {
	b := s.db.NewBatch()
	defer b.Close()

	low := KeyEvent(docID, newHead+1)
	hi := KeyEvent(docID, ^uint64(0))
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: append(hi, 0x00)})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for ok := iter.First(); ok; ok = iter.Next() {
		if err := b.Delete(iter.Key(), nil); err != nil {
			iter.Close()
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	iter.Close()

	slow := KeySnapshot(docID, newHead+1)
	shi := KeySnapshot(docID, ^uint64(0))
	siter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: slow, UpperBound: append(shi, 0x00)})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for ok := siter.First(); ok; ok = siter.Next() {
		if err := b.Delete(siter.Key(), nil); err != nil {
			siter.Close()
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	siter.Close()

	if err := b.Set(KeyDocMeta(docID), encodeMeta(newHead, st.created), nil); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	st.headSeq = newHead
	return nil
}

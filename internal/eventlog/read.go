package eventlog

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/scribe-editor/scribe/internal/document"
)

// defaultPageSize bounds how many rows a RangeIter pulls per storage scan.
const defaultPageSize = 256

// RangeIter lazily yields events of one document in ascending sequence order.
// It reads in pages, opening a fresh storage iterator per page, so it is
// restartable and never pins a long-lived iterator across caller pauses.
type RangeIter struct {
	store *Store
	docID string
	next  uint64 // next sequence to fetch
	to    uint64 // inclusive upper bound
	page  []document.Event
	idx   int
	done  bool
	err   error
}

// ReadRange returns an iterator over [from, to] inclusive. A from of 0 is
// treated as 1. The iterator stops early at the end of the log.
func (s *Store) ReadRange(docID string, from, to uint64) *RangeIter {
	if from == 0 {
		from = 1
	}
	return &RangeIter{store: s, docID: docID, next: from, to: to}
}

// Next returns the next event. ok is false at the end of the range or on
// error; check Err afterwards.
func (it *RangeIter) Next() (document.Event, bool) {
	if it.err != nil || it.done {
		return document.Event{}, false
	}
	if it.idx >= len(it.page) {
		if !it.fill() {
			return document.Event{}, false
		}
	}
	ev := it.page[it.idx]
	it.idx++
	return ev, true
}

// Err reports the first error the iterator hit.
func (it *RangeIter) Err() error { return it.err }

func (it *RangeIter) fill() bool {
	if it.next > it.to {
		it.done = true
		return false
	}
	low := KeyEvent(it.docID, it.next)
	hi := KeyEvent(it.docID, it.to)
	iter, err := it.store.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: append(hi, 0x00)})
	if err != nil {
		it.err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return false
	}
	defer iter.Close()

	it.page = it.page[:0]
	it.idx = 0
	for ok := iter.First(); ok && len(it.page) < defaultPageSize; ok = iter.Next() {
		seq := seqFromKey(iter.Key())
		dec, valid := DecodeRow(iter.Value())
		if !valid {
			it.err = fmt.Errorf("%w: doc %s seq %d", ErrCorruptLog, it.docID, seq)
			return false
		}
		var ev document.Event
		if err := json.Unmarshal(dec.Payload, &ev); err != nil {
			it.err = fmt.Errorf("%w: doc %s seq %d: %v", ErrCorruptLog, it.docID, seq, err)
			return false
		}
		it.page = append(it.page, ev)
	}
	if len(it.page) == 0 {
		it.done = true
		return false
	}
	it.next = it.page[len(it.page)-1].Seq + 1
	return true
}

// ReadAll collects [from, to] into a slice. Intended for tooling and tests;
// replay uses the iterator directly.
func (s *Store) ReadAll(docID string, from, to uint64) ([]document.Event, error) {
	it := s.ReadRange(docID, from, to)
	var out []document.Event
	for {
		ev, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, ev)
	}
	return out, it.Err()
}

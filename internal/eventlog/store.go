package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scribe-editor/scribe/internal/document"
	pebblestore "github.com/scribe-editor/scribe/internal/storage/pebble"
	"github.com/scribe-editor/scribe/pkg/log"
)

var (
	// ErrMissingParent means the document record does not exist.
	ErrMissingParent = errors.New("eventlog: document record not found")
	// ErrDuplicateSequence means a race double-assigned a sequence.
	ErrDuplicateSequence = errors.New("eventlog: sequence already assigned")
	// ErrUnavailable wraps I/O failures on the append path. Callers of
	// record/flush surface this as a persistent save failure.
	ErrUnavailable = errors.New("eventlog: store unavailable")
	// ErrCorruptLog means an event row failed checksum or decoding on read.
	ErrCorruptLog = errors.New("eventlog: corrupt log record")
)

// Store provides append-only event logs and the snapshot table for all
// documents in one database.
type Store struct {
	db     *pebblestore.DB
	logger log.Logger

	mu   sync.Mutex
	docs map[string]*docState
}

// docState serializes writers for one document and caches its head.
type docState struct {
	mu       sync.Mutex
	loaded   bool
	headSeq  uint64
	created  int64
	notifyCh chan struct{}
}

// NewStore wraps a database. The logger may be nil.
func NewStore(db *pebblestore.DB, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Store{
		db:     db,
		logger: logger.WithComponent("eventlog"),
		docs:   map[string]*docState{},
	}
}

func (s *Store) state(docID string) *docState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.docs[docID]
	if !ok {
		st = &docState{notifyCh: make(chan struct{})}
		s.docs[docID] = st
	}
	return st
}

// meta value: [8B head seq][8B created-at ms]
func encodeMeta(head uint64, createdMs int64) []byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], head)
	binary.BigEndian.PutUint64(b[8:16], uint64(createdMs))
	return b[:]
}

func decodeMeta(b []byte) (head uint64, createdMs int64, ok bool) {
	if len(b) < 16 {
		return 0, 0, false
	}
	return binary.BigEndian.Uint64(b[0:8]), int64(binary.BigEndian.Uint64(b[8:16])), true
}

// EnsureDocument creates the document record if absent. Idempotent.
func (s *Store) EnsureDocument(ctx context.Context, docID string) error {
	st := s.state(docID)
	st.mu.Lock()
	defer st.mu.Unlock()

	key := KeyDocMeta(docID)
	if _, err := s.db.Get(key); err == nil {
		return nil
	} else if !errors.Is(err, pebblestore.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	created := time.Now().UnixMilli()
	if err := s.db.Set(key, encodeMeta(0, created)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	st.loaded = true
	st.headSeq = 0
	st.created = created
	return nil
}

// HasDocument reports whether the document record exists.
func (s *Store) HasDocument(docID string) (bool, error) {
	return s.db.Has(KeyDocMeta(docID))
}

// loadLocked reads the meta row into the state. Caller holds st.mu.
func (s *Store) loadLocked(docID string, st *docState) error {
	if st.loaded {
		return nil
	}
	b, err := s.db.Get(KeyDocMeta(docID))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return ErrMissingParent
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	head, created, ok := decodeMeta(b)
	if !ok {
		return fmt.Errorf("%w: malformed document record for %s", ErrCorruptLog, docID)
	}
	st.loaded = true
	st.headSeq = head
	st.created = created
	return nil
}

// HeadSeq returns the current head sequence (0 when the log is empty).
func (s *Store) HeadSeq(docID string) (uint64, error) {
	st := s.state(docID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := s.loadLocked(docID, st); err != nil {
		return 0, err
	}
	return st.headSeq, nil
}

// Append durably appends one event and returns its assigned sequence. Writers
// for the same document are serialized; a return implies the row and the
// advanced head are synced to disk.
func (s *Store) Append(ctx context.Context, ev document.Event) (uint64, error) {
	st := s.state(ev.DocID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := s.loadLocked(ev.DocID, st); err != nil {
		return 0, err
	}

	seq := st.headSeq + 1
	key := KeyEvent(ev.DocID, seq)
	if exists, err := s.db.Has(key); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	} else if exists {
		return 0, fmt.Errorf("%w: doc %s seq %d", ErrDuplicateSequence, ev.DocID, seq)
	}

	ev.Seq = seq
	payload, err := ev.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("eventlog: encode event: %w", err)
	}
	row := EncodeRow(encodeTimestampHeader(ev.TimestampMs), payload)

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(key, row, nil); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := b.Set(KeyDocMeta(ev.DocID), encodeMeta(seq, st.created), nil); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	st.headSeq = seq
	close(st.notifyCh)
	st.notifyCh = make(chan struct{})
	return seq, nil
}

// WaitForAppend blocks until a new append lands for the document, the timeout
// elapses, or ctx is done. Returns true when woken by an append.
func (s *Store) WaitForAppend(ctx context.Context, docID string, timeout time.Duration) bool {
	st := s.state(docID)
	st.mu.Lock()
	ch := st.notifyCh
	st.mu.Unlock()

	if timeout <= 0 {
		select {
		case <-ch:
			return true
		case <-ctx.Done():
			return false
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	case <-ctx.Done():
		return false
	}
}

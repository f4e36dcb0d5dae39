package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scribe-editor/scribe/internal/document"
	"github.com/scribe-editor/scribe/internal/eventlog"
	"github.com/scribe-editor/scribe/internal/metrics"
	"github.com/scribe-editor/scribe/pkg/log"
)

// Reconstructor rebuilds document state at a sequence. Satisfied by the
// replay package; injected to keep the dependency one-way.
type Reconstructor interface {
	Reconstruct(ctx context.Context, docID string, targetSeq uint64) (*document.Document, error)
}

// Options tunes the manager. Zero values pick defaults.
type Options struct {
	// EventThreshold is the hard trigger: fire after this many events since
	// the last snapshot. Always honored, even when the backlog guard is on.
	EventThreshold int
	// MinInterval / MaxInterval bound the adaptive time budget.
	MinInterval time.Duration
	MaxInterval time.Duration
	// BacklogLimit is the pending-job count past which adaptive triggers are
	// suppressed.
	BacklogLimit int
	// Retain is how many snapshots to keep after each successful write.
	Retain int
	// Compress gzips snapshot payloads.
	Compress bool
}

func (o Options) withDefaults() Options {
	if o.EventThreshold <= 0 {
		o.EventThreshold = 500
	}
	if o.MinInterval <= 0 {
		o.MinInterval = 2 * time.Second
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = time.Minute
	}
	if o.BacklogLimit <= 0 {
		o.BacklogLimit = 3
	}
	if o.Retain <= 0 {
		o.Retain = 5
	}
	return o
}

// BacklogStatus is a diagnostic view of the manager's position relative to
// the log head. It is advisory only; correctness never depends on it.
type BacklogStatus struct {
	PendingJobs     int
	LastSnapshotSeq uint64
	HeadSeq         uint64
	EventsPerSecond float64
	Activity        Activity
}

// triggerTick paces the trigger loop when no appends arrive.
const triggerTick = 200 * time.Millisecond

type job struct {
	seq uint64
	// done, when set, receives the job result (point-to-point). Background
	// triggers leave it nil.
	done chan error
}

// Manager produces snapshots for one document on a background worker.
type Manager struct {
	store  *eventlog.Store
	rec    Reconstructor
	obs    metrics.Observer
	logger log.Logger
	docID  string
	opts   Options

	jobs chan job
	cls  *classifier

	mu          sync.Mutex
	pending     int
	queuedSeq   uint64
	lastSnapSeq uint64
	lastSnapAt  time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager builds a manager for one document. logger and obs may be nil.
func NewManager(store *eventlog.Store, rec Reconstructor, docID string, opts Options, logger log.Logger, obs metrics.Observer) *Manager {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Manager{
		store:  store,
		rec:    rec,
		obs:    metrics.OrNop(obs),
		logger: logger.WithComponent("snapshot").With(log.Str("doc", docID)),
		docID:  docID,
		opts:   opts.withDefaults(),
		jobs:   make(chan job, 16),
		cls:    newClassifier(),
	}
}

// Start launches the trigger loop and worker. Stop must be called to release
// them.
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	if rec, err := m.store.LatestSnapshot(m.docID); err == nil {
		m.lastSnapSeq = rec.Seq
	}
	m.lastSnapAt = time.Now()

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.triggerLoop(ctx)
	}()
	go func() {
		defer m.wg.Done()
		m.worker(ctx)
	}()
}

// Stop cancels background work and waits for it to finish.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Status returns the current backlog diagnostics.
func (m *Manager) Status() BacklogStatus {
	head, _ := m.store.HeadSeq(m.docID)
	m.mu.Lock()
	defer m.mu.Unlock()
	return BacklogStatus{
		PendingJobs:     m.pending,
		LastSnapshotSeq: m.lastSnapSeq,
		HeadSeq:         head,
		EventsPerSecond: m.cls.Rate(),
		Activity:        m.cls.Class(),
	}
}

// SnapshotNow synchronously snapshots the current head. Used by tooling and
// session close; bypasses trigger policy but shares the worker queue.
func (m *Manager) SnapshotNow(ctx context.Context) error {
	head, err := m.store.HeadSeq(m.docID)
	if err != nil {
		return err
	}
	if head == 0 {
		return nil
	}
	j := job{seq: head, done: make(chan error, 1)}
	if !m.enqueue(j) {
		return fmt.Errorf("snapshot: queue full")
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) triggerLoop(ctx context.Context) {
	for {
		m.store.WaitForAppend(ctx, m.docID, triggerTick)
		if ctx.Err() != nil {
			return
		}
		m.evaluate()
	}
}

// evaluate applies the hybrid trigger policy against the current head.
func (m *Manager) evaluate() {
	head, err := m.store.HeadSeq(m.docID)
	if err != nil {
		m.logger.Warn("trigger head read failed", log.Err(err))
		return
	}
	m.cls.Observe(head, time.Now())

	m.mu.Lock()
	last := m.lastSnapSeq
	lastAt := m.lastSnapAt
	pending := m.pending
	m.mu.Unlock()

	if head <= last {
		return
	}
	lag := head - last

	if lag >= uint64(m.opts.EventThreshold) {
		m.enqueue(job{seq: head})
		return
	}
	if pending > m.opts.BacklogLimit {
		// Falling behind: only the hard threshold above may fire.
		return
	}
	budget := intervalFor(m.cls.Class(), m.opts.MinInterval, m.opts.MaxInterval)
	if time.Since(lastAt) >= budget {
		m.enqueue(job{seq: head})
	}
}

// enqueue hands a job to the worker. Background jobs dedupe against the
// highest sequence already queued; forced jobs (done != nil) always go in.
func (m *Manager) enqueue(j job) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j.done == nil && m.queuedSeq >= j.seq {
		return false
	}
	select {
	case m.jobs <- j:
		m.pending++
		if j.seq > m.queuedSeq {
			m.queuedSeq = j.seq
		}
		return true
	default:
		m.logger.Warn("snapshot queue full, dropping trigger", log.Uint64("seq", j.seq))
		return false
	}
}

func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-m.jobs:
			err := m.run(ctx, j.seq)
			m.mu.Lock()
			m.pending--
			if err == nil {
				m.lastSnapSeq = j.seq
				m.lastSnapAt = time.Now()
			} else if m.queuedSeq == j.seq {
				// Rewind the dedupe watermark so the next trigger at this
				// head retries instead of being swallowed.
				m.queuedSeq = m.lastSnapSeq
			}
			m.mu.Unlock()
			if err != nil {
				// Retried on the next trigger; the log remains authoritative.
				m.logger.Warn("snapshot attempt failed", log.Uint64("seq", j.seq), log.Err(err))
			}
			if j.done != nil {
				j.done <- err
			}
		}
	}
}

// run reconstructs state at seq, frames it, and persists the snapshot.
func (m *Manager) run(ctx context.Context, seq uint64) error {
	start := time.Now()
	doc, err := m.rec.Reconstruct(ctx, m.docID, seq)
	if err != nil {
		return fmt.Errorf("reconstruct: %w", err)
	}
	state, err := doc.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	frame, err := EncodeFrame(state, m.opts.Compress)
	if err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	if err := m.store.PutSnapshot(ctx, m.docID, seq, frame); err != nil {
		if errors.Is(err, eventlog.ErrSnapshotOrder) {
			// A newer snapshot landed first; nothing to do.
			return nil
		}
		return fmt.Errorf("persist: %w", err)
	}
	if _, err := m.store.PruneSnapshots(ctx, m.docID, m.opts.Retain); err != nil {
		m.logger.Warn("snapshot prune failed", log.Err(err))
	}
	elapsed := time.Since(start)
	m.obs.SnapshotCreated(m.docID, seq, len(state), elapsed)
	m.logger.Debug("snapshot written",
		log.Uint64("seq", seq),
		log.Int("stateBytes", len(state)),
		log.Dur("elapsed", elapsed))
	return nil
}

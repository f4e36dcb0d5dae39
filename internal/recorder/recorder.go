// Package recorder turns edit intents into durable log events. Continuous
// gesture streams are throttled to one event per sampling interval per
// stream; the newest pending value is never dropped, it is emitted by the
// window timer or by the end-of-gesture flush. Events are stitched into
// operation groups that close on idle or on an explicit boundary.
//
// Sampling and grouping decisions run on the caller's goroutine; the append
// itself completes on a single worker that preserves submission order, so
// Flush is the durability barrier for everything recorded before it.
package recorder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scribe-editor/scribe/internal/document"
	"github.com/scribe-editor/scribe/internal/eventlog"
	"github.com/scribe-editor/scribe/internal/metrics"
	"github.com/scribe-editor/scribe/pkg/id"
	"github.com/scribe-editor/scribe/pkg/log"
)

// ErrClosed means the recorder was shut down.
var ErrClosed = errors.New("recorder: closed")

const (
	DefaultSamplingInterval = 50 * time.Millisecond
	DefaultGroupIdleTimeout = 200 * time.Millisecond

	defaultQueueSize = 64
)

// Options tunes sampling, grouping and the append queue.
type Options struct {
	SamplingInterval time.Duration
	GroupIdleTimeout time.Duration
	QueueSize        int
}

func (o *Options) fill() {
	if o.SamplingInterval <= 0 {
		o.SamplingInterval = DefaultSamplingInterval
	}
	if o.GroupIdleTimeout <= 0 {
		o.GroupIdleTimeout = DefaultGroupIdleTimeout
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
}

// job is one unit of worker input: an event to append, a group to close
// after it, a barrier to acknowledge, or any combination.
type job struct {
	ev         *document.Event
	sampled    bool
	closeGroup string
	done       chan error
}

type seqRange struct{ start, end uint64 }

type groupState struct {
	id    string
	timer *time.Timer
}

// Recorder owns the intent-to-event pipeline for one document.
type Recorder struct {
	store    *eventlog.Store
	obs      metrics.Observer
	logger   log.Logger
	docID    string
	opts     Options
	ids      *id.Generator
	onClosed func(Group)

	jobs    chan job
	senders sync.WaitGroup
	wg      sync.WaitGroup

	mu      sync.Mutex
	streams map[string]*stream
	group   *groupState
	closed  bool

	errMu   sync.Mutex
	saveErr error

	// ranges is touched only by the worker goroutine.
	ranges map[string]seqRange
}

// New starts a recorder for docID. onClosed, logger and obs may be nil;
// onClosed fires on the worker goroutine once per closed operation group.
func New(store *eventlog.Store, docID string, opts Options, logger log.Logger, obs metrics.Observer, onClosed func(Group)) *Recorder {
	opts.fill()
	if logger == nil {
		logger = log.NewNopLogger()
	}
	r := &Recorder{
		store:    store,
		obs:      metrics.OrNop(obs),
		logger:   logger.WithComponent("recorder"),
		docID:    docID,
		opts:     opts,
		ids:      id.NewGenerator(),
		onClosed: onClosed,
		jobs:     make(chan job, opts.QueueSize),
		streams:  make(map[string]*stream),
		ranges:   make(map[string]seqRange),
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

// Record accepts one intent. Atomic intents are queued for append
// immediately; continuous intents pass through the sampling policy and may
// coalesce into a pending value instead. A sticky store failure from an
// earlier append is reported here so edits are never silently discarded.
func (r *Recorder) Record(ctx context.Context, in Intent) error {
	if in.Payload == nil {
		return errors.New("recorder: intent has no payload")
	}
	if err := r.loadErr(); err != nil {
		return err
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	var j job
	emit := true
	if in.StreamID == "" {
		j = r.buildLocked(in, 0)
	} else {
		j, emit = r.sampleLocked(in)
	}
	if !emit {
		r.mu.Unlock()
		return nil
	}
	r.senders.Add(1)
	r.mu.Unlock()
	return r.send(ctx, j)
}

// Flush emits every pending sampled value as a terminal event, then waits
// until all previously queued appends are durable. The returned error is the
// first append failure seen so far, if any.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	out := r.drainPendingLocked()
	done := make(chan error, 1)
	out = append(out, job{done: done})
	r.senders.Add(len(out))
	r.mu.Unlock()

	if err := r.send(ctx, out...); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes, closes the open group if any, and stops the worker. The
// recorder cannot be reused afterwards.
func (r *Recorder) Close(ctx context.Context) error {
	err := r.Flush(ctx)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return err
	}
	r.closed = true
	var final []job
	if r.group != nil {
		if r.group.timer != nil {
			r.group.timer.Stop()
		}
		final = append(final, job{closeGroup: r.group.id})
		r.group = nil
	}
	for _, st := range r.streams {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
	}
	r.senders.Add(len(final))
	r.mu.Unlock()

	_ = r.send(context.Background(), final...)
	r.senders.Wait()
	close(r.jobs)
	r.wg.Wait()
	return err
}

// buildLocked assembles the event and runs the grouping rules: open a group
// if none is open, reset the idle timer, close on an explicit boundary.
func (r *Recorder) buildLocked(in Intent, samplingMs int) job {
	ev := &document.Event{
		ID:                 r.ids.Next().String(),
		DocID:              r.docID,
		Type:               document.TypeOf(in.Payload),
		TimestampMs:        time.Now().UnixMilli(),
		UserID:             in.UserID,
		SamplingIntervalMs: samplingMs,
		Payload:            in.Payload,
	}
	j := job{ev: ev, sampled: samplingMs > 0}
	if r.group == nil {
		r.group = &groupState{id: uuid.NewString()}
		ev.GroupStart = true
	}
	ev.GroupID = r.group.id
	if r.group.timer != nil {
		r.group.timer.Stop()
		r.group.timer = nil
	}
	if in.EndsGroup {
		ev.GroupEnd = true
		j.closeGroup = r.group.id
		r.group = nil
		return j
	}
	gid := r.group.id
	r.group.timer = time.AfterFunc(r.opts.GroupIdleTimeout, func() { r.idleClose(gid) })
	return j
}

// idleClose fires from the group idle timer.
func (r *Recorder) idleClose(gid string) {
	r.mu.Lock()
	if r.closed || r.group == nil || r.group.id != gid {
		r.mu.Unlock()
		return
	}
	r.group = nil
	r.senders.Add(1)
	r.mu.Unlock()
	_ = r.send(context.Background(), job{closeGroup: gid})
}

// send submits jobs to the worker, settling the senders count reserved by
// the caller even when the context cancels first.
func (r *Recorder) send(ctx context.Context, jobs ...job) error {
	for i, j := range jobs {
		select {
		case r.jobs <- j:
			r.senders.Done()
		case <-ctx.Done():
			for range jobs[i:] {
				r.senders.Done()
			}
			return ctx.Err()
		}
	}
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	ctx := context.Background()
	for j := range r.jobs {
		if j.ev != nil {
			r.runAppend(ctx, j)
		}
		if j.closeGroup != "" {
			r.finishGroup(j.closeGroup)
		}
		if j.done != nil {
			j.done <- r.loadErr()
		}
	}
}

func (r *Recorder) runAppend(ctx context.Context, j job) {
	seq, err := r.store.Append(ctx, *j.ev)
	if err != nil {
		r.setErr(err)
		r.logger.Error("append failed",
			log.Str("doc", r.docID), log.Str("event", j.ev.ID), log.Err(err))
		return
	}
	rg, ok := r.ranges[j.ev.GroupID]
	if !ok {
		rg.start = seq
	}
	rg.end = seq
	r.ranges[j.ev.GroupID] = rg
	r.obs.EventRecorded(r.docID, seq, string(j.ev.Type), j.sampled)
}

func (r *Recorder) finishGroup(gid string) {
	rg, ok := r.ranges[gid]
	delete(r.ranges, gid)
	if !ok {
		// every append in the group failed; nothing to navigate to
		return
	}
	if r.onClosed != nil {
		r.onClosed(Group{ID: gid, StartSeq: rg.start, EndSeq: rg.end})
	}
}

func (r *Recorder) setErr(err error) {
	r.errMu.Lock()
	if r.saveErr == nil {
		r.saveErr = err
	}
	r.errMu.Unlock()
}

func (r *Recorder) loadErr() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.saveErr
}

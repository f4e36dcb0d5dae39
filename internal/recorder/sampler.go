package recorder

import (
	"context"
	"sort"
	"time"

	"github.com/scribe-editor/scribe/internal/document"
)

// stream is the throttle state of one (streamID, event kind) key.
type stream struct {
	lastEmit time.Time
	pending  *Intent
	timer    *time.Timer
}

// streamKey folds the event kind into the key so a gesture touching two
// field sets of the same target samples each independently.
func streamKey(in Intent) string {
	return in.StreamID + "/" + string(document.TypeOf(in.Payload))
}

// sampleLocked applies the per-stream throttle. The first sample of a window
// is emitted immediately; later samples replace the pending value, which the
// window timer or an explicit Flush will emit. Returns emit=false when the
// intent was coalesced.
func (r *Recorder) sampleLocked(in Intent) (j job, emit bool) {
	key := streamKey(in)
	st := r.streams[key]
	if st == nil {
		st = &stream{}
		r.streams[key] = st
	}
	now := time.Now()
	if st.pending == nil && now.Sub(st.lastEmit) >= r.opts.SamplingInterval {
		st.lastEmit = now
		return r.buildLocked(in, int(r.opts.SamplingInterval/time.Millisecond)), true
	}
	cp := in
	// An explicit boundary already waiting on this stream outranks the idle
	// timer; a newer sample may replace the value but never the boundary.
	if st.pending != nil && st.pending.EndsGroup {
		cp.EndsGroup = true
	}
	st.pending = &cp
	if st.timer == nil {
		wait := r.opts.SamplingInterval - now.Sub(st.lastEmit)
		if wait < 0 {
			wait = 0
		}
		st.timer = time.AfterFunc(wait, func() { r.fireWindow(key) })
	}
	return job{}, false
}

// fireWindow runs when a sampling window elapses with a value still pending.
func (r *Recorder) fireWindow(key string) {
	r.mu.Lock()
	st := r.streams[key]
	if st != nil {
		st.timer = nil
	}
	if r.closed || st == nil || st.pending == nil {
		r.mu.Unlock()
		return
	}
	in := *st.pending
	st.pending = nil
	st.lastEmit = time.Now()
	j := r.buildLocked(in, int(r.opts.SamplingInterval/time.Millisecond))
	r.senders.Add(1)
	r.mu.Unlock()
	_ = r.send(context.Background(), j)
}

// drainPendingLocked turns every pending sampled value into a terminal
// event, in deterministic key order.
func (r *Recorder) drainPendingLocked() []job {
	keys := make([]string, 0, len(r.streams))
	for k, st := range r.streams {
		if st.pending != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var out []job
	for _, k := range keys {
		st := r.streams[k]
		in := *st.pending
		st.pending = nil
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		st.lastEmit = time.Now()
		out = append(out, r.buildLocked(in, int(r.opts.SamplingInterval/time.Millisecond)))
	}
	return out
}

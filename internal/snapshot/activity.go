package snapshot

import (
	"sync"
	"time"
)

// Activity classifies recent editing velocity.
type Activity int

const (
	ActivityIdle Activity = iota
	ActivityNormal
	ActivityBurst
)

// String returns the lowercase label.
func (a Activity) String() string {
	switch a {
	case ActivityIdle:
		return "idle"
	case ActivityNormal:
		return "normal"
	case ActivityBurst:
		return "burst"
	default:
		return "unknown"
	}
}

// Rates separating the activity classes, in events per second.
const (
	burstRate = 20.0
	idleRate  = 0.5
)

// ewmaAlpha weights the newest window sample.
const ewmaAlpha = 0.3

// classifier keeps a smoothed events/second estimate over observed head
// advances and maps it to an activity class.
type classifier struct {
	mu       sync.Mutex
	lastSeq  uint64
	lastAt   time.Time
	smoothed float64
	primed   bool
}

func newClassifier() *classifier { return &classifier{} }

// Observe notes the current head sequence. Successive calls define the
// sliding window; gaps between calls count as elapsed time with however many
// events arrived in between.
func (c *classifier) Observe(headSeq uint64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.primed {
		c.lastSeq = headSeq
		c.lastAt = now
		c.primed = true
		return
	}
	elapsed := now.Sub(c.lastAt).Seconds()
	if elapsed <= 0 {
		return
	}
	var delta float64
	if headSeq > c.lastSeq {
		delta = float64(headSeq - c.lastSeq)
	}
	rate := delta / elapsed
	c.smoothed = ewmaAlpha*rate + (1-ewmaAlpha)*c.smoothed
	c.lastSeq = headSeq
	c.lastAt = now
}

// Rate returns the smoothed events/second.
func (c *classifier) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.smoothed
}

// Class maps the smoothed rate to an activity class.
func (c *classifier) Class() Activity {
	r := c.Rate()
	switch {
	case r >= burstRate:
		return ActivityBurst
	case r <= idleRate:
		return ActivityIdle
	default:
		return ActivityNormal
	}
}

// intervalFor maps an activity class onto the adaptive trigger budget.
// Bursts pin to the floor so worst-case replay stays bounded; idle stretches
// to the ceiling.
func intervalFor(a Activity, min, max time.Duration) time.Duration {
	switch a {
	case ActivityBurst:
		return min
	case ActivityIdle:
		return max
	default:
		return min + (max-min)/4
	}
}

package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifierBurstAndIdle(t *testing.T) {
	c := newClassifier()
	base := time.Now()

	// 100 events/sec sustained: burst.
	c.Observe(0, base)
	for i := 1; i <= 10; i++ {
		c.Observe(uint64(i*100), base.Add(time.Duration(i)*time.Second))
	}
	assert.Equal(t, ActivityBurst, c.Class())

	// Long quiet stretch decays back to idle.
	now := base.Add(10 * time.Second)
	for i := 1; i <= 20; i++ {
		c.Observe(1000, now.Add(time.Duration(i)*time.Second))
	}
	assert.Equal(t, ActivityIdle, c.Class())
}

func TestClassifierModerateRate(t *testing.T) {
	c := newClassifier()
	base := time.Now()
	c.Observe(0, base)
	for i := 1; i <= 10; i++ {
		c.Observe(uint64(i*5), base.Add(time.Duration(i)*time.Second))
	}
	assert.Equal(t, ActivityNormal, c.Class())
}

func TestIntervalForBounds(t *testing.T) {
	min, max := 2*time.Second, time.Minute
	assert.Equal(t, min, intervalFor(ActivityBurst, min, max))
	assert.Equal(t, max, intervalFor(ActivityIdle, min, max))
	mid := intervalFor(ActivityNormal, min, max)
	assert.Greater(t, mid, min)
	assert.Less(t, mid, max)
}

package venom

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

type Limiter interface {
	Take(count int64) (bool, time.Duration)
}

// Bucket is a token bucket refilled with fillQuantum tokens every fillInterval.
type Bucket struct {
	mu    sync.Mutex
	clock Clock

	capacity        int64
	latestTime      time.Time
	fillInterval    time.Duration
	fillQuantum     int64
	availableTokens int64
}

func NewBucket(clock Clock, capacity int64, fillInterval time.Duration, fillQuantum int64, availableTokens int64) *Bucket {
	if fillInterval <= 0 {
		fillInterval = time.Nanosecond
	}
	if fillQuantum < 1 {
		fillQuantum = 1
	}
	if availableTokens > capacity {
		availableTokens = capacity
	}

	return &Bucket{
		clock:           clock,
		capacity:        capacity,
		latestTime:      clock.Now(),
		fillInterval:    fillInterval,
		fillQuantum:     fillQuantum,
		availableTokens: availableTokens,
	}
}

// Take consumes count tokens when available. Otherwise nothing is consumed
// and the wait until enough tokens accumulate is returned.
func (b *Bucket) Take(count int64) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	if ticks := int64(now.Sub(b.latestTime) / b.fillInterval); ticks > 0 {
		b.availableTokens += ticks * b.fillQuantum
		b.latestTime = b.latestTime.Add(time.Duration(ticks) * b.fillInterval)
		if b.availableTokens > b.capacity {
			b.availableTokens = b.capacity
		}
	}

	if b.availableTokens >= count {
		b.availableTokens -= count
		return true, 0
	}

	missing := count - b.availableTokens
	ticksNeeded := (missing + b.fillQuantum - 1) / b.fillQuantum
	ready := b.latestTime.Add(time.Duration(ticksNeeded) * b.fillInterval)
	return false, ready.Sub(now)
}

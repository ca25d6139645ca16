// Package ratelimit counts requests per client token inside a trailing
// time window. State is process local and is lost on restart.
package ratelimit

import (
	"errors"
	"math"
	"sync"
	"time"
)

var ErrLimitExceeded = errors.New("rate limit exceeded")

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

type Options struct {
	// Interval is the length of the trailing window.
	Interval time.Duration
	// UniqueTokenPerInterval is the soft cap on tracked tokens.
	UniqueTokenPerInterval int
	Clock                  Clock
}

type Limiter struct {
	mu         sync.Mutex
	interval   time.Duration
	maxTokens  int
	now        Clock
	timestamps map[string][]time.Time
	// order keeps first-insertion order of tokens for eviction.
	order []string
}

func New(opts Options) *Limiter {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.UniqueTokenPerInterval <= 0 {
		opts.UniqueTokenPerInterval = 500
	}
	return &Limiter{
		interval:   opts.Interval,
		maxTokens:  opts.UniqueTokenPerInterval,
		now:        opts.Clock,
		timestamps: make(map[string][]time.Time),
	}
}

// Check records a hit for token when fewer than limit hits fall inside the
// window, and returns ErrLimitExceeded without recording otherwise.
func (l *Limiter) Check(limit int, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.interval)

	prev, tracked := l.timestamps[token]
	valid := prev[:0:0]
	for _, ts := range prev {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= limit {
		return ErrLimitExceeded
	}

	l.timestamps[token] = append(valid, now)
	if !tracked {
		l.order = append(l.order, token)
	}

	if len(l.timestamps) > l.maxTokens {
		l.evict()
	}
	return nil
}

// evict drops the oldest ~10% of tokens by first insertion, regardless of
// how recently they were used.
func (l *Limiter) evict() {
	n := int(math.Ceil(float64(len(l.timestamps)) * 0.1))
	if n > len(l.order) {
		n = len(l.order)
	}
	for _, token := range l.order[:n] {
		delete(l.timestamps, token)
	}
	l.order = append([]string(nil), l.order[n:]...)
}

// Tracked returns how many tokens currently hold state.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timestamps)
}

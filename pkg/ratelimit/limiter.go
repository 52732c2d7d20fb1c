package ratelimit

import (
	"context"
	"sync"
	"time"

	errs "icpscout/pkg/errors"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request of the given weight is allowed right now
	Allow(weight int) bool
	// Acquire blocks until the request is admitted or ctx is cancelled
	Acquire(ctx context.Context, weight int) error
	// Reset resets the rate limiter state
	Reset()
}

// SlidingWindow implements a sliding window rate limiter. Each admitted
// unit of weight records a timestamp; a request is admitted once enough
// old timestamps have aged out of the window. Blocked callers are admitted
// in arrival order.
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	turnstile   chan struct{}
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	sw := &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
		turnstile:   make(chan struct{}, 1),
	}
	sw.turnstile <- struct{}{}
	return sw
}

// Allow checks if a request of the given weight can proceed without waiting
func (sw *SlidingWindow) Allow(weight int) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	return sw.tryAdmit(weight, time.Now())
}

// Acquire blocks until the window has room for the given weight or the
// context is cancelled. Waiters hold a turnstile token while they wait, so
// freed capacity goes to the caller that has been waiting longest rather
// than whichever goroutine wakes first. A weight above the window ceiling
// can never be admitted and fails immediately.
func (sw *SlidingWindow) Acquire(ctx context.Context, weight int) error {
	if weight > sw.maxRequests {
		return errs.Newf(errs.ErrorTypeConfig,
			"request weight %d exceeds the window ceiling of %d", weight, sw.maxRequests)
	}

	select {
	case <-sw.turnstile:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { sw.turnstile <- struct{}{} }()

	for {
		sw.mu.Lock()
		now := time.Now()
		if sw.tryAdmit(weight, now) {
			sw.mu.Unlock()
			return nil
		}
		wait := sw.nextFreeIn(weight, now)
		sw.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// tryAdmit records the request if the window has room. Caller holds mu.
func (sw *SlidingWindow) tryAdmit(weight int, now time.Time) bool {
	if weight <= 0 {
		return true
	}
	sw.cleanOldRequests(now)

	if len(sw.requests)+weight > sw.maxRequests {
		return false
	}
	for i := 0; i < weight; i++ {
		sw.requests = append(sw.requests, now)
	}
	return true
}

// nextFreeIn returns how long until enough entries age out for the given
// weight. Caller holds mu and has already cleaned old requests.
func (sw *SlidingWindow) nextFreeIn(weight int, now time.Time) time.Duration {
	need := len(sw.requests) + weight - sw.maxRequests
	if need <= 0 || len(sw.requests) == 0 {
		return time.Millisecond
	}
	if need > len(sw.requests) {
		need = len(sw.requests)
	}
	// The need-th oldest entry must expire before this weight fits.
	wait := sw.windowSize - now.Sub(sw.requests[need-1])
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}

// cleanOldRequests removes requests outside the sliding window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	// Find the first request that's within the window
	i := 0
	for i < len(sw.requests) && sw.requests[i].Before(cutoff) {
		i++
	}

	// Keep only requests within the window
	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}

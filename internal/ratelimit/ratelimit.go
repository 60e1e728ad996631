// Package ratelimit provides token bucket and rolling window limiters.
// The advisor uses them to pace embedding calls and to cap chat turns per user.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket. Tokens accrue at rate per second up to burst and
// each admitted request spends one. It is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	tokens float64
	burst  float64
	rate   float64
	last   time.Time
	now    func() time.Time
}

// New creates a full bucket holding burst tokens that refills at rate
// tokens per second.
//
//	// Ten chat turns in a burst, then one every five seconds
//	limiter := ratelimit.New(10, 0.2)
func New(burst, rate float64) *Limiter {
	return newLimiter(burst, burst, rate, time.Now)
}

// NewPerMinute paces rpm requests per minute. The bucket starts with one
// second of tokens and holds at most two.
func NewPerMinute(rpm float64) *Limiter {
	perSecond := rpm / 60
	return newLimiter(perSecond, 2*perSecond, perSecond, time.Now)
}

func newLimiter(initial, burst, rate float64, now func() time.Time) *Limiter {
	return &Limiter{
		tokens: initial,
		burst:  burst,
		rate:   rate,
		last:   now(),
		now:    now,
	}
}

// advance credits tokens earned since the last call. mu must be held.
func (l *Limiter) advance() {
	t := l.now()
	if elapsed := t.Sub(l.last).Seconds(); elapsed > 0 {
		l.tokens = min(l.burst, l.tokens+elapsed*l.rate)
	}
	l.last = t
}

// deficit returns how long until one token is available and false when the
// bucket never refills. mu must be held.
func (l *Limiter) deficit() (time.Duration, bool) {
	if l.tokens >= 1 {
		return 0, true
	}
	if l.rate <= 0 {
		return 0, false
	}
	return time.Duration((1 - l.tokens) / l.rate * float64(time.Second)), true
}

// Allow spends a token if one is available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// Check reports whether a token is available without spending it.
// Checking several limits atomically requires the caller to hold one lock
// around every Check and the Consume calls that follow.
func (l *Limiter) Check() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	return l.tokens >= 1
}

// Consume spends a token if one is available.
func (l *Limiter) Consume() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	if l.tokens >= 1 {
		l.tokens--
	}
}

// Wait blocks until a token is spent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.advance()
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		d, ok := l.deficit()
		l.mu.Unlock()

		if !ok {
			<-ctx.Done()
			return ctx.Err()
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available returns the current token count.
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	return l.tokens
}

// IsFull reports whether the bucket has refilled completely, which marks an
// idle key.
func (l *Limiter) IsFull() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	return l.tokens >= l.burst
}

// timeUntilToken returns how long until one token is available, or zero
// when the bucket has one now or never refills.
func (l *Limiter) timeUntilToken() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	d, _ := l.deficit()
	return d
}

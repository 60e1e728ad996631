package ratelimit

import (
	"sync"
	"time"
)

// WindowCounter caps requests over a rolling window. The rolling count is
// approximated from two fixed windows, weighting the previous one by the part
// of it that still overlaps:
//
//	count = curr + prev * (window - elapsed) / window
//
// A nil counter is unlimited.
type WindowCounter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	start  time.Time
	curr   int
	prev   int
	now    func() time.Time
}

// NewWindowCounter allows limit requests per window. It returns nil, an
// unlimited counter, when limit is not positive.
func NewWindowCounter(limit int, window time.Duration) *WindowCounter {
	return newWindowCounter(limit, window, time.Now)
}

func newWindowCounter(limit int, window time.Duration, now func() time.Time) *WindowCounter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	return &WindowCounter{
		limit:  limit,
		window: window,
		start:  now(),
		now:    now,
	}
}

// Allow counts a request if the limit allows it.
func (c *WindowCounter) Allow() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.weighted() >= float64(c.limit) {
		return false
	}
	c.curr++
	return true
}

// Check reports whether a request would be allowed without counting it.
func (c *WindowCounter) Check() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weighted() < float64(c.limit)
}

// Consume counts a request if the limit still allows it.
func (c *WindowCounter) Consume() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.weighted() < float64(c.limit) {
		c.curr++
	}
}

// Count returns the weighted request count of the rolling window.
func (c *WindowCounter) Count() float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weighted()
}

// Remaining returns the approximate quota left, or -1 when unlimited.
func (c *WindowCounter) Remaining() int {
	if c == nil {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return max(0, int(float64(c.limit)-c.weighted()))
}

// RetryAfter returns how long until a request would be allowed if no more
// are counted meanwhile. It is zero when one is allowed now.
func (c *WindowCounter) RetryAfter() time.Duration {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.weighted() < float64(c.limit) {
		return 0
	}
	left := c.start.Add(c.window).Sub(c.now())
	limit := float64(c.limit)
	if c.curr < c.limit {
		// The previous window's weight decays below the gap before this
		// window ends.
		gap := float64(c.window) * (limit - float64(c.curr)) / float64(c.prev)
		return max(left-time.Duration(gap), 0)
	}
	// After rotation the current count becomes the decaying previous one.
	return left + time.Duration(float64(c.window)*(1-limit/float64(c.curr)))
}

// weighted rotates expired windows and returns the rolling count.
// mu must be held.
func (c *WindowCounter) weighted() float64 {
	elapsed := c.now().Sub(c.start)
	if elapsed >= c.window {
		passed := elapsed / c.window
		if passed == 1 {
			c.prev = c.curr
		} else {
			c.prev = 0
		}
		c.curr = 0
		c.start = c.start.Add(passed * c.window)
		elapsed -= passed * c.window
	}

	overlap := float64(c.window-elapsed) / float64(c.window)
	overlap = min(max(overlap, 0), 1)
	return float64(c.curr) + float64(c.prev)*overlap
}

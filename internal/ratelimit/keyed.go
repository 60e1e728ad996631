package ratelimit

import (
	"sync"
	"time"

	"github.com/garyellow/course-advisor-go/internal/metrics"
)

const dailyWindow = 24 * time.Hour

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	Name          string  // metrics label, e.g. "user"
	Burst         float64 // bucket capacity
	RefillRate    float64 // tokens per second
	DailyLimit    int     // rolling 24h cap per key, 0 disables it
	CleanupPeriod time.Duration
	Metrics       *metrics.Metrics

	now func() time.Time
}

// KeyedLimiter gives every key (a user id in the advisor) its own token
// bucket and, optionally, a rolling daily cap. Keys that have gone idle are
// forgotten on each cleanup tick.
type KeyedLimiter struct {
	cfg KeyedConfig

	mu   sync.Mutex
	keys map[string]*keyState

	stop     chan struct{}
	stopOnce sync.Once
}

// keyState pairs the two limits of one key. mu makes the check across both
// and the spend that follows a single step.
type keyState struct {
	mu     sync.Mutex
	bucket *Limiter
	daily  *WindowCounter
}

// NewKeyedLimiter creates a limiter and, when CleanupPeriod is set, starts
// its cleanup goroutine. Call Stop to end it.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.now == nil {
		cfg.now = time.Now
	}
	kl := &KeyedLimiter{
		cfg:  cfg,
		keys: make(map[string]*keyState),
		stop: make(chan struct{}),
	}
	if cfg.CleanupPeriod > 0 {
		go kl.cleanup(cfg.CleanupPeriod)
	}
	return kl
}

// Allow admits one request for key if both its bucket and its daily cap
// have room, spending from both. When it refuses, wait estimates how long
// the caller should hold off. A nil limiter or empty key is unlimited.
func (kl *KeyedLimiter) Allow(key string) (ok bool, wait time.Duration) {
	if kl == nil || key == "" {
		return true, 0
	}

	st := kl.state(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	bucketOK, dailyOK := st.bucket.Check(), st.daily.Check()
	if bucketOK && dailyOK {
		st.bucket.Consume()
		st.daily.Consume()
		return true, 0
	}

	kl.cfg.Metrics.RecordRateLimiterDrop(kl.cfg.Name)
	if !bucketOK {
		wait = st.bucket.timeUntilToken()
	}
	if !dailyOK {
		wait = max(wait, st.daily.RetryAfter())
	}
	return false, wait
}

func (kl *KeyedLimiter) state(key string) *keyState {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	st, ok := kl.keys[key]
	if !ok {
		st = &keyState{
			bucket: newLimiter(kl.cfg.Burst, kl.cfg.Burst, kl.cfg.RefillRate, kl.cfg.now),
			daily:  newWindowCounter(kl.cfg.DailyLimit, dailyWindow, kl.cfg.now),
		}
		kl.keys[key] = st
		kl.cfg.Metrics.SetRateLimiterUsers(len(kl.keys))
	}
	return st
}

func (kl *KeyedLimiter) lookup(key string) (*keyState, bool) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	st, ok := kl.keys[key]
	return st, ok
}

// Available returns the tokens key could spend now.
func (kl *KeyedLimiter) Available(key string) float64 {
	if st, ok := kl.lookup(key); ok {
		return st.bucket.Available()
	}
	return kl.cfg.Burst
}

// DailyRemaining returns what is left of key's daily cap, or -1 without one.
func (kl *KeyedLimiter) DailyRemaining(key string) int {
	if kl.cfg.DailyLimit <= 0 {
		return -1
	}
	if st, ok := kl.lookup(key); ok {
		return st.daily.Remaining()
	}
	return kl.cfg.DailyLimit
}

// Len returns the number of tracked keys.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.keys)
}

// sweep forgets keys with a full bucket and no daily usage, which is the
// state a new key starts in.
func (kl *KeyedLimiter) sweep() int {
	kl.mu.Lock()
	for key, st := range kl.keys {
		if st.bucket.IsFull() && st.daily.Count() == 0 {
			delete(kl.keys, key)
		}
	}
	n := len(kl.keys)
	kl.mu.Unlock()

	kl.cfg.Metrics.SetRateLimiterUsers(n)
	return n
}

func (kl *KeyedLimiter) cleanup(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-kl.stop:
			return
		case <-ticker.C:
			kl.sweep()
		}
	}
}

// Stop ends the cleanup goroutine. It may be called more than once.
func (kl *KeyedLimiter) Stop() {
	if kl == nil {
		return
	}
	kl.stopOnce.Do(func() { close(kl.stop) })
}

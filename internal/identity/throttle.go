package identity

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ThrottleConfig contains per-account login throttling settings.
type ThrottleConfig struct {
	// Burst is how many failed attempts an account may make back to back.
	Burst int
	// Interval is how often one attempt is refilled.
	Interval time.Duration
}

// LoginThrottle limits login attempts per account with a token bucket per key.
// Safe for concurrent use.
type LoginThrottle struct {
	mu       sync.Mutex
	limiters map[string]*throttleEntry
	every    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	sweepAt  time.Time
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginThrottle creates a throttle. Non-positive values fall back to 5
// attempts refilled once a minute.
func NewLoginThrottle(cfg ThrottleConfig) *LoginThrottle {
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &LoginThrottle{
		limiters: make(map[string]*throttleEntry),
		every:    rate.Every(cfg.Interval),
		burst:    cfg.Burst,
		// A bucket idle this long is full again and can be forgotten.
		idle: cfg.Interval * time.Duration(cfg.Burst),
		now:  time.Now,
	}
}

// Allow consumes one attempt for key and reports whether it was available.
func (t *LoginThrottle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweep(now)

	e, ok := t.limiters[key]
	if !ok {
		e = &throttleEntry{limiter: rate.NewLimiter(t.every, t.burst)}
		t.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Reset forgets key, restoring its full allowance. Called after a successful login.
func (t *LoginThrottle) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.limiters, key)
}

func (t *LoginThrottle) sweep(now time.Time) {
	if now.Before(t.sweepAt) {
		return
	}
	for k, e := range t.limiters {
		if now.Sub(e.lastSeen) >= t.idle {
			delete(t.limiters, k)
		}
	}
	t.sweepAt = now.Add(t.idle)
}

func (t *LoginThrottle) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

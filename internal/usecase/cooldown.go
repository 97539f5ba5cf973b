package usecase

import (
	"sync"
	"time"
)

// Cooldown is the process-wide pause state tripped by gateway quota
// exhaustion. The rate limit is enforced against a single shared
// credential, so one cooldown covers every feed. It is initialized at
// process start and only resets with the process.
type Cooldown struct {
	mu    sync.Mutex
	until time.Time
}

// Trip suspends gateway calls for the given interval.
func (c *Cooldown) Trip(now time.Time, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := now.Add(d)
	if deadline.After(c.until) {
		c.until = deadline
	}
}

// Active reports whether gateway calls are still suspended.
func (c *Cooldown) Active(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Before(c.until)
}

// Remaining returns how long the suspension still lasts, zero when idle.
func (c *Cooldown) Remaining(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !now.Before(c.until) {
		return 0
	}
	return c.until.Sub(now)
}

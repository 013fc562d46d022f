package ratelimit

import "time"

// Cooldown allows one event per key per window on top of a Store.
type Cooldown struct {
	store  Store
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewCooldown(store Store, prefix string, window time.Duration) *Cooldown {
	return &Cooldown{
		store:  store,
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

// SetClock replaces time.Now; it should match the clock of the backing store.
func (c *Cooldown) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Cooldown) Window() time.Duration {
	return c.window
}

// Acquire claims the window for key. When the key is still cooling down it
// returns false with the time left.
func (c *Cooldown) Acquire(key string) (time.Duration, bool) {
	if c == nil || c.store == nil || c.window <= 0 {
		return 0, true
	}

	now := c.now()
	k := c.prefix + key
	if c.store.Increment(k, now.Add(c.window)) == 1 {
		return 0, true
	}

	_, resetTime, exists := c.store.Get(k)
	if !exists || !now.Before(resetTime) {
		c.store.Set(k, 1, now.Add(c.window))
		return 0, true
	}
	return resetTime.Sub(now), false
}

// Remaining reports the time left without claiming anything.
func (c *Cooldown) Remaining(key string) time.Duration {
	if c == nil || c.store == nil || c.window <= 0 {
		return 0
	}
	_, resetTime, exists := c.store.Get(c.prefix + key)
	if !exists {
		return 0
	}
	return max(resetTime.Sub(c.now()), 0)
}

// Release gives the window back, e.g. after a failed send.
func (c *Cooldown) Release(key string) {
	if c == nil || c.store == nil {
		return
	}
	c.store.Reset(c.prefix + key)
}

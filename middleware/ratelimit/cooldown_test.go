package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCooldown(window time.Duration) (*Cooldown, *fakeClock) {
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))
	cd := NewCooldown(store, "otp_resend:", window)
	cd.SetClock(clock.Now)
	return cd, clock
}

func TestCooldown_Acquire(t *testing.T) {
	cd, clock := newTestCooldown(time.Minute)

	remaining, ok := cd.Acquire("a@example.com")
	assert.True(t, ok)
	assert.Zero(t, remaining)

	clock.Advance(20 * time.Second)
	remaining, ok = cd.Acquire("a@example.com")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, remaining)
	assert.Equal(t, 40*time.Second, cd.Remaining("a@example.com"))

	_, ok = cd.Acquire("b@example.com")
	assert.True(t, ok, "keys are independent")

	clock.Advance(40 * time.Second)
	_, ok = cd.Acquire("a@example.com")
	assert.True(t, ok)
}

func TestCooldown_Release(t *testing.T) {
	cd, _ := newTestCooldown(time.Minute)

	_, ok := cd.Acquire("a@example.com")
	assert.True(t, ok)

	cd.Release("a@example.com")
	assert.Zero(t, cd.Remaining("a@example.com"))

	_, ok = cd.Acquire("a@example.com")
	assert.True(t, ok)
}

func TestCooldown_Disabled(t *testing.T) {
	cd, _ := newTestCooldown(0)

	for i := 0; i < 3; i++ {
		_, ok := cd.Acquire("a@example.com")
		assert.True(t, ok)
	}

	var nilCooldown *Cooldown
	_, ok := nilCooldown.Acquire("a@example.com")
	assert.True(t, ok)
	assert.Zero(t, nilCooldown.Remaining("a@example.com"))
	nilCooldown.Release("a@example.com")
}

func TestCooldown_ConcurrentAcquireGrantsOnce(t *testing.T) {
	cd, _ := newTestCooldown(time.Minute)

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := cd.Acquire("a@example.com"); ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), granted.Load())
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", RetryAfterSeconds(0))
	assert.Equal(t, "1", RetryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, "41", RetryAfterSeconds(40*time.Second+time.Millisecond))
	assert.Equal(t, "60", RetryAfterSeconds(time.Minute))
}

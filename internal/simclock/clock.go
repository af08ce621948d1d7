package simclock

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock is the simulation timer. It advances a monotonically increasing
// simulation-time value by a fixed step once per wall-clock interval and
// hands each new value to the registered callback. The loop is cooperative:
// it runs until its context is cancelled and holds no timers afterwards.
type Clock struct {
	interval time.Duration
	step     int64 // milliseconds added per tick
	now      int64 // atomic, milliseconds
	onTick   func(nowMillis int64)
}

// New creates a clock that adds step per interval. The callback runs on the
// clock goroutine, one invocation at a time.
func New(interval, step time.Duration, onTick func(nowMillis int64)) *Clock {
	return &Clock{
		interval: interval,
		step:     step.Milliseconds(),
		onTick:   onTick,
	}
}

// Now returns the current simulation time in milliseconds.
func (c *Clock) Now() int64 {
	return atomic.LoadInt64(&c.now)
}

// Run drives the tick loop until ctx is cancelled. Ticks may coalesce if the
// host stalls, but the reported time never moves backwards.
func (c *Clock) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := atomic.AddInt64(&c.now, c.step)
			if c.onTick != nil {
				c.onTick(now)
			}
		}
	}
}

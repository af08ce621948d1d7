package simclock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/firewatch/internal/simclock"
)

func TestClockTicks(t *testing.T) {
	t.Run("should report strictly increasing simulation time", func(t *testing.T) {
		var mu sync.Mutex
		var ticks []int64

		clock := simclock.New(5*time.Millisecond, time.Second, func(now int64) {
			mu.Lock()
			ticks = append(ticks, now)
			mu.Unlock()
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- clock.Run(ctx) }()

		time.Sleep(60 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("clock did not stop after cancel")
		}

		mu.Lock()
		defer mu.Unlock()
		require.NotEmpty(t, ticks)
		for i := 1; i < len(ticks); i++ {
			assert.Greater(t, ticks[i], ticks[i-1])
		}
		assert.Equal(t, int64(1000), ticks[0])
		assert.GreaterOrEqual(t, clock.Now(), ticks[len(ticks)-1])
	})

	t.Run("should start at zero before running", func(t *testing.T) {
		clock := simclock.New(time.Second, time.Second, nil)
		assert.Equal(t, int64(0), clock.Now())
	})
}

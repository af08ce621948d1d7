package detect_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/smartcity/firewatch/internal/detect"
)

func TestMonitorInitialState(t *testing.T) {
	monitor := detect.NewMonitor(func(ctx context.Context) bool { return true }, time.Second)

	assert.False(t, monitor.Reachable())
	assert.False(t, monitor.Degraded())
	assert.False(t, monitor.ServiceBacked())
	assert.Equal(t, detect.ModeSimulated, monitor.Mode())
}

func TestMonitorProbe(t *testing.T) {
	t.Run("successful probe selects service mode", func(t *testing.T) {
		monitor := detect.NewMonitor(func(ctx context.Context) bool { return true }, time.Second)

		assert.True(t, monitor.Probe(context.Background()))
		assert.True(t, monitor.Reachable())
		assert.True(t, monitor.ServiceBacked())
		assert.Equal(t, detect.ModeService, monitor.Mode())
	})

	t.Run("one false probe degrades for good", func(t *testing.T) {
		healthy := false
		monitor := detect.NewMonitor(func(ctx context.Context) bool { return healthy }, time.Second)

		monitor.Probe(context.Background())
		assert.True(t, monitor.Degraded())
		assert.Equal(t, detect.ModeSimulated, monitor.Mode())

		// Service comes back, reachability recovers, mode does not.
		healthy = true
		monitor.Probe(context.Background())
		assert.True(t, monitor.Reachable())
		assert.True(t, monitor.Degraded())
		assert.Equal(t, detect.ModeSimulated, monitor.Mode())
	})
}

func TestMonitorRecordFailure(t *testing.T) {
	t.Run("call failure trips the latch once", func(t *testing.T) {
		monitor := detect.NewMonitor(func(ctx context.Context) bool { return true }, time.Second)
		monitor.Probe(context.Background())

		fired := 0
		monitor.OnDegrade(func() { fired++ })

		monitor.RecordFailure()
		monitor.RecordFailure()

		assert.True(t, monitor.Degraded())
		assert.False(t, monitor.Reachable(), "failed call supersedes the last probe")
		assert.Equal(t, 1, fired)
	})

	t.Run("explicit reset re-enables the service path", func(t *testing.T) {
		monitor := detect.NewMonitor(func(ctx context.Context) bool { return true }, time.Second)
		monitor.Probe(context.Background())
		monitor.RecordFailure()
		assert.False(t, monitor.ServiceBacked())

		monitor.Reset()
		assert.False(t, monitor.ServiceBacked(), "needs a fresh probe after the failure")

		monitor.Probe(context.Background())
		assert.True(t, monitor.ServiceBacked())
		assert.Equal(t, detect.ModeService, monitor.Mode())
	})
}

func TestMonitorRun(t *testing.T) {
	t.Run("probes periodically until cancelled", func(t *testing.T) {
		probes := make(chan struct{}, 16)
		monitor := detect.NewMonitor(func(ctx context.Context) bool {
			select {
			case probes <- struct{}{}:
			default:
			}
			return true
		}, 5*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- monitor.Run(ctx) }()

		// Initial probe plus at least one periodic probe.
		for i := 0; i < 2; i++ {
			select {
			case <-probes:
			case <-time.After(time.Second):
				t.Fatal("expected probe did not happen")
			}
		}

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("monitor did not stop after cancel")
		}
	})
}

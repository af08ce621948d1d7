package detect

import (
	"context"
	"sync/atomic"
	"time"
)

// Mode identifies the orchestrator's active evaluation path.
type Mode int32

const (
	ModeService Mode = iota
	ModeSimulated
)

func (m Mode) String() string {
	switch m {
	case ModeService:
		return "service"
	case ModeSimulated:
		return "simulated"
	default:
		return "unknown"
	}
}

// Monitor tracks detection-service availability. Reachability follows the
// latest evidence, probe or failed call, while the degraded latch is one-way:
// any recorded
// failure or false probe trips it for the rest of the session until an
// explicit Reset. The probe keeps running either way, so reachability stays
// current even while degraded.
type Monitor struct {
	probe    func(ctx context.Context) bool
	interval time.Duration

	reachable int32 // atomic
	degraded  int32 // atomic, one-way latch

	onDegrade func()
	onProbe   func(ok bool)
}

// NewMonitor creates a monitor around a health probe. Initial state is
// unreachable and not degraded.
func NewMonitor(probe func(ctx context.Context) bool, interval time.Duration) *Monitor {
	return &Monitor{
		probe:    probe,
		interval: interval,
	}
}

// OnDegrade registers a callback fired once per trip of the degraded latch.
// Must be set before Run.
func (m *Monitor) OnDegrade(fn func()) {
	m.onDegrade = fn
}

// OnProbe registers a callback fired after every probe with its outcome.
// Must be set before Run.
func (m *Monitor) OnProbe(fn func(ok bool)) {
	m.onProbe = fn
}

// Reachable reports the latest probe outcome.
func (m *Monitor) Reachable() bool {
	return atomic.LoadInt32(&m.reachable) == 1
}

// Degraded reports whether the latch has tripped.
func (m *Monitor) Degraded() bool {
	return atomic.LoadInt32(&m.degraded) == 1
}

// ServiceBacked reports whether the service evaluation path is selectable:
// reachable and never failed since the last Reset.
func (m *Monitor) ServiceBacked() bool {
	return m.Reachable() && !m.Degraded()
}

// Mode returns the evaluation path implied by the current availability state.
func (m *Monitor) Mode() Mode {
	if m.ServiceBacked() {
		return ModeService
	}
	return ModeSimulated
}

// RecordFailure trips the degraded latch and marks the service unreachable.
// Called by the orchestrator on any failed detect or scan call; a failed call
// is fresher evidence than the last probe, so the reachability flag follows
// it until the next probe says otherwise.
func (m *Monitor) RecordFailure() {
	atomic.StoreInt32(&m.reachable, 0)
	if atomic.CompareAndSwapInt32(&m.degraded, 0, 1) {
		if m.onDegrade != nil {
			m.onDegrade()
		}
	}
}

// Reset clears the degraded latch. This is the explicit re-enable step; the
// monitor never resumes the service path on its own.
func (m *Monitor) Reset() {
	atomic.StoreInt32(&m.degraded, 0)
}

// Probe runs a single health check and folds the result into the state.
func (m *Monitor) Probe(ctx context.Context) bool {
	ok := m.probe(ctx)
	if ok {
		atomic.StoreInt32(&m.reachable, 1)
	} else {
		atomic.StoreInt32(&m.reachable, 0)
		m.RecordFailure()
	}
	if m.onProbe != nil {
		m.onProbe(ok)
	}
	return ok
}

// Run probes immediately and then on every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.Probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

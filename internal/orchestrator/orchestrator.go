package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smartcity/firewatch/internal/alerts"
	"github.com/smartcity/firewatch/internal/cameras"
	"github.com/smartcity/firewatch/internal/detect"
	"github.com/smartcity/firewatch/internal/simclock"
	"github.com/smartcity/firewatch/pkg/messaging"
	"github.com/smartcity/firewatch/pkg/metrics"
)

var (
	// ErrServiceUnavailable is returned by service-backed commands while the
	// evaluation path is simulated.
	ErrServiceUnavailable = errors.New("detection service unavailable")

	// ErrUnknownAlert is returned when a command references an alert id the
	// ledger has never seen.
	ErrUnknownAlert = errors.New("unknown alert")
)

// Detector is the detection gateway as the orchestrator consumes it.
type Detector interface {
	Detect(ctx context.Context, imageRef string) (*detect.Result, error)
	ScanAll(ctx context.Context) (*detect.ScanResult, error)
	HealthCheck(ctx context.Context) bool
}

// Publisher emits domain events to interested consumers. May be nil.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Config holds orchestrator timing parameters.
type Config struct {
	TickInterval   time.Duration
	TickStep       time.Duration
	ProbeInterval  time.Duration
	MatchTolerance time.Duration
	Seed           int64 // rng seed for simulated confidence; 0 means time-based
}

// Snapshot is the read-only composed state handed to consumers. Every slice
// and struct is a copy; mutating a snapshot never touches live state.
type Snapshot struct {
	Cameras          []cameras.Camera `json:"cameras"`
	Alerts           []alerts.Alert   `json:"alerts"`
	ActiveAlerts     []alerts.Alert   `json:"active_alerts"`
	SelectedAlert    *alerts.Alert    `json:"selected_alert,omitempty"`
	ResponsesSent    int64            `json:"responses_sent"`
	Mode             string           `json:"mode"`
	ServiceReachable bool             `json:"service_reachable"`
	SimulationTime   int64            `json:"simulation_time_ms"`
}

// Orchestrator owns the camera registry and alert ledger and serializes
// every state transition: clock ticks, probe results, service responses and
// operator commands all mutate state through its methods only. Service calls
// happen outside the lock, so the clock keeps ticking while one is
// outstanding, and evaluation always reads the state as of the response.
type Orchestrator struct {
	registry  *cameras.Registry
	ledger    *alerts.Ledger
	detector  Detector
	monitor   *detect.Monitor
	clock     *simclock.Clock
	publisher Publisher

	tolerance int64 // ms

	mu            sync.Mutex
	selectedAlert string
	responsesSent int64
	rng           *rand.Rand

	onChange []func(Snapshot)

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New wires an orchestrator around its collaborators. publisher may be nil.
func New(cfg Config, registry *cameras.Registry, ledger *alerts.Ledger, detector Detector, publisher Publisher) *Orchestrator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	o := &Orchestrator{
		registry:  registry,
		ledger:    ledger,
		detector:  detector,
		publisher: publisher,
		tolerance: cfg.MatchTolerance.Milliseconds(),
		rng:       rand.New(rand.NewSource(seed)),
	}

	o.clock = simclock.New(cfg.TickInterval, cfg.TickStep, o.Tick)
	o.monitor = detect.NewMonitor(detector.HealthCheck, cfg.ProbeInterval)
	o.monitor.OnDegrade(o.handleDegrade)
	o.monitor.OnProbe(func(ok bool) {
		if ok {
			metrics.ServiceReachable.Set(1)
		} else {
			metrics.ServiceReachable.Set(0)
		}
	})

	return o
}

// OnChange registers a state observer. Observers run after every
// state-changing transition with a fresh snapshot. Register before Start.
func (o *Orchestrator) OnChange(fn func(Snapshot)) {
	o.onChange = append(o.onChange, fn)
}

// Start launches the simulation clock and the health probe loop. Both stop
// together on Stop or when ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return o.clock.Run(gctx) })
	g.Go(func() error { return o.monitor.Run(gctx) })
	o.group = g

	slog.Info("orchestrator started",
		"cameras", len(o.registry.All()),
		"mode", o.monitor.Mode().String())
}

// Stop cancels the background loops and waits for them to exit.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	if o.group != nil {
		o.group.Wait()
	}
	slog.Info("orchestrator stopped")
}

// Tick runs the simulated evaluation for one clock step. In service mode the
// tick only advances the reported time; scripted fire windows are a fallback
// path, not a second source of truth.
func (o *Orchestrator) Tick(now int64) {
	metrics.SimulationTime.Set(float64(now) / 1000)

	if o.monitor.Mode() != detect.ModeSimulated {
		return
	}

	o.mu.Lock()
	changed := false
	for _, cam := range o.registry.All() {
		if cam.Status == cameras.StatusFire {
			continue
		}
		for _, window := range cam.FireWindows {
			if abs(now-window) >= o.tolerance {
				continue
			}
			// A window can straddle two ticks; the active-alert guard keeps
			// the second tick from firing again.
			if o.ledger.HasActive(cam.ID) {
				break
			}

			confidence := 0.8 + o.rng.Float64()*0.2
			alert, err := o.ledger.Create(cam, confidence)
			if err != nil {
				break
			}
			o.registry.SetStatus(cam.ID, cameras.StatusFire, confidence)
			changed = true

			slog.Info("simulated fire detected",
				"camera_id", cam.ID,
				"alert_id", alert.ID,
				"confidence", confidence,
				"simulation_time_ms", now)
			metrics.AlertsCreated.Inc()
			o.publishAlert(messaging.SubjectAlertCreated, alert)
			break
		}
	}
	o.mu.Unlock()

	if changed {
		o.notify()
	}
}

// RequestScan asks the detection service for a fleet-wide evaluation and
// applies the response. Cameras absent from the response are unchanged. Any
// service failure trips the degrade latch.
func (o *Orchestrator) RequestScan(ctx context.Context) (Snapshot, error) {
	if !o.monitor.ServiceBacked() {
		return o.Snapshot(), ErrServiceUnavailable
	}

	metrics.ScanRequests.Inc()
	result, err := o.detector.ScanAll(ctx)
	if err != nil {
		o.recordServiceFailure("scan", err)
		return o.Snapshot(), err
	}

	o.mu.Lock()
	changed := o.applyScanLocked(result)
	o.mu.Unlock()

	o.publish(messaging.SubjectScanCompleted, messaging.ScanEvent{
		CamerasScanned: len(result.Cameras),
		FiresDetected:  result.FireDetectedCount,
		Timestamp:      time.Now(),
	})
	if changed {
		o.notify()
	}
	return o.Snapshot(), nil
}

// applyScanLocked folds a scan response into the camera and alert state.
// The detection service governs camera status inputs; the ledger governs the
// human workflow. A reported downgrade therefore never resolves an alert,
// and a camera with an active alert stays in fire status until an operator
// resolves it.
func (o *Orchestrator) applyScanLocked(result *detect.ScanResult) bool {
	changed := false
	for _, reading := range result.Cameras {
		cam, ok := o.registry.Get(reading.CameraID)
		if !ok {
			slog.Warn("scan result for unknown camera", "camera_id", reading.CameraID)
			continue
		}

		switch cameras.Status(reading.Status) {
		case cameras.StatusFire:
			if o.ledger.HasActive(cam.ID) {
				if o.registry.SetStatus(cam.ID, cameras.StatusFire, reading.Confidence) {
					changed = true
				}
				continue
			}
			alert, err := o.ledger.Create(cam, reading.Confidence)
			if err != nil {
				continue
			}
			o.registry.SetStatus(cam.ID, cameras.StatusFire, reading.Confidence)
			changed = true

			slog.Info("service fire detected",
				"camera_id", cam.ID,
				"alert_id", alert.ID,
				"confidence", reading.Confidence)
			metrics.AlertsCreated.Inc()
			o.publishAlert(messaging.SubjectAlertCreated, alert)

		case cameras.StatusNormal:
			if o.ledger.HasActive(cam.ID) {
				continue
			}
			if cam.Status != cameras.StatusNormal {
				o.registry.SetStatus(cam.ID, cameras.StatusNormal, 0)
				changed = true
			}
		}
	}
	return changed
}

// OpenAlert selects an alert for the detail view. In service mode it re-runs
// detection on the owning camera's frame to refresh the displayed
// confidence; a failed call degrades the mode but the alert still opens.
func (o *Orchestrator) OpenAlert(ctx context.Context, alertID string) (Snapshot, error) {
	alert, ok := o.ledger.Get(alertID)
	if !ok {
		return o.Snapshot(), ErrUnknownAlert
	}

	o.mu.Lock()
	o.selectedAlert = alertID
	o.mu.Unlock()

	if o.monitor.ServiceBacked() && alert.Status == alerts.StatusActive {
		if cam, ok := o.registry.Get(alert.CameraID); ok {
			result, err := o.detector.Detect(ctx, cam.ImageRef)
			switch {
			case err != nil:
				o.recordServiceFailure("detect", err)
			case result.FireDetected:
				// The alert may have been resolved while the call was
				// outstanding; re-read it and only refresh while still active.
				o.mu.Lock()
				if current, stillThere := o.ledger.Get(alertID); stillThere && current.Status == alerts.StatusActive {
					o.ledger.UpdateConfidence(alertID, result.Accuracy)
					o.registry.SetStatus(cam.ID, cameras.StatusFire, result.Accuracy)
				}
				o.mu.Unlock()
			}
		}
	}

	o.notify()
	return o.Snapshot(), nil
}

// CloseDetail clears the selected alert.
func (o *Orchestrator) CloseDetail() Snapshot {
	o.mu.Lock()
	o.selectedAlert = ""
	o.mu.Unlock()

	o.notify()
	return o.Snapshot()
}

// ResolveAlert resolves the given alert and clears every fire-status camera
// back to normal, resolving any remaining active alerts with it so camera
// status and alert state stay consistent. Unknown and already resolved ids
// are a no-op for the target but the reset still runs.
func (o *Orchestrator) ResolveAlert(alertID string) Snapshot {
	o.mu.Lock()

	resolved := 0
	if o.ledger.Resolve(alertID) {
		resolved++
	}
	resolved += o.ledger.ResolveAllActive()

	reset := 0
	for _, cam := range o.registry.All() {
		if cam.Status == cameras.StatusFire {
			o.registry.SetStatus(cam.ID, cameras.StatusNormal, 0)
			reset++
		}
	}

	if o.selectedAlert == alertID {
		o.selectedAlert = ""
	}
	o.mu.Unlock()

	if resolved > 0 {
		metrics.AlertsResolved.Add(float64(resolved))
		if alert, ok := o.ledger.Get(alertID); ok {
			o.publishAlert(messaging.SubjectAlertResolved, &alert)
		}
		slog.Info("alert resolved", "alert_id", alertID, "alerts_resolved", resolved, "cameras_reset", reset)
	}
	if resolved > 0 || reset > 0 {
		o.notify()
	}
	return o.Snapshot()
}

// RequestResponse dispatches an emergency response for an alert: bumps the
// responses-sent counter and resolves the alert. The counter moves even if
// the alert was already resolved.
func (o *Orchestrator) RequestResponse(alertID string) Snapshot {
	o.mu.Lock()
	o.responsesSent++
	o.mu.Unlock()

	metrics.ResponsesSent.Inc()
	if alert, ok := o.ledger.Get(alertID); ok {
		o.publishAlert(messaging.SubjectAlertResponse, &alert)
	}
	slog.Info("response dispatched", "alert_id", alertID)

	return o.ResolveAlert(alertID)
}

// EnableServiceMode clears the degrade latch. The service path resumes on
// the next successful probe; nothing resumes it implicitly.
func (o *Orchestrator) EnableServiceMode() Snapshot {
	o.monitor.Reset()
	slog.Info("service mode re-enabled", "reachable", o.monitor.Reachable())
	o.notify()
	return o.Snapshot()
}

// Mode returns the active evaluation path.
func (o *Orchestrator) Mode() detect.Mode {
	return o.monitor.Mode()
}

// ServiceReachable reports the latest health probe outcome.
func (o *Orchestrator) ServiceReachable() bool {
	return o.monitor.Reachable()
}

// Probe forces a single health probe, outside the periodic schedule.
func (o *Orchestrator) Probe(ctx context.Context) bool {
	return o.monitor.Probe(ctx)
}

// Snapshot returns a read-only copy of the composed state. The registry and
// ledger reads happen under the orchestrator lock so a snapshot never
// interleaves with a transition and exposes a camera status that disagrees
// with the active alerts.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	snap := Snapshot{
		Cameras:          o.registry.All(),
		Alerts:           o.ledger.All(),
		ActiveAlerts:     o.ledger.Active(),
		ResponsesSent:    o.responsesSent,
		Mode:             o.monitor.Mode().String(),
		ServiceReachable: o.monitor.Reachable(),
		SimulationTime:   o.clock.Now(),
	}
	if o.selectedAlert != "" {
		if alert, ok := o.ledger.Get(o.selectedAlert); ok {
			snap.SelectedAlert = &alert
		}
	}
	o.mu.Unlock()
	return snap
}

func (o *Orchestrator) notify() {
	snap := o.Snapshot()
	metrics.ActiveAlerts.Set(float64(len(snap.ActiveAlerts)))
	for _, fn := range o.onChange {
		fn(snap)
	}
}

func (o *Orchestrator) handleDegrade() {
	slog.Warn("detection service degraded, switching to simulated mode",
		"reachable", o.monitor.Reachable())
	o.publish(messaging.SubjectModeDegraded, messaging.ModeEvent{
		Mode:      detect.ModeSimulated.String(),
		Reachable: o.monitor.Reachable(),
		Timestamp: time.Now(),
	})
}

func (o *Orchestrator) recordServiceFailure(op string, err error) {
	metrics.ServiceFailures.Inc()
	slog.Error("detection service call failed", "op", op, "error", err)
	o.monitor.RecordFailure()
}

func (o *Orchestrator) publishAlert(subject string, alert *alerts.Alert) {
	o.publish(subject, messaging.AlertEvent{
		AlertID:    alert.ID,
		CameraID:   alert.CameraID,
		Location:   alert.Location,
		Confidence: alert.Confidence,
		Status:     string(alert.Status),
		Timestamp:  time.Now(),
	})
}

func (o *Orchestrator) publish(subject string, data interface{}) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(context.Background(), subject, data); err != nil {
		slog.Warn("event publish failed", "subject", subject, "error", err)
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

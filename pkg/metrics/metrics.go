package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_alerts_created_total",
		Help: "Alerts created since process start.",
	})
	AlertsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_alerts_resolved_total",
		Help: "Alerts resolved since process start.",
	})
	ResponsesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_responses_sent_total",
		Help: "Emergency responses dispatched since process start.",
	})
	ScanRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_scan_requests_total",
		Help: "Fleet scan requests issued to the detection service.",
	})
	ServiceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_service_failures_total",
		Help: "Failed detection service calls.",
	})
	ActiveAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firewatch_active_alerts",
		Help: "Currently active alerts.",
	})
	ServiceReachable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firewatch_service_reachable",
		Help: "Detection service reachability (1 reachable, 0 not).",
	})
	SimulationTime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firewatch_simulation_time_seconds",
		Help: "Current simulation time.",
	})
)

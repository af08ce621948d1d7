package messaging

import "time"

// Event subjects
const (
	SubjectAlertCreated  = "alerts.created"
	SubjectAlertResolved = "alerts.resolved"
	SubjectAlertResponse = "alerts.response"
	SubjectScanCompleted = "detection.scan"
	SubjectModeDegraded  = "detection.degraded"
)

// AlertEvent describes an alert lifecycle change.
type AlertEvent struct {
	AlertID    string    `json:"alert_id"`
	CameraID   string    `json:"camera_id"`
	Location   string    `json:"location"`
	Confidence float64   `json:"confidence"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// ScanEvent describes a completed fleet scan.
type ScanEvent struct {
	CamerasScanned int       `json:"cameras_scanned"`
	FiresDetected  int       `json:"fires_detected"`
	Timestamp      time.Time `json:"timestamp"`
}

// ModeEvent describes an evaluation-path change.
type ModeEvent struct {
	Mode      string    `json:"mode"`
	Reachable bool      `json:"reachable"`
	Timestamp time.Time `json:"timestamp"`
}

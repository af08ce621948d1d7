package alerts

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smartcity/firewatch/internal/cameras"
)

// ErrDuplicateActiveAlert is returned when a camera already has an
// unresolved alert. Callers treat it as a guard, not a fault.
var ErrDuplicateActiveAlert = errors.New("active alert already exists for camera")

// Status is an alert's lifecycle state. The only transition is
// active -> resolved; a resolved alert never reactivates.
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

// Alert records one fire detection. Location fields are copied from the
// camera at creation time so the alert stays interpretable on its own.
type Alert struct {
	ID         string     `json:"id"`
	CameraID   string     `json:"camera_id"`
	Location   string     `json:"location"`
	Address    string     `json:"address"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Confidence float64    `json:"confidence"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Status     Status     `json:"status"`
}

// Ledger is the in-memory alert collection. Creation inserts at the head so
// queries come back most-recent-first; resolution mutates in place and the
// history stays queryable for the whole session.
type Ledger struct {
	alerts         []*Alert
	byID           map[string]*Alert
	activeByCamera map[string]string // cameraID -> active alertID
	mu             sync.RWMutex
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		byID:           make(map[string]*Alert),
		activeByCamera: make(map[string]string),
	}
}

// Create opens a new active alert from a camera snapshot. Fails with
// ErrDuplicateActiveAlert if the camera already has one.
func (l *Ledger) Create(cam cameras.Camera, confidence float64) (*Alert, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.activeByCamera[cam.ID]; exists {
		return nil, ErrDuplicateActiveAlert
	}

	alert := &Alert{
		ID:         uuid.New().String(),
		CameraID:   cam.ID,
		Location:   cam.Location,
		Address:    cam.Address,
		Latitude:   cam.Latitude,
		Longitude:  cam.Longitude,
		Confidence: confidence,
		CreatedAt:  time.Now(),
		Status:     StatusActive,
	}

	l.alerts = append([]*Alert{alert}, l.alerts...)
	l.byID[alert.ID] = alert
	l.activeByCamera[cam.ID] = alert.ID

	out := *alert
	return &out, nil
}

// Resolve transitions an alert to resolved. Unknown ids and already
// resolved alerts are a no-op; resolves may race with bulk resolution.
func (l *Ledger) Resolve(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolveLocked(id)
}

// ResolveAllForCamera resolves every active alert owned by a camera and
// returns how many it touched.
func (l *Ledger) ResolveAllForCamera(cameraID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if alertID, exists := l.activeByCamera[cameraID]; exists {
		if l.resolveLocked(alertID) {
			return 1
		}
	}
	return 0
}

// ResolveAllActive resolves every active alert and returns the count.
func (l *Ledger) ResolveAllActive() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	resolved := 0
	for _, alertID := range l.activeByCamera {
		if l.resolveLocked(alertID) {
			resolved++
		}
	}
	return resolved
}

func (l *Ledger) resolveLocked(id string) bool {
	alert, ok := l.byID[id]
	if !ok || alert.Status == StatusResolved {
		return false
	}

	now := time.Now()
	alert.Status = StatusResolved
	alert.ResolvedAt = &now
	delete(l.activeByCamera, alert.CameraID)
	return true
}

// UpdateConfidence refreshes an active alert's confidence, typically after a
// re-detection. Resolved and unknown alerts are left untouched.
func (l *Ledger) UpdateConfidence(id string, confidence float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	alert, ok := l.byID[id]
	if !ok || alert.Status != StatusActive {
		return false
	}
	alert.Confidence = confidence
	return true
}

// HasActive reports whether a camera has an unresolved alert.
func (l *Ledger) HasActive(cameraID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, exists := l.activeByCamera[cameraID]
	return exists
}

// Get returns a copy of the alert with the given id.
func (l *Ledger) Get(id string) (Alert, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	alert, ok := l.byID[id]
	if !ok {
		return Alert{}, false
	}
	return copyAlert(alert), true
}

// All returns every alert, most-recent-first.
func (l *Ledger) All() []Alert {
	return l.query(func(*Alert) bool { return true })
}

// Active returns unresolved alerts, most-recent-first.
func (l *Ledger) Active() []Alert {
	return l.query(func(a *Alert) bool { return a.Status == StatusActive })
}

// Resolved returns resolved alerts, most-recent-first.
func (l *Ledger) Resolved() []Alert {
	return l.query(func(a *Alert) bool { return a.Status == StatusResolved })
}

func (l *Ledger) query(match func(*Alert) bool) []Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Alert, 0, len(l.alerts))
	for _, alert := range l.alerts {
		if match(alert) {
			out = append(out, copyAlert(alert))
		}
	}
	return out
}

func copyAlert(a *Alert) Alert {
	out := *a
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		out.ResolvedAt = &t
	}
	return out
}

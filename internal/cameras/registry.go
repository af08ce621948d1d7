package cameras

import (
	"log/slog"
	"sync"
	"time"
)

// Status is a camera's observed condition.
type Status string

const (
	StatusNormal Status = "normal"
	StatusFire   Status = "fire"
)

// Camera is a fixed monitored installation. ID, display metadata, coordinates
// and the scripted fire windows are immutable after registration; only
// Status, Confidence and LastUpdated change at runtime.
type Camera struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Address     string    `json:"address"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Status      Status    `json:"status"`
	Confidence  float64   `json:"confidence"`
	ImageRef    string    `json:"image_ref"`
	FireWindows []int64   `json:"fire_windows,omitempty"` // simulation-time offsets, ms
	LastUpdated time.Time `json:"last_updated"`
}

// Registry holds the fixed camera fleet. All accessors return copies; callers
// never see the registry's own structs.
type Registry struct {
	cameras map[string]*Camera
	order   []string
	mu      sync.RWMutex
}

// NewRegistry creates a registry seeded with the given fleet. Registration
// order is preserved by All.
func NewRegistry(fleet []Camera) *Registry {
	r := &Registry{
		cameras: make(map[string]*Camera, len(fleet)),
		order:   make([]string, 0, len(fleet)),
	}

	for i := range fleet {
		cam := fleet[i]
		if cam.Status == "" {
			cam.Status = StatusNormal
		}
		r.cameras[cam.ID] = &cam
		r.order = append(r.order, cam.ID)
	}

	return r
}

// All returns a copy of every camera in registration order.
func (r *Registry) All() []Camera {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Camera, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, copyCamera(r.cameras[id]))
	}
	return out
}

// Get returns a copy of the camera with the given id.
func (r *Registry) Get(id string) (Camera, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cam, ok := r.cameras[id]
	if !ok {
		return Camera{}, false
	}
	return copyCamera(cam), true
}

// SetStatus updates a camera's status and confidence. Unknown ids are a
// logged no-op, not an error. A normal status always carries zero confidence.
func (r *Registry) SetStatus(id string, status Status, confidence float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cam, ok := r.cameras[id]
	if !ok {
		slog.Warn("camera update for unknown id", "camera_id", id)
		return false
	}

	if status == StatusNormal {
		confidence = 0
	}
	cam.Status = status
	cam.Confidence = confidence
	cam.LastUpdated = time.Now()
	return true
}

func copyCamera(c *Camera) Camera {
	out := *c
	if c.FireWindows != nil {
		out.FireWindows = append([]int64(nil), c.FireWindows...)
	}
	return out
}

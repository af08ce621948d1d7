package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ServiceError wraps any transport or protocol failure from the detection
// service. "No fire found" is a successful result, never a ServiceError.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("detection service %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Result is a single-image detection outcome.
type Result struct {
	CameraID     string  `json:"camera_id"`
	FireDetected bool    `json:"fire_detected"`
	Accuracy     float64 `json:"accuracy"`
	Timestamp    string  `json:"timestamp"`
}

// CameraReading is one camera's status inside a fleet scan response.
type CameraReading struct {
	CameraID    string  `json:"camera_id"`
	Status      string  `json:"status"` // "normal" or "fire"
	Confidence  float64 `json:"confidence"`
	LastUpdated string  `json:"last_updated"`
}

// ScanResult is a fleet-wide scan outcome. The camera list may be partial;
// callers must treat absent cameras as unchanged.
type ScanResult struct {
	TotalCameras      int             `json:"total_cameras"`
	FireDetectedCount int             `json:"fire_detected_count"`
	Cameras           []CameraReading `json:"cameras"`
	Timestamp         string          `json:"timestamp"`
}

type detectRequest struct {
	VideoPath string `json:"video_path"`
}

// Client talks to the external fire-detection service. It holds no state
// beyond the underlying HTTP client.
type Client struct {
	http *resty.Client
}

// NewClient creates a detection service client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	r := resty.New()
	r.SetBaseURL(baseURL)
	r.SetTimeout(timeout)
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")

	return &Client{http: r}
}

// Detect runs fire detection against a single camera frame.
func (c *Client) Detect(ctx context.Context, imageRef string) (*Result, error) {
	var result Result

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(detectRequest{VideoPath: imageRef}).
		SetResult(&result).
		Post("/detect-fire")

	if err != nil {
		return nil, &ServiceError{Op: "detect", Err: err}
	}
	if resp.IsError() {
		return nil, &ServiceError{Op: "detect", Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())}
	}

	return &result, nil
}

// ScanAll runs fire detection across the whole fleet.
func (c *Client) ScanAll(ctx context.Context) (*ScanResult, error) {
	var result ScanResult

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Post("/scan-all")

	if err != nil {
		return nil, &ServiceError{Op: "scan", Err: err}
	}
	if resp.IsError() {
		return nil, &ServiceError{Op: "scan", Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())}
	}

	return &result, nil
}

// HealthCheck probes the service. It never returns an error; any failure
// maps to false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return false
	}
	return resp.StatusCode() == 200
}

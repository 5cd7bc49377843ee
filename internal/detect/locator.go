package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"omnisync/internal/region"
	"omnisync/internal/services"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	// DefaultConfidenceThreshold matches the DNN detector cut-off.
	DefaultConfidenceThreshold = 0.5
	maxErrorBody               = 512
)

// Config captures the settings required to reach the detection service.
type Config struct {
	URL                 string
	TimeoutSeconds      int
	ConfidenceThreshold float64
}

// HTTPLocator locates faces through a remote detection service.
type HTTPLocator struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the locator.
type Option func(*HTTPLocator)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *HTTPLocator) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// NewHTTPLocator constructs a locator for the service at cfg.URL.
func NewHTTPLocator(cfg Config, opts ...Option) *HTTPLocator {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.ConfidenceThreshold < 0 || math.IsNaN(cfg.ConfidenceThreshold) {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	l := &HTTPLocator{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Detection is one face candidate returned by the service.
type Detection struct {
	BBox       []int   `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

type detectResponse struct {
	Detections []Detection `json:"detections"`
}

// Detect sends frame to the service. A response without a qualifying
// detection is a miss, not an error.
func (l *HTTPLocator) Detect(ctx context.Context, frame *image.RGBA) (region.BBox, bool, error) {
	if frame == nil {
		return region.BBox{}, false, errors.New("detect: nil frame")
	}
	if l.cfg.URL == "" {
		return region.BBox{}, false, errors.New("detect: service url required")
	}
	var body bytes.Buffer
	if err := png.Encode(&body, frame); err != nil {
		return region.BBox{}, false, fmt.Errorf("detect: encode frame: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.URL, &body)
	if err != nil {
		return region.BBox{}, false, fmt.Errorf("detect: build request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")
	services.SetRequestHeader(ctx, req.Header)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return region.BBox{}, false, fmt.Errorf("detect: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return region.BBox{}, false, fmt.Errorf("detect: http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return region.BBox{}, false, fmt.Errorf("detect: decode response: %w", err)
	}
	box, ok, err := Select(parsed.Detections, l.cfg.ConfidenceThreshold)
	if err != nil {
		return region.BBox{}, false, fmt.Errorf("detect: %w", err)
	}
	return box, ok, nil
}

// Select returns the first detection whose confidence is above threshold.
func Select(detections []Detection, threshold float64) (region.BBox, bool, error) {
	for i, d := range detections {
		if d.Confidence <= threshold {
			continue
		}
		if len(d.BBox) != 4 {
			return region.BBox{}, false, fmt.Errorf("detection %d: bbox has %d values, want 4", i, len(d.BBox))
		}
		return region.BBox{X: d.BBox[0], Y: d.BBox[1], W: d.BBox[2], H: d.BBox[3]}, true, nil
	}
	return region.BBox{}, false, nil
}

// None is a FaceLocator that never finds a face.
type None struct{}

// Detect always reports a miss.
func (None) Detect(context.Context, *image.RGBA) (region.BBox, bool, error) {
	return region.BBox{}, false, nil
}

package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"omnisync/internal/lipsync"
	"omnisync/internal/services"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 512

	// ModelDigestHeader carries the sha256 of the weights the run was started with.
	ModelDigestHeader = "X-Model-Digest"
)

// Config captures the settings required to reach the model server.
type Config struct {
	URL            string
	TimeoutSeconds int
	ModelDigest    string
}

// HTTPClient calls a remote synthesis model.
type HTTPClient struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewHTTPClient constructs a predictor client for the server at cfg.URL.
func NewHTTPClient(cfg Config, opts ...Option) *HTTPClient {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.ModelDigest = strings.TrimSpace(cfg.ModelDigest)
	c := &HTTPClient{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type visualPayload struct {
	C    int       `json:"c"`
	H    int       `json:"h"`
	W    int       `json:"w"`
	Data []float32 `json:"data"`
}

type inferRequest struct {
	FrameIndex int           `json:"frame_index"`
	Audio      []float64     `json:"audio"`
	Visual     visualPayload `json:"visual"`
	Guidance   float64       `json:"guidance"`
}

type inferResponse struct {
	Output []float32 `json:"output"`
}

// Infer posts req to the model server and returns its output tensor.
func (c *HTTPClient) Infer(ctx context.Context, req lipsync.SynthesisRequest) (lipsync.SynthesisResult, error) {
	var empty lipsync.SynthesisResult
	if c.cfg.URL == "" {
		return empty, errors.New("predictor: service url required")
	}
	payload := inferRequest{
		FrameIndex: req.FrameIndex,
		Audio:      req.Audio,
		Visual: visualPayload{
			C:    req.Visual.C,
			H:    req.Visual.H,
			W:    req.Visual.W,
			Data: req.Visual.Data,
		},
		Guidance: req.Guidance,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return empty, fmt.Errorf("predictor: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return empty, fmt.Errorf("predictor: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	services.SetRequestHeader(ctx, httpReq.Header)
	if c.cfg.ModelDigest != "" {
		httpReq.Header.Set(ModelDigestHeader, c.cfg.ModelDigest)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return empty, fmt.Errorf("predictor: frame %d: %w", req.FrameIndex, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return empty, fmt.Errorf("predictor: frame %d: http %d: %s", req.FrameIndex, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var parsed inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return empty, fmt.Errorf("predictor: frame %d: decode response: %w", req.FrameIndex, err)
	}
	return lipsync.SynthesisResult{Output: parsed.Output}, nil
}

// Null is a Predictor that performs no inference.
type Null struct{}

// Infer returns an empty result.
func (Null) Infer(ctx context.Context, _ lipsync.SynthesisRequest) (lipsync.SynthesisResult, error) {
	if err := ctx.Err(); err != nil {
		return lipsync.SynthesisResult{}, err
	}
	return lipsync.SynthesisResult{}, nil
}

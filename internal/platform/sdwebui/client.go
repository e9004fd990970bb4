// Package sdwebui implements the image generation boundary against a
// Stable Diffusion WebUI instance (txt2img API).
package sdwebui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/memology/memology-api/internal/config"
	"github.com/memology/memology-api/internal/generation"
)

// defaultNegativePrompt filters the junk the image backend tends to
// produce without guidance.
const defaultNegativePrompt = "low quality, blurry, bad anatomy, distorted, extra limbs, " +
	"poorly drawn, text, watermark, signature, logo"

// Client calls the Stable Diffusion WebUI txt2img endpoint. Calls are
// serialized through a rate limiter because the backend is GPU-bound and
// degrades badly under concurrent requests.
type Client struct {
	logger  *slog.Logger
	cfg     config.ImageGenConfig
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Client from image generation configuration.
func NewClient(logger *slog.Logger, cfg config.ImageGenConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: image backend base URL cannot be empty", generation.ErrInvalidConfig)
	}

	return &Client{
		logger: logger.With("component", "sdwebui_client"),
		cfg:    cfg,
		http:   &http.Client{},
		// One in-flight render at a time; the limiter also spaces bursts
		// from retried tasks.
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

// txt2imgRequest mirrors the WebUI JSON payload.
type txt2imgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Steps          int     `json:"steps"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	SamplerIndex   string  `json:"sampler_index"`
	CFGScale       float64 `json:"cfg_scale"`
	RestoreFaces   bool    `json:"restore_faces"`
	BatchSize      int     `json:"batch_size"`
	NIter          int     `json:"n_iter"`
	Seed           int     `json:"seed"`
}

// txt2imgResponse carries the base64-encoded render.
type txt2imgResponse struct {
	Images []string `json:"images"`
}

// GenerateImage renders the prompt into image bytes. The call is bound to
// the configured timeout; exceeding it returns ErrTimeout. Backend errors
// and unreachability return ErrServiceUnavailable; an undecodable body
// returns ErrInvalidResponse.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", generation.ErrInvalidResponse)
	}

	callCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(callCtx); err != nil {
		return nil, c.classify(err)
	}

	payload := txt2imgRequest{
		Prompt:         prompt,
		NegativePrompt: defaultNegativePrompt,
		Steps:          c.cfg.Steps,
		Width:          c.cfg.Width,
		Height:         c.cfg.Height,
		SamplerIndex:   c.cfg.Sampler,
		CFGScale:       c.cfg.CFGScale,
		RestoreFaces:   c.cfg.RestoreFaces,
		BatchSize:      1,
		NIter:          1,
		Seed:           -1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal txt2img payload: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.BaseURL+"/sdapi/v1/txt2img", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build txt2img request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.InfoContext(ctx, "generating image", "prompt_prefix", truncate(prompt, 50))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "image backend returned error status", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: txt2img returned status %d", generation.ErrServiceUnavailable, resp.StatusCode)
	}

	var decoded txt2imgResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: undecodable txt2img body: %v", generation.ErrInvalidResponse, err)
	}
	if len(decoded.Images) == 0 {
		return nil, fmt.Errorf("%w: txt2img returned no images", generation.ErrInvalidResponse)
	}

	img, err := base64.StdEncoding.DecodeString(decoded.Images[0])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 image: %v", generation.ErrInvalidResponse, err)
	}

	c.logger.InfoContext(ctx, "image generated",
		"bytes", len(img),
		"elapsed", time.Since(start))

	return img, nil
}

// Ping verifies the backend is reachable. Used by the readiness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/sdapi/v1/options", nil)
	if err != nil {
		return fmt.Errorf("failed to build options request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", generation.ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: options returned status %d", generation.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// classify maps transport errors onto the generation failure taxonomy.
func (c *Client) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: exceeded %s budget", generation.ErrTimeout, c.cfg.Timeout)
	}
	return fmt.Errorf("%w: %v", generation.ErrServiceUnavailable, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ generation.ImageGenerator = (*Client)(nil)

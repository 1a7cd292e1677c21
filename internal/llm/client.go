package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/nahuelp/clipstack/internal/config"
	"github.com/nahuelp/clipstack/internal/logger"
)

// Generator is the language-generation interface consumed by the
// classifier and summarizer. Tests substitute a fake.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Options tunes a single generation call.
type Options struct {
	Temperature float64
	NumPredict  int
}

// generateRequest is the Ollama /api/generate request body.
type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// generateResponse is the Ollama /api/generate response body.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// tagsResponse is the Ollama /api/tags response body.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Client talks to a local Ollama server.
type Client struct {
	http           *resty.Client
	model          string
	maxRetries     int
	backoffInitial time.Duration
}

// NewClient creates a new Ollama client.
// Parameters:
//   - cfg: Ollama endpoint and retry configuration.
// Returns:
//   - *Client: client bound to the configured endpoint.
func NewClient(cfg *config.OllamaConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:           httpClient,
		model:          cfg.Model,
		maxRetries:     cfg.MaxRetries,
		backoffInitial: cfg.BackoffInitial,
	}
}

// Generate issues a single prompt-in, text-out generation call.
// Transient failures (5xx, network errors) are retried with exponential
// backoff; 4xx responses are permanent and returned immediately.
// Parameters:
//   - ctx: context bounding the whole call including retries.
//   - prompt: full prompt text.
//   - opts: generation options.
// Returns:
//   - string: raw model response text.
//   - error: non-nil if all attempts fail.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	req := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": opts.Temperature,
		},
	}
	if opts.NumPredict > 0 {
		req.Options["num_predict"] = opts.NumPredict
	}

	var out string
	operation := func() error {
		var result generateResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&result).
			Post("/api/generate")
		if err != nil {
			return fmt.Errorf("ollama request failed: %w", err)
		}
		if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
			return backoff.Permanent(fmt.Errorf("ollama returned status %d: %s", resp.StatusCode(), resp.String()))
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("ollama returned status %d", resp.StatusCode())
		}
		out = result.Response
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.backoffInitial
	retries := backoff.WithMaxRetries(expBackoff, uint64(c.maxRetries))

	notify := func(err error, wait time.Duration) {
		logger.CtxWarn(ctx, "Ollama call failed, retrying in %v: %v", wait, err)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(retries, ctx), notify); err != nil {
		return "", err
	}
	return out, nil
}

// Health verifies the Ollama server is reachable and the configured model
// is available.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - error: non-nil if the server is unreachable or the model is missing.
func (c *Client) Health(ctx context.Context) error {
	var tags tagsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&tags).
		Get("/api/tags")
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode())
	}

	for _, m := range tags.Models {
		if m.Name == c.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not found on ollama server", c.model)
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

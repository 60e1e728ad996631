package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"google.golang.org/genai"

	"github.com/garyellow/course-advisor-go/internal/metrics"
	"github.com/garyellow/course-advisor-go/internal/ratelimit"
)

const (
	// DefaultEmbeddingModel is the model used for generating embeddings
	DefaultEmbeddingModel = "gemini-embedding-001"

	// DefaultEmbeddingDimensions is the output dimension (768, MRL truncation)
	DefaultEmbeddingDimensions = 768

	// DefaultEmbeddingRPM is the requests per minute limit for the embedding API
	DefaultEmbeddingRPM = 1500
)

// embedFunc is the SDK call, swappable in tests.
type embedFunc func(ctx context.Context, model, text string, dims int32) ([]float32, error)

// Embedder generates embeddings with the Gemini API.
// Calls are rate limited and retried on transient errors.
type Embedder struct {
	model       string
	dims        int32
	timeout     time.Duration
	rateLimiter *ratelimit.Limiter
	retry       RetryConfig
	embed       embedFunc
}

// EmbedderConfig configures NewEmbedder.
type EmbedderConfig struct {
	APIKey     string
	Model      string
	Dimensions int
	RPM        float64
	Timeout    time.Duration // Per request
	Retry      RetryConfig
}

// NewEmbedder creates a Gemini embedder.
func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return newEmbedder(cfg, func(ctx context.Context, model, text string, dims int32) ([]float32, error) {
		resp, err := client.Models.EmbedContent(ctx, model, genai.Text(text), &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(dims),
		})
		if err != nil {
			return nil, WrapError(fmt.Errorf("embed content failed: %w", err), ProviderGemini, geminiStatusCode(err))
		}
		if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
			return nil, errors.New("empty embedding returned")
		}
		return resp.Embeddings[0].Values, nil
	}), nil
}

func newEmbedder(cfg EmbedderConfig, fn embedFunc) *Embedder {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultEmbeddingDimensions
	}
	if cfg.RPM <= 0 {
		cfg.RPM = DefaultEmbeddingRPM
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = RetryConfig{MaxAttempts: 5, InitialDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
	}
	return &Embedder{
		model:       cfg.Model,
		dims:        int32(cfg.Dimensions),
		timeout:     cfg.Timeout,
		rateLimiter: ratelimit.NewPerMinute(cfg.RPM),
		retry:       cfg.Retry,
		embed:       fn,
	}
}

// Embed generates an embedding vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty or whitespace-only text cannot be embedded")
	}

	var result []float32
	err := Retry(ctx, e.retry, func(int) error {
		if err := e.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		callCtx := ctx
		if e.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}

		values, err := e.embed(callCtx, e.model, text, e.dims)
		if err != nil {
			return err
		}
		result = values
		return nil
	})
	if err != nil {
		recordEmbedding("error")
		return nil, err
	}
	recordEmbedding("success")
	return result, nil
}

// EmbeddingFunc adapts the embedder to chromem-go.
func (e *Embedder) EmbeddingFunc() chromem.EmbeddingFunc {
	return e.Embed
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.model
}

func recordEmbedding(status string) {
	if metrics.EmbeddingTotal == nil {
		return
	}
	metrics.EmbeddingTotal.WithLabelValues(status).Inc()
}

package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/garyellow/course-advisor-go/internal/metrics"
)

// ErrNoGenerator is returned when a FallbackGenerator has an empty chain.
var ErrNoGenerator = errors.New("no generator configured")

// FallbackGenerator tries a chain of generators in order.
// It implements three-layer fallback:
// 1. Model retry with backoff (same generator)
// 2. Model fallback (next model of the same provider)
// 3. Provider fallback (next provider in the chain)
//
// A permanent error (bad key, bad request) skips the remaining models of
// that provider. Cancellation stops the chain.
type FallbackGenerator struct {
	chain       []Generator
	retryConfig RetryConfig
}

// NewFallbackGenerator creates a generator over chain.
func NewFallbackGenerator(cfg RetryConfig, chain ...Generator) *FallbackGenerator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &FallbackGenerator{
		chain:       chain,
		retryConfig: cfg,
	}
}

// Generate implements Generator.
func (f *FallbackGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if f == nil || len(f.chain) == 0 {
		return "", ErrNoGenerator
	}

	start := time.Now()
	first := f.chain[0].Provider()
	var (
		lastErr     error
		skipProvider Provider
	)

	for i, gen := range f.chain {
		provider := gen.Provider()
		if provider == skipProvider {
			continue
		}
		if i > 0 {
			slog.InfoContext(ctx, "falling back to next generator",
				"to", provider,
				"position", i,
				"operation", req.Operation)
		}

		attemptStart := time.Now()
		text, err := f.generateWithRetry(ctx, gen, req)
		if err == nil {
			recordSuccess(provider, req.Operation, attemptStart)
			if i > 0 && provider != first {
				recordFallback(first, provider, req.Operation, time.Since(start))
			}
			return text, nil
		}

		lastErr = err
		recordError(provider, req.Operation, err)

		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return "", err
		}

		action := ClassifyError(err)
		slog.WarnContext(ctx, "generator failed",
			"provider", provider,
			"operation", req.Operation,
			"action", action,
			"error", err)
		if action == ActionFail {
			skipProvider = provider
		}
	}

	slog.ErrorContext(ctx, "all generators failed",
		"operation", req.Operation,
		"chain_size", len(f.chain),
		"duration", time.Since(start),
		"error", lastErr)
	return "", fmt.Errorf("all providers failed: %w", lastErr)
}

// generateWithRetry retries transient failures of a single generator.
func (f *FallbackGenerator) generateWithRetry(ctx context.Context, gen Generator, req Request) (string, error) {
	var text string
	err := Retry(ctx, f.retryConfig, func(attempt int) error {
		if attempt > 1 {
			slog.DebugContext(ctx, "retrying generation",
				"provider", gen.Provider(),
				"attempt", attempt,
				"operation", req.Operation)
		}
		var err error
		text, err = gen.Generate(ctx, req)
		return err
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Provider returns the primary provider type.
func (f *FallbackGenerator) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Len returns the chain length.
func (f *FallbackGenerator) Len() int {
	if f == nil {
		return 0
	}
	return len(f.chain)
}

// Close closes every generator in the chain.
func (f *FallbackGenerator) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, gen := range f.chain {
		if err := gen.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Helper functions for metrics recording

func recordSuccess(provider Provider, op Operation, start time.Time) {
	if metrics.LLMTotal == nil || metrics.LLMDuration == nil {
		return
	}
	metrics.LLMTotal.WithLabelValues(string(provider), string(op), "success").Inc()
	metrics.LLMDuration.WithLabelValues(string(provider), string(op)).Observe(time.Since(start).Seconds())
}

func recordError(provider Provider, op Operation, err error) {
	if metrics.LLMTotal == nil {
		return
	}
	metrics.LLMTotal.WithLabelValues(string(provider), string(op), classifyErrorType(err)).Inc()
}

func recordFallback(fromProvider, toProvider Provider, op Operation, totalDuration time.Duration) {
	if metrics.LLMFallbackTotal == nil {
		return
	}
	metrics.LLMFallbackTotal.WithLabelValues(string(fromProvider), string(toProvider), string(op)).Inc()

	// Record additional latency introduced by fallback
	if metrics.LLMFallbackLatency != nil {
		metrics.LLMFallbackLatency.WithLabelValues(string(op)).Observe(totalDuration.Seconds())
	}
}

// classifyErrorType maps error to a metric status label.
func classifyErrorType(err error) string {
	if err == nil {
		return "success"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		switch {
		case llmErr.StatusCode == http.StatusTooManyRequests:
			return "rate_limit"
		case llmErr.StatusCode >= 500:
			return "server_error"
		case llmErr.StatusCode == http.StatusUnauthorized || llmErr.StatusCode == http.StatusForbidden:
			return "auth_error"
		case llmErr.StatusCode == http.StatusBadRequest:
			return "invalid_request"
		}
	}

	switch ClassifyError(err) {
	case ActionFallback:
		return "quota_exhausted"
	case ActionRetry:
		return "transient_error"
	default:
		return "error"
	}
}

// Package config provides centralized timeout constants for the application.
//
// Chat turns are dominated by LLM latency: one generation for the reply and,
// during elicitation, a second one for interest extraction. HTTP write
// timeouts must cover both calls plus retries inside the provider chain.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the read timeout for small JSON request bodies.
	HTTPRead = 10 * time.Second

	// HTTPWrite covers a full chat turn: two generations under LLMGeneration.
	HTTPWrite = 2*LLMGeneration + 10*time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// LLM timeouts
const (
	// LLMGeneration bounds a single generation step, retries included.
	LLMGeneration = 60 * time.Second

	// EmbeddingRequest bounds one embedding call.
	EmbeddingRequest = 30 * time.Second

	// LLMRetryInitial is the base delay for full-jitter backoff.
	LLMRetryInitial = 1 * time.Second

	// LLMRetryMax caps a single backoff delay.
	LLMRetryMax = 10 * time.Second
)

// Background work
const (
	// TranscriptWrite bounds a single transcript sink write.
	TranscriptWrite = 10 * time.Second

	// TranscriptFlush bounds draining the transcript queue on shutdown.
	TranscriptFlush = 15 * time.Second

	// ReadinessCheck bounds the dependency probes run by /readyz.
	ReadinessCheck = 3 * time.Second

	// RateLimiterCleanup is how often idle per-user buckets are swept.
	RateLimiterCleanup = 5 * time.Minute

	// SentryFlush bounds delivery of buffered events on shutdown.
	SentryFlush = 2 * time.Second
)

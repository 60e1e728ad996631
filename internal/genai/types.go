// Package genai talks to the language models behind the advisor: Gemini
// through google.golang.org/genai, and Groq and Cerebras through their
// OpenAI-compatible endpoints with openai-go. Gemini also embeds catalog
// chunks for the vector index.
//
// A generation call degrades in three steps before the advisor falls back
// to a canned reply. Transient errors retry the same model, then the next
// model of the provider is tried, then the next provider listed in
// ADVISOR_LLM_PROVIDERS.
package genai

import (
	"context"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderGemini uses the native Gemini SDK.
	ProviderGemini Provider = "gemini"
	// ProviderGroq uses Groq's OpenAI-compatible API.
	ProviderGroq Provider = "groq"
	// ProviderCerebras uses Cerebras's OpenAI-compatible API.
	ProviderCerebras Provider = "cerebras"
)

// ProviderEndpoint holds the base URL of each OpenAI-compatible provider.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq:     "https://api.groq.com/openai/v1/",
	ProviderCerebras: "https://api.cerebras.ai/v1/",
}

// IsOpenAICompatible reports whether p is served through openai-go.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

func (p Provider) String() string {
	return string(p)
}

// Operation labels LLM calls in metrics and logs.
type Operation string

const (
	OperationConverse  Operation = "converse"
	OperationExtract   Operation = "extract"
	OperationRecommend Operation = "recommend"
)

// Request is a single text generation request.
type Request struct {
	// System is the instruction block. Optional.
	System string

	// Prompt is the user-turn text the model answers.
	Prompt string

	// Temperature controls sampling. Zero uses the provider default.
	Temperature float32

	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int

	// Operation is recorded in metrics.
	Operation Operation
}

// Generator produces text from a prompt.
type Generator interface {
	// Generate returns the model's text answer. An empty answer is an error.
	Generate(ctx context.Context, req Request) (string, error)
	// Close releases any resources held by the generator.
	Close() error
	// Provider labels the generator in metrics.
	Provider() Provider
}

// RetryConfig bounds the retries of one model. See Retry.
type RetryConfig struct {
	MaxAttempts  int           // calls including the first, at least 1
	InitialDelay time.Duration // ceiling of the first backoff
	MaxDelay     time.Duration // backoff ceiling cap, 0 for none
}

// Default model configurations.
// First element is primary model, subsequent elements are fallbacks.
var (
	// DefaultGeminiChatModels is the default model chain for Gemini.
	DefaultGeminiChatModels = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}

	// DefaultGroqChatModels is the default model chain for Groq.
	// llama-3.3-70b-versatile is Production-grade with strong accuracy.
	DefaultGroqChatModels = []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}

	// DefaultCerebrasChatModels is the default model chain for Cerebras.
	DefaultCerebrasChatModels = []string{"llama-3.3-70b", "llama-3.1-8b"}

	// DefaultProviders is the default provider order for fallback.
	DefaultProviders = []Provider{ProviderGemini, ProviderGroq, ProviderCerebras}
)

// Generation defaults
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// Retry configuration defaults
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// DefaultModels returns the default model chain for p.
func DefaultModels(p Provider) []string {
	switch p {
	case ProviderGemini:
		return DefaultGeminiChatModels
	case ProviderGroq:
		return DefaultGroqChatModels
	case ProviderCerebras:
		return DefaultCerebrasChatModels
	default:
		return nil
	}
}

package genai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/garyellow/course-advisor-go/internal/config"
)

// ErrNoProvider is returned when no configured provider yields a generator.
var ErrNoProvider = errors.New("no LLM provider configured")

// CreateGenerator builds a FallbackGenerator from cfg.
//
// Provider selection logic:
//  1. Providers are taken in cfg.Providers order; those without an API key are skipped.
//  2. Each provider contributes its model chain (configured or default) in order.
//  3. Each model is tried with retry logic (configured in RetryConfig).
func CreateGenerator(ctx context.Context, cfg config.LLMConfig, retry RetryConfig) (*FallbackGenerator, error) {
	var chain []Generator

	for _, name := range cfg.Providers {
		provider := Provider(name)
		apiKey := cfg.APIKey(name)
		if apiKey == "" {
			slog.DebugContext(ctx, "skipping LLM provider without API key", "provider", provider)
			continue
		}

		models := modelsFor(cfg, provider)
		for _, model := range models {
			gen, err := newGenerator(ctx, provider, apiKey, model)
			if err != nil {
				slog.WarnContext(ctx, "failed to create generator",
					"provider", provider,
					"model", model,
					"error", err)
				continue
			}
			chain = append(chain, gen)
		}
	}

	if len(chain) == 0 {
		return nil, ErrNoProvider
	}

	slog.InfoContext(ctx, "generator configured",
		"primary", chain[0].Provider(),
		"chainSize", len(chain))

	return NewFallbackGenerator(retry, chain...), nil
}

func newGenerator(ctx context.Context, provider Provider, apiKey, model string) (Generator, error) {
	switch provider {
	case ProviderGemini:
		return newGeminiGenerator(ctx, apiKey, model)
	case ProviderGroq, ProviderCerebras:
		return newOpenAIGenerator(provider, apiKey, model, "")
	default:
		return nil, errors.New("unknown provider: " + string(provider))
	}
}

func modelsFor(cfg config.LLMConfig, provider Provider) []string {
	var models []string
	switch provider {
	case ProviderGemini:
		models = cfg.GeminiChatModels
	case ProviderGroq:
		models = cfg.GroqChatModels
	case ProviderCerebras:
		models = cfg.CerebrasChatModels
	}
	if len(models) == 0 {
		models = DefaultModels(provider)
	}
	return models
}

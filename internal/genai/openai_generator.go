package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiGenerator generates text through an OpenAI-compatible chat endpoint.
type openaiGenerator struct {
	client   openai.Client
	model    string
	provider Provider
}

// newOpenAIGenerator creates a generator for provider.
// baseURL overrides the provider endpoint when non-empty.
func newOpenAIGenerator(provider Provider, apiKey, model, baseURL string) (*openaiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key not configured", provider)
	}

	if baseURL == "" {
		endpoint, ok := ProviderEndpoint[provider]
		if !ok {
			return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
		}
		baseURL = endpoint
	}

	if model == "" {
		defaults := DefaultModels(provider)
		if len(defaults) == 0 {
			return nil, fmt.Errorf("no default model for provider: %s", provider)
		}
		model = defaults[0]
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0), // Retries are handled by FallbackGenerator
	)

	return &openaiGenerator{
		client:   client,
		model:    model,
		provider: provider,
	}, nil
}

// Generate implements Generator.
func (g *openaiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g == nil {
		return "", errors.New("openai generator not initialized")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       g.model,
		Messages:    messages,
		Temperature: openai.Float(float64(temperatureOrDefault(req.Temperature))),
		MaxTokens:   openai.Int(int64(maxTokensOrDefault(req.MaxTokens))),
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "chat completion failed",
			"provider", g.provider,
			"model", g.model,
			"operation", req.Operation,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", g.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s %s: empty response", g.provider, g.model)
	}
	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	if result == "" {
		return "", fmt.Errorf("%s %s: empty response", g.provider, g.model)
	}

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "generation completed",
			"provider", g.provider,
			"model", g.model,
			"operation", req.Operation,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"duration_ms", duration.Milliseconds())
	}

	return result, nil
}

// wrapError attaches status code and Retry-After from the API response.
func (g *openaiGenerator) wrapError(err error) error {
	wrapped := fmt.Errorf("chat completion failed: %w", err)

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return WrapError(wrapped, g.provider, 0)
	}

	llmErr := &LLMError{
		Err:        wrapped,
		StatusCode: apiErr.StatusCode,
		Provider:   g.provider,
	}
	if apiErr.Response != nil {
		llmErr.RetryAfter = ParseRetryAfter(apiErr.Response.Header)
	}
	llmErr.Retryable = ClassifyError(llmErr) == ActionRetry
	return llmErr
}

// Provider implements Generator.
func (g *openaiGenerator) Provider() Provider {
	if g == nil {
		return ""
	}
	return g.provider
}

// Close implements Generator. The openai-go client needs no cleanup.
func (g *openaiGenerator) Close() error {
	return nil
}

package advisor

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/garyellow/course-advisor-go/internal/errors"
	"github.com/garyellow/course-advisor-go/internal/genai"
)

// Sampling temperatures per step. Extraction wants a stable phrase.
const (
	converseTemperature  = 0.7
	extractTemperature   = 0.2
	recommendTemperature = 0.4

	extractMaxTokens = 64
)

// InterestEngine runs the get-to-know-you dialogue and distils the
// transcript into an interest phrase.
type InterestEngine struct {
	gen     genai.Generator
	timeout time.Duration
}

// NewInterestEngine creates an engine. A zero timeout leaves calls bounded
// only by the caller's context.
func NewInterestEngine(gen genai.Generator, timeout time.Duration) *InterestEngine {
	return &InterestEngine{gen: gen, timeout: timeout}
}

// Converse produces the next advisor turn. transcript holds the exchange
// before message.
func (e *InterestEngine) Converse(ctx context.Context, grade int, transcript, message string) Result {
	return generate(ctx, e.gen, e.timeout, genai.Request{
		System:      genai.InterestConversationSystemPrompt,
		Prompt:      genai.InterestConversationPrompt(grade, transcript, message),
		Temperature: converseTemperature,
		Operation:   genai.OperationConverse,
	})
}

// ExtractInterests asks for a short interest phrase summarizing transcript.
// found is false when the call failed or the model answered with the
// no-interests sentinel.
func (e *InterestEngine) ExtractInterests(ctx context.Context, transcript string) (string, bool, Result) {
	res := generate(ctx, e.gen, e.timeout, genai.Request{
		System:      genai.InterestExtractionSystemPrompt,
		Prompt:      genai.InterestExtractionPrompt(transcript),
		Temperature: extractTemperature,
		MaxTokens:   extractMaxTokens,
		Operation:   genai.OperationExtract,
	})
	if res.Failed() {
		return "", false, res
	}

	phrase := cleanPhrase(res.Text)
	if phrase == "" || strings.EqualFold(phrase, genai.NoInterestsSentinel) {
		return "", false, res
	}
	return phrase, true, res
}

// cleanPhrase strips whitespace, wrapping quotes and trailing punctuation
// that models like to add around a one-line answer.
func cleanPhrase(s string) string {
	s = strings.TrimSpace(s)
	for {
		before := s
		s = strings.Trim(s, "\"'`“”‘’")
		s = strings.TrimRight(s, ".!?;:,")
		s = strings.TrimSpace(s)
		if s == before {
			return s
		}
	}
}

// generate runs one generation call under timeout and folds the outcome into
// a Result.
func generate(ctx context.Context, gen genai.Generator, timeout time.Duration, req genai.Request) Result {
	if gen == nil {
		return Failure(genai.ErrNoGenerator)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := gen.Generate(ctx, req)
	if err != nil {
		return Failure(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Failure(apperrors.ErrEmptyResponse)
	}
	return Success(text)
}

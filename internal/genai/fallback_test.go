package genai

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/garyellow/course-advisor-go/internal/metrics"
)

func init() {
	// Initialize global metrics for testing
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	metrics.InitGlobal(m)
}

// mockGenerator is a test mock for the Generator interface.
type mockGenerator struct {
	generateFunc func(ctx context.Context, req Request) (string, error)
	provider     Provider
	calls        atomic.Int32
	closeCalled  atomic.Bool
}

func (m *mockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	m.calls.Add(1)
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return "", errors.New("not implemented")
}

func (m *mockGenerator) Provider() Provider {
	return m.provider
}

func (m *mockGenerator) Close() error {
	m.closeCalled.Store(true)
	return nil
}

func succeed(text string) func(context.Context, Request) (string, error) {
	return func(context.Context, Request) (string, error) { return text, nil }
}

func fail(err error) func(context.Context, Request) (string, error) {
	return func(context.Context, Request) (string, error) { return "", err }
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestFallbackGenerator_PrimarySuccess(t *testing.T) {
	t.Parallel()
	primary := &mockGenerator{generateFunc: succeed("hello"), provider: ProviderGemini}
	secondary := &mockGenerator{generateFunc: succeed("unused"), provider: ProviderGroq}

	f := NewFallbackGenerator(fastRetry(), primary, secondary)
	got, err := f.Generate(context.Background(), Request{Prompt: "hi", Operation: OperationConverse})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Generate() = %q, want %q", got, "hello")
	}
	if secondary.calls.Load() != 0 {
		t.Error("secondary should not be called when primary succeeds")
	}
}

func TestFallbackGenerator_RetriesTransientErrors(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	primary := &mockGenerator{
		generateFunc: func(context.Context, Request) (string, error) {
			if attempts.Add(1) == 1 {
				return "", errors.New("service unavailable")
			}
			return "recovered", nil
		},
		provider: ProviderGemini,
	}

	f := NewFallbackGenerator(fastRetry(), primary)
	got, err := f.Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "recovered" || primary.calls.Load() != 2 {
		t.Errorf("Generate() = %q after %d calls, want recovered after 2", got, primary.calls.Load())
	}
}

func TestFallbackGenerator_FallsBackToNextProvider(t *testing.T) {
	t.Parallel()
	primary := &mockGenerator{generateFunc: fail(errors.New("quota exceeded")), provider: ProviderGemini}
	secondary := &mockGenerator{generateFunc: succeed("from groq"), provider: ProviderGroq}

	f := NewFallbackGenerator(fastRetry(), primary, secondary)
	got, err := f.Generate(context.Background(), Request{Prompt: "hi", Operation: OperationRecommend})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "from groq" {
		t.Errorf("Generate() = %q, want %q", got, "from groq")
	}
	if primary.calls.Load() != 1 {
		t.Errorf("quota errors should not be retried, primary calls = %d", primary.calls.Load())
	}
}

func TestFallbackGenerator_PermanentErrorSkipsProviderModels(t *testing.T) {
	t.Parallel()
	authErr := WrapError(errors.New("bad key"), ProviderGemini, http.StatusUnauthorized)
	geminiA := &mockGenerator{generateFunc: fail(authErr), provider: ProviderGemini}
	geminiB := &mockGenerator{generateFunc: fail(authErr), provider: ProviderGemini}
	groq := &mockGenerator{generateFunc: succeed("ok"), provider: ProviderGroq}

	f := NewFallbackGenerator(fastRetry(), geminiA, geminiB, groq)
	got, err := f.Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Generate() = %q, want ok", got)
	}
	if geminiB.calls.Load() != 0 {
		t.Error("second gemini model should be skipped after a permanent error")
	}
}

func TestFallbackGenerator_AllFail(t *testing.T) {
	t.Parallel()
	cause := errors.New("service unavailable")
	primary := &mockGenerator{generateFunc: fail(cause), provider: ProviderGemini}
	secondary := &mockGenerator{generateFunc: fail(cause), provider: ProviderCerebras}

	f := NewFallbackGenerator(fastRetry(), primary, secondary)
	_, err := f.Generate(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, cause) {
		t.Errorf("Generate() error = %v, want wrapped %v", err, cause)
	}
	if primary.calls.Load() != 2 || secondary.calls.Load() != 2 {
		t.Errorf("calls = %d/%d, want 2/2", primary.calls.Load(), secondary.calls.Load())
	}
}

func TestFallbackGenerator_CanceledContextStops(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	primary := &mockGenerator{
		generateFunc: func(context.Context, Request) (string, error) {
			cancel()
			return "", context.Canceled
		},
		provider: ProviderGemini,
	}
	secondary := &mockGenerator{generateFunc: succeed("unused"), provider: ProviderGroq}

	f := NewFallbackGenerator(fastRetry(), primary, secondary)
	_, err := f.Generate(ctx, Request{Prompt: "hi"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
	if secondary.calls.Load() != 0 {
		t.Error("canceled request should not fall back")
	}
}

func TestFallbackGenerator_InsufficientBudget(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	primary := &mockGenerator{generateFunc: fail(errors.New("service unavailable")), provider: ProviderGemini}
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour, MaxDelay: time.Hour}

	f := NewFallbackGenerator(cfg, primary)
	start := time.Now()
	_, err := f.Generate(ctx, Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("Generate() should fail")
	}
	if time.Since(start) > time.Second {
		t.Error("Generate() should not sleep past the context deadline")
	}
}

func TestFallbackGenerator_Empty(t *testing.T) {
	t.Parallel()
	var nilGen *FallbackGenerator
	if _, err := nilGen.Generate(context.Background(), Request{}); !errors.Is(err, ErrNoGenerator) {
		t.Errorf("nil Generate() error = %v, want ErrNoGenerator", err)
	}
	if nilGen.Provider() != "" || nilGen.Len() != 0 || nilGen.Close() != nil {
		t.Error("nil FallbackGenerator accessors should return zero values")
	}

	empty := NewFallbackGenerator(RetryConfig{})
	if _, err := empty.Generate(context.Background(), Request{}); !errors.Is(err, ErrNoGenerator) {
		t.Errorf("empty Generate() error = %v, want ErrNoGenerator", err)
	}
}

func TestFallbackGenerator_Close(t *testing.T) {
	t.Parallel()
	a := &mockGenerator{provider: ProviderGemini}
	b := &mockGenerator{provider: ProviderGroq}

	f := NewFallbackGenerator(fastRetry(), a, b)
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !a.closeCalled.Load() || !b.closeCalled.Load() {
		t.Error("Close() should close every generator")
	}
	if f.Provider() != ProviderGemini || f.Len() != 2 {
		t.Errorf("Provider() = %q Len() = %d", f.Provider(), f.Len())
	}
}

func TestClassifyErrorType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "success"},
		{"timeout", context.DeadlineExceeded, "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"rate limit", WrapError(errors.New("x"), ProviderGroq, http.StatusTooManyRequests), "rate_limit"},
		{"server", WrapError(errors.New("x"), ProviderGroq, http.StatusBadGateway), "server_error"},
		{"auth", WrapError(errors.New("x"), ProviderGroq, http.StatusForbidden), "auth_error"},
		{"bad request", WrapError(errors.New("x"), ProviderGroq, http.StatusBadRequest), "invalid_request"},
		{"quota", errors.New("quota exceeded"), "quota_exhausted"},
		{"transient", errors.New("overloaded"), "transient_error"},
		{"permanent", errors.New("forbidden"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyErrorType(tt.err); got != tt.want {
				t.Errorf("classifyErrorType(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

package genai

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEmbedder_Embed(t *testing.T) {
	t.Parallel()
	var gotModel string
	var gotDims int32
	e := newEmbedder(EmbedderConfig{Dimensions: 8}, func(_ context.Context, model, _ string, dims int32) ([]float32, error) {
		gotModel, gotDims = model, dims
		return []float32{0.1, 0.2}, nil
	})

	vec, err := e.Embed(context.Background(), "robotics club")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("Embed() returned %d values, want 2", len(vec))
	}
	if gotModel != DefaultEmbeddingModel || gotDims != 8 {
		t.Errorf("model/dims = %q/%d, want %q/8", gotModel, gotDims, DefaultEmbeddingModel)
	}
	if e.Model() != DefaultEmbeddingModel {
		t.Errorf("Model() = %q", e.Model())
	}
}

func TestEmbedder_EmptyText(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	e := newEmbedder(EmbedderConfig{}, func(context.Context, string, string, int32) ([]float32, error) {
		calls.Add(1)
		return []float32{1}, nil
	})

	for _, text := range []string{"", "   \n"} {
		if _, err := e.Embed(context.Background(), text); err == nil {
			t.Errorf("Embed(%q) should fail", text)
		}
	}
	if calls.Load() != 0 {
		t.Error("empty text should not reach the API")
	}
}

func TestEmbedder_RetriesTransientErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	e := newEmbedder(EmbedderConfig{
		Retry: RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}, func(context.Context, string, string, int32) ([]float32, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("503 service unavailable")
		}
		return []float32{1}, nil
	})

	if _, err := e.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestEmbedder_PermanentErrorNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	e := newEmbedder(EmbedderConfig{
		Retry: RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}, func(context.Context, string, string, int32) ([]float32, error) {
		calls.Add(1)
		return nil, errors.New("invalid api key")
	})

	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Fatal("Embed() should fail")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestEmbedder_ContextCanceled(t *testing.T) {
	t.Parallel()
	e := newEmbedder(EmbedderConfig{}, func(context.Context, string, string, int32) ([]float32, error) {
		return []float32{1}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Embed(ctx, "text"); err == nil {
		t.Error("Embed() with canceled context should fail")
	}
}

func TestEmbedder_EmbeddingFunc(t *testing.T) {
	t.Parallel()
	e := newEmbedder(EmbedderConfig{}, func(context.Context, string, string, int32) ([]float32, error) {
		return []float32{0.5}, nil
	})

	fn := e.EmbeddingFunc()
	vec, err := fn(context.Background(), "text")
	if err != nil || len(vec) != 1 {
		t.Errorf("EmbeddingFunc() = %v, %v", vec, err)
	}
}

func TestNewEmbedder_MissingKey(t *testing.T) {
	t.Parallel()
	if _, err := NewEmbedder(context.Background(), EmbedderConfig{}); err == nil {
		t.Error("NewEmbedder() without API key should fail")
	}
}

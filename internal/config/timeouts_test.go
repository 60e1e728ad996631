package config

import (
	"testing"
	"time"
)

func TestHTTPTimeouts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"HTTPRead", HTTPRead, 10 * time.Second},
		{"HTTPWrite", HTTPWrite, 130 * time.Second},
		{"HTTPIdle", HTTPIdle, 120 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

// A chat turn can run two generation steps back to back.
func TestHTTPWriteCoversTwoGenerations(t *testing.T) {
	t.Parallel()
	if HTTPWrite <= 2*LLMGeneration {
		t.Errorf("HTTPWrite (%v) must exceed two generation steps (%v)", HTTPWrite, 2*LLMGeneration)
	}
}

func TestRetryBackoffBounds(t *testing.T) {
	t.Parallel()
	if LLMRetryInitial >= LLMRetryMax {
		t.Errorf("LLMRetryInitial (%v) must be below LLMRetryMax (%v)", LLMRetryInitial, LLMRetryMax)
	}
	if LLMRetryMax >= LLMGeneration {
		t.Errorf("LLMRetryMax (%v) must fit inside LLMGeneration (%v)", LLMRetryMax, LLMGeneration)
	}
}

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:            "5000",
		LogLevel:        "info",
		ShutdownTimeout: 30 * time.Second,
		UserID:          "user_001",
		DataDir:         "/tmp/advisor",
		CatalogPath:     "/tmp/advisor/courses.json",
		IndexDir:        "/tmp/advisor/index",
		TranscriptDir:   "chat_logs",
		Advisor: AdvisorConfig{
			RetrievalK:           4,
			ChunkSize:            500,
			ChunkOverlap:         100,
			ElicitationThreshold: 5,
			MemoryWindow:         100,
			MaxInterests:         20,
		},
		Session:   SessionConfig{TTL: time.Hour, CleanupInterval: time.Minute},
		RateLimit: RateLimitConfig{UserBurst: 10, UserRefillSec: 0.2, EmbeddingRPM: 100},
		LLM: LLMConfig{
			Providers:    []string{"gemini"},
			Timeout:      time.Minute,
			GeminiAPIKey: "key",
		},
		TranscriptSink: TranscriptSinkFile,
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvPort, "")
	t.Setenv(EnvRetrievalK, "")
	t.Setenv(EnvTranscriptSink, "")
	t.Setenv(EnvLLMProviders, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "5000" {
		t.Errorf("Expected default port '5000', got %q", cfg.Port)
	}
	if cfg.UserID != "user_001" {
		t.Errorf("Expected default user 'user_001', got %q", cfg.UserID)
	}
	if cfg.Advisor.RetrievalK != 4 {
		t.Errorf("Expected default K 4, got %d", cfg.Advisor.RetrievalK)
	}
	if cfg.Advisor.ChunkSize != 500 || cfg.Advisor.ChunkOverlap != 100 {
		t.Errorf("Expected chunking 500/100, got %d/%d", cfg.Advisor.ChunkSize, cfg.Advisor.ChunkOverlap)
	}
	if cfg.Advisor.ElicitationThreshold != 5 {
		t.Errorf("Expected threshold 5, got %d", cfg.Advisor.ElicitationThreshold)
	}
	if cfg.Advisor.MemoryWindow != 100 {
		t.Errorf("Expected memory window 100, got %d", cfg.Advisor.MemoryWindow)
	}
	if cfg.TranscriptSink != TranscriptSinkFile {
		t.Errorf("Expected file sink, got %q", cfg.TranscriptSink)
	}
	if len(cfg.LLM.Providers) != 3 {
		t.Errorf("Expected three default providers, got %v", cfg.LLM.Providers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvPort, "8080")
	t.Setenv(EnvRetrievalK, "6")
	t.Setenv(EnvHybridSearch, "true")
	t.Setenv(EnvLLMProviders, " Groq , gemini ,")
	t.Setenv(EnvGroqChatModels, "llama-3.3-70b-versatile,openai/gpt-oss-20b")
	t.Setenv(EnvSessionTTL, "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Advisor.RetrievalK != 6 {
		t.Errorf("RetrievalK = %d, want 6", cfg.Advisor.RetrievalK)
	}
	if !cfg.Advisor.HybridSearch {
		t.Error("HybridSearch should be enabled")
	}
	if got := strings.Join(cfg.LLM.Providers, ","); got != "groq,gemini" {
		t.Errorf("Providers = %q, want groq,gemini", got)
	}
	if len(cfg.LLM.GroqChatModels) != 2 || cfg.LLM.GroqChatModels[1] != "openai/gpt-oss-20b" {
		t.Errorf("GroqChatModels = %v", cfg.LLM.GroqChatModels)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("Session.TTL = %v, want 2h", cfg.Session.TTL)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:        "missing port",
			mutate:      func(c *Config) { c.Port = "" },
			wantErr:     true,
			errContains: EnvPort,
		},
		{
			name:        "overlap not below chunk size",
			mutate:      func(c *Config) { c.Advisor.ChunkOverlap = 500 },
			wantErr:     true,
			errContains: EnvChunkOverlap,
		},
		{
			name:        "zero threshold",
			mutate:      func(c *Config) { c.Advisor.ElicitationThreshold = 0 },
			wantErr:     true,
			errContains: EnvElicitationThreshold,
		},
		{
			name:        "unknown provider",
			mutate:      func(c *Config) { c.LLM.Providers = []string{"openrouter"} },
			wantErr:     true,
			errContains: "unknown provider",
		},
		{
			name:        "unknown sink",
			mutate:      func(c *Config) { c.TranscriptSink = "kafka" },
			wantErr:     true,
			errContains: EnvTranscriptSink,
		},
		{
			name:        "r2 sink without credentials",
			mutate:      func(c *Config) { c.TranscriptSink = TranscriptSinkR2 },
			wantErr:     true,
			errContains: "R2",
		},
		{
			name: "r2 sink with credentials",
			mutate: func(c *Config) {
				c.TranscriptSink = TranscriptSinkR2
				c.R2 = R2Config{AccountID: "a", AccessKeyID: "k", SecretAccessKey: "s", BucketName: "b"}
			},
		},
		{
			name:        "sentry without dsn",
			mutate:      func(c *Config) { c.Sentry.Enabled = true },
			wantErr:     true,
			errContains: EnvSentryDSN,
		},
		{
			name:        "metrics auth without password",
			mutate:      func(c *Config) { c.Metrics.AuthEnabled = true },
			wantErr:     true,
			errContains: EnvMetricsPassword,
		},
		{
			name:        "sessions expire without cleanup interval",
			mutate:      func(c *Config) { c.Session.CleanupInterval = 0 },
			wantErr:     true,
			errContains: EnvSessionCleanupInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() error = %q, want to contain %q", err.Error(), tt.errContains)
			}
		})
	}
}

func TestLLMConfigAPIKey(t *testing.T) {
	t.Parallel()

	l := LLMConfig{
		Providers:      []string{"groq", "cerebras"},
		CerebrasAPIKey: "c",
	}
	if got := l.APIKey("cerebras"); got != "c" {
		t.Errorf("APIKey(cerebras) = %q", got)
	}
	if got := l.APIKey("unknown"); got != "" {
		t.Errorf("APIKey(unknown) = %q, want empty", got)
	}
	if !l.HasAnyKey() {
		t.Error("HasAnyKey() should be true when cerebras has a key")
	}
	l.CerebrasAPIKey = ""
	if l.HasAnyKey() {
		t.Error("HasAnyKey() should be false without keys")
	}
}

// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and validates them before the server starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Transcript sink kinds.
const (
	TranscriptSinkFile   = "file"
	TranscriptSinkSQLite = "sqlite"
	TranscriptSinkR2     = "r2"
)

// Supported LLM providers.
var validProviders = []string{"gemini", "groq", "cerebras"}

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	ServerName      string
	UserID          string // Fixed user principal served by the HTTP API

	// Data Configuration
	DataDir       string
	CatalogPath   string // JSON array of course records
	IndexDir      string // chromem-go persistent DB and chunk store
	TranscriptDir string // Per-user chat logs for the file sink

	Advisor   AdvisorConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	LLM       LLMConfig

	TranscriptSink string // file, sqlite or r2
	R2             R2Config

	Sentry      SentryConfig
	BetterStack BetterStackConfig
	Metrics     MetricsConfig
}

// AdvisorConfig tunes the dialogue and retrieval pipeline.
type AdvisorConfig struct {
	RetrievalK           int  // Documents per recommendation (default: 4)
	ChunkSize            int  // Splitter chunk size in runes (default: 500)
	ChunkOverlap         int  // Splitter overlap in runes (default: 100)
	ElicitationThreshold int  // Turns before a recommendation is offered (default: 5)
	MemoryWindow         int  // Messages kept per user (default: 100)
	MaxInterests         int  // Stored interests cap, 0 = unlimited (default: 20)
	HybridSearch         bool // Fuse BM25 keyword ranking with vector search
}

// SessionConfig controls in-memory session lifecycle.
type SessionConfig struct {
	TTL             time.Duration // Idle time before a session is evicted (0 = never)
	CleanupInterval time.Duration
}

// RateLimitConfig holds per-user and embedding limits.
type RateLimitConfig struct {
	UserBurst     float64 // Max burst of LLM-backed turns per user
	UserRefillSec float64 // Tokens refilled per second
	EmbeddingRPM  float64 // Embedding requests per minute
	UserDaily     int     // Rolling 24h cap per user (0 = disabled)
}

// LLMConfig configures generation and embedding providers.
type LLMConfig struct {
	Providers          []string // Fallback order
	Timeout            time.Duration
	GeminiAPIKey       string
	GroqAPIKey         string
	CerebrasAPIKey     string
	GeminiChatModels   []string
	GroqChatModels     []string
	CerebrasChatModels []string
	EmbeddingModel     string
}

// R2Config holds Cloudflare R2 credentials for the r2 transcript sink.
type R2Config struct {
	AccountID        string
	AccessKeyID      string
	SecretAccessKey  string
	BucketName       string
	TranscriptPrefix string
}

// SentryConfig holds error reporting settings.
type SentryConfig struct {
	Enabled          bool
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
}

// BetterStackConfig holds remote log shipping settings.
type BetterStackConfig struct {
	Enabled  bool
	Token    string
	Endpoint string
}

// MetricsConfig holds /metrics basic auth settings.
type MetricsConfig struct {
	AuthEnabled bool
	Username    string
	Password    string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	dataDir := getEnv(EnvDataDir, getDefaultDataDir())

	cfg := &Config{
		Port:            getEnv(EnvPort, "5000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),
		ServerName:      getEnv(EnvServerName, ""),
		UserID:          getEnv(EnvUserID, "user_001"),

		DataDir:       dataDir,
		CatalogPath:   getEnv(EnvCatalogPath, filepath.Join(dataDir, "courses.json")),
		IndexDir:      getEnv(EnvIndexDir, filepath.Join(dataDir, "index")),
		TranscriptDir: getEnv(EnvTranscriptDir, "chat_logs"),

		Advisor: AdvisorConfig{
			RetrievalK:           getIntEnv(EnvRetrievalK, 4),
			ChunkSize:            getIntEnv(EnvChunkSize, 500),
			ChunkOverlap:         getIntEnv(EnvChunkOverlap, 100),
			ElicitationThreshold: getIntEnv(EnvElicitationThreshold, 5),
			MemoryWindow:         getIntEnv(EnvMemoryWindow, 100),
			MaxInterests:         getIntEnv(EnvMaxInterests, 20),
			HybridSearch:         getBoolEnv(EnvHybridSearch, false),
		},

		Session: SessionConfig{
			TTL:             getDurationEnv(EnvSessionTTL, 24*time.Hour),
			CleanupInterval: getDurationEnv(EnvSessionCleanupInterval, 10*time.Minute),
		},

		RateLimit: RateLimitConfig{
			UserBurst:     getFloatEnv(EnvUserRateBurst, 10),
			UserRefillSec: getFloatEnv(EnvUserRateRefill, 0.2), // 1 per 5s
			EmbeddingRPM:  getFloatEnv(EnvEmbeddingRPM, 1500),
			UserDaily:     getIntEnv(EnvUserDailyLimit, 0),
		},

		LLM: LLMConfig{
			Providers:          lowerAll(getListEnv(EnvLLMProviders, []string{"gemini", "groq", "cerebras"})),
			Timeout:            getDurationEnv(EnvLLMTimeout, LLMGeneration),
			GeminiAPIKey:       getEnv(EnvGeminiAPIKey, ""),
			GroqAPIKey:         getEnv(EnvGroqAPIKey, ""),
			CerebrasAPIKey:     getEnv(EnvCerebrasAPIKey, ""),
			GeminiChatModels:   getListEnv(EnvGeminiChatModels, nil),
			GroqChatModels:     getListEnv(EnvGroqChatModels, nil),
			CerebrasChatModels: getListEnv(EnvCerebrasChatModels, nil),
			EmbeddingModel:     getEnv(EnvEmbeddingModel, ""),
		},

		TranscriptSink: strings.ToLower(getEnv(EnvTranscriptSink, TranscriptSinkFile)),
		R2: R2Config{
			AccountID:        getEnv(EnvR2AccountID, ""),
			AccessKeyID:      getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey:  getEnv(EnvR2SecretAccessKey, ""),
			BucketName:       getEnv(EnvR2BucketName, ""),
			TranscriptPrefix: getEnv(EnvR2TranscriptPrefix, "transcripts"),
		},

		Sentry: SentryConfig{
			Enabled:          getBoolEnv(EnvSentryEnabled, false),
			DSN:              getEnv(EnvSentryDSN, ""),
			Environment:      getEnv(EnvSentryEnvironment, "production"),
			Release:          getEnv(EnvSentryRelease, ""),
			SampleRate:       getFloatEnv(EnvSentrySampleRate, 1.0),
			TracesSampleRate: getFloatEnv(EnvSentryTracesSampleRate, 0.0),
		},
		BetterStack: BetterStackConfig{
			Enabled:  getBoolEnv(EnvBetterStackEnabled, false),
			Token:    getEnv(EnvBetterStackToken, ""),
			Endpoint: getEnv(EnvBetterStackEndpoint, ""),
		},
		Metrics: MetricsConfig{
			AuthEnabled: getBoolEnv(EnvMetricsAuthEnabled, false),
			Username:    getEnv(EnvMetricsUsername, "prometheus"),
			Password:    getEnv(EnvMetricsPassword, ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New(EnvPort+" is required"))
	}
	if c.UserID == "" {
		errs = append(errs, errors.New(EnvUserID+" is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New(EnvDataDir+" is required"))
	}
	if c.CatalogPath == "" {
		errs = append(errs, errors.New(EnvCatalogPath+" is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
	}

	a := c.Advisor
	if a.RetrievalK <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvRetrievalK, a.RetrievalK))
	}
	if a.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvChunkSize, a.ChunkSize))
	}
	if a.ChunkOverlap < 0 || a.ChunkOverlap >= a.ChunkSize {
		errs = append(errs, fmt.Errorf("%s must be in [0, %s), got %d", EnvChunkOverlap, EnvChunkSize, a.ChunkOverlap))
	}
	if a.ElicitationThreshold <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvElicitationThreshold, a.ElicitationThreshold))
	}
	if a.MemoryWindow <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvMemoryWindow, a.MemoryWindow))
	}
	if a.MaxInterests < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvMaxInterests, a.MaxInterests))
	}

	if c.Session.TTL < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvSessionTTL, c.Session.TTL))
	}
	if c.Session.TTL > 0 && c.Session.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive when sessions expire", EnvSessionCleanupInterval))
	}

	if c.RateLimit.UserBurst <= 0 || c.RateLimit.UserRefillSec <= 0 {
		errs = append(errs, errors.New("user rate limit burst and refill must be positive"))
	}
	if c.RateLimit.EmbeddingRPM <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvEmbeddingRPM))
	}
	if c.RateLimit.UserDaily < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative", EnvUserDailyLimit))
	}

	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("llm config: %w", err))
	}

	switch c.TranscriptSink {
	case TranscriptSinkFile:
		if c.TranscriptDir == "" {
			errs = append(errs, errors.New(EnvTranscriptDir+" is required for the file sink"))
		}
	case TranscriptSinkSQLite:
	case TranscriptSinkR2:
		if !c.R2.IsConfigured() {
			errs = append(errs, errors.New("R2 account, keys and bucket are required for the r2 sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be one of file, sqlite, r2; got %q", EnvTranscriptSink, c.TranscriptSink))
	}

	if c.Sentry.Enabled && c.Sentry.DSN == "" {
		errs = append(errs, errors.New(EnvSentryDSN+" is required when Sentry is enabled"))
	}
	if c.BetterStack.Enabled && (c.BetterStack.Token == "" || c.BetterStack.Endpoint == "") {
		errs = append(errs, errors.New("Better Stack token and endpoint are required when enabled"))
	}
	if c.Metrics.AuthEnabled && c.Metrics.Password == "" {
		errs = append(errs, errors.New(EnvMetricsPassword+" is required when metrics auth is enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the provider list against supplied API keys.
func (l LLMConfig) Validate() error {
	var errs []error
	if len(l.Providers) == 0 {
		errs = append(errs, errors.New(EnvLLMProviders+" must list at least one provider"))
	}
	for _, p := range l.Providers {
		if !slices.Contains(validProviders, p) {
			errs = append(errs, fmt.Errorf("unknown provider %q", p))
		}
	}
	if l.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvLLMTimeout, l.Timeout))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// HasAnyKey reports whether at least one configured provider has an API key.
func (l LLMConfig) HasAnyKey() bool {
	for _, p := range l.Providers {
		if l.APIKey(p) != "" {
			return true
		}
	}
	return false
}

// APIKey returns the API key configured for provider.
func (l LLMConfig) APIKey(provider string) string {
	switch provider {
	case "gemini":
		return l.GeminiAPIKey
	case "groq":
		return l.GroqAPIKey
	case "cerebras":
		return l.CerebrasAPIKey
	}
	return ""
}

// IsConfigured reports whether every credential the R2 client needs is set.
func (r R2Config) IsConfigured() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" && r.BucketName != ""
}

// SQLitePath returns the full path to the SQLite transcript database.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "transcripts.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping blank entries.
// Values keep their case; model names are case-sensitive.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

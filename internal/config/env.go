// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "ADVISOR_PORT"
	EnvLogLevel        = "ADVISOR_LOG_LEVEL"
	EnvShutdownTimeout = "ADVISOR_SHUTDOWN_TIMEOUT"
	EnvServerName      = "ADVISOR_SERVER_NAME"
	EnvUserID          = "ADVISOR_USER_ID"

	// Data
	EnvDataDir       = "ADVISOR_DATA_DIR"
	EnvCatalogPath   = "ADVISOR_CATALOG_PATH"
	EnvIndexDir      = "ADVISOR_INDEX_DIR"
	EnvTranscriptDir = "ADVISOR_TRANSCRIPT_DIR"

	// Advisor behaviour
	EnvRetrievalK           = "ADVISOR_RETRIEVAL_K"
	EnvChunkSize            = "ADVISOR_CHUNK_SIZE"
	EnvChunkOverlap         = "ADVISOR_CHUNK_OVERLAP"
	EnvElicitationThreshold = "ADVISOR_ELICITATION_THRESHOLD"
	EnvMemoryWindow         = "ADVISOR_MEMORY_WINDOW"
	EnvMaxInterests         = "ADVISOR_MAX_INTERESTS"
	EnvHybridSearch         = "ADVISOR_HYBRID_SEARCH"

	// Sessions
	EnvSessionTTL             = "ADVISOR_SESSION_TTL"
	EnvSessionCleanupInterval = "ADVISOR_SESSION_CLEANUP_INTERVAL"

	// Rate Limits
	EnvUserRateBurst  = "ADVISOR_USER_RATE_BURST"
	EnvUserRateRefill = "ADVISOR_USER_RATE_REFILL"
	EnvEmbeddingRPM   = "ADVISOR_EMBEDDING_RPM"
	EnvUserDailyLimit = "ADVISOR_USER_DAILY_LIMIT"

	// LLM
	EnvLLMProviders       = "ADVISOR_LLM_PROVIDERS"
	EnvLLMTimeout         = "ADVISOR_LLM_TIMEOUT"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvGroqAPIKey         = "GROQ_API_KEY"
	EnvCerebrasAPIKey     = "CEREBRAS_API_KEY"
	EnvGeminiChatModels   = "ADVISOR_GEMINI_CHAT_MODELS"
	EnvGroqChatModels     = "ADVISOR_GROQ_CHAT_MODELS"
	EnvCerebrasChatModels = "ADVISOR_CEREBRAS_CHAT_MODELS"
	EnvEmbeddingModel     = "ADVISOR_EMBEDDING_MODEL"

	// Transcript sink
	EnvTranscriptSink = "ADVISOR_TRANSCRIPT_SINK"

	// R2
	EnvR2AccountID        = "ADVISOR_R2_ACCOUNT_ID"
	EnvR2AccessKeyID      = "ADVISOR_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey  = "ADVISOR_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName       = "ADVISOR_R2_BUCKET_NAME"
	EnvR2TranscriptPrefix = "ADVISOR_R2_TRANSCRIPT_PREFIX"

	// Sentry Feature
	EnvSentryEnabled          = "ADVISOR_SENTRY_ENABLED"
	EnvSentryDSN              = "ADVISOR_SENTRY_DSN"
	EnvSentryEnvironment      = "ADVISOR_SENTRY_ENVIRONMENT"
	EnvSentryRelease          = "ADVISOR_SENTRY_RELEASE"
	EnvSentrySampleRate       = "ADVISOR_SENTRY_SAMPLE_RATE"
	EnvSentryTracesSampleRate = "ADVISOR_SENTRY_TRACES_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackEnabled  = "ADVISOR_BETTERSTACK_ENABLED"
	EnvBetterStackToken    = "ADVISOR_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "ADVISOR_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsAuthEnabled = "ADVISOR_METRICS_AUTH_ENABLED"
	EnvMetricsUsername    = "ADVISOR_METRICS_USERNAME"
	EnvMetricsPassword    = "ADVISOR_METRICS_PASSWORD"
)

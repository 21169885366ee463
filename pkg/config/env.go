package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Environment variable names. These are the deployment contract; renaming
// any of them breaks existing installs.
const (
	EnvHelixEnv = "HELIX_ENV"
	EnvHTTPPort = "HTTP_PORT"

	EnvRateLimitEnabled  = "RATE_LIMIT_ENABLED"
	EnvRateWindowMs      = "RATE_LIMIT_API_WINDOW_MS"
	EnvRateAPIMax        = "RATE_LIMIT_API_MAX"
	EnvRateAskJobsMax    = "RATE_LIMIT_ASK_JOBS_MAX"
	EnvAskConcurrencyMax = "HELIX_ASK_CONCURRENCY_MAX"

	EnvAskContextTokens    = "HELIX_ASK_CONTEXT_TOKENS"
	EnvAskOutputTokens     = "HELIX_ASK_OUTPUT_TOKENS"
	EnvAskContextFiles     = "HELIX_ASK_CONTEXT_FILES"
	EnvAskPatchFiles       = "HELIX_ASK_PATCH_FILES"
	EnvAskContextChars     = "HELIX_ASK_CONTEXT_CHARS"
	EnvAskSearchFallback   = "HELIX_ASK_SEARCH_FALLBACK"
	EnvAskSearchQueryLimit = "HELIX_ASK_SEARCH_QUERY_LIMIT"
	EnvAskQueueLimit       = "HELIX_ASK_QUEUE_LIMIT"
	EnvAskMode             = "HELIX_ASK_MODE"

	EnvAllowMockStream = "QI_SNAP_ALLOW_MOCK"
	EnvEnableTraceAPI  = "ENABLE_TRACE_API"
	EnvEnableAGIAuth   = "ENABLE_AGI_AUTH"
	EnvEnableEssence   = "ENABLE_ESSENCE"
	EnvEnableAGI       = "ENABLE_AGI"

	EnvSessionsDatabaseURL = "SESSIONS_DATABASE_URL"
	EnvRetentionDays       = "HELIX_RETENTION_DAYS"
	EnvReportsDir          = "HELIX_REPORTS_DIR"

	EnvLLMLocalURL   = "LLM_LOCAL_URL"
	EnvLLMLocalModel = "LLM_LOCAL_MODEL"
	EnvLLMMaxRPS     = "LLM_LOCAL_MAX_RPS"

	EnvPlannerURL       = "PLANNER_URL"
	EnvExecutorURL      = "EXECUTOR_URL"
	EnvLatticeSearchURL = "LATTICE_SEARCH_URL"

	EnvPacksFile = "HELIX_PACKS_FILE"
)

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default",
			"var", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("Invalid float in environment, using default",
			"var", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

// envBool treats "1", "t", "true", "TRUE" etc. as true. Unset returns the
// fallback, unparseable values return the fallback with a warning.
func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("Invalid boolean in environment, using default",
			"var", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func envMillis(key string, fallback time.Duration) time.Duration {
	ms := envInt(key, int(fallback/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

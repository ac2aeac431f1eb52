package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Env             string
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string
	MigrateOnStart  bool

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	S3PresignTTL    time.Duration
	SSEKMSKeyID     string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool

	QueueMode      string
	SQSQueueURL    string
	SQSWaitSeconds int
	WorkerMaxConc  int

	ExtractProvider string
	GeminiAPIKey    string
	GeminiModel     string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	PeppolProviderBaseURL string
	PeppolProviderAPIKey  string

	UsageFreeLimit   int
	RateLimitEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Env:             env,
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,
		MigrateOnStart:  getEnvBool("MIGRATE_ON_START", false),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		S3PresignTTL:    getEnvDuration("S3_PRESIGN_TTL", 15*time.Minute),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getEnv("MINIO_BUCKET", ""),
		MinioUseSSL:     getEnvBool("MINIO_USE_SSL", true),

		QueueMode:      normalizeQueueMode(getEnv("QUEUE_MODE", "none")),
		SQSQueueURL:    getEnv("SQS_QUEUE_URL", ""),
		SQSWaitSeconds: getEnvInt("SQS_WAIT_SECONDS", 20),
		WorkerMaxConc:  getEnvInt("WORKER_MAX_CONCURRENCY", 4),

		ExtractProvider: getEnv("EXTRACT_PROVIDER", "gemini"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),

		PeppolProviderBaseURL: getEnv("PEPPOL_PROVIDER_BASE_URL", ""),
		PeppolProviderAPIKey:  getEnv("PEPPOL_PROVIDER_API_KEY", ""),

		UsageFreeLimit:   getEnvInt("USAGE_FREE_LIMIT", 50),
		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeQueueMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs":
		return "sqs"
	default:
		return "none"
	}
}

package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"docflow-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool

	LLMProvider  string
	LLMModel     string
	OpenAIAPIKey string
	LLMTimeout   time.Duration

	RedisAddr        string
	RateLimitBackend string

	WebhookDailyLimit  int
	CreditsPerAction   int
	MonthlyCreditLimit int
	PromptSnippetChars int

	JWTSecret string
	JWTTTL    time.Duration
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"ENV":                  "dev",
	"LOG_LEVEL":            "info",
	"CORS_ALLOW_ORIGINS":   "http://localhost:5173",
	"OBJECT_STORE":         "local",
	"LOCAL_STORE_DIR":      "./data",
	"MINIO_BUCKET":         "documents",
	"LLM_PROVIDER":         "placeholder",
	"LLM_MODEL":            "gpt-4o-mini",
	"LLM_TIMEOUT":          "60s",
	"RATE_LIMIT_BACKEND":   "store",
	"WEBHOOK_DAILY_LIMIT":  3,
	"CREDITS_PER_ACTION":   5,
	"MONTHLY_CREDIT_LIMIT": 50,
	"PROMPT_SNIPPET_CHARS": 1200,
	"JWT_TTL":              "24h",
}

// Load reads configuration from the environment, after a best-effort load of local env files.
func Load() Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("cmd/.env")

	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	cfg := Config{
		Port:               v.GetString("PORT"),
		Env:                env,
		LogLevel:           v.GetString("LOG_LEVEL"),
		CORSAllowOrigin:    splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		DatabaseURL:        strings.TrimSpace(v.GetString("DATABASE_URL")),
		ObjectStoreType:    normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:      v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:          v.GetString("AWS_REGION"),
		S3Bucket:           v.GetString("S3_BUCKET"),
		S3Prefix:           v.GetString("S3_PREFIX"),
		SSEKMSKeyID:        v.GetString("SSE_KMS_KEY_ID"),
		MinioEndpoint:      v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:     v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:     v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:        v.GetString("MINIO_BUCKET"),
		MinioUseSSL:        v.GetBool("MINIO_USE_SSL"),
		LLMProvider:        strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER"))),
		LLMModel:           v.GetString("LLM_MODEL"),
		OpenAIAPIKey:       strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		LLMTimeout:         v.GetDuration("LLM_TIMEOUT"),
		RedisAddr:          strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RateLimitBackend:   strings.ToLower(strings.TrimSpace(v.GetString("RATE_LIMIT_BACKEND"))),
		WebhookDailyLimit:  v.GetInt("WEBHOOK_DAILY_LIMIT"),
		CreditsPerAction:   v.GetInt("CREDITS_PER_ACTION"),
		MonthlyCreditLimit: v.GetInt("MONTHLY_CREDIT_LIMIT"),
		PromptSnippetChars: v.GetInt("PROMPT_SNIPPET_CHARS"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTTTL:             v.GetDuration("JWT_TTL"),
	}

	if env == "production" {
		if cfg.DatabaseURL == "" {
			telemetry.Error("config.missing", map[string]any{"key": "DATABASE_URL"})
		}
		if cfg.JWTSecret == "" {
			telemetry.Error("config.missing", map[string]any{"key": "JWT_SECRET"})
		}
	}
	return cfg
}

// UsesMemory reports whether in-memory repositories should back the app.
func (c Config) UsesMemory() bool {
	return c.DatabaseURL == "" && (c.Env == "dev" || c.Env == "local")
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
	case "test":
		return "test"
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

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every process-wide setting. It is built once at start and
// passed to constructors.
type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	EnhancerAddr    string
	ShutdownTimeout time.Duration
	LogLevel        string

	DatabaseDSN string

	RedisAddr    string
	TeamCacheTTL time.Duration

	AnthropicAPIKey     string
	AnthropicBaseURL    string
	ClassifierModel     string
	ClassifierMaxTokens int
	ClassifierTimeout   time.Duration

	AuditTimeout time.Duration

	JWTSecret   string
	JWTAudience string
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:         os.Getenv("GRPC_ADDR"),
		EnhancerAddr:     os.Getenv("ENHANCER_ADDR"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabaseDSN:      getEnv("DATABASE_DSN", "host=postgres user=postgres password=postgres dbname=artifacts port=5432 sslmode=disable"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		AnthropicAPIKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		ClassifierModel:  getEnv("CLASSIFIER_MODEL", "claude-sonnet-4-20250514"),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAudience:      strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
	}

	var errs []error
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 15*time.Second, &errs)
	cfg.TeamCacheTTL = getDuration("TEAM_CACHE_TTL", 10*time.Minute, &errs)
	cfg.ClassifierTimeout = getDuration("CLASSIFIER_TIMEOUT", 60*time.Second, &errs)
	cfg.AuditTimeout = getDuration("AUDIT_TIMEOUT", 10*time.Second, &errs)
	cfg.ClassifierMaxTokens = getInt("CLASSIFIER_MAX_TOKENS", 1024, &errs)

	if cfg.AnthropicAPIKey == "" {
		errs = append(errs, errors.New("ANTHROPIC_API_KEY is required"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, value))
		return fallback
	}
	return d
}

func getInt(key string, fallback int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid positive integer %q", key, value))
		return fallback
	}
	return n
}

package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// IntegrationState reports whether an external integration can be used.
type IntegrationState int

const (
	// IntegrationUninitialized means the credential was never supplied.
	IntegrationUninitialized IntegrationState = iota
	// IntegrationReady means the credential is present and plausible.
	IntegrationReady
	// IntegrationConfigError means the credential is a placeholder or malformed.
	IntegrationConfigError
)

func (s IntegrationState) String() string {
	switch s {
	case IntegrationReady:
		return "ready"
	case IntegrationConfigError:
		return "config_error"
	default:
		return "uninitialized"
	}
}

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	GoogleClientID   string
	GoogleIssuer     string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	GeoIPDBPath      string
	DefaultMarket    string
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// Only the database URL and JWT secret are hard requirements: external
// integrations (Gemini, Google sign-in, GeoIP) degrade to an explicit
// not-configured state instead of failing startup.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		GoogleClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleIssuer:     getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultMarket:    getEnv("DEFAULT_MARKET", "kr"),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// GeminiState reports readiness of the generative AI integration.
func (c *Config) GeminiState() IntegrationState {
	return credentialState(c.GeminiAPIKey)
}

// GoogleState reports readiness of the Google sign-in integration.
func (c *Config) GoogleState() IntegrationState {
	return credentialState(c.GoogleClientID)
}

// GeoIPState reports readiness of the market-detection database.
func (c *Config) GeoIPState() IntegrationState {
	path := strings.TrimSpace(c.GeoIPDBPath)
	if path == "" {
		return IntegrationUninitialized
	}
	if _, err := os.Stat(path); err != nil {
		return IntegrationConfigError
	}
	return IntegrationReady
}

func credentialState(value string) IntegrationState {
	v := strings.TrimSpace(value)
	if v == "" {
		return IntegrationUninitialized
	}
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "your-") || strings.HasPrefix(lower, "your_") ||
		lower == "changeme" || strings.Contains(lower, "placeholder") {
		return IntegrationConfigError
	}
	return IntegrationReady
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

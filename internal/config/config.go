// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is where gymctl looks for the API when GYMDESK_API_URL is unset.
const DefaultAPIBaseURL = "http://localhost:4000"

// DefaultAllowedOrigins are the front desk web app origins accepted by CORS.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:4000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:4000",
}

// Config holds the process settings. Everything comes from the environment, optionally seeded by a .env file.
type Config struct {
	Env                string
	Port               string
	DatabaseURL        string
	Timezone           *time.Location
	RateLimitPerMinute int
	RateLimitBurst     int
	OTLPEndpoint       string
	ServiceName        string
	APIBaseURL         string
	AllowedOrigins     []string
}

// Load reads .env files when present and then the environment.
func Load(files ...string) (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load(files...)

	cfg := &Config{
		Env:                GetEnv("APP_ENV", "development"),
		Port:               GetEnv("PORT", "4000"),
		DatabaseURL:        GetEnv("DATABASE_URL", ""),
		RateLimitPerMinute: GetInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:     GetInt("RATE_LIMIT_BURST", 20),
		OTLPEndpoint:       GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:        GetEnv("SERVICE_NAME", "gymdesk"),
		APIBaseURL:         GetEnv("GYMDESK_API_URL", DefaultAPIBaseURL),
		AllowedOrigins:     GetList("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins),
	}

	tz := GetEnv("GYM_TIMEZONE", "America/Mexico_City")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid GYM_TIMEZONE %q: %w", tz, err)
	}
	cfg.Timezone = loc

	if cfg.RateLimitPerMinute < 0 || cfg.RateLimitBurst < 0 {
		return nil, fmt.Errorf("rate limit settings must be non-negative")
	}
	return cfg, nil
}

// UsesPostgres reports whether a database connection string is configured.
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func GetInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return i
}

// GetList splits a comma separated variable, dropping blanks.
func GetList(key string, defaultValue []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

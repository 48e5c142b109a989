// Package config provides configuration management for the case-status service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the case-status service.
type Config struct {
	// Server settings
	Port     int
	LogLevel string

	// Target site
	CourtBaseURL    string // site origin, e.g. https://example-court.gov.in
	CourtStatusPath string // path of the case-status page carrying token + captcha
	CourtAjaxPath   string // path of the AJAX search endpoint

	// Lookup pipeline
	MaxAttempts    int           // full fetch/solve/search cycles per lookup
	BackoffBase    float64       // exponential backoff base between cycles
	RequestTimeout time.Duration // per-fetch deadline

	// CAPTCHA solver settings
	SolverAPIKeys []string // one or more keys, rotated per call
	SolverModel   string
	SolverBaseURL string

	// Response shaping
	NormalizeResults bool // parse the site envelope into case records

	// Cache settings
	CacheTTL time.Duration // 0 disables the lookup cache
	CacheDB  string        // SQLite path; empty keeps the cache in memory

	// HTTP surface
	CORSOrigins  []string
	RateLimitRPM int

	// Idle shutdown (for scale-to-zero deployments)
	IdleTimeout time.Duration
}

// Load creates a Config from environment variables with sensible defaults.
// The solver API key is the one required setting: without it no captcha can
// ever be solved, so its absence is a startup error rather than a per-request
// one.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CourtBaseURL:    strings.TrimRight(getEnv("COURT_BASE_URL", "https://www.sci.gov.in"), "/"),
		CourtStatusPath: getEnv("COURT_STATUS_PATH", "/case-status-diary-no/"),
		CourtAjaxPath:   getEnv("COURT_AJAX_PATH", "/wp-admin/admin-ajax.php"),

		MaxAttempts:    getEnvInt("MAX_ATTEMPTS", 4),
		BackoffBase:    getEnvFloat("BACKOFF_BASE", 2),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		SolverAPIKeys: splitNonEmpty(getEnv("SOLVER_API_KEY", "")),
		SolverModel:   getEnv("SOLVER_MODEL", "gemini-2.0-flash"),
		SolverBaseURL: getEnv("SOLVER_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),

		NormalizeResults: getEnvBool("NORMALIZE_RESULTS", false),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheDB:  getEnv("CACHE_DB", ""),

		CORSOrigins:  getEnvSlice("CORS_ORIGINS", []string{"*"}),
		RateLimitRPM: getEnvInt("RATE_LIMIT_RPM", 30),

		IdleTimeout: getEnvDuration("IDLE_TIMEOUT", 0),
	}

	if len(cfg.SolverAPIKeys) == 0 {
		return nil, fmt.Errorf("SOLVER_API_KEY is required")
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("MAX_ATTEMPTS must be at least 1, got %d", cfg.MaxAttempts)
	}
	if cfg.BackoffBase <= 1 {
		return nil, fmt.Errorf("BACKOFF_BASE must be greater than 1, got %g", cfg.BackoffBase)
	}

	return cfg, nil
}

// StatusPageURL returns the absolute URL of the case-status page.
func (c *Config) StatusPageURL() string {
	return c.CourtBaseURL + c.CourtStatusPath
}

// AjaxURL returns the absolute URL of the site's search endpoint.
func (c *Config) AjaxURL() string {
	return c.CourtBaseURL + c.CourtAjaxPath
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		lower := strings.ToLower(val)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		// Bare numbers are treated as seconds for operator convenience.
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}

func getEnvSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		return splitNonEmpty(val)
	}
	return defaultVal
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

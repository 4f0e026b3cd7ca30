// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// OracleConfig holds the settings for the OpenAI-compatible model API.
type OracleConfig struct {
	APIKey      string
	BaseURL     string  // empty uses the provider default
	Model       string  // default "gpt-4o-mini"
	Temperature float64 // default 0.1
	Timeout     time.Duration
}

// Enabled returns true when an API key is configured.
func (o *OracleConfig) Enabled() bool {
	return o.APIKey != ""
}

// Config holds the configuration for the HTTP API, the metastore, the
// analytical store, and the oracle.
type Config struct {
	MetaDBPath   string // path to SQLite metadata file (default "retail_meta.sqlite")
	ListenAddr   string // HTTP listen address (default ":8080")
	LogLevel     string // log level: debug, info, warn, error (default "info")
	DatasetPath  string // CSV to load at startup (optional)
	DatasetTable string // analytical table name (default "sales")
	PromptsPath  string // YAML prompt overrides (optional)

	MaxRows           int // sample rows in result digests (default 8)
	PlannerMaxTokens  int // default 800
	NarratorMaxTokens int // default 700

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Oracle holds the model API configuration.
	Oracle OracleConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MetaDBPath:   os.Getenv("META_DB_PATH"),
		ListenAddr:   os.Getenv("LISTEN_ADDR"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		DatasetPath:  os.Getenv("DATASET_PATH"),
		DatasetTable: os.Getenv("DATASET_TABLE"),
		PromptsPath:  os.Getenv("PROMPTS_PATH"),
	}

	cfg.Oracle = OracleConfig{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
	}
	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Oracle.Temperature = f
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid OPENAI_TEMPERATURE %q, using default", v))
		}
	}
	if v := os.Getenv("OPENAI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Oracle.Timeout = d
		}
	}

	cfg.MaxRows = parseIntEnv(cfg, "MAX_ROWS")
	cfg.PlannerMaxTokens = parseIntEnv(cfg, "PLANNER_MAX_TOKENS")
	cfg.NarratorMaxTokens = parseIntEnv(cfg, "NARRATOR_MAX_TOKENS")

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "retail_meta.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DatasetTable == "" {
		cfg.DatasetTable = "sales"
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "gpt-4o-mini"
	}
	if cfg.Oracle.Temperature == 0 {
		cfg.Oracle.Temperature = 0.1
	}
	if cfg.MaxRows == 0 {
		cfg.MaxRows = 8
	}
	if cfg.PlannerMaxTokens == 0 {
		cfg.PlannerMaxTokens = 800
	}
	if cfg.NarratorMaxTokens == 0 {
		cfg.NarratorMaxTokens = 700
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if !cfg.Oracle.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "OPENAI_API_KEY not set; questions and summaries will be unavailable")
	}

	return cfg, nil
}

func parseIntEnv(cfg *Config, key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid %s %q, using default", key, v))
		return 0
	}
	return n
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars already set take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

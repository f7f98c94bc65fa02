// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database selection, matching policy, LLM
// provider access, rate limiting and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-lostfound-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// MatchConfig holds the matching engine policy.
type MatchConfig struct {
	WindowDays        int           // MATCH_WINDOW_DAYS, max |date difference| for candidates
	HighThreshold     int           // MATCH_HIGH_THRESHOLD, score >= is "high"
	PossibleThreshold int           // MATCH_POSSIBLE_THRESHOLD, score >= is "possible"
	TopN              int           // MATCH_TOP_N, results returned to the submitter
	Workers           int           // MATCH_WORKERS, concurrent scoring pipelines per pass
	RubricVersion     string        // RUBRIC_VERSION, e.g. "v3-stars"
	WriteRetries      int           // MATCH_WRITE_RETRIES, ledger/notification write attempts
	SweepInterval     time.Duration // MATCH_SWEEP_INTERVAL, 0 disables the periodic sweep
	SweepLeaseTTL     time.Duration // MATCH_SWEEP_LEASE_TTL
	SweepBatchSize    int           // MATCH_SWEEP_BATCH_SIZE
}

// LLMConfig selects and configures the language model provider.
type LLMConfig struct {
	Provider   string        // LLM_PROVIDER: anthropic|openai|stub
	APIKey     string        // LLM_API_KEY (falls back to ANTHROPIC_API_KEY / OPENAI_API_KEY)
	Model      string        // LLM_MODEL
	BaseURL    string        // LLM_BASE_URL, optional override
	Timeout    time.Duration // LLM_TIMEOUT, per call
	MaxRetries int           // LLM_MAX_RETRIES
	RPS        float64       // LLM_RPS, outbound call rate (0 = unlimited)
	CacheTTL   time.Duration // CATEGORY_CACHE_TTL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBDriver string // sqlite|postgres|mysql
	DBPath   string // SQLite path (DB_DRIVER=sqlite)
	DBDSN    string // DSN for postgres/mysql

	// Matching / LLM
	Match MatchConfig
	LLM   LLMConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBDriver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBPath:   getenv("DB_PATH", "lostfound.db"),
		DBDSN:    getenv("DB_DSN", ""),

		// Matching
		Match: MatchConfig{
			WindowDays:        getint("MATCH_WINDOW_DAYS", 30),
			HighThreshold:     getint("MATCH_HIGH_THRESHOLD", 80),
			PossibleThreshold: getint("MATCH_POSSIBLE_THRESHOLD", 60),
			TopN:              getint("MATCH_TOP_N", 5),
			Workers:           getint("MATCH_WORKERS", 4),
			RubricVersion:     strings.ToLower(getenv("RUBRIC_VERSION", "v3-stars")),
			WriteRetries:      getint("MATCH_WRITE_RETRIES", 3),
			SweepInterval:     getdur("MATCH_SWEEP_INTERVAL", 0),
			SweepLeaseTTL:     getdur("MATCH_SWEEP_LEASE_TTL", 10*time.Minute),
			SweepBatchSize:    getint("MATCH_SWEEP_BATCH_SIZE", 200),
		},

		// LLM
		LLM: LLMConfig{
			Provider:   strings.ToLower(getenv("LLM_PROVIDER", "stub")),
			APIKey:     getenv("LLM_API_KEY", ""),
			Model:      getenv("LLM_MODEL", ""),
			BaseURL:    getenv("LLM_BASE_URL", ""),
			Timeout:    getdur("LLM_TIMEOUT", 30*time.Second),
			MaxRetries: getint("LLM_MAX_RETRIES", 3),
			RPS:        getfloat("LLM_RPS", 2.0),
			CacheTTL:   getdur("CATEGORY_CACHE_TTL", time.Hour),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-lostfound-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "anthropic":
			cfg.LLM.APIKey = getenv("ANTHROPIC_API_KEY", "")
		case "openai":
			cfg.LLM.APIKey = getenv("OPENAI_API_KEY", "")
		}
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "anthropic":
			cfg.LLM.Model = "claude-3-5-haiku-latest"
		case "openai":
			cfg.LLM.Model = "gpt-4o-mini"
		}
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres", "mysql":
		if strings.TrimSpace(cfg.DBDSN) == "" {
			return cfg, errors.New("DB_DSN must not be empty for postgres/mysql")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres, mysql")
	}
	if err := cfg.Match.validate(); err != nil {
		return cfg, err
	}
	switch cfg.LLM.Provider {
	case "stub":
	case "anthropic", "openai":
		if strings.TrimSpace(cfg.LLM.APIKey) == "" {
			return cfg, errors.New("LLM_API_KEY must be set for provider " + cfg.LLM.Provider)
		}
	default:
		return cfg, errors.New("LLM_PROVIDER must be one of: anthropic, openai, stub")
	}
	if cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT must be > 0")
	}
	if cfg.LLM.MaxRetries < 0 {
		return cfg, errors.New("LLM_MAX_RETRIES must be >= 0")
	}
	if cfg.LLM.RPS < 0 {
		return cfg, errors.New("LLM_RPS must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

func (m MatchConfig) validate() error {
	if m.WindowDays < 0 {
		return errors.New("MATCH_WINDOW_DAYS must be >= 0")
	}
	if m.PossibleThreshold < 0 || m.HighThreshold > 100 || m.PossibleThreshold > m.HighThreshold {
		return errors.New("match thresholds must satisfy 0 <= MATCH_POSSIBLE_THRESHOLD <= MATCH_HIGH_THRESHOLD <= 100")
	}
	if m.TopN < 1 {
		return errors.New("MATCH_TOP_N must be >= 1")
	}
	if m.Workers < 1 {
		return errors.New("MATCH_WORKERS must be >= 1")
	}
	if m.WriteRetries < 1 {
		return errors.New("MATCH_WRITE_RETRIES must be >= 1")
	}
	if m.SweepInterval < 0 {
		return errors.New("MATCH_SWEEP_INTERVAL must be >= 0")
	}
	if m.SweepLeaseTTL <= 0 {
		return errors.New("MATCH_SWEEP_LEASE_TTL must be > 0")
	}
	if m.SweepBatchSize < 1 {
		return errors.New("MATCH_SWEEP_BATCH_SIZE must be >= 1")
	}
	return nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

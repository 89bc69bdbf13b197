// Package config loads the service configuration from the environment.
//
// Every knob has a default that boots a working single-node service. Load
// applies those defaults, normalizes the few values that accept variant
// spellings, and rejects combinations the server cannot run with. Numeric
// and duration variables that fail to parse fall back to their defaults
// silently; validation only rejects values that parsed but cannot work.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig controls the hardening headers.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig configures trace export.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT, host:port
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE, disables TLS
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0,1]
}

// SchedulerConfig bounds the task scheduler.
type SchedulerConfig struct {
	Workers   int // SCHEDULER_WORKERS: concurrent task executors
	QueueSize int // TASK_QUEUE_SIZE: max enqueued-but-unstarted tasks
}

// MaintenanceConfig drives the periodic sweeper.
type MaintenanceConfig struct {
	TaskRetention time.Duration // TASK_RETENTION: how long finished tasks are kept
	SweepInterval time.Duration // SWEEP_INTERVAL: how often the sweeper runs
}

// EventsConfig describes the optional NATS task-event publisher.
type EventsConfig struct {
	Enabled       bool   // EVENTS_ENABLED
	NATSURL       string // NATS_URL
	SubjectPrefix string // NATS_SUBJECT_PREFIX, first token of every subject
}

// Config carries every runtime setting of the service.
type Config struct {
	// HTTP server
	Port              string        // listener port, no colon
	ReadTimeout       time.Duration // READ_TIMEOUT
	ReadHeaderTimeout time.Duration // READ_HEADER_TIMEOUT
	WriteTimeout      time.Duration // WRITE_TIMEOUT
	IdleTimeout       time.Duration // IDLE_TIMEOUT
	MaxHeaderBytes    int           // MAX_HEADER_BYTES
	GinMode           string        // debug|release|test

	// Logging and docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // console writer instead of JSON
	SwaggerEnabled bool   // mount the swagger UI route
	APIBasePath    string // prefix for the REST tree, normalized

	// Storage and ingestion
	DBPath          string // SQLite file
	StoreDir        string // spool directory for update files
	MaxPayloadBytes int64  // request body cap for document uploads

	// Task pipeline
	Scheduler   SchedulerConfig
	Maintenance MaintenanceConfig

	// Search
	SearchDefaultLimit int // page size when the query names none
	SearchMaxLimit     int // hard cap on the requested page size

	// Rate limiting
	RateRPS   float64 // tokens per second, >= 0
	RateBurst int     // bucket size, >= 1

	// Browser-facing protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotent retries
	IdempotencyTTL time.Duration // lifetime of a stored Idempotency-Key

	// Task events
	Events EventsConfig

	// Tracing
	OTEL OTELConfig
}

// MustLoad is Load for main(): bad configuration stops the process.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load builds the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:              envStr("PORT", "8080"),
		ReadTimeout:       envDur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: envDur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      envDur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       envDur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    envInt("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(envStr("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(envStr("LOG_LEVEL", "info")),
		LogPretty:      envBool("LOG_PRETTY", false),
		SwaggerEnabled: envBool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(envStr("API_BASE_PATH", "/api/v1")),

		DBPath:          envStr("DB_PATH", "app.db"),
		StoreDir:        envStr("STORE_DIR", "data/updates"),
		MaxPayloadBytes: envInt64("MAX_PAYLOAD_BYTES", 100<<20),

		Scheduler: SchedulerConfig{
			Workers:   envInt("SCHEDULER_WORKERS", 4),
			QueueSize: envInt("TASK_QUEUE_SIZE", 1024),
		},
		Maintenance: MaintenanceConfig{
			TaskRetention: envDur("TASK_RETENTION", 30*24*time.Hour),
			SweepInterval: envDur("SWEEP_INTERVAL", time.Hour),
		},

		SearchDefaultLimit: envInt("SEARCH_DEFAULT_LIMIT", 20),
		SearchMaxLimit:     envInt("SEARCH_MAX_LIMIT", 1000),

		RateRPS:   envFloat("RATE_RPS", 5.0),
		RateBurst: envInt("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(envStr("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: envBool("ENABLE_HSTS", false),
			HSTSMaxAge: envDur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: envDur("IDEMPOTENCY_TTL", 24*time.Hour),

		Events: EventsConfig{
			Enabled:       envBool("EVENTS_ENABLED", false),
			NATSURL:       envStr("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: envStr("NATS_SUBJECT_PREFIX", "indexer"),
		},

		OTEL: OTELConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			Endpoint:    envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: envStr("OTEL_SERVICE_NAME", "go-index-backend"),
			SampleRatio: envFloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	cfg.normalize()
	return cfg, cfg.validate()
}

// normalize rewrites accepted variant spellings into their canonical form.
func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
}

func (c Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if c.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}

	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(c.StoreDir) == "" {
		return errors.New("STORE_DIR must not be empty")
	}
	if c.MaxPayloadBytes <= 0 {
		return errors.New("MAX_PAYLOAD_BYTES must be > 0")
	}

	if c.Scheduler.Workers < 1 {
		return errors.New("SCHEDULER_WORKERS must be >= 1")
	}
	if c.Scheduler.QueueSize < 1 {
		return errors.New("TASK_QUEUE_SIZE must be >= 1")
	}
	if c.Maintenance.TaskRetention <= 0 {
		return errors.New("TASK_RETENTION must be > 0")
	}
	if c.Maintenance.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be > 0")
	}

	if c.SearchDefaultLimit < 1 {
		return errors.New("SEARCH_DEFAULT_LIMIT must be >= 1")
	}
	if c.SearchMaxLimit < c.SearchDefaultLimit {
		return errors.New("SEARCH_MAX_LIMIT must be >= SEARCH_DEFAULT_LIMIT")
	}

	if c.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if c.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if c.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if c.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if c.Events.Enabled && strings.TrimSpace(c.Events.NATSURL) == "" {
		return errors.New("NATS_URL must not be empty when EVENTS_ENABLED is set")
	}
	if c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// lookup reads one environment variable, treating unset and empty as the
// same absence. All typed readers below go through it.
func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envStr(key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envInt(key string, def int) int {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// splitCSV turns a comma-separated variable into its non-blank entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// normalizeBasePath guarantees a leading '/' and no trailing one, so route
// registration can concatenate without doubling separators. Empty input
// means the root.
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	for len(p) > 1 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return p
}

package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// The host shell may carry a PORT that would bleed into the defaults tests.
func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on invalid configuration", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "verbose")
		defer func() {
			if recover() == nil {
				t.Fatal("MustLoad did not panic")
			}
		}()
		_ = MustLoad()
	})

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := MustLoad()
		if cfg.APIBasePath == "" {
			t.Fatal("empty config from MustLoad")
		}
	})
}

func TestLoad_OverridesEveryKnob(t *testing.T) {
	env := map[string]string{
		"PORT":                "8088",
		"READ_TIMEOUT":        "2s",
		"READ_HEADER_TIMEOUT": "1s",
		"WRITE_TIMEOUT":       "3s",
		"IDLE_TIMEOUT":        "4s",
		"MAX_HEADER_BYTES":    "8192",
		"GIN_MODE":            "weird", // normalized to release

		"LOG_LEVEL":       "warning", // normalized to warn
		"LOG_PRETTY":      "yes",
		"SWAGGER_ENABLED": "on",
		"API_BASE_PATH":   "api/v1/", // normalized to /api/v1

		"DB_PATH":           "db.sqlite",
		"STORE_DIR":         "updates",
		"MAX_PAYLOAD_BYTES": "1048576",

		"SCHEDULER_WORKERS": "2",
		"TASK_QUEUE_SIZE":   "16",
		"TASK_RETENTION":    "72h",
		"SWEEP_INTERVAL":    "10m",

		"SEARCH_DEFAULT_LIMIT": "5",
		"SEARCH_MAX_LIMIT":     "50",

		"RATE_RPS":   "x",    // unparseable, keeps default 5.0
		"RATE_BURST": "nope", // unparseable, keeps default 10

		"CORS_ALLOWED_ORIGINS": " https://a.com , , http://b ",
		"ENABLE_HSTS":          "TRUE",
		"HSTS_MAX_AGE":         "24h",

		"IDEMPOTENCY_TTL": "48h",

		"EVENTS_ENABLED":      "1",
		"NATS_URL":            "nats://queue:4222",
		"NATS_SUBJECT_PREFIX": "idx",

		"OTEL_ENABLED":                "1",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "otel:4317",
		"OTEL_EXPORTER_OTLP_INSECURE": "0",
		"OTEL_SERVICE_NAME":           "svc",
		"OTEL_TRACES_SAMPLER_ARG":     "0.75",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	t.Run("server", func(t *testing.T) {
		if cfg.Port != "8088" || cfg.MaxHeaderBytes != 8192 {
			t.Fatalf("port/header cap: %+v", cfg)
		}
		if cfg.ReadTimeout != 2*time.Second || cfg.ReadHeaderTimeout != time.Second ||
			cfg.WriteTimeout != 3*time.Second || cfg.IdleTimeout != 4*time.Second {
			t.Fatalf("timeouts: %+v", cfg)
		}
		if cfg.GinMode != "release" {
			t.Fatalf("GinMode = %q, want normalized release", cfg.GinMode)
		}
	})

	t.Run("logging and docs", func(t *testing.T) {
		if cfg.LogLevel != "warn" {
			t.Fatalf("LogLevel = %q, want normalized warn", cfg.LogLevel)
		}
		if !cfg.LogPretty || !cfg.SwaggerEnabled {
			t.Fatalf("bool flags: %+v", cfg)
		}
		if cfg.APIBasePath != "/api/v1" {
			t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
		}
	})

	t.Run("storage and pipeline", func(t *testing.T) {
		if cfg.DBPath != "db.sqlite" || cfg.StoreDir != "updates" || cfg.MaxPayloadBytes != 1<<20 {
			t.Fatalf("storage: %+v", cfg)
		}
		if cfg.Scheduler.Workers != 2 || cfg.Scheduler.QueueSize != 16 {
			t.Fatalf("scheduler: %+v", cfg.Scheduler)
		}
		if cfg.Maintenance.TaskRetention != 72*time.Hour || cfg.Maintenance.SweepInterval != 10*time.Minute {
			t.Fatalf("maintenance: %+v", cfg.Maintenance)
		}
	})

	t.Run("search and rate limits", func(t *testing.T) {
		if cfg.SearchDefaultLimit != 5 || cfg.SearchMaxLimit != 50 {
			t.Fatalf("search limits: %+v", cfg)
		}
		// Both rate values were garbage, so the defaults must survive.
		if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
			t.Fatalf("rate limits: rps=%v burst=%d", cfg.RateRPS, cfg.RateBurst)
		}
	})

	t.Run("protection and retries", func(t *testing.T) {
		if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
			t.Fatalf("origins: %#v", cfg.CORS.AllowedOrigins)
		}
		if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
			t.Fatalf("security: %+v", cfg.Security)
		}
		if cfg.IdempotencyTTL != 48*time.Hour {
			t.Fatalf("IdempotencyTTL = %v", cfg.IdempotencyTTL)
		}
	})

	t.Run("events and tracing", func(t *testing.T) {
		if !cfg.Events.Enabled || cfg.Events.NATSURL != "nats://queue:4222" || cfg.Events.SubjectPrefix != "idx" {
			t.Fatalf("events: %+v", cfg.Events)
		}
		if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure ||
			cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
			t.Fatalf("otel: %+v", cfg.OTEL)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with bare environment: %v", err)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath = %q, want /api/v1", cfg.APIBasePath)
	}
	if cfg.MaxPayloadBytes != 100<<20 {
		t.Fatalf("MaxPayloadBytes = %d, want %d", cfg.MaxPayloadBytes, int64(100<<20))
	}
	if cfg.Scheduler.Workers != 4 || cfg.Scheduler.QueueSize != 1024 {
		t.Fatalf("scheduler defaults: %+v", cfg.Scheduler)
	}
	if cfg.SearchDefaultLimit != 20 || cfg.SearchMaxLimit != 1000 {
		t.Fatalf("search defaults: %+v", cfg)
	}
	if cfg.Events.Enabled {
		t.Fatal("events must default to disabled")
	}
	if cfg.OTEL.Enabled || !cfg.OTEL.Insecure {
		t.Fatalf("otel defaults: %+v", cfg.OTEL)
	}
}

// Every rejection the validator can produce, one row each. The env map holds
// the minimal overrides that trigger it.
func TestLoad_Rejections(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"blank port", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"zero timeout", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"zero header cap", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"blank db path", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"blank store dir", map[string]string{"STORE_DIR": "   "}, "STORE_DIR must not be empty"},
		{"zero payload cap", map[string]string{"MAX_PAYLOAD_BYTES": "0"}, "MAX_PAYLOAD_BYTES"},
		{"no workers", map[string]string{"SCHEDULER_WORKERS": "0"}, "SCHEDULER_WORKERS"},
		{"no queue", map[string]string{"TASK_QUEUE_SIZE": "0"}, "TASK_QUEUE_SIZE"},
		{"zero retention", map[string]string{"TASK_RETENTION": "0s"}, "TASK_RETENTION"},
		{"zero sweep interval", map[string]string{"SWEEP_INTERVAL": "0s"}, "SWEEP_INTERVAL"},
		{"zero search default", map[string]string{"SEARCH_DEFAULT_LIMIT": "0"}, "SEARCH_DEFAULT_LIMIT"},
		{"search cap below default", map[string]string{"SEARCH_DEFAULT_LIMIT": "100", "SEARCH_MAX_LIMIT": "10"}, "SEARCH_MAX_LIMIT"},
		{"negative rps", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"zero burst", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"negative hsts age", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"zero idempotency ttl", map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{"events without nats url", map[string]string{"EVENTS_ENABLED": "1", "NATS_URL": "   "}, "NATS_URL"},
		{"sample ratio above one", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("Load accepted %v", tc.env)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestEnvReaders(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		t.Setenv("X_EMPTY", "")
		if envStr("X_EMPTY", "d") != "d" {
			t.Fatal("empty value must fall back")
		}
		t.Setenv("X_SET", "val")
		if envStr("X_SET", "d") != "val" {
			t.Fatal("set value must win")
		}
		if envStr("X_UNSET_NEVER", "d") != "d" {
			t.Fatal("unset must fall back")
		}
	})

	t.Run("float", func(t *testing.T) {
		t.Setenv("F_OK", "3.14")
		t.Setenv("F_BAD", "nope")
		if envFloat("F_OK", 0) != 3.14 || envFloat("F_BAD", 1.23) != 1.23 {
			t.Fatal("float parsing or fallback broken")
		}
	})

	t.Run("int", func(t *testing.T) {
		t.Setenv("I_OK", "42")
		t.Setenv("I_BAD", "x")
		if envInt("I_OK", 0) != 42 || envInt("I_BAD", 7) != 7 {
			t.Fatal("int parsing or fallback broken")
		}
	})

	t.Run("int64", func(t *testing.T) {
		t.Setenv("I64_OK", "5368709120") // over 2^32, must not truncate
		t.Setenv("I64_BAD", "big")
		if envInt64("I64_OK", 0) != 5368709120 || envInt64("I64_BAD", 9) != 9 {
			t.Fatal("int64 parsing or fallback broken")
		}
	})

	t.Run("duration", func(t *testing.T) {
		t.Setenv("D_OK", "150ms")
		t.Setenv("D_BAD", "zzz")
		if envDur("D_OK", time.Second) != 150*time.Millisecond || envDur("D_BAD", 2*time.Second) != 2*time.Second {
			t.Fatal("duration parsing or fallback broken")
		}
	})

	t.Run("bool", func(t *testing.T) {
		// def is the opposite of want, so a fallback can never fake a pass.
		vals := map[string]bool{
			"1": true, "true": true, "TRUE": true, " yes ": true, "Y": true, "on": true,
			"0": false, "false": false, "FALSE": false, " no ": false, "N": false, "off": false,
		}
		i := 0
		for raw, want := range vals {
			key := fmt.Sprintf("B_%d", i)
			i++
			t.Setenv(key, raw)
			if got := envBool(key, !want); got != want {
				t.Fatalf("envBool(%q) = %v, want %v", raw, got, want)
			}
		}

		t.Setenv("B_GARBAGE", "maybe")
		if !envBool("B_GARBAGE", true) || envBool("B_GARBAGE", false) {
			t.Fatal("unrecognized value must keep the default")
		}
		t.Setenv("B_EMPTY", "")
		if !envBool("B_EMPTY", true) || envBool("B_EMPTY", false) {
			t.Fatal("empty value must keep the default")
		}
	})
}

func TestSplitCSV(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV(\"\") = %#v, want nil", out)
	}
	got := splitCSV(" a, ,b ,  c  ,")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV = %#v", got)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{" / ", "/"},
		{"v1", "/v1"},
		{"/v1/", "/v1"},
		{"/a/b//", "/a/b"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

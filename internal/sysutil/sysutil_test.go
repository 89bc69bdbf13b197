package sysutil

import (
	"testing"

	"github.com/rs/zerolog"
)

// The global log level is process state; every test restores it on cleanup.
func preserveLevel(t *testing.T) {
	t.Helper()
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })
}

func TestSetLogLevel(t *testing.T) {
	preserveLevel(t)

	cases := []struct {
		name string
		in   string
		want zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"mixed case with padding", "  DeBuG  ", zerolog.DebugLevel},
		{"info", "info", zerolog.InfoLevel},
		{"empty falls back to info", "", zerolog.InfoLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"warning alias", "warning", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"fatal", "fatal", zerolog.FatalLevel},
		{"panic", "panic", zerolog.PanicLevel},
		{"garbage falls back to info", "loud", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			SetLogLevel(tc.in)
			if got := zerolog.GlobalLevel(); got != tc.want {
				t.Fatalf("SetLogLevel(%q): global level = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSetupLogger(t *testing.T) {
	preserveLevel(t)

	SetupLogger("error", false)
	if got := zerolog.GlobalLevel(); got != zerolog.ErrorLevel {
		t.Fatalf("global level = %v, want error", got)
	}

	// The console writer only changes the output format, never the level.
	SetupLogger("debug", true)
	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Fatalf("global level with pretty output = %v, want debug", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want string
	}{
		{"no values", nil, ""},
		{"all blank", []string{" ", "\t", "\n"}, ""},
		{"skips blanks and keeps spacing", []string{"   ", "  hello  ", "world"}, "  hello  "},
		{"first already set", []string{"alpha", "beta"}, "alpha"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FirstNonEmpty(tc.in...); got != tc.want {
				t.Fatalf("FirstNonEmpty(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

package logger

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.WarnLevel,
		"debug":   zerolog.DebugLevel,
		" INFO ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"trace":   zerolog.TraceLevel,
		"bogus":   zerolog.WarnLevel,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesComponentField(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.InfoLevel).With().Str("component", "journal").Logger()
	log.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"journal"`) {
		t.Errorf("Expected component field in %q", out)
	}
	if !strings.Contains(out, `"time"`) {
		t.Errorf("Expected timestamp in %q", out)
	}
}

func TestInitWithOptionsLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diary.log")
	if _, err := InitWithOptions(path, false); err != nil {
		t.Fatalf("InitWithOptions: %v", err)
	}
}

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"info":    zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNewTagsAndFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "porch-petals", "api", "warn")

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"component":"api"`) || !strings.Contains(out, `"app":"porch-petals"`) {
		t.Fatalf("expected app and component fields: %s", out)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "porch-petals", "", "info")
	logger := Component(base, "poller")
	logger.Info().Msg("tick")

	if strings.Count(buf.String(), `"component"`) != 1 || !strings.Contains(buf.String(), `"component":"poller"`) {
		t.Fatalf("expected a single component field: %s", buf.String())
	}
}

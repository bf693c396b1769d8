package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.Info().Str("key", "value").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, `"key":"value"`) {
		t.Errorf("output missing field: %s", out)
	}
	if !strings.Contains(out, `"time":`) {
		t.Errorf("output missing timestamp: %s", out)
	}
}

func TestWithContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), log)
	got := FromContext(ctx)

	got.Info().Msg("from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Error("logger retrieved from context does not write to the original writer")
	}
}

func TestFromContext_MissingLogger(t *testing.T) {
	// Must not panic and must return a usable logger.
	log := FromContext(context.Background())
	log.Debug().Msg("default logger")
}

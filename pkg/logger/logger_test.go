package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	return out
}

func TestContextFieldsAreCarried(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Level: zerolog.DebugLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithUserID(ctx, "user_2abc")
	ctx = logg.WithPlan(ctx, "free")
	logg.Info(ctx, "cellar.save")

	line := decodeLine(t, &buf)
	if line["request_id"] != "req-1" || line["user_id"] != "user_2abc" || line["plan"] != "free" {
		t.Fatalf("missing ctx fields: %v", line)
	}
	if line["service"] != "api" || line["message"] != "cellar.save" {
		t.Fatalf("unexpected base fields: %v", line)
	}
}

func TestErrorIncludesCauseAndStack(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	logg.Error(context.Background(), "billing.pause_failed", errors.New("card_declined"))

	line := decodeLine(t, &buf)
	if line["error"] != "card_declined" {
		t.Fatalf("expected error field, got %v", line)
	}
	if _, ok := line["stack"]; !ok {
		t.Fatal("expected stack field on error logs")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("empty level should default to info")
	}
	if ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatal("unknown level should default to info")
	}
	if ParseLevel(" WARN ") != zerolog.WarnLevel {
		t.Fatal("expected warn level")
	}
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// capture installs a JSON default logger writing to a buffer.
func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	var buf bytes.Buffer
	InitWriter(&buf, "json", level)
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	return rec
}

func TestFrom_AddsSpanIDs(t *testing.T) {
	buf := capture(t, "info")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	From(ctx).Info("routed")

	rec := decodeLine(t, buf)
	if rec["trace_id"] != sc.TraceID().String() {
		t.Errorf("trace_id = %v, want %s", rec["trace_id"], sc.TraceID())
	}
	if rec["span_id"] != sc.SpanID().String() {
		t.Errorf("span_id = %v, want %s", rec["span_id"], sc.SpanID())
	}
}

func TestFrom_NoSpan(t *testing.T) {
	buf := capture(t, "info")

	From(context.Background()).Info("routed")

	rec := decodeLine(t, buf)
	if _, ok := rec["trace_id"]; ok {
		t.Errorf("unexpected trace_id in %v", rec)
	}
	if _, ok := rec["span_id"]; ok {
		t.Errorf("unexpected span_id in %v", rec)
	}
}

func TestInitWriter_FormatAndLevel(t *testing.T) {
	cases := []struct {
		name     string
		format   string
		level    string
		wantJSON bool
		wantOut  bool
	}{
		{"json at debug", "json", "debug", true, true},
		{"text at debug", "text", "debug", false, true},
		{"json filters below warn", "JSON", "warn", true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := capture(t, "info")
			buf.Reset()
			l := InitWriter(buf, tc.format, tc.level)
			l.Info("hello", "k", "v")

			out := buf.String()
			if !tc.wantOut {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			if got := strings.HasPrefix(out, "{"); got != tc.wantJSON {
				t.Errorf("json = %v, want %v (output %q)", got, tc.wantJSON, out)
			}
			if !strings.Contains(out, "hello") {
				t.Errorf("output %q missing message", out)
			}
		})
	}
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestStartSpanPropagatesTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := WithLogger(context.Background(), logger)

	ctx, parent := StartSpan(ctx, "parent")
	traceID := TraceIDFromContext(ctx)
	parentID := SpanIDFromContext(ctx)
	if traceID == "" || parentID == "" {
		t.Fatalf("expected trace and span ids, got %q %q", traceID, parentID)
	}

	childCtx, child := StartSpan(ctx, "child", slog.String("page", "1"))
	if TraceIDFromContext(childCtx) != traceID {
		t.Fatal("child span must reuse the trace id")
	}
	if SpanIDFromContext(childCtx) == parentID {
		t.Fatal("child span must get its own id")
	}
	child.Fail(errors.New("boom"))
	child.End()
	parent.End()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "span failed" || entry["error"] != "boom" || entry["page"] != "1" {
		t.Fatalf("unexpected child entry %v", entry)
	}
	if entry["parent_span_id"] != parentID {
		t.Fatalf("expected parent span id %q got %v", parentID, entry["parent_span_id"])
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug {
		t.Fatal("expected debug level")
	}
	if ParseLevel("nonsense") != slog.LevelInfo {
		t.Fatal("expected info fallback")
	}
}

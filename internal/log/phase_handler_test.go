package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPhaseHandlerTagsRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewPhaseLogger(&buf, true)

	ctx := WithPhase(context.Background(), "scrape-pages")
	logger.InfoContext(ctx, "page completed", "url", "https://example.com/docs/a")

	out := buf.String()
	if !strings.Contains(out, "phase=scrape-pages") {
		t.Errorf("output missing phase attribute: %q", out)
	}
	if !strings.Contains(out, "page completed") {
		t.Errorf("output missing message: %q", out)
	}
}

func TestPhaseHandlerNoPhase(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewPhaseLogger(&buf, true)

	logger.InfoContext(context.Background(), "startup")

	if strings.Contains(buf.String(), "phase=") {
		t.Errorf("output should have no phase attribute: %q", buf.String())
	}
}

func TestPhaseHandlerNestedPhasesLastWins(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewPhaseLogger(&buf, true)

	ctx := WithPhase(context.Background(), "discover")
	ctx = WithPhase(ctx, "retry-failed")
	logger.InfoContext(ctx, "retrying")

	out := buf.String()
	if !strings.Contains(out, "phase=retry-failed") {
		t.Errorf("inner phase should win: %q", out)
	}
	if strings.Contains(out, "phase=discover") {
		t.Errorf("outer phase should be replaced: %q", out)
	}
}

func TestVerboseControlsLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"verbose enables debug", true, true},
		{"quiet suppresses debug", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewPhaseLogger(&buf, tt.verbose)
			logger.Debug("claim attempt")

			got := strings.Contains(buf.String(), "claim attempt")
			if got != tt.wantDebug {
				t.Errorf("debug emitted = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestPhaseJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewPhaseJSONLogger(&buf, false)

	ctx := WithPhase(context.Background(), "generate-index")
	logger.InfoContext(ctx, "index written", "pages", 42)

	out := buf.String()
	if !strings.Contains(out, `"phase":"generate-index"`) {
		t.Errorf("JSON output missing phase field: %q", out)
	}
}

func TestPhaseHandlerWithAttrsKeepsTagging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewPhaseHandler(base)).With("worker", 3)

	ctx := WithPhase(context.Background(), "download-images")
	logger.InfoContext(ctx, "image saved")

	out := buf.String()
	if !strings.Contains(out, "worker=3") || !strings.Contains(out, "phase=download-images") {
		t.Errorf("output missing attrs: %q", out)
	}
}

package logging_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/samirrijal/campusgeo/internal/pkg/logging"
)

func TestFromContext_FallsBackToDefault(t *testing.T) {
	if logging.FromContext(context.Background()) != slog.Default() {
		t.Error("expected the default logger for a bare context")
	}
	if id := logging.RequestID(context.Background()); id != "" {
		t.Errorf("expected no request id, got %q", id)
	}
}

func TestWithRequest(t *testing.T) {
	ctx := logging.WithRequest(context.Background(), "req-42")
	if id := logging.RequestID(ctx); id != "req-42" {
		t.Errorf("expected req-42, got %q", id)
	}
	if logging.FromContext(ctx) == slog.Default() {
		t.Error("expected a request-scoped logger")
	}
}

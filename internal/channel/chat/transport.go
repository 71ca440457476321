package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gyaneshwarpardhi/notification-service/internal/logger"
)

// Transport delivers a text body to an international phone number and
// returns the provider's message ID.
type Transport interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// APIError is a non-2xx response from a chat provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// newHTTPClient returns a traced client for provider APIs.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// SimulatedTransport logs messages instead of sending them.
type SimulatedTransport struct{}

func (SimulatedTransport) SendText(ctx context.Context, to, body string) (string, error) {
	logger.From(ctx).Info("chat send simulated",
		slog.String("to", to),
		slog.Int("body_len", len(body)),
		slog.String("body", body),
	)
	return "simulated", nil
}

package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/gyaneshwarpardhi/notification-service/internal/config"
)

func TestSetup_NoEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConf{ServiceName: "test"}, "dev")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span from the installed provider")
	}
}

func TestSetup_ZeroRatioSamplesNothing(t *testing.T) {
	ratio := 0.0
	shutdown, err := Setup(context.Background(), config.TelemetryConf{ServiceName: "test", SampleRatio: &ratio}, "dev")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	if span.SpanContext().IsSampled() {
		t.Error("span sampled with ratio 0")
	}
}

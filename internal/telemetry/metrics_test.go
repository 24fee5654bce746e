package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestRecordHelpersAreSafeBeforeInit(t *testing.T) {
	appMetrics = nil

	ctx := context.Background()
	RecordIngestion(ctx, "pdf", 3, 1.5)
	RecordSubBatchDrop(ctx, "provider_error")
	RecordProviderCall(ctx, "gemini", "generate", 0.2, errors.New("boom"))
	RecordCircuitBreakerState("gemini", "closed", "open")
}

func TestInitMetricsCreatesInstruments(t *testing.T) {
	m, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	if m.ChunksIngested == nil || m.SubBatchesDropped == nil ||
		m.IngestionDuration == nil || m.ProviderDuration == nil ||
		m.CircuitBreakerState == nil {
		t.Errorf("instrument missing: %+v", m)
	}
	if appMetrics != m {
		t.Error("recorded metrics not installed as package default")
	}

	// Recording against the installed (no-op meter) instruments must not panic.
	RecordIngestion(context.Background(), "txt", 1, 0.1)
	RecordProviderCall(context.Background(), "openrouter", "stream", 0.3, nil)
}

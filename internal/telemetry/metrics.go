package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	ChunksIngested      metric.Int64Counter
	SubBatchesDropped   metric.Int64Counter
	IngestionDuration   metric.Float64Histogram
	ProviderDuration    metric.Float64Histogram
	CircuitBreakerState metric.Int64Counter
}

var appMetrics *Metrics

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("rag-chatbot-platform")

	chunksIngested, err := meter.Int64Counter(
		"ingestion.chunks.total",
		metric.WithDescription("Chunks persisted by the ingestion pipeline"),
	)
	if err != nil {
		return nil, err
	}

	subBatchesDropped, err := meter.Int64Counter(
		"ingestion.sub_batches.dropped",
		metric.WithDescription("Embedding sub-batches dropped during ingestion"),
	)
	if err != nil {
		return nil, err
	}

	ingestionDuration, err := meter.Float64Histogram(
		"ingestion.duration",
		metric.WithDescription("File ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	providerDuration, err := meter.Float64Histogram(
		"ai.provider.duration",
		metric.WithDescription("AI provider call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	appMetrics = &Metrics{
		ChunksIngested:      chunksIngested,
		SubBatchesDropped:   subBatchesDropped,
		IngestionDuration:   ingestionDuration,
		ProviderDuration:    providerDuration,
		CircuitBreakerState: circuitBreakerState,
	}
	return appMetrics, nil
}

// RecordIngestion records chunk output and duration for one processed file.
func RecordIngestion(ctx context.Context, fileType string, chunks int, seconds float64) {
	m := appMetrics
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("file.type", fileType))
	m.ChunksIngested.Add(ctx, int64(chunks), attrs)
	m.IngestionDuration.Record(ctx, seconds, attrs)
}

// RecordSubBatchDrop records one embedding sub-batch lost during ingestion.
func RecordSubBatchDrop(ctx context.Context, reason string) {
	m := appMetrics
	if m == nil {
		return
	}
	m.SubBatchesDropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("drop.reason", reason),
	))
}

// RecordProviderCall records latency and outcome of one AI provider call.
func RecordProviderCall(ctx context.Context, provider, operation string, seconds float64, err error) {
	m := appMetrics
	if m == nil {
		return
	}
	m.ProviderDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("ai.provider", provider),
		attribute.String("ai.operation", operation),
		attribute.Bool("ai.success", err == nil),
	))
}

// RecordCircuitBreakerState records a circuit breaker state change.
func RecordCircuitBreakerState(service, from, to string) {
	m := appMetrics
	if m == nil {
		return
	}
	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

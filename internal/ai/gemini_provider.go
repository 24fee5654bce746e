package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"rag-chatbot-platform/internal/errdefs"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/telemetry"
)

const GeminiProviderName = "gemini"

type GeminiProvider struct {
	client      *genai.Client
	modelName   string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	timeout     time.Duration
}

// NewGeminiProvider builds a Gemini-backed generator. A missing API key is
// reported as ErrProviderUnavailable so callers can fall back to another
// provider instead of failing hard.
func NewGeminiProvider(apiKey, modelName string, timeout time.Duration) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY: %w", errdefs.ErrProviderUnavailable)
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiGenerate",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
			telemetry.RecordCircuitBreakerState(name, from.String(), to.String())
		},
	})

	return &GeminiProvider{
		client:      client,
		modelName:   modelName,
		breaker:     breaker,
		rateLimiter: rate.NewLimiter(rate.Limit(9.0/60.0), 2),
		timeout:     timeout,
	}, nil
}

func (gp *GeminiProvider) Name() string { return GeminiProviderName }

// model builds a generative model configured per request. System instructions
// are attached only when non-empty after trimming; sending an empty
// instruction changes Gemini's behavior.
func (gp *GeminiProvider) model(req GenerationRequest) *genai.GenerativeModel {
	model := gp.client.GenerativeModel(gp.modelName)
	if si := strings.TrimSpace(req.SystemInstructions); si != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(si)},
		}
	}
	return model
}

func (gp *GeminiProvider) Generate(ctx context.Context, req GenerationRequest) (text string, err error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	tracer := otel.Tracer("gemini-provider")
	ctx, span := tracer.Start(ctx, "gemini.generate")
	defer span.End()

	start := time.Now()
	defer func() {
		telemetry.RecordProviderCall(ctx, GeminiProviderName, "generate", time.Since(start).Seconds(), err)
	}()
	span.SetAttributes(
		attribute.String("gemini.model", gp.modelName),
		attribute.Int("gemini.prompt_chars", len(req.Prompt)),
	)

	ctx, cancel := context.WithTimeout(ctx, gp.timeout)
	defer cancel()

	if err := gp.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", classifyErr(err)
	}

	result, err := gp.breaker.Execute(func() (interface{}, error) {
		resp, err := gp.model(req).GenerateContent(ctx, genai.Text(req.Prompt))
		if err != nil {
			return nil, err
		}
		return collectResponseText(resp), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
			return "", fmt.Errorf("gemini circuit breaker open: %w", errdefs.ErrProviderUnavailable)
		}
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", classifyErr(fmt.Errorf("gemini generate: %w", err))
	}

	text = result.(string)
	if text == "" {
		span.SetAttributes(attribute.Bool("gemini.empty_response", true))
		return "", fmt.Errorf("gemini returned no candidates: %w", errdefs.ErrProviderError)
	}

	span.SetAttributes(attribute.Int("gemini.response_chars", len(text)))
	return text, nil
}

func (gp *GeminiProvider) GenerateStream(ctx context.Context, req GenerationRequest, onFragment FragmentFunc) (err error) {
	if err := validateRequest(req); err != nil {
		return err
	}

	tracer := otel.Tracer("gemini-provider")
	ctx, span := tracer.Start(ctx, "gemini.generate_stream")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", gp.modelName))

	start := time.Now()
	defer func() {
		telemetry.RecordProviderCall(ctx, GeminiProviderName, "stream", time.Since(start).Seconds(), err)
	}()

	ctx, cancel := context.WithTimeout(ctx, gp.timeout)
	defer cancel()

	if err := gp.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return classifyErr(err)
	}

	iter := gp.model(req).GenerateContentStream(ctx, genai.Text(req.Prompt))
	fragments := 0
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return classifyErr(fmt.Errorf("gemini stream: %w", err))
		}
		if fragment := collectResponseText(resp); fragment != "" {
			if err := onFragment(fragment); err != nil {
				return err
			}
			fragments++
		}
	}

	span.SetAttributes(attribute.Int("gemini.fragments", fragments))
	return nil
}

func (gp *GeminiProvider) Close() error {
	if gp.client != nil {
		return gp.client.Close()
	}
	return nil
}

// collectResponseText concatenates the text parts of every candidate.
func collectResponseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}

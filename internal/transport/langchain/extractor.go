// Package langchain provides the entity extraction client built on
// langchaingo, which handles the chat plumbing and JSON-mode flag for
// OpenAI-compatible APIs.
package langchain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	"github.com/kailas-cloud/imagedex/internal/metrics"
)

const extractSystemPrompt = `You are a named entity recognizer. Extract named entities from the user's text.
Respond with JSON only, in the form:
{"entities": [{"name": "...", "type": "PERSON|LOCATION|ORGANIZATION|OTHER", "confidence": 0-100}]}
Use type PERSON for people's names. Do not invent entities that are not in the text.`

// maxParseAttempts bounds retries on malformed model JSON.
const maxParseAttempts = 3

// Extractor implements domain.Extractor using an LLM in JSON mode.
type Extractor struct {
	client   llms.Model
	model    string
	provider string
	logger   *zap.Logger
}

// Config holds the extraction provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Logger   *zap.Logger
}

// entity matches the JSON structure the model is prompted to return.
type entity struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

type extraction struct {
	Entities []entity `json:"entities"`
}

// NewExtractor creates an LLM-backed entity extractor.
func NewExtractor(cfg *Config) (*Extractor, error) {
	token := cfg.APIKey
	if token == "" {
		// Local OpenAI-compatible services don't require authentication.
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create extractor client: %w", err)
	}
	return NewExtractorWithClient(client, cfg), nil
}

// NewExtractorWithClient creates an extractor over an existing model client.
func NewExtractorWithClient(client llms.Model, cfg *Config) *Extractor {
	return &Extractor{
		client:   client,
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Extract returns the named entities found in text.
// An empty result is normal: most queries mention nobody by name.
func (e *Extractor) Extract(ctx context.Context, text string) ([]domain.Entity, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(extractSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	start := time.Now()

	// Try a few times in case of malformed JSON
	var result extraction
	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			metrics.ProviderRequestsTotal.WithLabelValues(e.provider, e.model, "extract", "error").Inc()
			metrics.ProviderErrorsTotal.WithLabelValues(e.provider, e.model, "extract", "api_error").Inc()
			return nil, fmt.Errorf("extract entities: %v: %w", err, domain.ErrExtractorError)
		}

		if len(response.Choices) < 1 {
			metrics.ProviderRequestsTotal.WithLabelValues(e.provider, e.model, "extract", "error").Inc()
			metrics.ProviderErrorsTotal.WithLabelValues(e.provider, e.model, "extract", "empty_response").Inc()
			return nil, fmt.Errorf("extract entities: no choices in model response: %w", domain.ErrExtractorError)
		}

		responseText := stripFences(response.Choices[0].Content)

		// Fresh target per attempt: a half-parsed reply must not leak
		// entities into the next round.
		var parsed extraction
		if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
			lastErr = err
			e.logger.Warn("Failed to parse extractor response",
				zap.Int("attempt", attempt+1),
				zap.String("response", responseText),
				zap.Error(err))
			continue
		}

		result = parsed
		lastErr = nil
		break
	}

	duration := time.Since(start)

	if lastErr != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(e.provider, e.model, "extract", "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(e.provider, e.model, "extract", "parse_error").Inc()
		return nil, fmt.Errorf("parse extractor response: %v: %w", lastErr, domain.ErrExtractorError)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(e.provider, e.model, "extract", "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(e.provider, e.model, "extract").Observe(duration.Seconds())

	entities := make([]domain.Entity, 0, len(result.Entities))
	for _, ent := range result.Entities {
		if ent.Name == "" {
			continue
		}
		entities = append(entities, domain.Entity{
			Name:       ent.Name,
			Type:       strings.ToUpper(strings.TrimSpace(ent.Type)),
			Confidence: ent.Confidence,
		})
	}
	return entities, nil
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

package openai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	"github.com/kailas-cloud/imagedex/internal/metrics"
)

const summarySystemPrompt = "You summarize search queries into a short standalone sentence. " +
	"Do not add any information that is not present in the text."

// Summarizer condenses free-form query text into a short sentence via
// an OpenAI-compatible chat completion API.
type Summarizer struct {
	client    *openai.Client
	model     string
	maxTokens int
	provider  string
	logger    *zap.Logger
}

// SummarizerConfig holds the summarization provider settings.
type SummarizerConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Provider  string
	Logger    *zap.Logger
}

// NewSummarizer creates an OpenAI-compatible summarization provider.
func NewSummarizer(cfg *SummarizerConfig) *Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 99
	}

	return &Summarizer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: maxTokens,
		provider:  cfg.Provider,
		logger:    cfg.Logger,
	}
}

// Summarize implements domain.Summarizer. The same input must always
// yield the same summary, so sampling is pinned: temperature 0, top_p 1.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens: s.maxTokens,
		// go-openai omits a zero temperature (omitempty), which would fall
		// back to the server default of 1. Smallest positive float32 is
		// effectively zero but survives serialization.
		Temperature: math.SmallestNonzeroFloat32,
		TopP:        1,
	}

	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(s.provider, s.model, "summarize", "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(s.provider, s.model, "summarize", "api_error").Inc()
		return "", parseAPIError("summary", domain.ErrSummaryProviderError, err)
	}

	if len(resp.Choices) == 0 {
		metrics.ProviderRequestsTotal.WithLabelValues(s.provider, s.model, "summarize", "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(s.provider, s.model, "summarize", "empty_response").Inc()
		return "", fmt.Errorf("empty summary response: %w", domain.ErrSummaryProviderError)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(s.provider, s.model, "summarize", "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(s.provider, s.model, "summarize").Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.ProviderTokensTotal.WithLabelValues(s.provider, s.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.ProviderTokensTotal.WithLabelValues(s.provider, s.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

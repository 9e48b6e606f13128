// Package enrich turns raw article content into a summary and
// follow-up prompts through a hosted LLM provider.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"

	"feedup_ingest/internal/config"
	"feedup_ingest/internal/domain"
	"feedup_ingest/internal/service"
)

// systemPrompt steers the model toward the layout parseAnnotation
// expects: a few summary lines followed by a prompt suggestion.
const systemPrompt = "Summarize the following article into a small paragraph or points as suitable. " +
	"Then suggest at least one or two interactive coding tips or critical thinking prompts related to the topic."

// summaryMaxTokens bounds Anthropic responses; a summary plus one
// prompt fits comfortably.
const summaryMaxTokens = 1024

// New builds the summarizer for the configured provider.
func New(cfg config.LLMConfig, logger *slog.Logger) (service.Summarizer, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAI(cfg, logger), nil
	case "anthropic":
		return NewAnthropic(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}

// OpenAIClient summarizes through the OpenAI chat completions API, or
// any compatible endpoint when base_url points elsewhere.
type OpenAIClient struct {
	client         *openai.Client
	model          string
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewOpenAI creates an OpenAI-backed summarizer.
func NewOpenAI(cfg config.LLMConfig, logger *slog.Logger) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          cfg.Model,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger.With("component", "summarizer", "provider", "openai"),
	}
}

// Summarize sends the content for annotation and parses the reply.
func (c *OpenAIClient) Summarize(ctx context.Context, content string) (domain.Annotation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	})
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Annotation{}, errors.New("no completion choices returned")
	}

	c.logger.Debug("received completion", "model", c.model, "content_chars", len(content))

	return parseAnnotation(resp.Choices[0].Message.Content)
}

// AnthropicClient summarizes through the Anthropic messages API.
type AnthropicClient struct {
	client         *anthropic.Client
	model          string
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewAnthropic creates an Anthropic-backed summarizer.
func NewAnthropic(cfg config.LLMConfig, logger *slog.Logger) *AnthropicClient {
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}

	return &AnthropicClient{
		client:         anthropic.NewClient(cfg.APIKey, opts...),
		model:          cfg.Model,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger.With("component", "summarizer", "provider", "anthropic"),
	}
}

// Summarize sends the content for annotation and parses the reply.
func (c *AnthropicClient) Summarize(ctx context.Context, content string) (domain.Annotation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    systemPrompt,
		MaxTokens: summaryMaxTokens,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{{Type: "text", Text: &content}},
			},
		},
	})
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("create messages: %w", err)
	}

	c.logger.Debug("received completion", "model", c.model, "content_chars", len(content))

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return parseAnnotation(*block.Text)
		}
	}

	return domain.Annotation{}, errors.New("no text content returned")
}

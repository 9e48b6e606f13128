package enrich

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedup_ingest/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func TestNew_SelectsProvider(t *testing.T) {
	openAI, err := New(config.LLMConfig{Provider: "openai"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, openAI)

	defaulted, err := New(config.LLMConfig{}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, defaulted)

	anthropicClient, err := New(config.LLMConfig{Provider: "anthropic"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, anthropicClient)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "gemini"}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestOpenAIClient_Summarize(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Concurrency in Go is built on goroutines.\nTry benchmarking channel against mutex counters."}}]}`))
	}))
	defer srv.Close()

	client, err := New(config.LLMConfig{
		Provider:       "openai",
		BaseURL:        srv.URL + "/v1",
		Model:          "gpt-4o-mini",
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
	}, testLogger())
	require.NoError(t, err)

	annotation, err := client.Summarize(context.Background(), "article body")
	require.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "gpt-4o-mini", gotBody.Model)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, systemPrompt, gotBody.Messages[0].Content)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
	assert.Equal(t, "article body", gotBody.Messages[1].Content)
	assert.Equal(t, "Concurrency in Go is built on goroutines.", annotation.Summary)
	assert.Equal(t, []string{"Try benchmarking channel against mutex counters."}, annotation.Prompts)
}

func TestOpenAIClient_Summarize_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAI(config.LLMConfig{
		BaseURL:        srv.URL + "/v1",
		Model:          "gpt-4o-mini",
		RequestTimeout: 5 * time.Second,
	}, testLogger())

	_, err := client.Summarize(context.Background(), "article body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion choices")
}

func TestOpenAIClient_Summarize_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAI(config.LLMConfig{
		BaseURL:        srv.URL + "/v1",
		Model:          "gpt-4o-mini",
		RequestTimeout: 5 * time.Second,
	}, testLogger())

	_, err := client.Summarize(context.Background(), "article body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create chat completion")
}

func TestAnthropicClient_Summarize(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Model     string `json:"model"`
		System    string `json:"system"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[{"type":"text","text":"- Static binaries simplify deploys.\n- Prompt: containerize a Go service without a base image."}],"stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":34}}`))
	}))
	defer srv.Close()

	client, err := New(config.LLMConfig{
		Provider:       "anthropic",
		BaseURL:        srv.URL + "/v1",
		Model:          "claude-3-5-haiku-latest",
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
	}, testLogger())
	require.NoError(t, err)

	annotation, err := client.Summarize(context.Background(), "article body")
	require.NoError(t, err)

	assert.Equal(t, "/v1/messages", gotPath)
	assert.Equal(t, "claude-3-5-haiku-latest", gotBody.Model)
	assert.Equal(t, systemPrompt, gotBody.System)
	assert.Equal(t, summaryMaxTokens, gotBody.MaxTokens)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	require.Len(t, gotBody.Messages[0].Content, 1)
	assert.Equal(t, "article body", gotBody.Messages[0].Content[0].Text)
	assert.Equal(t, "Static binaries simplify deploys.", annotation.Summary)
	assert.Equal(t, []string{"Prompt: containerize a Go service without a base image."}, annotation.Prompts)
}

func TestAnthropicClient_Summarize_NoTextContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[],"stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":0}}`))
	}))
	defer srv.Close()

	client := NewAnthropic(config.LLMConfig{
		BaseURL:        srv.URL + "/v1",
		Model:          "claude-3-5-haiku-latest",
		RequestTimeout: 5 * time.Second,
	}, testLogger())

	_, err := client.Summarize(context.Background(), "article body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

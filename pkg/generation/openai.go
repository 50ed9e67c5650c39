package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/textpipe/pkg/otelhelper"
)

const defaultRequestTimeout = 60 * time.Second

// Config configures an OpenAI-compatible generation client.
type Config struct {
	Name        string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIClient implements Generator for any OpenAI-compatible chat API.
type OpenAIClient struct {
	name        string
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewOpenAIClient creates a generation client with configured timeouts.
func NewOpenAIClient(cfg Config, logger *slog.Logger) *OpenAIClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	name := cfg.Name
	if name == "" {
		name = "openai"
	}

	return &OpenAIClient{
		name:        name,
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
		tracer:      otel.Tracer("textpipe/generation"),
	}
}

// Generate implements Generator. It issues a single-message chat completion
// and returns the first choice's content.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	if req.Temperature == 0 {
		req.Temperature = c.temperature
	}

	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}

	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "generation.generate",
		attribute.String(otelhelper.ModelKey, req.Model),
	)
	defer span.End()

	body, err := json.Marshal(chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		otelhelper.SetError(span, err)

		return "", fmt.Errorf("failed to build generation request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", fmt.Errorf("generation request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("Failed to close generation response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", fmt.Errorf("failed to read generation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("generation backend returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		otelhelper.SetError(span, err)

		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		otelhelper.SetError(span, err)

		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}

	text := parsed.text()
	if strings.TrimSpace(text) == "" {
		otelhelper.SetError(span, ErrEmptyCompletion)

		return "", ErrEmptyCompletion
	}

	c.logger.Debug("Generation completed",
		"backend", c.name,
		"model", req.Model,
		"prompt_tokens", parsed.Usage.PromptTokens,
		"completion_tokens", parsed.Usage.CompletionTokens,
	)

	return text, nil
}

// Name implements Generator.
func (c *OpenAIClient) Name() string { return c.name }

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}

// --- wire types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (r chatResponse) text() string {
	if len(r.Choices) == 0 {
		return ""
	}

	return r.Choices[0].Message.Content
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/user/campo-8bit/config"
	"github.com/user/campo-8bit/internal/interfaces"
	"github.com/user/campo-8bit/internal/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrEmptyCompletion is returned when the API answers with no choices
var ErrEmptyCompletion = errors.New("empty completion response")

// Client calls an OpenAI-compatible chat completions API (DeepSeek by
// default). It is the engine's CompletionService.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Ensure Client satisfies the interfaces.CompletionService interface
var _ interfaces.CompletionService = (*Client)(nil)

// NewClient creates a completion client from configuration. The API key is
// read from the configured environment variable by the caller.
func NewClient(cfg config.CompletionConfig, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 20
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     apiKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		logger:     logger,
	}
}

// chatRequest is the OpenAI-style request body
type chatRequest struct {
	Model       string              `json:"model"`
	Messages    []types.ChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

// chatResponse is the OpenAI-style response body
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends a system/user message pair and returns the completion text.
// Code fences around JSON payloads are stripped before returning.
func (c *Client) Complete(ctx context.Context, messages []types.ChatMessage, opts types.CompletionOptions) (*types.Completion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion API error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	content := stripCodeFences(apiResp.Choices[0].Message.Content)

	c.logger.Debug("completion call",
		zap.Int("prompt_tokens", apiResp.Usage.PromptTokens),
		zap.Int("completion_tokens", apiResp.Usage.CompletionTokens))

	return &types.Completion{Content: content}, nil
}

// stripCodeFences removes markdown fences the model sometimes wraps JSON in
func stripCodeFences(content string) string {
	content = strings.ReplaceAll(content, "```json\n", "")
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```\n", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}

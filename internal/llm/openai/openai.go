// Package openai implements domain.ChatModel over the OpenAI chat
// completions API, as served by OpenAI itself or by a local Ollama.
package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ragchat/internal/domain"
)

var _ domain.ChatModel = (*Client)(nil)

// Config configures the chat client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	// Timeout of zero leaves requests bounded only by the caller's context.
	Timeout time.Duration
}

// zeroTemperature requests greedy sampling. go-openai omits a literal zero,
// which would let the server pick its own default.
const zeroTemperature = math.SmallestNonzeroFloat32

// Client sends one completion request per call at temperature 0; failures
// are returned, not retried.
type Client struct {
	client *openai.Client
	model  string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434/v1"
	}
	key := ""
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	cc := openai.DefaultConfig(key)
	cc.BaseURL = cfg.BaseURL
	cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{client: openai.NewClientWithConfig(cc), model: cfg.Model}, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: zeroTemperature,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion (%s): no choices returned", c.model)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

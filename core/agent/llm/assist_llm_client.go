// Package llm wraps the external language-model capabilities behind a small
// client. Every call is bounded by a timeout and a circuit breaker; callers
// treat any error as a fallback trigger.
package llm

import (
	"context"
	"strings"
	"time"

	"assist_server/pkg/httputil"
	"assist_server/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

const DefaultModel = "gpt-4o-mini"

type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	cb          *gobreaker.CircuitBreaker
}

type ClientConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// NewClient creates a capability client with defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(ClientConfig{APIKey: apiKey})
}

// NewClientWithConfig creates a capability client with explicit configuration.
func NewClientWithConfig(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	openaiCfg.HTTPClient = httputil.CapabilityClient()

	cbSettings := gobreaker.Settings{
		Name:        "llm-capability",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &Client{
		client:      openai.NewClientWithConfig(openaiCfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		timeout:     timeout,
		cb:          gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// Model reports the configured model name for provenance fields.
func (c *Client) Model() string {
	return c.model
}

// chat executes one chat completion under the breaker with a bounded timeout.
func (c *Client) chat(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.cb.Execute(func() (any, error) {
		resp, err := c.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
}

func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.chat(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
}

// CompleteJSON requests a JSON-object response.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.chat(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
}

// cleanJSONResponse strips markdown code fences some models wrap JSON in.
func cleanJSONResponse(resp string) string {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	return strings.TrimSpace(resp)
}

// truncate caps prompt payloads so context windows are not blown by long
// thread histories.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Package openai implements llm.Client for OpenAI-compatible chat completion
// APIs, Groq included.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"cv-reviewer/internal/llm"
)

const (
	// DefaultGroqBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	// DefaultOpenAIBaseURL is OpenAI's public endpoint.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// Config configures a Client.
type Config struct {
	Name       string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client implements llm.Client using Chat Completions in JSON mode.
type Client struct {
	name string
	api  openai.Client
}

// NewClient constructs a client. SDK retries are disabled; a failed call is
// reported to the caller as is.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("LLM_API_KEY is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Client{name: name, api: openai.NewClient(opts...)}, nil
}

// Complete sends one system+user exchange and returns the first choice.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if strings.TrimSpace(req.Model) == "" {
		return llm.Response{}, errors.New("LLM_MODEL is required")
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return llm.Response{}, &llm.StatusError{Provider: c.name, StatusCode: apiErr.StatusCode, Err: err}
		}
		return llm.Response{}, fmt.Errorf("%s request: %w", c.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("%s response missing choices: %w", c.name, llm.ErrEmptyResponse)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return llm.Response{}, fmt.Errorf("%s: %w", c.name, llm.ErrEmptyResponse)
	}
	return llm.Response{
		Content:          content,
		Model:            resp.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

var _ llm.Client = (*Client)(nil)

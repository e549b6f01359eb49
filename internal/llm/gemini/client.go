// Package gemini implements llm.Client on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"cv-reviewer/internal/llm"
)

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client implements llm.Client against the Gemini API.
type Client struct {
	api *genai.Client
}

// NewClient constructs a Gemini API client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("LLM_API_KEY is required")
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	api, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{api: api}, nil
}

// Complete sends the system instruction and user text, asking for a JSON
// reply.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if strings.TrimSpace(req.Model) == "" {
		return llm.Response{}, errors.New("LLM_MODEL is required")
	}
	temperature := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temperature,
		ResponseMIMEType:  "application/json",
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := c.api.Models.GenerateContent(ctx, req.Model, genai.Text(req.User), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return llm.Response{}, &llm.StatusError{Provider: "gemini", StatusCode: apiErr.Code, Err: err}
		}
		return llm.Response{}, fmt.Errorf("gemini request: %w", err)
	}
	if resp == nil {
		return llm.Response{}, fmt.Errorf("gemini: %w", llm.ErrEmptyResponse)
	}
	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return llm.Response{}, fmt.Errorf("gemini: %w", llm.ErrEmptyResponse)
	}
	out := llm.Response{Content: content, Model: resp.ModelVersion}
	if out.Model == "" {
		out.Model = req.Model
	}
	if usage := resp.UsageMetadata; usage != nil {
		out.PromptTokens = int(usage.PromptTokenCount)
		out.CompletionTokens = int(usage.CandidatesTokenCount)
	}
	return out, nil
}

var _ llm.Client = (*Client)(nil)

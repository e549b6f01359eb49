// Package reviewer turns CV text into a validated review by prompting a
// language model once.
package reviewer

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"cv-reviewer/internal/llm"
	"cv-reviewer/internal/review"
	"cv-reviewer/internal/shared/metrics"
	"cv-reviewer/internal/shared/telemetry"
	"cv-reviewer/internal/shared/util"
)

// Kind classifies a generation failure.
type Kind string

const (
	KindUpstream        Kind = "upstream"
	KindUpstreamTimeout Kind = "upstream_timeout"
	KindMalformedOutput Kind = "malformed_output"
	KindCanceled        Kind = "canceled"
)

// GenerationError wraps any failure to obtain a valid review.
type GenerationError struct {
	Kind Kind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("review generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Config holds model parameters for a Generator.
type Config struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	Timeout       time.Duration
	MaxInputChars int
}

// Generator prompts the model and validates its reply.
type Generator struct {
	client llm.Client
	cfg    Config
	system string
	now    func() time.Time
}

// NewGenerator builds a Generator. The system prompt is rendered once.
func NewGenerator(client llm.Client, cfg Config) *Generator {
	return &Generator{
		client: client,
		cfg:    cfg,
		system: SystemPrompt(),
		now:    time.Now,
	}
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.cfg.Model }

// Generate makes exactly one model call for text and returns the validated
// review. Failures are always *GenerationError.
func (g *Generator) Generate(ctx context.Context, text string) (review.Review, error) {
	requestID := telemetry.RequestID(ctx)
	user, truncated := BuildUserMessage(text, g.cfg.MaxInputChars)
	if truncated {
		telemetry.Warn("review.input_truncated", map[string]any{
			"request_id":     requestID,
			"original_chars": utf8.RuneCountInString(text),
			"limit":          g.cfg.MaxInputChars,
		})
	}

	callCtx := ctx
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	start := g.now()
	resp, err := g.client.Complete(callCtx, llm.Request{
		System:      g.system,
		User:        user,
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	elapsed := g.now().Sub(start).Milliseconds()
	metrics.ObserveLLMDurationMs(float64(elapsed))
	if err != nil {
		genErr := classify(ctx, callCtx, err)
		fields := map[string]any{
			"request_id":  requestID,
			"model":       g.cfg.Model,
			"kind":        string(genErr.Kind),
			"duration_ms": elapsed,
			"error":       util.TruncateError(err),
		}
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			fields["upstream_status"] = statusErr.StatusCode
		}
		telemetry.Error("llm.request_failed", fields)
		return review.Review{}, genErr
	}

	telemetry.Info("llm.response", map[string]any{
		"request_id":        requestID,
		"model":             resp.Model,
		"prompt_tokens":     resp.PromptTokens,
		"completion_tokens": resp.CompletionTokens,
		"duration_ms":       elapsed,
	})

	r, dropped, err := review.Parse(resp.Content)
	if len(dropped) > 0 {
		telemetry.Warn("review.unknown_keys_dropped", map[string]any{
			"request_id": requestID,
			"keys":       dropped,
		})
	}
	if err != nil {
		telemetry.Error("review.malformed_output", map[string]any{
			"request_id":   requestID,
			"model":        resp.Model,
			"error":        util.TruncateError(err),
			"output_chars": utf8.RuneCountInString(resp.Content),
		})
		return review.Review{}, &GenerationError{Kind: KindMalformedOutput, Err: err}
	}
	return r, nil
}

func classify(parent, call context.Context, err error) *GenerationError {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return &GenerationError{Kind: KindCanceled, Err: err}
	case parent.Err() != nil, errors.Is(call.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return &GenerationError{Kind: KindUpstreamTimeout, Err: err}
	case errors.Is(err, llm.ErrEmptyResponse):
		return &GenerationError{Kind: KindMalformedOutput, Err: err}
	default:
		return &GenerationError{Kind: KindUpstream, Err: err}
	}
}

// Package llm abstracts chat-style language model providers behind a single
// request/response call.
package llm

import (
	"context"
	"errors"
)

// Request is one system+user exchange asking for a JSON object reply.
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Response is the raw text reply plus usage accounting when the provider
// reports it.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client sends a single completion request. Implementations must not retry.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// ErrEmptyResponse is returned when the provider replies without content.
var ErrEmptyResponse = errors.New("llm response empty content")

// StatusError carries the HTTP status of a failed provider call.
type StatusError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return e.Provider + " request failed: " + e.Err.Error()
}

func (e *StatusError) Unwrap() error { return e.Err }

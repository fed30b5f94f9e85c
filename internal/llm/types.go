// Package llm talks to the text-generation providers used for curve
// suggestions.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivlev/motionpath/internal/logx"
)

// Client is implemented by every provider.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message, opts *RequestOptions) (*Response, error)
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// RequestOptions configures a request.
type RequestOptions struct {
	MaxTokens int
}

// Response is a completion result.
type Response struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
	Model        string
	StopReason   string // "end_turn", "max_tokens", "stop_sequence"
}

// WasTruncated reports whether the response hit the token limit.
func (r *Response) WasTruncated() bool {
	return r.StopReason == "max_tokens" || r.StopReason == "length"
}

func maxTokens(opts *RequestOptions) int {
	if opts != nil && opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	return 4096
}

// backoff is the wait before retry attempt i+1.
var backoff = func(i int) time.Duration {
	return time.Duration(1<<uint(i)) * time.Second
}

// CompleteWithRetry calls c.Complete up to maxRetries times with
// exponential backoff. Context cancellation stops immediately.
func CompleteWithRetry(ctx context.Context, c Client, systemPrompt string, messages []Message, maxRetries int, opts *RequestOptions) (*Response, error) {
	n := max(maxRetries, 1)
	var lastErr error
	for i := range n {
		resp, err := c.Complete(ctx, systemPrompt, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logx.Logger().Warn("llm request failed", "attempt", i+1, "err", err)
		if i == n-1 {
			break
		}
		select {
		case <-time.After(backoff(i)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("failed after %d retries: %w", n, lastErr)
}

// New returns the client for provider "anthropic" or "local".
func New(provider, apiKey, model, baseURL string, timeout time.Duration) (Client, error) {
	switch provider {
	case "anthropic", "":
		if apiKey == "" {
			return nil, errors.New("llm: anthropic provider needs an API key")
		}
		return NewAnthropicClient(apiKey, model, baseURL, timeout), nil
	case "local":
		return NewLocalClient(baseURL, model, timeout), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}

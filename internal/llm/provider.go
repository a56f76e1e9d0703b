// ABOUTME: Provider interface and error taxonomy for LM provider access
// ABOUTME: Classifies provider failures into retryable and non-retryable kinds

package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role constants for chat messages
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role/content pair in a provider request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a single provider call for one model
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// ChatCompletion is a successful provider response
type ChatCompletion struct {
	Content    string // generated text, never empty on success
	Model      string // model the provider reports having used
	TokensUsed int
}

// ErrorKind classifies a provider failure for retry-policy purposes
type ErrorKind string

const (
	// ErrRateLimited, ErrTimeout and ErrConnection are transient: the same
	// model is retried with backoff.
	ErrRateLimited ErrorKind = "rate_limited"
	ErrTimeout     ErrorKind = "timeout"
	ErrConnection  ErrorKind = "connection"

	// ErrAPI and ErrMalformed are treated as non-recoverable for the current
	// model: the client moves straight to the next entry in the attempt plan.
	ErrAPI       ErrorKind = "api"
	ErrMalformed ErrorKind = "malformed"
)

// ProviderError is a classified provider failure
type ProviderError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same model should be retried after this error
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case ErrRateLimited, ErrTimeout, ErrConnection:
		return true
	default:
		return false
	}
}

// classify extracts the ProviderError from err, wrapping unknown errors as
// connection failures (the conservative retryable default).
func classify(err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return &ProviderError{Kind: ErrConnection, Message: "unexpected provider error", Err: err}
}

// Provider issues a single completion request against one model.
// Implementations must classify failures as *ProviderError.
type Provider interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatCompletion, error)
}

// ABOUTME: LM client with retry, exponential backoff and fallback-model switching
// ABOUTME: Executes a declarative attempt plan and never propagates provider errors

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/induserve/assist/internal/lang"
)

// Config holds the client's retry/fallback policy.
type Config struct {
	PrimaryModel  string
	FallbackModel string

	// MaxAttempts is the primary model's retry budget. FallbackAttempts is
	// the fallback model's own independent budget; 1 means fire exactly once.
	MaxAttempts      int
	FallbackAttempts int

	// RequestTimeout bounds each individual attempt. InitialBackoff is the
	// wait before the second attempt; it doubles between attempts after that.
	RequestTimeout time.Duration
	InitialBackoff time.Duration

	// SupportedLanguages may narrow the built-in language set.
	// Empty means all built-in languages are accepted.
	SupportedLanguages []string
}

// Response is the structured outcome of a client operation. The client never
// returns an error: provider failures degrade to Success=false with a
// user-safe Content and the diagnostic detail in ErrorMessage.
type Response struct {
	Success      bool
	Content      string // generated reply, or a localized user-safe fallback
	ModelUsed    string // model that answered, or "error" on failure
	TokensUsed   int
	ResponseTime time.Duration // total elapsed wall time including backoff waits
	ErrorMessage string        // empty on success; never shown to end users
}

// planEntry is one step of the attempt plan: a model and its retry budget.
type planEntry struct {
	model    string
	attempts int
}

// Client produces model-generated replies while masking provider instability.
type Client struct {
	provider  Provider
	cfg       Config
	supported map[string]bool
	logger    *slog.Logger

	// sleep waits for the backoff delay or until ctx is done; injectable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client over the given provider.
func NewClient(provider Provider, cfg Config) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.FallbackAttempts < 1 {
		cfg.FallbackAttempts = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}

	codes := cfg.SupportedLanguages
	if len(codes) == 0 {
		codes = lang.Codes()
	}
	supported := make(map[string]bool, len(codes))
	for _, code := range codes {
		supported[code] = true
	}

	return &Client{
		provider:  provider,
		cfg:       cfg,
		supported: supported,
		logger:    slog.Default().With("component", "llm"),
		sleep:     sleepCtx,
	}
}

// GenerateResponse produces a reply for an ordered message history in the
// requested language. Validation failures are rejected before any network
// call; provider failures run through the attempt plan
// [{primary, MaxAttempts}, {fallback, FallbackAttempts}] with strictly
// increasing backoff between same-model attempts.
func (c *Client) GenerateResponse(ctx context.Context, history []ChatMessage, language string) Response {
	start := time.Now()

	if len(history) == 0 {
		return c.failure(start, language, "empty message history")
	}
	if !c.supported[language] {
		return c.failure(start, language, fmt.Sprintf("unsupported language %q", language))
	}

	messages := history
	if instr := languageInstruction(language); instr != "" {
		messages = append([]ChatMessage{{Role: RoleSystem, Content: instr}}, history...)
	}

	plan := []planEntry{
		{model: c.cfg.PrimaryModel, attempts: c.cfg.MaxAttempts},
		{model: c.cfg.FallbackModel, attempts: c.cfg.FallbackAttempts},
	}

	var lastErr *ProviderError
	for _, entry := range plan {
		delay := c.cfg.InitialBackoff
		for attempt := 1; attempt <= entry.attempts; attempt++ {
			if attempt > 1 {
				if err := c.sleep(ctx, delay); err != nil {
					return c.failure(start, language, "cancelled during backoff: "+err.Error())
				}
				delay *= 2
			}

			attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
			completion, err := c.provider.Complete(attemptCtx, ChatRequest{Model: entry.model, Messages: messages})
			cancel()

			if err == nil {
				// An abandoned caller must not receive a stale result, even
				// though the provider call was allowed to finish.
				if ctx.Err() != nil {
					return c.failure(start, language, "caller gone: "+ctx.Err().Error())
				}
				c.logger.Debug("completion succeeded",
					"model", entry.model, "attempt", attempt, "tokens", completion.TokensUsed)
				return Response{
					Success:      true,
					Content:      completion.Content,
					ModelUsed:    entry.model,
					TokensUsed:   completion.TokensUsed,
					ResponseTime: time.Since(start),
				}
			}

			lastErr = classify(err)
			c.logger.Warn("provider attempt failed",
				"model", entry.model, "attempt", attempt, "kind", string(lastErr.Kind), "error", lastErr.Message)

			if ctx.Err() != nil {
				return c.failure(start, language, "cancelled: "+ctx.Err().Error())
			}
			if !lastErr.Retryable() {
				// Non-recoverable for this model; move to the next plan entry
				break
			}
		}
	}

	return c.failure(start, language, "all models exhausted: "+lastErr.Error())
}

// AnalyzeProblem produces a single-turn diagnostic analysis of a free-text
// problem description. Control characters are stripped before submission.
func (c *Client) AnalyzeProblem(ctx context.Context, problemDescription, language string) Response {
	desc := strings.TrimSpace(sanitize(problemDescription))
	if desc == "" {
		return c.failure(time.Now(), language, "empty problem description")
	}

	history := []ChatMessage{
		{Role: RoleSystem, Content: pack(language).AnalysisIntro},
		{Role: RoleUser, Content: desc},
	}
	return c.GenerateResponse(ctx, history, language)
}

// failure builds the fixed failure shape with a localized user-safe message.
func (c *Client) failure(start time.Time, language, diagnostic string) Response {
	return Response{
		Success:      false,
		Content:      failureMessage(language),
		ModelUsed:    "error",
		TokensUsed:   0,
		ResponseTime: time.Since(start),
		ErrorMessage: diagnostic,
	}
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

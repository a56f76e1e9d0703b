// ABOUTME: OpenAI-compatible chat-completions HTTP provider
// ABOUTME: Maps HTTP and transport failures onto the ProviderError taxonomy

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// OpenAIProvider talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAIProvider creates a provider for the given base URL and API key.
// Per-attempt timeouts are driven by the request context, not the HTTP client.
func NewOpenAIProvider(baseURL, apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
		logger:  slog.Default().With("component", "llm-provider"),
	}
}

// completionRequest is the chat-completions request body.
type completionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// completionResponse is the chat-completions response body.
type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// errorResponse is the provider's JSON error envelope.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete issues one completion request for one model.
func (p *OpenAIProvider) Complete(ctx context.Context, req ChatRequest) (*ChatCompletion, error) {
	body, err := json.Marshal(completionRequest{Model: req.Model, Messages: req.Messages})
	if err != nil {
		return nil, &ProviderError{Kind: ErrMalformed, Message: "encoding request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Kind: ErrConnection, Message: "creating request", Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &ProviderError{Kind: ErrTimeout, Message: "request timed out", Err: err}
		}
		return nil, &ProviderError{Kind: ErrConnection, Message: "sending request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.classifyStatus(resp)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, &ProviderError{Kind: ErrMalformed, Message: "decoding response", Err: err}
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, &ProviderError{Kind: ErrMalformed, Message: "response contained no content"}
	}

	model := completion.Model
	if model == "" {
		model = req.Model
	}

	return &ChatCompletion{
		Content:    completion.Choices[0].Message.Content,
		Model:      model,
		TokensUsed: completion.Usage.TotalTokens,
	}, nil
}

// classifyStatus maps a non-200 response onto the error taxonomy.
func (p *OpenAIProvider) classifyStatus(resp *http.Response) *ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	detail := strings.TrimSpace(string(body))
	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		detail = errResp.Error.Message
	}

	msg := fmt.Sprintf("status %d: %s", resp.StatusCode, detail)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &ProviderError{Kind: ErrRateLimited, Message: msg}
	case resp.StatusCode >= 500:
		// Gateway timeouts behave like per-attempt timeouts
		if resp.StatusCode == http.StatusGatewayTimeout {
			return &ProviderError{Kind: ErrTimeout, Message: msg}
		}
		return &ProviderError{Kind: ErrConnection, Message: msg}
	default:
		return &ProviderError{Kind: ErrAPI, Message: msg}
	}
}

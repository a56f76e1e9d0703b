// Package llm wraps calls to an external language-model provider with retry,
// per-attempt timeouts, and fallback-model switching.
//
// # Retry Policy
//
// The policy is data, not control flow: a request runs through an attempt plan
//
//	[{primary, max_attempts}, {fallback, fallback_attempts}]
//
// Transient failures (rate limiting, timeout, connection) retry the same model
// with exponential backoff; malformed responses and generic API errors are
// non-recoverable for the current model and jump straight to the next plan
// entry. When the plan is exhausted the client degrades to a fixed failure
// shape with a localized, user-safe message — it never returns an error and
// never exposes raw provider error text to end users.
//
// # Language Steering
//
// For non-default languages the client prepends a system message naming the
// target language. Localized diagnostic terminology (prompt intros, machine
// field labels, user-safe failure messages) lives in embedded TOML packs,
// one per supported language.
//
// # Providers
//
// Provider is the single-call abstraction; OpenAIProvider implements it
// against any OpenAI-compatible chat-completions endpoint and classifies
// failures into the ProviderError taxonomy the retry policy needs.
package llm

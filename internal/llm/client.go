package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/tool"
)

// Provider identifiers.
const (
	ProviderGemini  = "gemini"
	ProviderMistral = "mistral"
)

// Role constants for outbound conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one normalized conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams carries everything an adapter needs for one request.
type ChatParams struct {
	APIKey   string
	Model    string
	BaseURL  string
	Messages []Message
	System   string
	Tools    []tool.Spec
}

// Result is a successful provider response. A result with empty Text, no
// ToolCalls, and a non-empty BlockedReason is a safety block, not an empty
// answer; callers must surface it as a refusal rather than an empty bubble.
type Result struct {
	Provider      string
	Text          string
	ToolCalls     []tool.Call
	BlockedReason string
}

// Blocked reports whether the result is a safety block.
func (r *Result) Blocked() bool {
	return r.Text == "" && len(r.ToolCalls) == 0 && r.BlockedReason != ""
}

// APIError is a failed provider call: transport failure, non-2xx status, or
// an error object embedded in an otherwise-OK body.
type APIError struct {
	Provider   string `json:"provider"`
	StatusCode int    `json:"status"`
	Summary    string `json:"error"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Summary)
}

// Client is the unified interface for LLM providers. A returned error is
// always an *APIError so the orchestrator can include the failure payload in
// its diagnostics.
type Client interface {
	Chat(ctx context.Context, params ChatParams) (*Result, error)
}

// requestTimeout bounds every outbound provider call; expiry is treated as a
// network failure for fallback purposes.
const requestTimeout = 15 * time.Second

// maxErrorBody caps how much of an upstream error body is kept in diagnostics.
const maxErrorBody = 1000

func truncateBody(body string) string {
	if len(body) > maxErrorBody {
		return body[:maxErrorBody]
	}
	return body
}

package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/config"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/llm"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/tool"
)

// MaxHistory is the number of most recent conversation turns sent upstream.
// Older history is dropped silently.
const MaxHistory = 12

// RefusalText is the fixed reply for a provider safety block. A block must
// never surface as an empty bubble.
const RefusalText = "I cannot help with that request as currently phrased."

// NormalizeMessages filters a decoded request payload into an ordered
// conversation. Entries that are not {role: user|assistant, content: non-blank
// string} are dropped, not mutated into validity; content is trimmed; only the
// last 12 entries are kept. Already-normalized input passes through unchanged.
func NormalizeMessages(input any) []llm.Message {
	items, ok := input.([]any)
	if !ok {
		return nil
	}

	var messages []llm.Message
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		role, _ := entry["role"].(string)
		content, _ := entry["content"].(string)
		if role != llm.RoleUser && role != llm.RoleAssistant {
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		messages = append(messages, llm.Message{Role: role, Content: content})
	}

	if len(messages) > MaxHistory {
		messages = messages[len(messages)-MaxHistory:]
	}
	return messages
}

// Reply is the uniform success shape returned to the client regardless of
// which provider answered.
type Reply struct {
	Text          string      `json:"text"`
	ToolCalls     []tool.Call `json:"toolCalls"`
	Provider      string      `json:"provider,omitempty"`
	FallbackFrom  string      `json:"fallbackFrom,omitempty"`
	BlockedReason string      `json:"blockedReason,omitempty"`
}

// ErrorReply carries a failed chat request, including the per-provider
// failure payloads for diagnosis.
type ErrorReply struct {
	Status  int            `json:"-"`
	Error   string         `json:"error"`
	Details string         `json:"details,omitempty"`
	Hint    string         `json:"hint,omitempty"`
	Debug   map[string]any `json:"debug,omitempty"`
	Gemini  *llm.APIError  `json:"gemini,omitempty"`
	Mistral *llm.APIError  `json:"mistral,omitempty"`
}

// Orchestrator owns the provider fallback policy for one assistant variant.
// Gemini is primary; Mistral is attempted only after Gemini is known to have
// failed, never in parallel.
type Orchestrator struct {
	gemini  llm.Client
	mistral llm.Client
	system  string
	tools   []tool.Spec
}

func NewOrchestrator(gemini, mistral llm.Client, system string, tools []tool.Spec) *Orchestrator {
	return &Orchestrator{gemini: gemini, mistral: mistral, system: system, tools: tools}
}

// Respond runs the fallback chain for a normalized conversation.
func (o *Orchestrator) Respond(ctx context.Context, cfg *config.Config, messages []llm.Message) (*Reply, *ErrorReply) {
	hasGemini := cfg.HasGemini()
	hasMistral := cfg.HasMistral()

	if !hasGemini && !hasMistral {
		// Deployment error, not a runtime error.
		return nil, &ErrorReply{
			Status: http.StatusInternalServerError,
			Error:  "Missing API keys. Set GEMINI_API_KEY (or GOOGLE_API_KEY) and/or MISTRAL_API_KEY in the deployment environment.",
			Debug: map[string]any{
				"hasGeminiKey":  hasGemini,
				"hasMistralKey": hasMistral,
				"deployEnv":     cfg.Deploy.Env,
				"deploymentId":  cfg.Deploy.ID,
				"region":        cfg.Deploy.Region,
			},
		}
	}

	var geminiFailure *llm.APIError

	if hasGemini {
		result, err := o.gemini.Chat(ctx, llm.ChatParams{
			APIKey:   cfg.Providers.Gemini.APIKey,
			Model:    cfg.Providers.Gemini.Model,
			BaseURL:  cfg.Providers.Gemini.BaseURL,
			Messages: messages,
			System:   o.system,
			Tools:    o.tools,
		})
		if err == nil {
			if result.Blocked() {
				return &Reply{
					Text:          RefusalText,
					ToolCalls:     []tool.Call{},
					Provider:      llm.ProviderGemini,
					BlockedReason: result.BlockedReason,
				}, nil
			}
			return &Reply{
				Text:      result.Text,
				ToolCalls: emptyIfNil(result.ToolCalls),
				Provider:  llm.ProviderGemini,
			}, nil
		}

		if !errors.As(err, &geminiFailure) {
			geminiFailure = &llm.APIError{Provider: llm.ProviderGemini, StatusCode: 502, Summary: "Gemini request failed", Details: err.Error()}
		}
		slog.Warn("gemini request failed", "status", geminiFailure.StatusCode, "error", geminiFailure.Summary)
	}

	if hasMistral {
		result, err := o.mistral.Chat(ctx, llm.ChatParams{
			APIKey:   cfg.Providers.Mistral.APIKey,
			Model:    cfg.Providers.Mistral.Model,
			BaseURL:  cfg.Providers.Mistral.BaseURL,
			Messages: messages,
			System:   o.system,
			Tools:    o.tools,
		})
		if err == nil {
			reply := &Reply{
				Text:      result.Text,
				ToolCalls: emptyIfNil(result.ToolCalls),
				Provider:  llm.ProviderMistral,
			}
			if geminiFailure != nil {
				reply.FallbackFrom = llm.ProviderGemini
			}
			return reply, nil
		}

		var mistralFailure *llm.APIError
		if !errors.As(err, &mistralFailure) {
			mistralFailure = &llm.APIError{Provider: llm.ProviderMistral, StatusCode: 502, Summary: "Mistral request failed", Details: err.Error()}
		}
		slog.Warn("mistral request failed", "status", mistralFailure.StatusCode, "error", mistralFailure.Summary)

		status := mistralFailure.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		if geminiFailure != nil {
			return nil, &ErrorReply{
				Status:  status,
				Error:   "Both Gemini and Mistral requests failed",
				Gemini:  geminiFailure,
				Mistral: mistralFailure,
			}
		}
		return nil, &ErrorReply{
			Status:  status,
			Error:   "Mistral request failed",
			Details: mistralFailure.Details,
			Mistral: mistralFailure,
		}
	}

	status := geminiFailure.StatusCode
	if status == 0 {
		status = http.StatusBadGateway
	}
	return nil, &ErrorReply{
		Status:  status,
		Error:   "Gemini request failed and Mistral fallback is not configured",
		Details: geminiFailure.Details,
		Hint:    "Set MISTRAL_API_KEY to enable fallback.",
		Gemini:  geminiFailure,
	}
}

func emptyIfNil(calls []tool.Call) []tool.Call {
	if calls == nil {
		return []tool.Call{}
	}
	return calls
}

package chat

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/config"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/llm"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/tool"
)

type stubClient struct {
	result *llm.Result
	err    error
	calls  int
	params llm.ChatParams
}

func (s *stubClient) Chat(ctx context.Context, params llm.ChatParams) (*llm.Result, error) {
	s.calls++
	s.params = params
	return s.result, s.err
}

func testConfig(geminiKey, mistralKey string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Providers.Gemini.APIKey = geminiKey
	cfg.Providers.Mistral.APIKey = mistralKey
	return cfg
}

func userMessages(texts ...string) []llm.Message {
	var out []llm.Message
	for _, t := range texts {
		out = append(out, llm.Message{Role: llm.RoleUser, Content: t})
	}
	return out
}

func TestRespondGeminiSuccess(t *testing.T) {
	t.Parallel()

	gemini := &stubClient{result: &llm.Result{Provider: llm.ProviderGemini, Text: "hello"}}
	mistral := &stubClient{}
	orch := NewOrchestrator(gemini, mistral, "system", nil)

	reply, errReply := orch.Respond(context.Background(), testConfig("g", "m"), userMessages("hi"))
	require.Nil(t, errReply)

	assert.Equal(t, "hello", reply.Text)
	assert.Equal(t, llm.ProviderGemini, reply.Provider)
	assert.Empty(t, reply.FallbackFrom)
	assert.NotNil(t, reply.ToolCalls)
	assert.Zero(t, mistral.calls, "fallback must not run when the primary succeeds")
}

func TestRespondGeminiBlocked(t *testing.T) {
	t.Parallel()

	gemini := &stubClient{result: &llm.Result{Provider: llm.ProviderGemini, BlockedReason: "SAFETY"}}
	mistral := &stubClient{}
	orch := NewOrchestrator(gemini, mistral, "system", nil)

	reply, errReply := orch.Respond(context.Background(), testConfig("g", "m"), userMessages("hi"))
	require.Nil(t, errReply)

	// A safety block is a successful response with fixed refusal text, not a
	// provider failure, so it never falls through to the fallback.
	assert.Equal(t, RefusalText, reply.Text)
	assert.Equal(t, "SAFETY", reply.BlockedReason)
	assert.Zero(t, mistral.calls)
}

func TestRespondFallbackToMistral(t *testing.T) {
	t.Parallel()

	gemini := &stubClient{err: &llm.APIError{Provider: llm.ProviderGemini, StatusCode: 429, Summary: "Gemini request failed"}}
	mistral := &stubClient{result: &llm.Result{
		Provider:  llm.ProviderMistral,
		ToolCalls: []tool.Call{{Name: "open_link", Args: map[string]any{"target": "github"}}},
	}}
	orch := NewOrchestrator(gemini, mistral, "system", nil)

	reply, errReply := orch.Respond(context.Background(), testConfig("g", "m"), userMessages("open my github"))
	require.Nil(t, errReply)

	assert.Equal(t, llm.ProviderMistral, reply.Provider)
	assert.Equal(t, llm.ProviderGemini, reply.FallbackFrom)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "open_link", reply.ToolCalls[0].Name)
}

func TestRespondBothFail(t *testing.T) {
	t.Parallel()

	gemini := &stubClient{err: &llm.APIError{Provider: llm.ProviderGemini, StatusCode: 500, Summary: "Gemini request failed"}}
	mistral := &stubClient{err: &llm.APIError{Provider: llm.ProviderMistral, StatusCode: 429, Summary: "Mistral request failed"}}
	orch := NewOrchestrator(gemini, mistral, "system", nil)

	reply, errReply := orch.Respond(context.Background(), testConfig("g", "m"), userMessages("hi"))
	require.Nil(t, reply)
	require.NotNil(t, errReply)

	assert.Equal(t, 429, errReply.Status)
	assert.Equal(t, "Both Gemini and Mistral requests failed", errReply.Error)
	require.NotNil(t, errReply.Gemini)
	require.NotNil(t, errReply.Mistral)
	assert.Equal(t, 500, errReply.Gemini.StatusCode)
}

func TestRespondGeminiOnlyFails(t *testing.T) {
	t.Parallel()

	gemini := &stubClient{err: &llm.APIError{Provider: llm.ProviderGemini, StatusCode: 503, Summary: "Gemini request failed", Details: "overloaded"}}
	orch := NewOrchestrator(gemini, &stubClient{}, "system", nil)

	reply, errReply := orch.Respond(context.Background(), testConfig("g", ""), userMessages("hi"))
	require.Nil(t, reply)
	require.NotNil(t, errReply)

	assert.Equal(t, 503, errReply.Status)
	assert.Equal(t, "Set MISTRAL_API_KEY to enable fallback.", errReply.Hint)
	assert.Equal(t, "overloaded", errReply.Details)
}

func TestRespondMistralOnly(t *testing.T) {
	t.Parallel()

	gemini := &stubClient{}
	mistral := &stubClient{result: &llm.Result{Provider: llm.ProviderMistral, Text: "fallback-only"}}
	orch := NewOrchestrator(gemini, mistral, "system", nil)

	reply, errReply := orch.Respond(context.Background(), testConfig("", "m"), userMessages("hi"))
	require.Nil(t, errReply)

	assert.Equal(t, "fallback-only", reply.Text)
	assert.Empty(t, reply.FallbackFrom, "no fallback marker when the primary was never attempted")
	assert.Zero(t, gemini.calls)
}

func TestRespondNoKeys(t *testing.T) {
	t.Parallel()

	orch := NewOrchestrator(&stubClient{}, &stubClient{}, "system", nil)

	reply, errReply := orch.Respond(context.Background(), testConfig("", ""), userMessages("hi"))
	require.Nil(t, reply)
	require.NotNil(t, errReply)

	assert.Equal(t, http.StatusInternalServerError, errReply.Status)
	assert.Contains(t, errReply.Error, "Missing API keys")
	assert.Equal(t, false, errReply.Debug["hasGeminiKey"])
	assert.Equal(t, false, errReply.Debug["hasMistralKey"])
}

func TestRespondPassesCredentialsAndTools(t *testing.T) {
	t.Parallel()

	gemini := &stubClient{result: &llm.Result{Provider: llm.ProviderGemini, Text: "ok"}}
	specs := tool.Specs([]string{"github"})
	orch := NewOrchestrator(gemini, &stubClient{}, "the system prompt", specs)

	cfg := testConfig("gkey", "")
	_, errReply := orch.Respond(context.Background(), cfg, userMessages("hi"))
	require.Nil(t, errReply)

	assert.Equal(t, "gkey", gemini.params.APIKey)
	assert.Equal(t, cfg.Providers.Gemini.Model, gemini.params.Model)
	assert.Equal(t, "the system prompt", gemini.params.System)
	assert.Len(t, gemini.params.Tools, 4)
}

func TestNormalizeMessages(t *testing.T) {
	t.Parallel()

	t.Run("filters and trims", func(t *testing.T) {
		t.Parallel()
		input := []any{
			map[string]any{"role": "user", "content": "  hi  "},
			map[string]any{"role": "assistant", "content": "hello"},
			map[string]any{"role": "system", "content": "ignored"},
			map[string]any{"role": "user", "content": "   "},
			map[string]any{"role": "user"},
			"not a map",
		}
		got := NormalizeMessages(input)
		require.Len(t, got, 2)
		assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "hi"}, got[0])
		assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "hello"}, got[1])
	})

	t.Run("caps at window keeping most recent", func(t *testing.T) {
		t.Parallel()
		var input []any
		for i := 0; i < MaxHistory+5; i++ {
			input = append(input, map[string]any{"role": "user", "content": "m" + string(rune('a'+i))})
		}
		got := NormalizeMessages(input)
		require.Len(t, got, MaxHistory)
		assert.Equal(t, "m"+string(rune('a'+5)), got[0].Content)
	})

	t.Run("non-slice input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, NormalizeMessages(nil))
		assert.Empty(t, NormalizeMessages("nope"))
		assert.Empty(t, NormalizeMessages(map[string]any{}))
	})
}

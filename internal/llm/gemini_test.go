package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/tool"
)

func geminiTestServer(t *testing.T, status int, body string, capture *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiChatText(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := geminiTestServer(t, http.StatusOK, `{
		"candidates": [{"content": {"parts": [{"text": "  Hello there.  "}, {"text": "Second part."}]}}]
	}`, &captured)

	client := NewGeminiClient()
	result, err := client.Chat(context.Background(), ChatParams{
		APIKey:  "key",
		Model:   "gemini-2.0-flash",
		BaseURL: srv.URL,
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
		System: "be nice",
	})
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, result.Provider)
	assert.Equal(t, "Hello there.\nSecond part.", result.Text)
	assert.False(t, result.Blocked())

	contents := captured["contents"].([]any)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].(map[string]any)["role"])
	assert.Equal(t, "model", contents[1].(map[string]any)["role"])
	assert.NotNil(t, captured["systemInstruction"])
}

func TestGeminiChatToolCall(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := geminiTestServer(t, http.StatusOK, `{
		"candidates": [{"content": {"parts": [
			{"functionCall": {"name": "open_link", "args": {"target": "github"}}}
		]}}]
	}`, &captured)

	client := NewGeminiClient()
	result, err := client.Chat(context.Background(), ChatParams{
		APIKey:   "key",
		Model:    "gemini-2.0-flash",
		BaseURL:  srv.URL,
		Messages: []Message{{Role: RoleUser, Content: "open my github"}},
		Tools:    tool.Specs([]string{"github"}),
	})
	require.NoError(t, err)

	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "open_link", result.ToolCalls[0].Name)
	assert.Equal(t, "github", result.ToolCalls[0].Args["target"])

	// Declarations go out in the upper-case type dialect.
	tools := captured["tools"].([]any)
	decls := tools[0].(map[string]any)["functionDeclarations"].([]any)
	params := decls[0].(map[string]any)["parameters"].(map[string]any)
	assert.Equal(t, "OBJECT", params["type"])
	target := params["properties"].(map[string]any)["target"].(map[string]any)
	assert.Equal(t, "STRING", target["type"])
}

func TestGeminiChatSafetyBlock(t *testing.T) {
	t.Parallel()

	srv := geminiTestServer(t, http.StatusOK, `{"promptFeedback": {"blockReason": "SAFETY"}}`, nil)

	client := NewGeminiClient()
	result, err := client.Chat(context.Background(), ChatParams{
		APIKey:   "key",
		Model:    "gemini-2.0-flash",
		BaseURL:  srv.URL,
		Messages: []Message{{Role: RoleUser, Content: "blocked"}},
	})
	require.NoError(t, err)
	assert.True(t, result.Blocked())
	assert.Equal(t, "SAFETY", result.BlockedReason)
}

func TestGeminiChatHTTPError(t *testing.T) {
	t.Parallel()

	srv := geminiTestServer(t, http.StatusTooManyRequests, `{"error": {"message": "quota exceeded"}}`, nil)

	client := NewGeminiClient()
	_, err := client.Chat(context.Background(), ChatParams{
		APIKey:   "key",
		Model:    "gemini-2.0-flash",
		BaseURL:  srv.URL,
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ProviderGemini, apiErr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Details, "quota exceeded")
}

func TestGeminiChatMalformedArgsCoerced(t *testing.T) {
	t.Parallel()

	srv := geminiTestServer(t, http.StatusOK, `{
		"candidates": [{"content": {"parts": [
			{"functionCall": {"name": "open_link", "args": "not an object"}}
		]}}]
	}`, nil)

	client := NewGeminiClient()
	result, err := client.Chat(context.Background(), ChatParams{
		APIKey:   "key",
		Model:    "gemini-2.0-flash",
		BaseURL:  srv.URL,
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 1)
	assert.Empty(t, result.ToolCalls[0].Args)
}

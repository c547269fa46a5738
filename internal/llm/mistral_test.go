package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/tool"
)

func mistralTestServer(t *testing.T, status int, body string, capture *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMistralChatText(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := mistralTestServer(t, http.StatusOK, `{
		"choices": [{"message": {"content": "  Plain answer.  "}}]
	}`, &captured)

	client := NewMistralClient()
	result, err := client.Chat(context.Background(), ChatParams{
		APIKey:   "key",
		Model:    "open-mistral-nemo",
		BaseURL:  srv.URL,
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		System:   "be brief",
	})
	require.NoError(t, err)
	assert.Equal(t, ProviderMistral, result.Provider)
	assert.Equal(t, "Plain answer.", result.Text)

	// System prompt travels as the first message.
	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestMistralChatContentBlocks(t *testing.T) {
	t.Parallel()

	srv := mistralTestServer(t, http.StatusOK, `{
		"choices": [{"message": {"content": [{"type": "text", "text": "Part one."}, {"type": "text", "text": " Part two. "}]}}]
	}`, nil)

	client := NewMistralClient()
	result, err := client.Chat(context.Background(), ChatParams{
		APIKey:   "key",
		Model:    "open-mistral-nemo",
		BaseURL:  srv.URL,
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Part one.\nPart two.", result.Text)
}

func TestMistralChatToolCall(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := mistralTestServer(t, http.StatusOK, `{
		"choices": [{"message": {"content": "", "tool_calls": [
			{"function": {"name": "open_link", "arguments": "{\"target\": \"github\"}"}}
		]}}]
	}`, &captured)

	client := NewMistralClient()
	result, err := client.Chat(context.Background(), ChatParams{
		APIKey:   "key",
		Model:    "open-mistral-nemo",
		BaseURL:  srv.URL,
		Messages: []Message{{Role: RoleUser, Content: "open my github"}},
		Tools:    tool.Specs([]string{"github"}),
	})
	require.NoError(t, err)

	// String-encoded argument objects are decoded transparently.
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "open_link", result.ToolCalls[0].Name)
	assert.Equal(t, "github", result.ToolCalls[0].Args["target"])

	// Declarations go out in the lower-case JSON-schema dialect.
	tools := captured["tools"].([]any)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	params := fn["parameters"].(map[string]any)
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, "auto", captured["tool_choice"])
}

func TestMistralChatEmbeddedError(t *testing.T) {
	t.Parallel()

	srv := mistralTestServer(t, http.StatusOK, `{"error": {"message": "invalid model"}}`, nil)

	client := NewMistralClient()
	_, err := client.Chat(context.Background(), ChatParams{
		APIKey:   "key",
		Model:    "bad-model",
		BaseURL:  srv.URL,
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ProviderMistral, apiErr.Provider)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "invalid model", apiErr.Details)
}

func TestMistralChatHTTPError(t *testing.T) {
	t.Parallel()

	srv := mistralTestServer(t, http.StatusUnauthorized, `{"message": "bad key"}`, nil)

	client := NewMistralClient()
	_, err := client.Chat(context.Background(), ChatParams{
		APIKey:   "key",
		Model:    "open-mistral-nemo",
		BaseURL:  srv.URL,
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestTruncateBody(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 2000)
	assert.Len(t, truncateBody(long), maxErrorBody)
	assert.Equal(t, "short", truncateBody("short"))
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/tool"
)

// MistralClient implements Client for the Mistral chat-completions API. The
// wire shape is the common OpenAI-compatible dialect, so this adapter also
// works against other chat-completion providers if the base URL is changed.
type MistralClient struct {
	HTTPClient *http.Client
}

func NewMistralClient() *MistralClient {
	return &MistralClient{HTTPClient: http.DefaultClient}
}

func (c *MistralClient) Chat(ctx context.Context, params ChatParams) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body := c.buildRequest(params)
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, &APIError{Provider: ProviderMistral, StatusCode: 502, Summary: "Mistral request failed", Details: err.Error()}
	}

	baseURL := strings.TrimRight(params.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.mistral.ai"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &APIError{Provider: ProviderMistral, StatusCode: 502, Summary: "Mistral request failed", Details: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+params.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &APIError{Provider: ProviderMistral, StatusCode: 502, Summary: "Mistral request failed", Details: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Provider:   ProviderMistral,
			StatusCode: resp.StatusCode,
			Summary:    "Mistral request failed",
			Details:    truncateBody(string(respBody)),
		}
	}

	var data mistralResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, &APIError{Provider: ProviderMistral, StatusCode: 502, Summary: "Mistral request failed", Details: "malformed response: " + err.Error()}
	}

	// Some failures arrive as an error object inside a 200 body.
	if data.Error != nil && data.Error.Message != "" {
		return nil, &APIError{Provider: ProviderMistral, StatusCode: 502, Summary: "Mistral request failed", Details: data.Error.Message}
	}

	return parseMistralResponse(&data), nil
}

func (c *MistralClient) buildRequest(params ChatParams) map[string]any {
	messages := make([]map[string]any, 0, len(params.Messages)+1)
	if params.System != "" {
		messages = append(messages, map[string]any{
			"role":    "system",
			"content": strings.TrimSpace(params.System),
		})
	}
	for _, msg := range params.Messages {
		messages = append(messages, map[string]any{
			"role":    msg.Role,
			"content": msg.Content,
		})
	}

	req := map[string]any{
		"model":       params.Model,
		"messages":    messages,
		"temperature": 0.45,
		"max_tokens":  1024,
	}

	if len(params.Tools) > 0 {
		req["tools"] = mistralTools(params.Tools)
		req["tool_choice"] = "auto"
	}

	return req
}

// mistralTools renders the canonical tool specs into the lower-case
// JSON-schema function dialect.
func mistralTools(specs []tool.Spec) []map[string]any {
	tools := make([]map[string]any, 0, len(specs))
	for _, spec := range specs {
		properties := make(map[string]any, len(spec.Params))
		var required []string
		for _, p := range spec.Params {
			prop := map[string]any{
				"type":        string(p.Type),
				"description": p.Description,
			}
			if len(p.Enum) > 0 {
				prop["enum"] = p.Enum
			}
			properties[p.Name] = prop
			if p.Required {
				required = append(required, p.Name)
			}
		}
		parameters := map[string]any{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			parameters["required"] = required
		}
		tools = append(tools, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        spec.Name,
				"description": spec.Description,
				"parameters":  parameters,
			},
		})
	}
	return tools
}

func parseMistralResponse(data *mistralResponse) *Result {
	var message *mistralMessage
	if len(data.Choices) > 0 {
		message = data.Choices[0].Message
	}

	result := &Result{Provider: ProviderMistral}
	if message == nil {
		return result
	}

	result.Text = parseMistralContent(message.Content)

	for _, tc := range message.ToolCalls {
		if tc.Function == nil || tc.Function.Name == "" {
			continue
		}
		result.ToolCalls = append(result.ToolCalls, tool.Call{
			Name: tc.Function.Name,
			Args: parseArgPayload(tc.Function.Arguments),
		})
	}

	return result
}

// parseMistralContent reduces assistant content to a single trimmed string.
// The API may return either a plain string or an array of content blocks.
func parseMistralContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return strings.TrimSpace(asString)
	}

	var blocks []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	var segments []string
	for _, block := range blocks {
		if trimmed := strings.TrimSpace(block.Text); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return strings.Join(segments, "\n")
}

// parseArgPayload accepts tool-call arguments as either a JSON object or a
// JSON-encoded string; anything else is coerced to an empty object.
func parseArgPayload(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err == nil && args != nil {
		return args
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &args); err == nil && args != nil {
			return args
		}
	}

	return map[string]any{}
}

// Mistral response wire types.

type mistralResponse struct {
	Choices []mistralChoice `json:"choices"`
	Error   *mistralError   `json:"error"`
}

type mistralChoice struct {
	Message *mistralMessage `json:"message"`
}

type mistralMessage struct {
	Content   json.RawMessage   `json:"content"`
	ToolCalls []mistralToolCall `json:"tool_calls"`
}

type mistralToolCall struct {
	Function *mistralFunction `json:"function"`
}

type mistralFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type mistralError struct {
	Message string `json:"message"`
}

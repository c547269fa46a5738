package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/tool"
)

// GeminiClient implements Client for the Google generative language API
// (generateContent, non-streaming).
type GeminiClient struct {
	HTTPClient *http.Client
}

func NewGeminiClient() *GeminiClient {
	return &GeminiClient{HTTPClient: http.DefaultClient}
}

func (c *GeminiClient) Chat(ctx context.Context, params ChatParams) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body := c.buildRequest(params)
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, &APIError{Provider: ProviderGemini, StatusCode: 502, Summary: "Gemini request failed", Details: err.Error()}
	}

	baseURL := strings.TrimRight(params.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", baseURL, params.Model, params.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &APIError{Provider: ProviderGemini, StatusCode: 502, Summary: "Gemini request failed", Details: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &APIError{Provider: ProviderGemini, StatusCode: 502, Summary: "Gemini request failed", Details: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Provider:   ProviderGemini,
			StatusCode: resp.StatusCode,
			Summary:    "Gemini request failed",
			Details:    truncateBody(string(respBody)),
		}
	}

	var data geminiResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, &APIError{Provider: ProviderGemini, StatusCode: 502, Summary: "Gemini request failed", Details: "malformed response: " + err.Error()}
	}

	return parseGeminiResponse(&data), nil
}

func (c *GeminiClient) buildRequest(params ChatParams) map[string]any {
	contents := make([]map[string]any, 0, len(params.Messages))
	for _, msg := range params.Messages {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []map[string]any{{"text": msg.Content}},
		})
	}

	req := map[string]any{
		"contents": contents,
		"generationConfig": map[string]any{
			"temperature":     0.45,
			"maxOutputTokens": 1024,
		},
	}

	if params.System != "" {
		req["systemInstruction"] = map[string]any{
			"parts": []map[string]any{{"text": strings.TrimSpace(params.System)}},
		}
	}

	if len(params.Tools) > 0 {
		req["tools"] = []map[string]any{
			{"functionDeclarations": geminiFunctionDeclarations(params.Tools)},
		}
		req["toolConfig"] = map[string]any{
			"functionCallingConfig": map[string]any{"mode": "AUTO"},
		}
	}

	return req
}

// geminiFunctionDeclarations renders the canonical tool specs into Gemini's
// upper-case type-name dialect.
func geminiFunctionDeclarations(specs []tool.Spec) []map[string]any {
	decls := make([]map[string]any, 0, len(specs))
	for _, spec := range specs {
		properties := make(map[string]any, len(spec.Params))
		var required []string
		for _, p := range spec.Params {
			prop := map[string]any{
				"type":        geminiType(p.Type),
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
			"type":       "OBJECT",
			"properties": properties,
		}
		if len(required) > 0 {
			parameters["required"] = required
		}
		decls = append(decls, map[string]any{
			"name":        spec.Name,
			"description": spec.Description,
			"parameters":  parameters,
		})
	}
	return decls
}

func geminiType(t tool.ParamType) string {
	switch t {
	case tool.TypeNumber:
		return "NUMBER"
	default:
		return "STRING"
	}
}

func parseGeminiResponse(data *geminiResponse) *Result {
	var parts []geminiPart
	if len(data.Candidates) > 0 && data.Candidates[0].Content != nil {
		parts = data.Candidates[0].Content.Parts
	}

	var textSegments []string
	var toolCalls []tool.Call
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part.Text); trimmed != "" {
			textSegments = append(textSegments, trimmed)
		}
		if part.FunctionCall != nil && part.FunctionCall.Name != "" {
			toolCalls = append(toolCalls, tool.Call{
				Name: part.FunctionCall.Name,
				Args: asArgObject(part.FunctionCall.Args),
			})
		}
	}

	result := &Result{
		Provider:  ProviderGemini,
		Text:      strings.Join(textSegments, "\n"),
		ToolCalls: toolCalls,
	}
	if data.PromptFeedback != nil {
		result.BlockedReason = data.PromptFeedback.BlockReason
	}
	return result
}

// asArgObject coerces a function-call argument payload to an object; anything
// that is not a JSON object becomes an empty map rather than failing the call.
func asArgObject(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// Gemini response wire types.

type geminiResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *geminiFeedback   `json:"promptFeedback"`
}

type geminiCandidate struct {
	Content *geminiContent `json:"content"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text         string              `json:"text"`
	FunctionCall *geminiFunctionCall `json:"functionCall"`
}

type geminiFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type geminiFeedback struct {
	BlockReason string `json:"blockReason"`
}

package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Chat-completions client for the Llama API. The wire shape is the one the
// upstream exposes: requests carry {model, messages, tools?}, responses carry
// a completion_message whose stop_reason distinguishes a direct reply from a
// tool-call request.

const stopReasonToolCalls = "tool_calls"

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type MessageContent struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON-encoded argument object
}

// CompletionMessage is the assistant message inside a completion response.
// It round-trips: the second request of a tool exchange resends it verbatim.
type CompletionMessage struct {
	Role       string          `json:"role"`
	StopReason string          `json:"stop_reason,omitempty"`
	Content    *MessageContent `json:"content,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
}

func (m *CompletionMessage) Text() string {
	if m.Content == nil {
		return ""
	}
	return m.Content.Text
}

// toolResultMessage is the role:"tool" follow-up that feeds a tool's output
// back to the model.
type toolResultMessage struct {
	Role       string `json:"role"`
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

type completionRequest struct {
	Model    string `json:"model"`
	Messages []any  `json:"messages"`
	Tools    []Tool `json:"tools,omitempty"`
}

type completionResponse struct {
	CompletionMessage CompletionMessage `json:"completion_message"`
}

// APIError is a non-2xx answer from the LLM API. Handlers pass the upstream
// status and body through to the caller instead of masking them.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llama api error: %s", e.Status)
}

type LlamaClient struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewLlamaClient(endpoint, apiKey, model string) *LlamaClient {
	return &LlamaClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: http.DefaultClient,
	}
}

// CreateCompletion runs one chat-completion round. Messages may mix ChatTurn,
// CompletionMessage and toolResultMessage values; they marshal to the wire
// shapes the API expects. A nil tools slice omits the field, which keeps the
// model from tool-calling again on the second round.
func (c *LlamaClient) CreateCompletion(ctx context.Context, messages []any, tools []Tool) (*CompletionMessage, error) {
	payload, err := json.Marshal(completionRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}
	return &parsed.CompletionMessage, nil
}

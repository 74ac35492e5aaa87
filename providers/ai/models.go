package ai

import "github.com/leofalp/aigraph/internal/jsonschema"

// ChatRequest is a single completion request.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`
	SystemPrompt     string            `json:"system_prompt,omitempty"`
	Messages         []Message         `json:"messages"` // conversation, system prompt excluded
	ResponseFormat   *ResponseFormat   `json:"response_format,omitempty"`
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`
}

// Message is one role-tagged turn of a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	Name    string      `json:"name,omitempty"`
}

// GenerationConfig carries sampling parameters. Nil pointers are not sent,
// so an explicit zero temperature survives serialization.
type GenerationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// ResponseFormat asks the model for JSON matching OutputSchema.
type ResponseFormat struct {
	Name         string             `json:"name,omitempty"` // schema name sent to the provider
	OutputSchema *jsonschema.Schema `json:"output_schema,omitempty"`
	Strict       bool               `json:"strict,omitempty"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse is the provider-neutral completion result.
type ChatResponse struct {
	Id           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Refusal      string `json:"refusal,omitempty"` // set when the model declines (safety/policy)
	Usage        *Usage `json:"usage,omitempty"`
}

// MessageRole is the role of a message; compatible with string.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// IsValid reports whether r is one of the known roles.
func (r MessageRole) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

package openai

import (
	"github.com/leofalp/aigraph/internal/jsonschema"
	"github.com/leofalp/aigraph/providers/ai"
)

const defaultSchemaName = "response"

/*
	CHAT COMPLETIONS API - INPUT
*/

type chatCompletionRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    *float64            `json:"temperature,omitempty"`
	MaxTokens      *int                `json:"max_completion_tokens,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type chatResponseFormat struct {
	Type       string          `json:"type"` // "text", "json_object", "json_schema"
	JSONSchema *chatJSONSchema `json:"json_schema,omitempty"`
}

type chatJSONSchema struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Schema      *jsonschema.Schema `json:"schema"`
	Strict      bool               `json:"strict,omitempty"`
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"` // "stop", "length", "content_filter"
}

type chatResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Refusal string `json:"refusal,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

/*
	CONVERSION FUNCTIONS
*/

func toChatCompletionRequest(request ai.ChatRequest) chatCompletionRequest {
	req := chatCompletionRequest{Model: request.Model}

	if request.SystemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}
	for _, m := range request.Messages {
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Content, Name: m.Name})
	}

	if gc := request.GenerationConfig; gc != nil {
		req.Temperature = gc.Temperature
		if gc.MaxTokens > 0 {
			maxTokens := gc.MaxTokens
			req.MaxTokens = &maxTokens
		}
	}

	if rf := request.ResponseFormat; rf != nil {
		if rf.OutputSchema == nil {
			req.ResponseFormat = &chatResponseFormat{Type: "json_object"}
		} else {
			name := rf.Name
			if name == "" {
				name = defaultSchemaName
			}
			req.ResponseFormat = &chatResponseFormat{
				Type: "json_schema",
				JSONSchema: &chatJSONSchema{
					Name:        name,
					Description: rf.OutputSchema.Description,
					Schema:      rf.OutputSchema,
					Strict:      rf.Strict,
				},
			}
		}
	}

	return req
}

func fromChatCompletionResponse(resp chatCompletionResponse) *ai.ChatResponse {
	choice := resp.Choices[0]
	out := &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Refusal:      choice.Message.Refusal,
	}
	if resp.Usage != nil {
		out.Usage = &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out
}

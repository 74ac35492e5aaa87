package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/aigraph/internal/utils"
	"github.com/leofalp/aigraph/providers/ai"
	"github.com/leofalp/aigraph/providers/observability"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// ErrMissingAPIKey is returned by SendMessage when no key was configured.
var ErrMissingAPIKey = errors.New("openai: API key is not set")

// ErrEmptyResponse is returned when the API answers without choices.
var ErrEmptyResponse = errors.New("openai: response has no choices")

// OpenAIProvider implements ai.Provider for OpenAI-compatible APIs.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider configured from the environment.
func NewOpenAIProvider() *OpenAIProvider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_API_BASE")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &OpenAIProvider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider.
func (p *OpenAIProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API.
func (p *OpenAIProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

// WithHttpClient sets a custom HTTP client.
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// SendMessage posts the request to /chat/completions and converts the first choice.
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, "openai"),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.String(observability.AttrLLMEndpoint, p.baseURL+chatCompletionsEndpoint),
			observability.Bool(observability.AttrLLMStructured, request.ResponseFormat != nil),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		)
	}

	_, resp, err := utils.DoPostSync[chatCompletionResponse](ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, toChatCompletionRequest(request))
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	out := fromChatCompletionResponse(*resp)
	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(observability.String(observability.AttrLLMFinishReason, out.FinishReason))
		if out.Usage != nil {
			span.SetAttributes(observability.Int(observability.AttrLLMTokensTotal, out.Usage.TotalTokens))
		}
	}
	return out, nil
}

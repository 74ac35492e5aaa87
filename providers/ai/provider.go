package ai

import (
	"context"
	"net/http"
)

// Provider is the transport contract every LLM backend satisfies.
type Provider interface {
	// SendMessage sends a chat request and returns the completed response.
	// Context cancellation and deadline errors are returned wrapped, so
	// callers can test them with errors.Is.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) Provider
}

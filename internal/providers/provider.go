package providers

import (
	"context"
	"fmt"
)

// CompletionRequest contains the composed batch prompt sent to a model.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// CompletionResponse contains the raw response from a model.
type CompletionResponse struct {
	Content    string
	TokensUsed int
}

// Completer is the provider abstraction interface. Complete performs a
// single model call with no internal retry; retry policy lives in Retrier.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Name() string
}

// New creates a provider by name. Credentials are read from the environment
// at construction time and held by the provider, never as global state.
func New(provider, model string) (Completer, error) {
	switch provider {
	case "cerebras":
		return NewCerebras(model)
	case "openai":
		return NewOpenAI(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

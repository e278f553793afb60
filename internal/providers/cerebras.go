package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultCerebrasURL = "https://api.cerebras.ai/v1/chat/completions"

// Cerebras implements the Completer interface for the Cerebras inference
// API (OpenAI-compatible chat completions).
type Cerebras struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

// NewCerebras creates a new Cerebras provider.
func NewCerebras(model string) (*Cerebras, error) {
	key := os.Getenv("CEREBRAS_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("CEREBRAS_API_KEY environment variable is not set")
	}
	url := os.Getenv("CEREBRAS_BASE_URL")
	if url == "" {
		url = defaultCerebrasURL
	}
	return &Cerebras{
		apiKey: key,
		model:  model,
		url:    url,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (c *Cerebras) Name() string { return "cerebras" }

func (c *Cerebras) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return postChatCompletion(ctx, c.client, c.url, c.apiKey, c.model, req)
}

package llm

import (
	"context"
)

// Message represents a transcript entry in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Completion is the common result shape every provider reassembles its wire format into.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

func (c *Completion) TotalTokens() int {
	return c.PromptTokens + c.CompletionTokens
}

// CompletionProvider defines the contract for any text-completion backend
type CompletionProvider interface {
	// Complete sends the full ordered transcript and returns the assistant reply
	Complete(ctx context.Context, transcript []Message) (*Completion, error)

	// Name identifies the backend for logs and metrics ("openai", "ollama")
	Name() string

	// Model is recorded on every assistant turn the provider produces
	Model() string
}

// FILE: test/integration/ollama_integration_test.go
// PURPOSE: Live check of the streaming Ollama provider against a local daemon.

package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"llm-chat-be/pkg/codefence"
	"llm-chat-be/pkg/llm"
	"llm-chat-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	OllamaBaseURL = "http://localhost:11434"
	OllamaModel   = "gemma:2b"
)

func TestOllamaStreamingCompletion(t *testing.T) {
	if os.Getenv("OLLAMA_INTEGRATION") != "true" {
		t.Skip("Skipping integration test: set OLLAMA_INTEGRATION=true with a local Ollama running")
	}

	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = OllamaModel
	}

	p := ollama.NewOllamaProvider(OllamaBaseURL, model, 4096, 2*time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	completion, err := p.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You answer with a single JavaScript code block and nothing else."},
		{Role: "user", Content: "Print hello world to the console."},
	})
	require.NoError(t, err)

	t.Logf("reply (%d prompt / %d completion tokens):\n%s", completion.PromptTokens, completion.CompletionTokens, completion.Text)

	assert.NotEmpty(t, strings.TrimSpace(completion.Text))
	assert.Greater(t, completion.PromptTokens, 0)
	assert.Greater(t, completion.CompletionTokens, 0)

	codes := codefence.Extract(completion.Text)
	t.Logf("extracted %d code block(s)", len(codes))
}

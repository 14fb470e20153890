package factory

import (
	"fmt"

	"llm-chat-be/internal/config"
	"llm-chat-be/pkg/llm"
	"llm-chat-be/pkg/llm/ollama"
	"llm-chat-be/pkg/llm/openai"
)

func NewCompletionProvider(cfg config.AIConfig) (llm.CompletionProvider, error) {
	switch cfg.LLMProvider {
	case "openai", "":
		if cfg.OpenAIAPIKey == "" && cfg.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY or OPENAI_BASE_URL")
		}
		return openai.NewProvider(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.LLMModel,
			Timeout: cfg.ProviderTimeout,
		}), nil
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.LLMModel, cfg.OllamaContextWindow, cfg.ProviderTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

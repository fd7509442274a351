package factory

import (
	"fmt"

	"ai-assessment-be/internal/pkg/logger"
	"ai-assessment-be/pkg/llm"
	"ai-assessment-be/pkg/llm/gemini"
	"ai-assessment-be/pkg/llm/ollama"
)

func NewGenerativeClient(providerType, modelName, baseURL, apiKey string, log logger.ILogger) (llm.GenerativeClient, error) {
	switch providerType {
	case "", "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini provider requires GOOGLE_GEMINI_API_KEY")
		}
		return gemini.NewGeminiProvider(baseURL, apiKey, modelName, log), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName, log), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

package factory

import (
	"context"
	"fmt"
	"time"

	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/llm"
	"ai-buildguide-be/pkg/llm/gemini"
	"ai-buildguide-be/pkg/llm/huggingface"
	"ai-buildguide-be/pkg/llm/ollama"
)

// Settings collects what any provider may need.
type Settings struct {
	Provider           string
	Model              string
	OllamaBaseURL      string
	HuggingFaceBaseURL string
	HuggingFaceKey     string
	GeminiKey          string
	Timeout            time.Duration
}

// NewLLMProvider returns apperr.ErrProviderUnconfigured when the selected
// backend is missing its key, and a plain error for unknown backends.
func NewLLMProvider(ctx context.Context, s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "gemini":
		return gemini.NewProvider(ctx, s.GeminiKey, s.Model, s.Timeout)
	case "ollama":
		baseURL := s.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, s.Model, s.Timeout), nil
	case "huggingface":
		if s.HuggingFaceKey == "" {
			return nil, apperr.Unconfigured("huggingface")
		}
		return huggingface.NewHuggingFaceProvider(s.HuggingFaceKey, s.HuggingFaceBaseURL, s.Model, s.Timeout), nil
	case "", "none":
		return nil, apperr.Unconfigured("llm")
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

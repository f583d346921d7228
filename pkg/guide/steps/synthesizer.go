// Package steps produces instruction steps from a manual or from fixed templates.
package steps

import (
	"context"
	"fmt"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/pkg/llm"
	"ai-buildguide-be/pkg/store"
)

const (
	module = "StepSynthesizer"

	synthesisMaxTokens   = 1500
	synthesisTemperature = 0.2
)

const StepPrompt = `
You extract assembly steps for the product below.

Product: %s
Manual: %s

Instructions:
1. Use ONLY the manual and what is known about this exact product. Do not invent parts.
2. Between 3 and 12 steps, in build order.
3. Output MUST be a JSON array, nothing else:
[{"step": 1, "title": "...", "description": "...", "details": ["..."], "tip": "..."}]
`

type Synthesizer struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

// NewSynthesizer accepts a nil provider, in which case only templates are used.
func NewSynthesizer(provider llm.LLMProvider, log logger.ILogger) *Synthesizer {
	return &Synthesizer{provider: provider, logger: log}
}

// Synthesize never returns an empty list: any provider or parse failure falls
// back to the keyword templates.
func (s *Synthesizer) Synthesize(ctx context.Context, title, manualURL string) []store.InstructionStep {
	if s.provider == nil {
		return Templates(title)
	}

	manual := manualURL
	if manual == "" {
		manual = "none found"
	}

	reply, err := s.provider.Generate(ctx, fmt.Sprintf(StepPrompt, title, manual),
		llm.WithMaxTokens(synthesisMaxTokens),
		llm.WithTemperature(synthesisTemperature),
	)
	if err != nil {
		s.logger.Warn(module, "Step generation failed, using templates", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
		return Templates(title)
	}

	parsed, err := ParseSteps(reply)
	if err != nil {
		s.logger.Warn(module, "Step reply unparsable, using templates", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
		return Templates(title)
	}

	s.logger.Debug(module, "Steps synthesized", map[string]interface{}{
		"title":      title,
		"manual_url": manualURL,
		"count":      len(parsed),
	})
	return parsed
}

// Package query composes search queries and product titles with a generation provider.
package query

import (
	"context"
	"fmt"
	"strings"

	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/llm"
	"ai-buildguide-be/pkg/search"
)

const (
	queryMaxTokens = 60
	titleMaxTokens = 40
	temperature    = 0.2
	snippetLimit   = 5
)

type Composer struct {
	provider llm.LLMProvider
}

// NewComposer accepts a nil provider; every call then reports ErrProviderUnconfigured.
func NewComposer(provider llm.LLMProvider) *Composer {
	return &Composer{provider: provider}
}

// ProductQuery asks for a product-identification query for a barcode.
func (c *Composer) ProductQuery(ctx context.Context, token string) (string, error) {
	return c.generate(ctx, fmt.Sprintf(ProductQueryPrompt, token), queryMaxTokens)
}

// InstructionQuery asks for a manual-search query for a product title.
func (c *Composer) InstructionQuery(ctx context.Context, title string) (string, error) {
	return c.generate(ctx, fmt.Sprintf(InstructionQueryPrompt, title), queryMaxTokens)
}

// IdentifyTitle picks the most consistent product name from ranked results.
func (c *Composer) IdentifyTitle(ctx context.Context, token string, results []search.Result) (string, error) {
	if len(results) == 0 {
		return "", fmt.Errorf("identify title: %w", apperr.ErrNoResultFound)
	}
	prompt := fmt.Sprintf(IdentifyTitlePrompt, token, search.Snippets(results, snippetLimit))
	return c.generate(ctx, prompt, titleMaxTokens)
}

// FallbackQueries are the deterministic queries tried when the composed one finds nothing.
func FallbackQueries(token string) []string {
	return []string{
		token,
		"UPC " + token,
		"barcode " + token,
		`"` + token + `"`,
	}
}

// ManualQuery biases a query towards PDF documents.
func ManualQuery(q string) string {
	return q + " filetype:pdf"
}

func (c *Composer) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.provider == nil {
		return "", apperr.Unconfigured("generation")
	}

	out, err := c.provider.Generate(ctx, prompt,
		llm.WithMaxTokens(maxTokens),
		llm.WithTemperature(temperature),
	)
	if err != nil {
		return "", err
	}

	line := FirstLine(out)
	if line == "" {
		return "", apperr.Malformed("generation", fmt.Errorf("empty reply"))
	}
	return line, nil
}

// FirstLine returns the first non-blank line without surrounding quotes.
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'`")
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

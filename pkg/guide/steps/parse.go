package steps

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/store"
)

// rawStep has no ordinal field: replies number steps as ints, strings or
// not at all, and the order of the array is what counts.
type rawStep struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Details     []string `json:"details"`
	Tip         string   `json:"tip"`
}

// ParseSteps decodes the first JSON array found in text. Ordinals in the reply
// are ignored and the steps are renumbered 1..n in reply order.
func ParseSteps(text string) ([]store.InstructionStep, error) {
	start := strings.Index(text, "[")
	if start < 0 {
		return nil, apperr.Malformed("step synthesis", fmt.Errorf("no array in reply"))
	}

	var raw []rawStep
	dec := json.NewDecoder(strings.NewReader(text[start:]))
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.Malformed("step synthesis", err)
	}

	out := make([]store.InstructionStep, 0, len(raw))
	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		desc := strings.TrimSpace(r.Description)
		if title == "" && desc == "" {
			continue
		}
		if title == "" {
			title = fmt.Sprintf("Step %d", len(out)+1)
		}

		details := make([]string, 0, len(r.Details))
		for _, d := range r.Details {
			if d = strings.TrimSpace(d); d != "" {
				details = append(details, d)
			}
		}

		out = append(out, store.InstructionStep{
			Ordinal:     len(out) + 1,
			Title:       title,
			Description: desc,
			Details:     details,
			Tip:         strings.TrimSpace(r.Tip),
		})
	}

	if len(out) == 0 {
		return nil, apperr.Malformed("step synthesis", fmt.Errorf("empty step array"))
	}
	return out, nil
}

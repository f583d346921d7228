// Package manual picks a document-like manual link out of ranked search results.
package manual

import (
	"net/url"
	"strings"

	"ai-buildguide-be/pkg/search"
)

const (
	FormatPDF              = "pdf"
	FormatInstructionsHost = "instructions-host"
)

var instructionHosts = []string{
	"manualslib.com",
	"manua.ls",
	"manualzz.com",
	"ikea.com",
	"lego.com",
	"instructions.",
}

// Candidate is a search result annotated with the manual verdict.
type Candidate struct {
	search.Result
	LooksLikeManual bool   `json:"looks_like_manual"`
	Format          string `json:"format,omitempty"`
}

// Classify applies the manual-likelihood heuristic to a single result.
func Classify(r search.Result) Candidate {
	c := Candidate{Result: r}

	link := strings.ToLower(r.URL)
	title := strings.ToLower(r.Title)
	format := strings.ToLower(r.FileFormat + " " + r.Mime)

	switch {
	case strings.Contains(link, ".pdf"):
		c.LooksLikeManual, c.Format = true, FormatPDF
	case strings.Contains(format, "pdf"):
		c.LooksLikeManual, c.Format = true, FormatPDF
	case strings.Contains(title, "pdf"):
		c.LooksLikeManual, c.Format = true, FormatPDF
	case onInstructionHost(link) && (strings.Contains(title, "instructions") || strings.Contains(link, "instructions")):
		c.LooksLikeManual, c.Format = true, FormatInstructionsHost
	}
	return c
}

// Locate returns the first result that looks like a manual. Result order is
// the provider's ranking, so the first match wins.
func Locate(results []search.Result) (Candidate, bool) {
	for _, r := range results {
		if c := Classify(r); c.LooksLikeManual {
			return c, true
		}
	}
	return Candidate{}, false
}

func onInstructionHost(link string) bool {
	host := link
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		host = u.Host
	}
	for _, h := range instructionHosts {
		if strings.Contains(host, h) {
			return true
		}
	}
	return false
}

package search

import (
	"context"
	"net/url"
	"strings"
)

// Result is one ranked hit. Order is the provider's relevance order.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"display_link"`
	FileFormat  string `json:"file_format,omitempty"` // provider-reported, e.g. "PDF/Adobe Acrobat"
	Mime        string `json:"mime,omitempty"`
	Source      string `json:"source"`
}

// Provider resolves a query to ranked results. An empty slice with a nil
// error means the provider answered but found nothing.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

var noiseDomains = []string{
	"youtube.com",
	"youtu.be",
	"facebook.com",
	"instagram.com",
	"tiktok.com",
	"pinterest.com",
	"twitter.com",
	"x.com",
}

// IsNoise reports whether link points at a social or video host.
func IsNoise(link string) bool {
	host := link
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(strings.TrimPrefix(strings.ToLower(host), "www."))
	for _, d := range noiseDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// FilterNoise drops noise-domain results and keeps the order of the rest.
func FilterNoise(results []Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if IsNoise(r.URL) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Snippets renders results one per line for prompts.
func Snippets(results []Result, limit int) string {
	var sb strings.Builder
	for i, r := range results {
		if limit > 0 && i >= limit {
			break
		}
		sb.WriteString(strings.TrimSpace(r.Title))
		if r.Snippet != "" {
			sb.WriteString(" - ")
			sb.WriteString(strings.TrimSpace(r.Snippet))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

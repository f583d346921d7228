package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/search"

	"golang.org/x/net/html"
)

const defaultEndpoint = "https://html.duckduckgo.com/html/"

// Provider scrapes the DuckDuckGo HTML endpoint. It needs no API key, so it
// stands in as primary provider when no Custom Search key is configured.
type Provider struct {
	endpoint string
	client   *http.Client
}

var _ search.Provider = &Provider{}

func NewProvider(timeout time.Duration) *Provider {
	return &Provider{
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *Provider) WithEndpoint(endpoint string) *Provider {
	p.endpoint = endpoint
	return p
}

func (p *Provider) Name() string { return "duckduckgo" }

func (p *Provider) Search(ctx context.Context, query string, count int) ([]search.Result, error) {
	searchURL := fmt.Sprintf("%s?q=%s", p.endpoint, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperr.Unavailable("duckduckgo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Unavailable("duckduckgo", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Unavailable("duckduckgo", err)
	}

	results, err := parseResults(string(body), count)
	if err != nil {
		return nil, apperr.Malformed("duckduckgo", err)
	}
	for i := range results {
		results[i].Source = p.Name()
	}
	return search.FilterNoise(results), nil
}

// parseResults walks the result divs of the HTML page.
func parseResults(htmlContent string, maxResults int) ([]search.Result, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	var results []search.Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") && hasClass(n, "results_links") {
			r := extractResult(n)
			if r.URL != "" && r.Title != "" {
				results = append(results, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results, nil
}

func extractResult(n *html.Node) search.Result {
	var r search.Result

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			switch {
			case hasClass(n, "result__a"):
				r.URL = attr(n, "href")
				r.Title = textContent(n)
			case hasClass(n, "result__snippet"):
				r.Snippet = textContent(n)
			case hasClass(n, "result__url"):
				r.DisplayLink = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	// Result links are redirect wrappers: //duckduckgo.com/l/?uddg=<target>&rut=...
	if strings.HasPrefix(r.URL, "//duckduckgo.com/l/?") {
		if u, err := url.Parse("https:" + r.URL); err == nil {
			if target := u.Query().Get("uddg"); target != "" {
				r.URL = target
			}
		}
	}
	return r
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

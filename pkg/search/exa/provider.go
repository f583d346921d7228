package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/search"
)

const defaultEndpoint = "https://api.exa.ai/search"

// Provider is the secondary, neural search backend.
type Provider struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

var _ search.Provider = &Provider{}

type searchRequest struct {
	Query      string   `json:"query"`
	NumResults int      `json:"numResults"`
	Type       string   `json:"type"`
	Contents   contents `json:"contents"`
}

type contents struct {
	Highlights bool `json:"highlights"`
}

type searchResponse struct {
	Results []struct {
		Title      string   `json:"title"`
		URL        string   `json:"url"`
		Highlights []string `json:"highlights"`
	} `json:"results"`
}

func NewProvider(apiKey string, timeout time.Duration) *Provider {
	return &Provider{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *Provider) WithEndpoint(endpoint string) *Provider {
	p.endpoint = endpoint
	return p
}

func (p *Provider) Name() string { return "exa" }

func (p *Provider) Search(ctx context.Context, query string, count int) ([]search.Result, error) {
	if p.apiKey == "" {
		return nil, apperr.Unconfigured("exa")
	}
	if count <= 0 {
		count = 5
	}

	jsonData, err := json.Marshal(searchRequest{
		Query:      query,
		NumResults: count,
		Type:       "neural",
		Contents:   contents{Highlights: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperr.Unavailable("exa", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Unavailable("exa", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Unavailable("exa", fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, apperr.Malformed("exa", err)
	}

	results := make([]search.Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		display := ""
		if u, err := url.Parse(r.URL); err == nil {
			display = u.Host
		}
		results = append(results, search.Result{
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     strings.Join(r.Highlights, " ... "),
			DisplayLink: display,
			Source:      p.Name(),
		})
	}
	return results, nil
}

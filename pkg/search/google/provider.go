package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/search"
)

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// Provider queries the Custom Search JSON API.
type Provider struct {
	apiKey   string
	cx       string
	endpoint string
	client   *http.Client
}

var _ search.Provider = &Provider{}

func NewProvider(apiKey, cx string, timeout time.Duration) *Provider {
	return &Provider{
		apiKey:   apiKey,
		cx:       cx,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// WithEndpoint points the provider at another base URL.
func (p *Provider) WithEndpoint(endpoint string) *Provider {
	p.endpoint = endpoint
	return p
}

type cseResponse struct {
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
		FileFormat  string `json:"fileFormat"`
		Mime        string `json:"mime"`
	} `json:"items"`
}

func (p *Provider) Name() string { return "google" }

func (p *Provider) Search(ctx context.Context, query string, count int) ([]search.Result, error) {
	if p.apiKey == "" || p.cx == "" {
		return nil, apperr.Unconfigured("google")
	}
	if count <= 0 || count > 10 {
		count = 10 // API maximum per page
	}

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("cx", p.cx)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperr.Unavailable("google", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Unavailable("google", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Unavailable("google", fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed cseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperr.Malformed("google", err)
	}

	results := make([]search.Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, search.Result{
			Title:       item.Title,
			URL:         item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
			FileFormat:  item.FileFormat,
			Mime:        item.Mime,
			Source:      p.Name(),
		})
	}

	return search.FilterNoise(results), nil
}

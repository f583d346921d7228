package barcode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/pkg/apperr"
)

const module = "BarcodeSource"

// Options configures a Source. Zero values fall back to the defaults below.
type Options struct {
	URL          string
	TTL          time.Duration
	PollInterval time.Duration
	PollAttempts int
	Timeout      time.Duration
	Now          func() time.Time
	Client       *http.Client
}

// Source supplies the most recently scanned barcode. It prefers availability
// over freshness: a failed refresh serves the last known value however old.
type Source struct {
	url          string
	ttl          time.Duration
	pollInterval time.Duration
	pollAttempts int
	client       *http.Client
	now          func() time.Time
	logger       logger.ILogger

	mu        sync.Mutex
	value     string
	fetchedAt time.Time
	populated bool
}

func NewSource(opts Options, log logger.ILogger) *Source {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}

	return &Source{
		url:          opts.URL,
		ttl:          opts.TTL,
		pollInterval: opts.PollInterval,
		pollAttempts: opts.PollAttempts,
		client:       opts.Client,
		now:          opts.Now,
		logger:       log,
	}
}

// Current returns the cached barcode while it is younger than the TTL and
// refreshes it otherwise. The bool is false only when nothing was ever seen.
func (s *Source) Current(ctx context.Context) (string, bool) {
	s.mu.Lock()
	if s.populated && s.now().Sub(s.fetchedAt) < s.ttl {
		v := s.value
		s.mu.Unlock()
		return v, true
	}
	s.mu.Unlock()

	fresh, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if s.populated {
			s.logger.Warn(module, "Barcode fetch failed, serving stale value", map[string]interface{}{
				"error": err.Error(),
				"age":   s.now().Sub(s.fetchedAt).String(),
			})
			return s.value, true
		}
		s.logger.Warn(module, "Barcode fetch failed and nothing cached", map[string]interface{}{"error": err.Error()})
		return "", false
	}

	s.value = fresh
	s.fetchedAt = s.now()
	s.populated = true
	return fresh, true
}

// WaitForChange polls until a value different from previous shows up or the
// attempts run out.
func (s *Source) WaitForChange(ctx context.Context, previous string) (string, bool) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < s.pollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", false
			case <-ticker.C:
			}
		}

		s.expire()
		if v, ok := s.Current(ctx); ok && v != previous {
			return v, true
		}
	}
	return "", false
}

// Push stores a value delivered by an external scanner event.
func (s *Source) Push(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	s.mu.Lock()
	s.value = token
	s.fetchedAt = s.now()
	s.populated = true
	s.mu.Unlock()
}

// Age reports how old the cached value is; ok is false before the first value.
func (s *Source) Age() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.populated {
		return 0, false
	}
	return s.now().Sub(s.fetchedAt), true
}

// expire forces the next Current call to hit the network.
func (s *Source) expire() {
	s.mu.Lock()
	if s.populated {
		s.fetchedAt = s.now().Add(-s.ttl)
	}
	s.mu.Unlock()
}

type barcodePayload struct {
	Barcode string `json:"barcode"`
	Value   string `json:"value"`
}

func (s *Source) fetch(ctx context.Context) (string, error) {
	if s.url == "" {
		return "", apperr.Unconfigured("barcode source")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperr.Unavailable("barcode source", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", apperr.Unavailable("barcode source", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Unavailable("barcode source", fmt.Errorf("status %d", resp.StatusCode))
	}

	return parseBarcode(body)
}

// parseBarcode accepts {"barcode": "..."}, {"value": "..."} or a plain-text body.
func parseBarcode(body []byte) (string, error) {
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") {
		var payload barcodePayload
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			return "", apperr.Malformed("barcode source", err)
		}
		text = strings.TrimSpace(payload.Barcode)
		if text == "" {
			text = strings.TrimSpace(payload.Value)
		}
	}
	if text == "" {
		return "", apperr.Malformed("barcode source", fmt.Errorf("empty barcode"))
	}
	return text, nil
}

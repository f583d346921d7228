package pipeline

import (
	"context"
	"time"

	"ai-buildguide-be/pkg/store"
)

// Cache is the process-wide barcode to resolution map.
type Cache interface {
	Get(barcode string) (*store.ResolutionEntry, bool)
	Put(entry *store.ResolutionEntry) (*store.ResolutionEntry, bool)
	Delete(barcode string)
	Flush()
}

// TokenSource supplies the current scanned barcode.
type TokenSource interface {
	Current(ctx context.Context) (string, bool)
}

// PipelineContext owns the state shared by the pipeline and the sessions:
// the barcode source, the resolution cache and the clock.
type PipelineContext struct {
	Tokens TokenSource
	Cache  Cache
	Now    func() time.Time
}

func NewPipelineContext(tokens TokenSource, cache Cache) *PipelineContext {
	return &PipelineContext{Tokens: tokens, Cache: cache, Now: time.Now}
}

// CurrentBarcode returns the scanned barcode, or false when none is known.
func (pc *PipelineContext) CurrentBarcode(ctx context.Context) (string, bool) {
	if pc.Tokens == nil {
		return "", false
	}
	return pc.Tokens.Current(ctx)
}

// Persister writes resolved entries to durable storage.
type Persister interface {
	Persist(ctx context.Context, entry *store.ResolutionEntry) error
}

// EventPublisher announces resolution outcomes.
type EventPublisher interface {
	PublishResolved(ctx context.Context, entry *store.ResolutionEntry, via string)
	PublishFailed(ctx context.Context, barcode, reason string)
}

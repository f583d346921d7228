package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/guide/pipeline"
	"ai-buildguide-be/pkg/store"
)

const resolutionModule = "ResolutionService"

// BarcodeInfo describes the token currently supplied by the barcode source.
type BarcodeInfo struct {
	Barcode string
	Age     time.Duration
	Known   bool
}

// IResolutionService is the direct (session-less) entry point to the pipeline.
type IResolutionService interface {
	Resolve(ctx context.Context, command, barcode string) (*store.ResolutionEntry, error)
	CurrentBarcode(ctx context.Context) BarcodeInfo
	ClearCache(barcode string)
}

type ageReporter interface {
	Age() (time.Duration, bool)
}

type resolutionService struct {
	pipeline *pipeline.Pipeline
	logger   logger.ILogger
}

func NewResolutionService(p *pipeline.Pipeline, logger logger.ILogger) IResolutionService {
	return &resolutionService{pipeline: p, logger: logger}
}

// Resolve uses the scanned barcode when none is given.
func (rs *resolutionService) Resolve(ctx context.Context, command, barcode string) (*store.ResolutionEntry, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		current, ok := rs.pipeline.Context().CurrentBarcode(ctx)
		if !ok {
			return nil, fmt.Errorf("no barcode scanned: %w", apperr.ErrNoResultFound)
		}
		barcode = current
	}

	if _, err := rs.pipeline.Resolve(ctx, command, barcode); err != nil {
		return nil, err
	}

	entry, ok := rs.pipeline.Entry(barcode)
	if !ok {
		// cleared between Resolve and Entry
		return nil, fmt.Errorf("resolution for %s evicted: %w", barcode, apperr.ErrNoResultFound)
	}
	return entry, nil
}

func (rs *resolutionService) CurrentBarcode(ctx context.Context) BarcodeInfo {
	pc := rs.pipeline.Context()
	code, ok := pc.CurrentBarcode(ctx)
	info := BarcodeInfo{Barcode: code, Known: ok}
	if r, isReporter := pc.Tokens.(ageReporter); ok && isReporter {
		info.Age, _ = r.Age()
	}
	return info
}

// ClearCache forgets one barcode, or everything when barcode is empty.
func (rs *resolutionService) ClearCache(barcode string) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		rs.pipeline.ClearAll()
		rs.logger.Info(resolutionModule, "Resolution cache cleared", nil)
		return
	}
	rs.pipeline.ClearCache(barcode)
	rs.logger.Info(resolutionModule, "Resolution cache entry cleared", map[string]interface{}{"barcode": barcode})
}

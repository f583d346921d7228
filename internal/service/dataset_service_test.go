package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kallaxDataset = `{
  "product": {"id": "kallax-2x2", "name": "KALLAX Shelf 2x2", "barcode": "70299999"},
  "instructionManual": {
    "url": "https://www.ikea.com/manuals/kallax.pdf",
    "steps": [
      {"step": 1, "title": "Unpack", "description": "Check all parts."},
      {"step": 2, "title": "", "description": ""},
      {"step": 7, "title": "Frame", "description": "Join the panels.", "details": ["Use dowels"], "tip": "Two people"}
    ]
  }
}`

func TestHostedDatasetLoadsAndCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(kallaxDataset))
	}))
	defer srv.Close()

	svc := NewDatasetService(srv.URL, time.Minute, time.Second, logger.NewNopLogger())

	p, err := svc.Hosted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hosted-kallax-2x2", p.ID)
	assert.Equal(t, "KALLAX Shelf 2x2", p.Name)
	assert.Equal(t, store.SourceHostedDataset, p.Source)
	assert.Equal(t, "https://www.ikea.com/manuals/kallax.pdf", p.ManualURL)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, 2, p.Steps[1].Ordinal)
	assert.NoError(t, p.Validate())

	again, err := svc.Hosted(context.Background())
	require.NoError(t, err)
	assert.Same(t, p, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHostedDatasetFailures(t *testing.T) {
	_, err := NewDatasetService("", time.Minute, time.Second, logger.NewNopLogger()).Hosted(context.Background())
	assert.ErrorIs(t, err, apperr.ErrProviderUnconfigured)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	_, err = NewDatasetService(down.URL, time.Minute, time.Second, logger.NewNopLogger()).Hosted(context.Background())
	assert.ErrorIs(t, err, apperr.ErrProviderUnavailable)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"product": {"name": "Nothing"}, "instructionManual": {"steps": []}}`))
	}))
	defer empty.Close()
	_, err = NewDatasetService(empty.URL, time.Minute, time.Second, logger.NewNopLogger()).Hosted(context.Background())
	assert.ErrorIs(t, err, apperr.ErrMalformedResponse)
}

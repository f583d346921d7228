package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/internal/repository/memory"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/barcode"
	"ai-buildguide-be/pkg/events"
	"ai-buildguide-be/pkg/guide/pipeline"
	"ai-buildguide-be/pkg/guide/query"
	"ai-buildguide-be/pkg/llm"
	"ai-buildguide-be/pkg/search"
	"ai-buildguide-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoLLM struct{}

func (echoLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", nil
}

func (echoLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	if strings.Contains(prompt, "Product Identification Agent") {
		return "Acme Desk", nil
	}
	return "acme desk", nil
}

type mapSearch map[string][]search.Result

func (m mapSearch) Name() string { return "map" }

func (m mapSearch) Search(ctx context.Context, q string, count int) ([]search.Result, error) {
	return m[q], nil
}

func newResolutionService(t *testing.T, tokens pipeline.TokenSource) IResolutionService {
	t.Helper()
	pc := pipeline.NewPipelineContext(tokens, memory.NewResolutionCache())
	p := pipeline.New(pc, pipeline.Deps{
		Composer: query.NewComposer(echoLLM{}),
		Primary:  mapSearch{"acme desk": {{Title: "Acme Desk", URL: "https://acme.example.com/desk"}}},
		Logger:   logger.NewNopLogger(),
	}, pipeline.Config{})
	t.Cleanup(p.Wait)
	return NewResolutionService(p, logger.NewNopLogger())
}

func TestResolutionServiceUsesScannedBarcode(t *testing.T) {
	src := barcode.NewSource(barcode.Options{}, logger.NewNopLogger())
	svc := newResolutionService(t, src)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "", "")
	assert.ErrorIs(t, err, apperr.ErrNoResultFound)
	assert.False(t, svc.CurrentBarcode(ctx).Known)

	src.Push("777")
	info := svc.CurrentBarcode(ctx)
	assert.True(t, info.Known)
	assert.Equal(t, "777", info.Barcode)
	assert.Less(t, info.Age, time.Minute)

	entry, err := svc.Resolve(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "777", entry.Barcode)
	assert.Equal(t, "Acme Desk", entry.Project.Name)
	assert.Len(t, entry.Project.Steps, 5)

	svc.ClearCache("777")
	svc.ClearCache("")
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}

func TestEventPublisher(t *testing.T) {
	bus := &recordingBus{}
	pub := NewEventPublisher(bus, logger.NewNopLogger())

	project, err := store.NewProject("barcode-1", "Desk", store.SourceBarcodePipeline, []store.InstructionStep{{Title: "a"}})
	require.NoError(t, err)
	pub.PublishResolved(context.Background(), &store.ResolutionEntry{Barcode: "1", Project: project}, pipeline.ViaPrimary)
	pub.PublishFailed(context.Background(), "2", "no result found")

	require.Len(t, bus.published, 2)
	assert.Equal(t, events.TypeProjectResolved, bus.published[0].EventType())
	assert.Equal(t, "primary", bus.published[0].Payload()["via"])
	assert.Equal(t, events.TypeResolutionFailed, bus.published[1].EventType())

	// nil bus is a no-op
	NewEventPublisher(nil, logger.NewNopLogger()).PublishFailed(context.Background(), "3", "x")
}

func TestBarcodeScanHandler(t *testing.T) {
	src := barcode.NewSource(barcode.Options{}, logger.NewNopLogger())
	handle := BarcodeScanHandler(src, logger.NewNopLogger())

	require.NoError(t, handle(context.Background(), events.BaseEvent{Data: map[string]interface{}{"barcode": "4006381333931"}}))
	code, ok := src.Current(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "4006381333931", code)

	assert.NoError(t, handle(context.Background(), events.BaseEvent{Data: map[string]interface{}{}}))
}

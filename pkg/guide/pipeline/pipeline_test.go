package pipeline

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/internal/repository/memory"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/guide/query"
	"ai-buildguide-be/pkg/guide/steps"
	"ai-buildguide-be/pkg/llm"
	"ai-buildguide-be/pkg/search"
	"ai-buildguide-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type scriptedLLM struct {
	productQueries int32
	// leave the instruction query blank
	noInstructionQuery bool
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, history[len(history)-1].Content, options...)
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	switch {
	case strings.Contains(prompt, "scanned product barcode"):
		atomic.AddInt32(&s.productQueries, 1)
		return "lego classic box", nil
	case strings.Contains(prompt, "Product Identification Agent"):
		return "LEGO Classic Creative Box 10698", nil
	case strings.Contains(prompt, "official assembly instructions"):
		if s.noInstructionQuery {
			return "", nil
		}
		return "LEGO 10698 building instructions", nil
	case strings.Contains(prompt, "extract assembly steps"):
		return `[{"title":"Sort bricks","description":"Sort by colour."},{"title":"Build base","description":"Start with the plate."}]`, nil
	}
	return "", nil
}

type fakeSearch struct {
	name    string
	mu      sync.Mutex
	answers map[string][]search.Result
	queries []string
	gate    chan struct{}
	panics  bool
}

func (f *fakeSearch) Name() string { return f.name }

func (f *fakeSearch) Search(ctx context.Context, q string, count int) ([]search.Result, error) {
	if f.panics {
		panic("search exploded")
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.answers[q], nil
}

func (f *fakeSearch) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type recordingPersister struct {
	mu      sync.Mutex
	entries []*store.ResolutionEntry
}

func (r *recordingPersister) Persist(ctx context.Context, e *store.ResolutionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

type recordingEvents struct {
	mu       sync.Mutex
	resolved []string
	failed   []string
}

func (r *recordingEvents) PublishResolved(ctx context.Context, e *store.ResolutionEntry, via string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, e.Barcode+":"+via)
}

func (r *recordingEvents) PublishFailed(ctx context.Context, barcode, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, barcode)
}

type fixture struct {
	pipeline  *Pipeline
	llm       *scriptedLLM
	primary   *fakeSearch
	secondary *fakeSearch
	persisted *recordingPersister
	events    *recordingEvents
}

func newFixture(t *testing.T, withLLM bool) *fixture {
	t.Helper()
	f := &fixture{
		llm: &scriptedLLM{},
		primary: &fakeSearch{name: "primary", answers: map[string][]search.Result{
			"lego classic box": {
				{Title: "LEGO Classic 10698 Large Creative Brick Box", URL: "https://shop.example.com/10698", Snippet: "790 pieces"},
			},
			"LEGO 10698 building instructions filetype:pdf": {
				{Title: "10698 booklet", URL: "https://www.lego.com/cdn/product-assets/10698.pdf"},
			},
		}},
		secondary: &fakeSearch{name: "secondary", answers: map[string][]search.Result{}},
		persisted: &recordingPersister{},
		events:    &recordingEvents{},
	}

	log := logger.NewNopLogger()
	var provider llm.LLMProvider
	if withLLM {
		provider = f.llm
	}

	pc := NewPipelineContext(nil, memory.NewResolutionCache())
	f.pipeline = New(pc, Deps{
		Composer:    query.NewComposer(provider),
		Primary:     f.primary,
		Secondary:   f.secondary,
		Synthesizer: steps.NewSynthesizer(provider, log),
		Persister:   f.persisted,
		Events:      f.events,
		Logger:      log,
	}, Config{ResultCount: 5})
	t.Cleanup(f.pipeline.Wait)
	return f
}

func TestResolveEndToEnd(t *testing.T) {
	f := newFixture(t, true)

	project, err := f.pipeline.Resolve(context.Background(), "start", "0123456789012")
	require.NoError(t, err)

	assert.Equal(t, store.SourceBarcodePipeline, project.Source)
	assert.Equal(t, "barcode-0123456789012", project.ID)
	assert.Equal(t, "LEGO Classic Creative Box 10698", project.Name)
	assert.Equal(t, "https://www.lego.com/cdn/product-assets/10698.pdf", project.ManualURL)
	require.NotEmpty(t, project.Steps)
	require.NoError(t, project.Validate())

	entry, ok := f.pipeline.Entry("0123456789012")
	require.True(t, ok)
	assert.Same(t, project, entry.Project)
	assert.Equal(t, project.ManualURL, entry.ManualURL)

	f.pipeline.Wait()
	require.Len(t, f.persisted.entries, 1)
	assert.Equal(t, "0123456789012", f.persisted.entries[0].Barcode)
	assert.Equal(t, []string{"0123456789012:primary"}, f.events.resolved)
}

func TestResolveTwiceRunsOnce(t *testing.T) {
	f := newFixture(t, true)

	first, err := f.pipeline.Resolve(context.Background(), "go", "0123456789012")
	require.NoError(t, err)
	second, err := f.pipeline.Resolve(context.Background(), "go", "0123456789012")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.llm.productQueries))
}

func TestConcurrentResolveSharesOneRun(t *testing.T) {
	f := newFixture(t, true)
	f.primary.gate = make(chan struct{})

	var wg sync.WaitGroup
	projects := make([]*store.Project, 5)
	for i := range projects {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.pipeline.Resolve(context.Background(), "go", "0123456789012")
			assert.NoError(t, err)
			projects[i] = p
		}(i)
	}
	close(f.primary.gate)
	wg.Wait()

	for _, p := range projects[1:] {
		assert.Same(t, projects[0], p)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.llm.productQueries))
}

func TestResolveDegradedPathFromSecondary(t *testing.T) {
	f := newFixture(t, true)
	f.primary.answers = map[string][]search.Result{}
	f.secondary.answers["lego classic box"] = []search.Result{
		{Title: "Acme Widget Manual", URL: "https://acme.example.com/widget", Snippet: "Widget assembly guide"},
	}

	project, err := f.pipeline.Resolve(context.Background(), "go", "999")
	require.NoError(t, err)

	assert.Equal(t, "Acme Widget Manual", project.Name)
	assert.Len(t, project.Steps, 3)
	assert.Equal(t, store.SourceBarcodePipeline, project.Source)
	assert.Equal(t, []string{"lego classic box", "999", "UPC 999", "barcode 999", `"999"`}, f.primary.Queries())
	assert.Equal(t, []string{"999:secondary"}, f.events.resolved)
}

func TestResolveUsesFirstFallbackWithResults(t *testing.T) {
	f := newFixture(t, true)
	f.primary.answers = map[string][]search.Result{
		"UPC 777": {{Title: "Standing desk", URL: "https://shop.example.com/desk"}},
	}

	project, err := f.pipeline.Resolve(context.Background(), "go", "777")
	require.NoError(t, err)

	queries := f.primary.Queries()
	assert.Equal(t, []string{"lego classic box", "777", "UPC 777"}, queries[:3])
	assert.Empty(t, f.secondary.Queries())
	assert.Equal(t, "LEGO Classic Creative Box 10698", project.Name)
	assert.Empty(t, project.ManualURL)
}

func TestResolveRetriesManualWithoutPDFBias(t *testing.T) {
	f := newFixture(t, true)
	delete(f.primary.answers, "LEGO 10698 building instructions filetype:pdf")
	f.primary.answers["LEGO 10698 building instructions"] = []search.Result{
		{Title: "Shop page", URL: "https://shop.example.com/10698"},
		{Title: "10698 building instructions", URL: "https://www.lego.com/service/buildinginstructions/10698"},
	}

	project, err := f.pipeline.Resolve(context.Background(), "go", "0123456789012")
	require.NoError(t, err)

	assert.Equal(t, "https://www.lego.com/service/buildinginstructions/10698", project.ManualURL)
	assert.Equal(t, []string{
		"lego classic box",
		"LEGO 10698 building instructions filetype:pdf",
		"LEGO 10698 building instructions",
	}, f.primary.Queries())
}

func TestResolveTemplatesInstructionQuery(t *testing.T) {
	f := newFixture(t, true)
	f.llm.noInstructionQuery = true
	f.primary.answers["LEGO Classic Creative Box 10698 assembly instructions filetype:pdf"] = []search.Result{
		{Title: "Creative box booklet", URL: "https://cdn.example.com/10698-booklet.pdf"},
	}

	project, err := f.pipeline.Resolve(context.Background(), "go", "0123456789012")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/10698-booklet.pdf", project.ManualURL)
	assert.Contains(t, f.primary.Queries(), "LEGO Classic Creative Box 10698 assembly instructions filetype:pdf")
	assert.NotContains(t, f.primary.Queries(), "LEGO 10698 building instructions filetype:pdf")
}

func TestResolveFailsWhenEverythingIsEmpty(t *testing.T) {
	f := newFixture(t, true)
	f.primary.answers = map[string][]search.Result{}

	_, err := f.pipeline.Resolve(context.Background(), "go", "555")
	assert.ErrorIs(t, err, apperr.ErrNoResultFound)
	_, ok := f.pipeline.Entry("555")
	assert.False(t, ok)
	assert.Equal(t, []string{"555"}, f.events.failed)
}

func TestResolveWithoutGenerationProvider(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.pipeline.Resolve(context.Background(), "go", "0123456789012")
	assert.ErrorIs(t, err, apperr.ErrNoResultFound)
	assert.ErrorIs(t, err, apperr.ErrProviderUnconfigured)
	assert.Empty(t, f.primary.Queries())
}

func TestResolveRecoversPanics(t *testing.T) {
	f := newFixture(t, true)
	f.primary.panics = true

	_, err := f.pipeline.Resolve(context.Background(), "go", "0123456789012")
	assert.ErrorIs(t, err, apperr.ErrNoResultFound)
}

func TestClearCacheAllowsRefresh(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.pipeline.Resolve(context.Background(), "go", "0123456789012")
	require.NoError(t, err)
	f.pipeline.ClearCache("0123456789012")
	_, ok := f.pipeline.Entry("0123456789012")
	assert.False(t, ok)

	_, err = f.pipeline.Resolve(context.Background(), "go", "0123456789012")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.llm.productQueries))

	f.pipeline.ClearAll()
	_, ok = f.pipeline.Entry("0123456789012")
	assert.False(t, ok)
}

func TestResolveRejectsEmptyBarcode(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.pipeline.Resolve(context.Background(), "go", "  ")
	assert.ErrorIs(t, err, apperr.ErrNoResultFound)
}

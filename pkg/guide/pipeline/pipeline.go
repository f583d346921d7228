// Package pipeline resolves a barcode into an instruction project.
//
// Stages: compose a product query, search with fallbacks, identify the title,
// look for a manual, synthesize steps. Before the title is known any failure
// means no result; after it, every stage degrades instead of failing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/guide/chain"
	"ai-buildguide-be/pkg/guide/manual"
	"ai-buildguide-be/pkg/guide/query"
	"ai-buildguide-be/pkg/guide/steps"
	"ai-buildguide-be/pkg/search"
	"ai-buildguide-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

const module = "ResolutionPipeline"

// Names of the search strategies, reported as "via" in logs and events.
const (
	ViaPrimary   = "primary"
	ViaFallback  = "fallback"
	ViaSecondary = "secondary"
)

type Config struct {
	ResultCount   int
	FallbackDelay time.Duration
}

type Deps struct {
	Composer    *query.Composer
	Primary     search.Provider
	Secondary   search.Provider
	Synthesizer *steps.Synthesizer
	Persister   Persister
	Events      EventPublisher
	Logger      logger.ILogger
}

type Pipeline struct {
	pc     *PipelineContext
	deps   Deps
	cfg    Config
	flight singleflight.Group
	tasks  sync.WaitGroup
}

func New(pc *PipelineContext, deps Deps, cfg Config) *Pipeline {
	if cfg.ResultCount <= 0 {
		cfg.ResultCount = 5
	}
	if deps.Composer == nil {
		deps.Composer = query.NewComposer(nil)
	}
	if deps.Synthesizer == nil {
		deps.Synthesizer = steps.NewSynthesizer(nil, deps.Logger)
	}
	return &Pipeline{pc: pc, deps: deps, cfg: cfg}
}

func (p *Pipeline) Context() *PipelineContext {
	return p.pc
}

// Resolve returns the project for barcode, running the pipeline at most once
// per barcode: cached entries are returned as-is and concurrent callers for
// the same barcode share one run. The only outward failure is ErrNoResultFound.
func (p *Pipeline) Resolve(ctx context.Context, command, barcode string) (*store.Project, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("empty barcode: %w", apperr.ErrNoResultFound)
	}

	if entry, ok := p.pc.Cache.Get(barcode); ok {
		return entry.Project, nil
	}

	// Detached from the caller: a disconnecting session does not cancel a
	// run other sessions may be waiting on.
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := p.flight.Do(barcode, func() (interface{}, error) {
		return p.run(runCtx, command, barcode)
	})
	if shared {
		p.deps.Logger.Debug(module, "Joined in-flight resolution", map[string]interface{}{"barcode": barcode})
	}
	if err != nil {
		return nil, err
	}
	return v.(*store.ResolutionEntry).Project, nil
}

// Entry returns the cached resolution for barcode.
func (p *Pipeline) Entry(barcode string) (*store.ResolutionEntry, bool) {
	return p.pc.Cache.Get(barcode)
}

// ClearCache forgets barcode so the next Resolve runs the pipeline again.
func (p *Pipeline) ClearCache(barcode string) {
	p.pc.Cache.Delete(barcode)
	p.flight.Forget(barcode)
}

func (p *Pipeline) ClearAll() {
	p.pc.Cache.Flush()
}

// Wait blocks until detached persistence tasks have finished.
func (p *Pipeline) Wait() {
	p.tasks.Wait()
}

func (p *Pipeline) run(ctx context.Context, command, barcode string) (entry *store.ResolutionEntry, err error) {
	ctx, span := otel.Tracer("pipeline").Start(ctx, "pipeline.resolve")
	span.SetAttributes(attribute.String("barcode", barcode))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			p.deps.Logger.Error(module, "Pipeline panicked", map[string]interface{}{
				"barcode": barcode,
				"panic":   fmt.Sprint(r),
			})
			entry, err = nil, fmt.Errorf("pipeline panic: %v: %w", r, apperr.ErrNoResultFound)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperr.Kind(err))
			if p.deps.Events != nil {
				p.deps.Events.PublishFailed(ctx, barcode, err.Error())
			}
		}
	}()

	// Another run may have finished between the cache check and singleflight.
	if cached, ok := p.pc.Cache.Get(barcode); ok {
		return cached, nil
	}

	start := p.pc.Now()
	p.deps.Logger.Info(module, "Resolving barcode", map[string]interface{}{
		"barcode": barcode,
		"command": command,
	})

	productQuery, err := p.deps.Composer.ProductQuery(ctx, barcode)
	if err != nil {
		return nil, p.fail(barcode, "compose product query", err)
	}

	results, via, err := chain.First(ctx, p.productSearch(barcode, productQuery)...)
	if err != nil {
		return nil, p.fail(barcode, "product search", err)
	}

	var project *store.Project
	if via == ViaSecondary {
		project, err = p.degraded(barcode, results)
		if err != nil {
			return nil, p.fail(barcode, "degraded project", err)
		}
	} else {
		title, err := p.deps.Composer.IdentifyTitle(ctx, barcode, results)
		if err != nil {
			return nil, p.fail(barcode, "identify title", err)
		}
		project = p.build(ctx, barcode, title)
	}

	entry, added := p.pc.Cache.Put(&store.ResolutionEntry{
		Barcode:    barcode,
		Project:    project,
		ManualURL:  project.ManualURL,
		ResolvedAt: p.pc.Now(),
	})
	if added {
		p.persist(ctx, entry)
	}

	p.deps.Logger.Info(module, "Barcode resolved", map[string]interface{}{
		"barcode":  barcode,
		"project":  entry.Project.Name,
		"steps":    entry.Project.TotalSteps(),
		"via":      via,
		"manual":   entry.ManualURL,
		"duration": p.pc.Now().Sub(start).String(),
	})
	span.SetAttributes(attribute.String("via", via), attribute.Int("steps", entry.Project.TotalSteps()))
	if p.deps.Events != nil {
		p.deps.Events.PublishResolved(ctx, entry, via)
	}
	return entry, nil
}

// productSearch is the ordered search chain for the product query: the
// composed query, the deterministic fallbacks spaced by the fallback delay,
// then the secondary provider.
func (p *Pipeline) productSearch(barcode, composed string) []chain.Strategy[[]search.Result] {
	strategies := []chain.Strategy[[]search.Result]{
		p.searchWith(ViaPrimary, p.deps.Primary, composed),
	}
	for _, q := range query.FallbackQueries(barcode) {
		strategies = append(strategies, chain.Delayed(p.cfg.FallbackDelay, p.searchWith(ViaFallback, p.deps.Primary, q)))
	}
	return append(strategies, p.searchWith(ViaSecondary, p.deps.Secondary, composed))
}

func (p *Pipeline) searchWith(name string, provider search.Provider, q string) chain.Strategy[[]search.Result] {
	return chain.Strategy[[]search.Result]{
		Name: name,
		Run: func(ctx context.Context) ([]search.Result, bool, error) {
			if provider == nil {
				return nil, false, apperr.Unconfigured(name + " search")
			}
			results, err := provider.Search(ctx, q, p.cfg.ResultCount)
			if err != nil {
				p.deps.Logger.Warn(module, "Search failed", map[string]interface{}{
					"provider": provider.Name(),
					"query":    q,
					"error":    err.Error(),
				})
				return nil, false, err
			}
			return results, len(results) > 0, nil
		},
	}
}

// build runs the post-title stages. It cannot fail: no manual means an empty
// manual URL, no steps from the provider means template steps.
func (p *Pipeline) build(ctx context.Context, barcode, title string) *store.Project {
	instructionQuery, err := p.deps.Composer.InstructionQuery(ctx, title)
	if err != nil {
		instructionQuery = title + " assembly instructions"
		p.deps.Logger.Warn(module, "Instruction query fell back to template", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
	}

	manualResults, _, err := chain.First(ctx,
		p.searchWith("manual-pdf", p.deps.Primary, query.ManualQuery(instructionQuery)),
		p.searchWith("manual", p.deps.Primary, instructionQuery),
	)
	if err != nil {
		manualResults = nil
	}

	manualURL := ""
	if c, ok := manual.Locate(manualResults); ok {
		manualURL = c.URL
	}

	project, err := store.NewProject(projectID(barcode), title, store.SourceBarcodePipeline,
		p.deps.Synthesizer.Synthesize(ctx, title, manualURL))
	if err != nil {
		// unreachable: the synthesizer always has template steps
		project, _ = store.NewProject(projectID(barcode), title, store.SourceBarcodePipeline, steps.Templates(title))
	}
	project.ManualURL = manualURL
	project.CreatedAt = p.pc.Now()
	return project
}

// degraded builds the minimal project used when only the secondary provider
// found anything.
func (p *Pipeline) degraded(barcode string, results []search.Result) (*store.Project, error) {
	top := results[0]
	name := strings.TrimSpace(top.Title)
	if name == "" {
		name = "Product " + barcode
	}

	project, err := store.NewProject(projectID(barcode), name, store.SourceBarcodePipeline, []store.InstructionStep{
		{
			Title:       "Open the reference",
			Description: fmt.Sprintf("Open %s and find the assembly section.", top.URL),
			Details:     nonEmpty(top.Snippet),
		},
		{
			Title:       "Assemble",
			Description: "Follow the reference step by step, starting with the largest parts.",
		},
		{
			Title:       "Check the result",
			Description: "Make sure every fastener is tight and nothing is left over.",
		},
	})
	if err != nil {
		return nil, err
	}
	project.ManualURL = top.URL
	project.CreatedAt = p.pc.Now()
	return project, nil
}

func (p *Pipeline) persist(ctx context.Context, entry *store.ResolutionEntry) {
	if p.deps.Persister == nil {
		return
	}
	p.tasks.Add(1)
	go func() {
		defer p.tasks.Done()
		if err := p.deps.Persister.Persist(context.WithoutCancel(ctx), entry); err != nil {
			p.deps.Logger.Error(module, "Failed to persist resolution", map[string]interface{}{
				"barcode": entry.Barcode,
				"error":   err.Error(),
			})
		}
	}()
}

func (p *Pipeline) fail(barcode, stage string, err error) error {
	p.deps.Logger.Warn(module, "Resolution failed", map[string]interface{}{
		"barcode": barcode,
		"stage":   stage,
		"kind":    apperr.Kind(err),
		"error":   err.Error(),
	})
	if errors.Is(err, apperr.ErrNoResultFound) {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return fmt.Errorf("%s: %w: %w", stage, apperr.ErrNoResultFound, err)
}

func projectID(barcode string) string {
	return "barcode-" + barcode
}

func nonEmpty(s string) []string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return []string{s}
}

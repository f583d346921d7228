package bootstrap

import (
	"context"
	"errors"
	"time"

	"ai-buildguide-be/internal/config"
	"ai-buildguide-be/internal/controller"
	"ai-buildguide-be/internal/handler"
	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/internal/repository/memory"
	"ai-buildguide-be/internal/service"
	"ai-buildguide-be/internal/websocket"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/barcode"
	"ai-buildguide-be/pkg/events"
	"ai-buildguide-be/pkg/guide/pipeline"
	"ai-buildguide-be/pkg/guide/query"
	"ai-buildguide-be/pkg/guide/steps"
	"ai-buildguide-be/pkg/llm"
	"ai-buildguide-be/pkg/llm/factory"
	"ai-buildguide-be/pkg/objectstore"
	"ai-buildguide-be/pkg/search"
	"ai-buildguide-be/pkg/search/duckduckgo"
	"ai-buildguide-be/pkg/search/exa"
	"ai-buildguide-be/pkg/search/google"

	pktNats "ai-buildguide-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const (
	containerModule = "Container"
	drainTimeout    = 10 * time.Second
)

type Container struct {
	Logger *logger.ZapLogger

	// Controllers
	SessionController    controller.ISessionController
	ResolutionController controller.IResolutionController
	LogController        controller.ILogController

	// Background Services (Exposed for main.go to run)
	PersistenceService service.IPersistenceService
	SessionService     service.ISessionService
	Pipeline           *pipeline.Pipeline

	// WebSockets & Events
	DisplayHandler *handler.DisplayHandler
	WebSocketHub   *websocket.Hub
	NatsSubscriber *pktNats.Subscriber
	BarcodeSource  *barcode.Source

	// the persistence consumer outlives the serving context so that
	// resolutions finishing during shutdown are still written
	consumeCtx  context.Context
	stopConsume context.CancelFunc

	closers []func() error
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}
	c.consumeCtx, c.stopConsume = context.WithCancel(context.WithoutCancel(ctx))

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	llmProvider := newLLMProvider(ctx, cfg, sysLogger)
	primary, secondary := newSearchProviders(cfg, sysLogger)

	// 4. Infrastructure
	natsPub, natsSub := c.newNats(cfg, sysLogger)
	objects := c.newObjectStore(ctx, cfg, sysLogger)

	// 5. Shared state
	source := barcode.NewSource(barcode.Options{
		URL:          cfg.Barcode.SourceURL,
		TTL:          cfg.Barcode.TTL,
		PollInterval: cfg.Barcode.PollInterval,
		PollAttempts: cfg.Barcode.PollAttempts,
		Timeout:      cfg.Search.CallTimeout,
	}, sysLogger)
	pc := pipeline.NewPipelineContext(source, memory.NewResolutionCache())

	// 6. Services
	var persister pipeline.Persister
	var persistenceService service.IPersistenceService
	if objects != nil {
		persistenceService = service.NewPersistenceService(pubSub, cfg.App.PersistTopic, objects, sysLogger)
		persister = persistenceService
	}

	var bus service.EventBus
	var scanPublisher handler.ScanPublisher
	if natsPub != nil {
		bus = natsPub
		scanPublisher = natsPub
	}

	p := pipeline.New(pc, pipeline.Deps{
		Composer:    query.NewComposer(llmProvider),
		Primary:     primary,
		Secondary:   secondary,
		Synthesizer: steps.NewSynthesizer(llmProvider, sysLogger),
		Persister:   persister,
		Events:      service.NewEventPublisher(bus, sysLogger),
		Logger:      sysLogger,
	}, pipeline.Config{
		ResultCount:   cfg.Search.ResultCount,
		FallbackDelay: cfg.Search.FallbackDelay,
	})

	datasetService := service.NewDatasetService(cfg.Dataset.URL, cfg.Dataset.CacheTTL, cfg.Search.CallTimeout, sysLogger)
	resolutionService := service.NewResolutionService(p, sysLogger)
	sessionService := service.NewSessionService(
		memory.NewSessionRepository(cfg.App.SessionIdleTimeout, cfg.App.SessionIdleTimeout/2),
		pc,
		p,
		datasetService,
		sysLogger,
	)

	// 7. Display
	wsLogger := logger.NewIsolatedLogger(cfg.App.DisplayLogFilePath)
	wsHub := websocket.NewHub(wsLogger)
	sessionService.SetDisplay(wsHub)

	c.SessionController = controller.NewSessionController(sessionService)
	c.ResolutionController = controller.NewResolutionController(resolutionService)
	c.LogController = controller.NewLogController(sysLogger)
	c.PersistenceService = persistenceService
	c.SessionService = sessionService
	c.Pipeline = p
	c.DisplayHandler = handler.NewDisplayHandler(sessionService, scanPublisher, wsHub, wsLogger)
	c.WebSocketHub = wsHub
	c.NatsSubscriber = natsSub
	c.BarcodeSource = source

	// closed first, after Close has drained persistence, so the store outlives it
	c.closers = append(c.closers, pubSub.Close)
	return c
}

// StartPersistence subscribes the object-store writer. It keeps running
// until Close has drained it.
func (c *Container) StartPersistence() error {
	if c.PersistenceService == nil {
		return nil
	}
	return c.PersistenceService.Consume(c.consumeCtx)
}

// ListenForScans routes barcode_scanned events into the barcode source.
// Scans are optional: a failed subscription is logged, not returned.
func (c *Container) ListenForScans(ctx context.Context) error {
	if c.NatsSubscriber == nil {
		return nil
	}
	err := c.NatsSubscriber.Subscribe(ctx, events.SubjectBarcodeScanned, "buildguide-scanner",
		service.BarcodeScanHandler(c.BarcodeSource, c.Logger))
	if err != nil {
		c.Logger.Warn(containerModule, "Barcode scan events unavailable", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// Close waits for in-flight work and releases connections, newest first.
func (c *Container) Close() error {
	c.SessionService.Wait()
	c.Pipeline.Wait()

	var errs []error
	if c.PersistenceService != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := c.PersistenceService.Drain(ctx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	if c.stopConsume != nil {
		c.stopConsume()
	}

	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}

func newLLMProvider(ctx context.Context, cfg *config.Config, log logger.ILogger) llm.LLMProvider {
	provider, err := factory.NewLLMProvider(ctx, factory.Settings{
		Provider:           cfg.Ai.LLMProvider,
		Model:              cfg.Ai.LLMModel,
		OllamaBaseURL:      cfg.Ai.OllamaBaseURL,
		HuggingFaceBaseURL: cfg.Ai.HuggingFaceBaseURL,
		HuggingFaceKey:     cfg.Keys.HuggingFace,
		GeminiKey:          cfg.Keys.GoogleGemini,
		Timeout:            cfg.Search.CallTimeout,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrProviderUnconfigured) {
			log.Warn(containerModule, "LLM provider not configured, using templates", map[string]interface{}{"provider": cfg.Ai.LLMProvider})
		} else {
			log.Error(containerModule, "Failed to initialize LLM provider", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}
	log.Info(containerModule, "Using LLM provider", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})
	return provider
}

// newSearchProviders returns nil interfaces, never typed nils, for absent providers.
func newSearchProviders(cfg *config.Config, log logger.ILogger) (search.Provider, search.Provider) {
	var primary, secondary search.Provider

	switch cfg.Search.PrimaryProvider {
	case "duckduckgo":
		primary = duckduckgo.NewProvider(cfg.Search.CallTimeout)
	default:
		if cfg.Keys.GoogleSearch != "" && cfg.Keys.GoogleSearchCX != "" {
			primary = google.NewProvider(cfg.Keys.GoogleSearch, cfg.Keys.GoogleSearchCX, cfg.Search.CallTimeout)
		} else {
			log.Warn(containerModule, "Google search not configured, using DuckDuckGo", nil)
			primary = duckduckgo.NewProvider(cfg.Search.CallTimeout)
		}
	}

	if cfg.Keys.Exa != "" {
		secondary = exa.NewProvider(cfg.Keys.Exa, cfg.Search.CallTimeout)
	} else {
		log.Warn(containerModule, "Exa search not configured, no secondary provider", nil)
	}
	return primary, secondary
}

func (c *Container) newNats(cfg *config.Config, log logger.ILogger) (*pktNats.Publisher, *pktNats.Subscriber) {
	if cfg.App.NatsURL == "" {
		log.Info(containerModule, "NATS_URL not set, events disabled", nil)
		return nil, nil
	}

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, log)
	if err != nil {
		log.Warn(containerModule, "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		natsPub = nil
	} else {
		c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
	}

	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, log)
	if err != nil {
		log.Warn(containerModule, "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
		natsSub = nil
	} else {
		c.closers = append(c.closers, func() error { natsSub.Close(); return nil })
	}
	return natsPub, natsSub
}

func (c *Container) newObjectStore(ctx context.Context, cfg *config.Config, log logger.ILogger) objectstore.Store {
	switch cfg.Storage.Driver {
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Warn(containerModule, "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn(containerModule, "Failed to connect to Redis, persistence disabled", map[string]interface{}{"error": err.Error()})
			_ = rdb.Close()
			return nil
		}
		objects := objectstore.NewRedisStore(rdb, cfg.Storage.KeyPrefix)
		c.closers = append(c.closers, objects.Close)
		return objects

	case "sqlite":
		objects, err := objectstore.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Warn(containerModule, "Failed to open SQLite store, persistence disabled", map[string]interface{}{"error": err.Error()})
			return nil
		}
		c.closers = append(c.closers, objects.Close)
		return objects

	default:
		log.Info(containerModule, "Object store disabled", map[string]interface{}{"driver": cfg.Storage.Driver})
		return nil
	}
}

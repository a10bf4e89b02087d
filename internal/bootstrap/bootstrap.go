package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MeiZhiYying/classifyDoc/internal/config"
	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
	"github.com/MeiZhiYying/classifyDoc/internal/core/usecase"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/catalog/memory"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/catalog/postgres"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/extractor"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/llm/ollama"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/llm/openai"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/matching"
	natsqueue "github.com/MeiZhiYying/classifyDoc/internal/infrastructure/queue/nats"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/registry"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/resilience"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/storage/localfs"
	"github.com/MeiZhiYying/classifyDoc/internal/observability/logging"
	"github.com/MeiZhiYying/classifyDoc/internal/observability/metrics"
)

// App wires configuration into the catalog engine: storage, registry,
// classification pipeline, catalog index, queue and the use cases the
// adapters consume.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Storage  ports.ObjectStorage
	Registry ports.CategoryRegistry
	Index    ports.CatalogIndex
	Queue    *natsqueue.Queue

	Ingestor   ports.BatchIngestor
	Scanner    ports.DirectoryScanner
	Categories ports.CategoryService
	Queries    ports.CatalogQueryService

	HTTPMetrics   *metrics.HTTPServerMetrics
	EngineMetrics *metrics.EngineMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	storage, err := localfs.New(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init upload storage: %w", err)
	}

	seeds, err := config.LoadCategorySeeds(cfg.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("load category seeds: %w", err)
	}
	reg, err := registry.New(seeds, cfg.MaxCustomCategories)
	if err != nil {
		return nil, fmt.Errorf("init category registry: %w", err)
	}

	index, closeIndex, err := newCatalogIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	var publisher ports.EventPublisher = usecase.NoopPublisher{}
	var queue *natsqueue.Queue
	if cfg.NATSURL != "" {
		queue, err = natsqueue.NewWithOptions(cfg.NATSURL, natsqueue.Subjects{
			FileClassified:  cfg.NATSClassifySubject,
			CategoryCreated: cfg.NATSCategorySubject,
			RescanRequested: cfg.NATSRescanSubject,
		}, natsqueue.Options{ResilienceExecutor: executor})
		if err != nil {
			closeIndex()
			return nil, fmt.Errorf("init nats queue: %w", err)
		}
		publisher = queue
	}

	engineMetrics := metrics.NewEngineMetrics()
	httpMetrics := metrics.NewHTTPServerMetrics(service)
	httpMetrics.Register(engineMetrics.Collectors()...)

	classifier := newContentClassifier(cfg, reg, executor)
	extract := extractor.New(storage, cfg.MaxExtractChars)
	matcher := matching.New()

	pipeline := usecase.NewClassificationPipeline(reg, matcher, extract, classifier, cfg.ClassifyTimeout, logger, engineMetrics)
	ingestor := usecase.NewIngestor(storage, pipeline, index, publisher, cfg.MaxBatchFiles, logger, engineMetrics)
	scanner := usecase.NewScanner(storage, index, pipeline, reg, matcher, publisher, cfg.ScanConcurrency, logger, engineMetrics)
	categories := usecase.NewCategoryManager(reg, scanner, publisher, logger)
	queries := usecase.NewCatalogQueries(reg, index)

	return &App{
		Config: cfg,
		Logger: logger,

		Storage:  storage,
		Registry: reg,
		Index:    index,
		Queue:    queue,

		Ingestor:   ingestor,
		Scanner:    scanner,
		Categories: categories,
		Queries:    queries,

		HTTPMetrics:   httpMetrics,
		EngineMetrics: engineMetrics,

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			closeIndex()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newCatalogIndex(ctx context.Context, cfg config.Config) (ports.CatalogIndex, func(), error) {
	switch cfg.CatalogBackend {
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		index := postgres.NewIndex(db)
		if err := index.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure catalog schema: %w", err)
		}
		return index, func() { _ = db.Close() }, nil
	case "", "memory":
		return memory.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog backend %q", cfg.CatalogBackend)
	}
}

func newContentClassifier(cfg config.Config, reg ports.CategoryRegistry, executor *resilience.Executor) ports.ContentClassifier {
	candidates := func() []string {
		list := reg.List()
		names := make([]string, 0, len(list))
		for _, category := range list {
			names = append(names, category.Name)
		}
		return names
	}

	switch cfg.ClassifierProvider {
	case "openai":
		return openai.NewClassifier(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, candidates)
	default:
		return ollama.NewClassifier(ollama.New(cfg.OllamaURL, cfg.OllamaModel), candidates, executor)
	}
}

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/config"
	"github.com/kirillkom/invoice-assistant/internal/core/extraction"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
	"github.com/kirillkom/invoice-assistant/internal/core/query"
	"github.com/kirillkom/invoice-assistant/internal/core/usecase"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/extractor/document"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/fetch/httpfetch"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/storage/minio"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/store/memory"
	"github.com/kirillkom/invoice-assistant/internal/observability/metrics"
)

const referenceDateLayout = "2006-01-02"

type App struct {
	Config   config.Config
	Calendar normalize.Calendar

	Store       *memory.Store
	Invoices    *usecase.InvoiceUseCase
	Answers     *usecase.AnswerUseCase
	HTTPMetrics *metrics.HTTPServerMetrics

	closers []func()
}

// New wires the invoice collection, the extraction pipeline and the
// answering cascade. Remote tiers, object storage and the event queue are
// attached only when configured.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	calendar, err := NewCalendar(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:      cfg,
		Calendar:    calendar,
		Store:       memory.New(),
		HTTPMetrics: metrics.NewHTTPServerMetrics("api"),
	}

	remote := resilience.NewExecutor(ResilienceConfig(cfg))
	delegates := resilience.NewExecutor(ResilienceConfig(cfg).SingleAttempt())

	storage, err := newObjectStorage(ctx, cfg, remote)
	if err != nil {
		return nil, err
	}

	var events ports.EventPublisher
	if strings.TrimSpace(cfg.NATSURL) != "" {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: remote})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.closers = append(app.closers, queue.Close)
		events = queue
	}

	app.Invoices = usecase.NewInvoiceUseCase(usecase.InvoiceDeps{
		Store: app.Store,
		Extractor: extraction.NewEngine(extraction.Options{
			Calendar:     calendar,
			KnownVendors: cfg.KnownVendors,
		}),
		Decoder:  document.NewDecoder(),
		Fetcher:  httpfetch.New(time.Duration(cfg.FetchTimeoutSeconds)*time.Second, remote),
		Exporter: xlsx.NewExporter(),
		Calendar: calendar,
		Storage:  storage,
		Events:   events,
		Recorder: app.HTTPMetrics,
	})

	opts := usecase.AnswerOptions{
		Recorder:        app.HTTPMetrics,
		DelegateTimeout: time.Duration(cfg.AITimeoutSeconds) * time.Second,
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		opts.FunctionCalling = openai.New(openai.Config{
			Name:    "openai",
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}, delegates)
	}
	plain, closePlain, err := newPlainDelegate(ctx, cfg, delegates)
	if err != nil {
		app.Close()
		return nil, err
	}
	if closePlain != nil {
		app.closers = append(app.closers, closePlain)
	}
	opts.Plain = plain
	app.Answers = usecase.NewAnswerUseCase(app.Store, query.NewEngine(calendar), opts)

	if cfg.LoadSampleOnStart {
		if _, err := app.Invoices.LoadSample(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("load sample invoices: %w", err)
		}
	}

	slog.Info("app_initialized",
		"reference_date", calendar.Reference().Format(referenceDateLayout),
		"function_calling", opts.FunctionCalling != nil,
		"plain_provider", plainProviderName(cfg, plain),
		"storage_backend", cfg.StorageBackend,
		"events", events != nil,
	)
	return app, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// NewCalendar builds the date context shared by extraction and answering.
func NewCalendar(cfg config.Config) (normalize.Calendar, error) {
	reference := normalize.DefaultReference
	if raw := strings.TrimSpace(cfg.ReferenceDate); raw != "" {
		parsed, err := time.Parse(referenceDateLayout, raw)
		if err != nil {
			return normalize.Calendar{}, fmt.Errorf("parse REFERENCE_DATE: %w", err)
		}
		reference = parsed
	}
	years, err := normalize.ParseYearRule(cfg.TwoDigitYears)
	if err != nil {
		return normalize.Calendar{}, fmt.Errorf("parse EXTRACT_TWO_DIGIT_YEARS: %w", err)
	}
	return normalize.NewCalendar(reference, years), nil
}

func ResilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.BreakerEnabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceRetryAttempts > 0 {
		rc.RetryMaxAttempts = cfg.ResilienceRetryAttempts
	}
	return rc
}

func newObjectStorage(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "", "none":
		return nil, nil
	case "local":
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		return storage, nil
	case "minio":
		storage, err := minio.New(minio.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		}, executor)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		if err := storage.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

// newPlainDelegate returns nil without error when the selected provider is
// not configured; the cascade then skips the plain tier.
func newPlainDelegate(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.PlainDelegate, func(), error) {
	switch cfg.PlainProvider {
	case "", "none":
		return nil, nil, nil
	case "groq":
		if strings.TrimSpace(cfg.GroqAPIKey) == "" {
			return nil, nil, nil
		}
		return openai.New(openai.Config{
			Name:    "groq",
			APIKey:  cfg.GroqAPIKey,
			BaseURL: cfg.GroqBaseURL,
			Model:   cfg.GroqModel,
		}, executor), nil, nil
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return nil, nil, nil
		}
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, executor)
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini: %w", err)
		}
		return client, func() { _ = client.Close() }, nil
	case "ollama":
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel, executor), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown PLAIN_PROVIDER %q", cfg.PlainProvider)
	}
}

func plainProviderName(cfg config.Config, plain ports.PlainDelegate) string {
	if plain == nil {
		return "none"
	}
	return cfg.PlainProvider
}

type Worker struct {
	Config  config.Config
	Queue   *nats.Queue
	Journal *usecase.EventJournalUseCase
	Metrics *metrics.WorkerMetrics

	closeFn func()
}

// NewWorker wires the event consumer: NATS in, Postgres journal out.
func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	if strings.TrimSpace(cfg.NATSURL) == "" {
		return nil, fmt.Errorf("NATS_URL is required for the worker")
	}
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewEventRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(ResilienceConfig(cfg)),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	workerMetrics := metrics.NewWorkerMetrics("worker")
	return &Worker{
		Config:  cfg,
		Queue:   queue,
		Journal: usecase.NewEventJournalUseCase(repo, workerMetrics),
		Metrics: workerMetrics,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ClaudeDigest/internal/collector"
	"ClaudeDigest/internal/config"
	"ClaudeDigest/internal/enrichment"
	"ClaudeDigest/internal/infrastructure/digestfile"
	"ClaudeDigest/internal/infrastructure/enrich"
	"ClaudeDigest/internal/infrastructure/scheduler"
	"ClaudeDigest/internal/infrastructure/sources"
	"ClaudeDigest/internal/infrastructure/storage"
	"ClaudeDigest/internal/infrastructure/telegram"
	"ClaudeDigest/internal/logging"
	"ClaudeDigest/internal/ports"
	"ClaudeDigest/internal/ranking"
	"ClaudeDigest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	db       *storage.DB
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New opens the ledger store and builds the pipeline with every enabled source.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := NewRegistry(cfg, &http.Client{Timeout: cfg.HTTP.Timeout}, baseLogger)
	enabled, err := registry.Enabled(cfg.Sources.Enabled)
	if err != nil {
		return nil, fmt.Errorf("enabled sources: %w", err)
	}

	db, err := storage.Open(ctx, cfg.Ledger.Driver, cfg.Ledger.DSN)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	cache := storage.NewContentCache(db)

	var enricher usecase.Enricher
	if !cfg.Enrichment.Disabled {
		fetcher := enrich.NewFetcher(nil, cfg.Enrichment.ItemTimeout)
		enricher = enrichment.NewPipeline(
			enrich.NewOGResolver(fetcher),
			enrich.NewExtractor(fetcher, cfg.Credentials.GitHubToken),
			cache,
			enrichment.Options{
				ImageWorkers:     cfg.Enrichment.ImageWorkers,
				SummaryWorkers:   cfg.Enrichment.SummaryWorkers,
				ItemTimeout:      cfg.Enrichment.ItemTimeout,
				SummaryThreshold: cfg.Enrichment.SummaryThreshold,
				SummaryTarget:    cfg.Enrichment.SummaryTarget,
			},
			baseLogger.With("component", "enrichment"),
		)
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:  enabled,
		Ledger:   storage.NewLedger(db),
		Cache:    cache,
		Scorer:   ranking.NewScorer(ranking.DefaultWeights()),
		Enricher: enricher,
		Writer:   digestfile.NewWriter(cfg.Output.Path),
		Notifier: notifier,
		Settings: usecase.Settings{
			MinScore:        cfg.Ranking.MinScore,
			ListSize:        cfg.Ranking.ListSize,
			MaxTotal:        cfg.Ranking.MaxTotal,
			Retention:       cfg.Ledger.Retention,
			CacheRetention:  cfg.Ledger.CacheRetention,
			NotifyWhenEmpty: cfg.Notifications.NotifyWhenEmpty,
		},
		Logger: baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, db: db, pipeline: pipeline, logger: baseLogger}, nil
}

// NewRegistry registers every source adapter. Both Reddit adapters share one
// OAuth token per run.
func NewRegistry(cfg config.Config, client *http.Client, logger *slog.Logger) *collector.Registry {
	env := sources.NewEnv(client, cfg.HTTP.Timeout, cfg.HTTP.UserAgent, logger.With("component", "sources"), sources.Credentials{
		GitHubToken:        cfg.Credentials.GitHubToken,
		RedditClientID:     cfg.Credentials.RedditClientID,
		RedditClientSecret: cfg.Credentials.RedditClientSecret,
	})

	feeds := make([]sources.Feed, 0, len(cfg.Sources.Blogs))
	for _, f := range cfg.Sources.Blogs {
		feeds = append(feeds, sources.Feed{URL: f.URL, Source: f.Name})
	}
	redditAuth := sources.NewRedditAuth(env)

	registry := collector.NewRegistry()
	registry.Register(sources.NewAnthropicNews(env))
	registry.Register(sources.NewAnthropicDocs(env))
	registry.Register(sources.NewGitHubSearch(env))
	registry.Register(sources.NewGitHubReleases(env))
	registry.Register(sources.NewBlogs(env, feeds))
	registry.Register(sources.NewHackerNews(env))
	registry.Register(sources.NewHackerNewsClaudeCode(env))
	registry.Register(sources.NewReddit(env, redditAuth))
	registry.Register(sources.NewRedditTips(env, redditAuth))
	registry.Register(sources.NewDevTo(env))
	return registry
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (usecase.Result, error) {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.Run(ctx, now)
}

// RunDaemon runs the pipeline on the configured interval until ctx is done.
func (a *Application) RunDaemon(ctx context.Context) error {
	sched := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval),
		a.pipeline,
		a.logger.With("component", "scheduler"),
	)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("daemon started", "interval", a.cfg.Scheduler.Interval)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Close releases the ledger store.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ClaudeDigest/internal/collector"
	"ClaudeDigest/internal/digest"
	"ClaudeDigest/internal/domain"
	"ClaudeDigest/internal/ports"
	"ClaudeDigest/internal/ranking"
)

var (
	// ErrNoContent reports a run that produced an empty digest.
	ErrNoContent = errors.New("no new content")
	// ErrLedger marks failures of the deduplication ledger.
	ErrLedger = errors.New("ledger failure")
)

// Enricher adds images and summaries to the selected items.
type Enricher interface {
	Enrich(ctx context.Context, items []domain.Item) []domain.Item
}

// Settings are the run-level knobs of the pipeline.
type Settings struct {
	MinScore        int
	ListSize        int
	MaxTotal        int
	Retention       time.Duration
	CacheRetention  time.Duration
	NotifyWhenEmpty bool
}

// DefaultSettings keeps one featured item plus nine list items.
func DefaultSettings() Settings {
	return Settings{
		MinScore:       15,
		ListSize:       9,
		MaxTotal:       10,
		Retention:      30 * 24 * time.Hour,
		CacheRetention: 7 * 24 * time.Hour,
	}
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources  []ports.Source
	Ledger   ports.Ledger
	Cache    ports.ContentCache
	Scorer   ranking.Scorer
	Enricher Enricher
	Writer   ports.DigestWriter
	Notifier ports.Notifier
	Settings Settings
	Logger   *slog.Logger
}

// Pipeline implements the daily digest workflow.
type Pipeline struct {
	sources  []ports.Source
	ledger   ports.Ledger
	cache    ports.ContentCache
	scorer   ranking.Scorer
	enricher Enricher
	writer   ports.DigestWriter
	notifier ports.Notifier
	settings Settings
	logger   *slog.Logger
}

// Result summarizes one run.
type Result struct {
	RunID     string
	Collected int
	Fresh     int
	Qualified int
	Digest    domain.Digest
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sources:  deps.Sources,
		ledger:   deps.Ledger,
		cache:    deps.Cache,
		scorer:   deps.Scorer,
		enricher: deps.Enricher,
		writer:   deps.Writer,
		notifier: deps.Notifier,
		settings: deps.Settings,
		logger:   logger,
	}
}

// Run collects, deduplicates, ranks, enriches and writes one digest.
// It returns ErrNoContent after writing an empty digest.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := p.logger.With("run_id", res.RunID)
	log.Info("run started", "sources", len(p.sources))

	collected := collector.Collect(ctx, p.sources, log)
	res.Collected = len(collected)

	fresh, err := p.dedupe(ctx, collected, log)
	if err != nil {
		return res, err
	}
	res.Fresh = len(fresh)

	ranked := p.scorer.FilterAndRank(fresh, p.settings.MinScore)
	res.Qualified = len(ranked)
	log.Info("items ranked", "collected", res.Collected, "fresh", res.Fresh, "qualified", res.Qualified, "min_score", p.settings.MinScore)

	listSize := p.settings.ListSize
	if p.settings.MaxTotal > 0 {
		listSize = min(listSize, p.settings.MaxTotal-1)
	}
	featured, list := ranking.Select(ranked, listSize)
	featured, list = p.enrich(ctx, featured, list)

	res.Digest = digest.Assemble(featured, list, now, p.settings.MaxTotal)
	if p.writer != nil {
		if err := p.writer.Write(ctx, res.Digest); err != nil {
			return res, fmt.Errorf("write digest: %w", err)
		}
	}
	log.Info("digest written", "total_items", res.Digest.TotalItems, "list_items", len(res.Digest.Items))

	if err := p.record(ctx, fresh); err != nil {
		return res, err
	}

	if res.Digest.TotalItems > 0 || p.settings.NotifyWhenEmpty {
		p.notify(ctx, res.Digest, log)
	}

	if err := p.sweep(ctx, log); err != nil {
		return res, err
	}

	if res.Digest.TotalItems == 0 {
		log.Warn("no new content found")
		return res, ErrNoContent
	}
	return res, nil
}

// dedupe drops items already in the ledger and later copies of an item
// within the same run. Nothing is recorded here.
func (p *Pipeline) dedupe(ctx context.Context, items []domain.Item, log *slog.Logger) ([]domain.Item, error) {
	if p.ledger == nil {
		return items, nil
	}

	fresh := make([]domain.Item, 0, len(items))
	inRun := make(map[string]struct{}, len(items))
	for _, item := range items {
		fp := item.Fingerprint()
		if _, ok := inRun[fp]; ok {
			log.Debug("skipping duplicate", "title", item.Title, "source", item.Source)
			continue
		}
		dup, err := p.ledger.IsDuplicate(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("check duplicate: %w: %w", ErrLedger, err)
		}
		if dup {
			log.Debug("skipping duplicate", "title", item.Title, "source", item.Source)
			continue
		}
		inRun[fp] = struct{}{}
		fresh = append(fresh, item)
	}
	return fresh, nil
}

// record marks every fresh item as seen once the digest is on disk, so a
// failed write leaves them eligible for the next run.
func (p *Pipeline) record(ctx context.Context, fresh []domain.Item) error {
	if p.ledger == nil {
		return nil
	}
	for _, item := range fresh {
		if err := p.ledger.Record(ctx, item); err != nil {
			return fmt.Errorf("record item: %w: %w", ErrLedger, err)
		}
	}
	return nil
}

func (p *Pipeline) enrich(ctx context.Context, featured *domain.Item, list []domain.Item) (*domain.Item, []domain.Item) {
	if p.enricher == nil || featured == nil {
		return featured, list
	}

	batch := make([]domain.Item, 0, len(list)+1)
	batch = append(batch, *featured)
	batch = append(batch, list...)

	enriched := p.enricher.Enrich(ctx, batch)
	if len(enriched) != len(batch) {
		return featured, list
	}
	head := enriched[0]
	return &head, enriched[1:]
}

func (p *Pipeline) notify(ctx context.Context, d domain.Digest, log *slog.Logger) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(d)); err != nil {
		log.Error("digest delivery failed", "error", err)
		return
	}
	log.Info("digest delivered")
}

func (p *Pipeline) sweep(ctx context.Context, log *slog.Logger) error {
	if p.ledger != nil && p.settings.Retention > 0 {
		removed, err := p.ledger.Sweep(ctx, p.settings.Retention)
		if err != nil {
			return fmt.Errorf("sweep ledger: %w: %w", ErrLedger, err)
		}
		log.Info("ledger swept", "removed", removed)
	}
	if p.cache != nil && p.settings.CacheRetention > 0 {
		removed, err := p.cache.Sweep(ctx, p.settings.CacheRetention)
		if err != nil {
			log.Warn("summary cache sweep failed", "error", err)
			return nil
		}
		log.Debug("summary cache swept", "removed", removed)
	}
	return nil
}

func buildDigestMessage(d domain.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claude Daily Digest %s\n\n", d.GeneratedAt.Format("2006-01-02"))
	if d.TotalItems == 0 {
		b.WriteString("No new content today.\n")
		return b.String()
	}

	if d.FeaturedItem != nil {
		b.WriteString("Editor's pick\n")
		writeDigestEntry(&b, *d.FeaturedItem)
	}
	for _, item := range d.Items {
		writeDigestEntry(&b, item)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeDigestEntry(b *strings.Builder, item domain.Item) {
	score := 0
	if item.QualityScore != nil {
		score = *item.QualityScore
	}
	fmt.Fprintf(b, "- %s\nScore: %d | %s\n", item.Title, score, item.Source)
	if summary := strings.TrimSpace(item.Summary); summary != "" {
		fmt.Fprintf(b, "%s\n", collector.Truncate(summary, 280))
	}
	fmt.Fprintf(b, "%s\n\n", item.URL)
}

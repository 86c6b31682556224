package enrichment

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"ClaudeDigest/internal/domain"
	"ClaudeDigest/internal/ports"
)

// Options tune the two enrichment passes.
type Options struct {
	ImageWorkers     int
	SummaryWorkers   int
	ItemTimeout      time.Duration
	SummaryThreshold int
	SummaryTarget    int
}

// DefaultOptions mirrors the production settings.
func DefaultOptions() Options {
	return Options{
		ImageWorkers:     8,
		SummaryWorkers:   3,
		ItemTimeout:      15 * time.Second,
		SummaryThreshold: 200,
		SummaryTarget:    500,
	}
}

// Pipeline adds preview images and longer summaries to selected items.
// Every failure is local to one item; the pass always completes.
type Pipeline struct {
	images    ports.ImageResolver
	extractor ports.ContentExtractor
	cache     ports.ContentCache
	opts      Options
	logger    *slog.Logger
}

// NewPipeline accepts nil collaborators: a nil resolver falls back to site
// logos, a nil extractor disables the summary pass, a nil cache is skipped.
func NewPipeline(images ports.ImageResolver, extractor ports.ContentExtractor, cache ports.ContentCache, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.ImageWorkers <= 0 {
		opts.ImageWorkers = def.ImageWorkers
	}
	if opts.SummaryWorkers <= 0 {
		opts.SummaryWorkers = def.SummaryWorkers
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = def.ItemTimeout
	}
	if opts.SummaryThreshold <= 0 {
		opts.SummaryThreshold = def.SummaryThreshold
	}
	if opts.SummaryTarget <= 0 {
		opts.SummaryTarget = def.SummaryTarget
	}
	return &Pipeline{
		images:    images,
		extractor: extractor,
		cache:     cache,
		opts:      opts,
		logger:    logger.With("component", "enrichment"),
	}
}

// Enrich runs the image pass and then the summary pass over a copy of items.
func (p *Pipeline) Enrich(ctx context.Context, items []domain.Item) []domain.Item {
	out := make([]domain.Item, len(items))
	copy(out, items)
	if len(out) == 0 {
		return out
	}

	p.imagePass(ctx, out)
	if p.extractor != nil {
		p.summaryPass(ctx, out)
	}
	return out
}

func (p *Pipeline) imagePass(ctx context.Context, items []domain.Item) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.ImageWorkers)

	for i := range items {
		if items[i].ImageURL != "" {
			continue
		}
		g.Go(func() error {
			items[i].ImageURL = p.imageFor(gctx, items[i])
			return nil
		})
	}
	_ = g.Wait()

	withImage := 0
	for _, it := range items {
		if it.ImageURL != "" {
			withImage++
		}
	}
	p.logger.Info("image pass finished", "items", len(items), "with_image", withImage)
}

func (p *Pipeline) imageFor(ctx context.Context, item domain.Item) string {
	if item.OwnerAvatar != "" {
		return item.OwnerAvatar
	}
	if p.images != nil && item.URL != "" {
		ictx, cancel := context.WithTimeout(ctx, p.opts.ItemTimeout)
		img, err := p.images.Resolve(ictx, item.URL)
		cancel()
		if err != nil {
			p.logger.Debug("page image lookup failed", "url", item.URL, "error", err)
		} else if img != "" {
			return img
		}
	}
	return FallbackImage(item.URL)
}

func (p *Pipeline) summaryPass(ctx context.Context, items []domain.Item) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.SummaryWorkers)

	replaced := 0
	results := make([]string, len(items))
	for i := range items {
		if items[i].URL == "" || utf8.RuneCountInString(items[i].Summary) > p.opts.SummaryThreshold {
			continue
		}
		g.Go(func() error {
			results[i] = p.summaryFor(gctx, items[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, summary := range results {
		if utf8.RuneCountInString(summary) > utf8.RuneCountInString(items[i].Summary) {
			items[i].Summary = summary
			replaced++
		}
	}
	p.logger.Info("summary pass finished", "items", len(items), "replaced", replaced)
}

func (p *Pipeline) summaryFor(ctx context.Context, item domain.Item) string {
	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, item.URL)
		if err != nil {
			p.logger.Warn("summary cache read failed", "url", item.URL, "error", err)
		} else if ok {
			return cached
		}
	}

	ictx, cancel := context.WithTimeout(ctx, p.opts.ItemTimeout)
	defer cancel()

	text, err := p.extractor.Extract(ictx, item)
	if err != nil {
		p.logger.Warn("content extraction failed", "url", item.URL, "error", err)
		return ""
	}
	summary := Summarize(text, p.opts.SummaryTarget)
	if summary == "" {
		p.logger.Debug("no content extracted", "url", item.URL)
		return ""
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, item.URL, summary); err != nil {
			p.logger.Warn("summary cache write failed", "url", item.URL, "error", err)
		}
	}
	return summary
}

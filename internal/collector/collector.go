package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"ClaudeDigest/internal/domain"
	"ClaudeDigest/internal/ports"
)

// Collect runs every source concurrently and concatenates their output in
// the order the sources were given. A source that errors or panics
// contributes nothing and never stops the others.
func Collect(ctx context.Context, sources []ports.Source, logger *slog.Logger) []domain.Item {
	if logger == nil {
		logger = slog.Default()
	}

	results := make([][]domain.Item, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			items, err := runSource(ctx, src)
			if err != nil {
				logger.Error("source failed", "source", src.Name(), "error", err, "salvaged", len(items))
			}
			results[i] = sanitize(items, src.Name(), logger)
			logger.Info("source collected", "source", src.Name(), "count", len(results[i]))
			return nil
		})
	}
	_ = g.Wait()

	var aggregated []domain.Item
	for _, items := range results {
		aggregated = append(aggregated, items...)
	}
	return aggregated
}

func runSource(ctx context.Context, src ports.Source) (items []domain.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("panic in source %s: %v", src.Name(), r)
		}
	}()
	return src.Collect(ctx)
}

// sanitize drops records that would break the item invariants.
func sanitize(items []domain.Item, source string, logger *slog.Logger) []domain.Item {
	out := items[:0:0]
	for _, item := range items {
		item.Title = strings.TrimSpace(item.Title)
		item.URL = strings.TrimSpace(item.URL)
		if item.Title == "" || item.URL == "" {
			logger.Debug("drop item without title or url", "source", source)
			continue
		}
		if !item.Category.Valid() {
			logger.Warn("drop item with unknown category", "source", source, "category", item.Category, "title", item.Title)
			continue
		}
		out = append(out, item)
	}
	return out
}

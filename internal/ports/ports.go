package ports

import (
	"context"
	"time"

	"ClaudeDigest/internal/domain"
)

// Source pulls fresh items from one upstream origin.
type Source interface {
	Name() string
	Collect(ctx context.Context) ([]domain.Item, error)
}

// Ledger remembers previously seen items for deduplication across runs.
type Ledger interface {
	IsDuplicate(ctx context.Context, item domain.Item) (bool, error)
	Record(ctx context.Context, item domain.Item) error
	Sweep(ctx context.Context, retention time.Duration) (int64, error)
}

// ContentCache keeps extracted page summaries keyed by a hash of the URL.
type ContentCache interface {
	Get(ctx context.Context, url string) (string, bool, error)
	Put(ctx context.Context, url, summary string) error
	Sweep(ctx context.Context, retention time.Duration) (int64, error)
}

// ImageResolver looks up a preview image declared by the page itself.
type ImageResolver interface {
	Resolve(ctx context.Context, pageURL string) (string, error)
}

// ContentExtractor downloads the main text behind an item.
type ContentExtractor interface {
	Extract(ctx context.Context, item domain.Item) (string, error)
}

// DigestWriter persists the final digest, replacing any previous one.
type DigestWriter interface {
	Write(ctx context.Context, digest domain.Digest) error
}

// Notifier delivers a rendered digest to readers (Telegram or other channels).
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

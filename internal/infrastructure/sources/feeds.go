package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ClaudeDigest/internal/collector"
	"ClaudeDigest/internal/domain"
	"ClaudeDigest/internal/ports"
)

// Feed is one syndication endpoint with its display label.
type Feed struct {
	URL    string
	Source string
}

// DefaultBlogFeeds are tech blogs that regularly cover Claude.
var DefaultBlogFeeds = []Feed{
	{URL: "https://simonwillison.net/atom/everything/", Source: "Simon Willison"},
	{URL: "https://www.technologyreview.com/feed/", Source: "MIT Technology Review"},
	{URL: "https://techcrunch.com/feed/", Source: "TechCrunch"},
	{URL: "https://www.theverge.com/rss/index.xml", Source: "The Verge"},
}

// Blogs filters general tech feeds down to posts about Claude.
type Blogs struct {
	env      Env
	Feeds    []Feed
	PerFeed  int
	Keywords []string
	Recency  collector.RecencyPolicy
}

var _ ports.Source = (*Blogs)(nil)

// NewBlogs keeps dated posts from the last week and undated posts as-is.
func NewBlogs(env Env, feeds []Feed) *Blogs {
	if len(feeds) == 0 {
		feeds = DefaultBlogFeeds
	}
	return &Blogs{
		env:      env,
		Feeds:    feeds,
		PerFeed:  20,
		Keywords: []string{"claude", "anthropic"},
		Recency:  collector.RecencyPolicy{Window: 7 * 24 * time.Hour},
	}
}

// Name identifies the source inside the registry.
func (b *Blogs) Name() string { return "blogs" }

// Collect reads every feed; a broken feed is logged and skipped.
func (b *Blogs) Collect(ctx context.Context) ([]domain.Item, error) {
	log := b.env.logger(b.Name())
	now := b.env.now()

	seen := map[string]struct{}{}
	failed := 0
	var out []domain.Item
	for _, f := range b.Feeds {
		feed, err := b.env.fetchFeed(ctx, f.URL)
		if err != nil {
			failed++
			log.Error("feed fetch failed", "feed", f.Source, "error", err)
			continue
		}

		for i, entry := range feed.Items {
			if i >= b.PerFeed {
				break
			}
			title := strings.TrimSpace(entry.Title)
			summary := feedItemSummary(entry)
			if !collector.MatchesAny(title+" "+summary, b.Keywords) {
				continue
			}
			published := feedItemTime(entry)
			if !b.Recency.Keep(published, now) {
				continue
			}
			link := strings.TrimSpace(entry.Link)
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}

			out = append(out, domain.Item{
				Title:       title,
				URL:         link,
				Summary:     collector.Truncate(summary, 300),
				Published:   feedItemPublished(entry),
				PublishedAt: published,
				Source:      f.Source,
				Category:    domain.CategoryBlogPosts,
			})
		}
	}

	if failed == len(b.Feeds) && failed > 0 {
		return nil, fmt.Errorf("all %d feeds failed", failed)
	}
	log.Info("collected blog posts", "count", len(out))
	return out, nil
}

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

const (
	anthropicNewsFeedURL     = "https://www.anthropic.com/news/rss.xml"
	anthropicReleaseNotesURL = "https://docs.anthropic.com/en/release-notes/overview"

	SourceAnthropicNews = "Anthropic News"
	SourceAnthropicDocs = "Anthropic Docs"
)

// AnthropicNews reads the official news feed.
type AnthropicNews struct {
	env     Env
	FeedURL string
	Limit   int
	Recency collector.RecencyPolicy
}

var _ ports.Source = (*AnthropicNews)(nil)

// NewAnthropicNews checks the ten newest entries of the news feed.
func NewAnthropicNews(env Env) *AnthropicNews {
	return &AnthropicNews{
		env:     env,
		FeedURL: anthropicNewsFeedURL,
		Limit:   10,
		Recency: collector.RecencyPolicy{Window: 30 * 24 * time.Hour},
	}
}

// Name identifies the source inside the registry.
func (a *AnthropicNews) Name() string { return "anthropic-news" }

// Collect returns feed entries that mention Claude.
func (a *AnthropicNews) Collect(ctx context.Context) ([]domain.Item, error) {
	log := a.env.logger(a.Name())

	feed, err := a.env.fetchFeed(ctx, a.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", SourceAnthropicNews, err)
	}

	now := a.env.now()
	seen := map[string]struct{}{}
	var out []domain.Item
	for i, entry := range feed.Items {
		if i >= a.Limit {
			break
		}
		title := strings.TrimSpace(entry.Title)
		summary := feedItemSummary(entry)
		if !collector.MatchesAny(title+" "+summary, []string{"claude"}) {
			continue
		}
		published := feedItemTime(entry)
		if !a.Recency.Keep(published, now) {
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
			Source:      SourceAnthropicNews,
			Category:    domain.CategoryOfficialUpdates,
		})
	}

	log.Info("collected official news", "count", len(out))
	return out, nil
}

// AnthropicDocs watches the API release notes page.
type AnthropicDocs struct {
	env Env
	URL string
}

var _ ports.Source = (*AnthropicDocs)(nil)

// NewAnthropicDocs points at the public release notes overview.
func NewAnthropicDocs(env Env) *AnthropicDocs {
	return &AnthropicDocs{env: env, URL: anthropicReleaseNotesURL}
}

// Name identifies the source inside the registry.
func (a *AnthropicDocs) Name() string { return "anthropic-docs" }

// Collect emits a single release-notes item when the page is reachable.
func (a *AnthropicDocs) Collect(ctx context.Context) ([]domain.Item, error) {
	doc, err := a.env.fetchDocument(ctx, a.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch release notes: %w", err)
	}

	if doc.Find("h1").Length() == 0 {
		a.env.logger(a.Name()).Warn("release notes page has no heading")
		return nil, nil
	}

	summary := "Check the latest API updates and release notes"
	latest := strings.Join(strings.Fields(doc.Find("h2, h3").First().Text()), " ")
	if latest != "" {
		summary = fmt.Sprintf("%s. Latest entry: %s", summary, latest)
	}

	now := a.env.now().UTC()
	return []domain.Item{{
		Title:       "Claude API Release Notes",
		URL:         a.URL,
		Summary:     summary,
		Published:   now.Format(time.RFC3339),
		PublishedAt: &now,
		Source:      SourceAnthropicDocs,
		Category:    domain.CategoryOfficialUpdates,
	}}, nil
}

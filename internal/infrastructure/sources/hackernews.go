package sources

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ClaudeDigest/internal/collector"
	"ClaudeDigest/internal/domain"
	"ClaudeDigest/internal/ports"
)

const (
	hnSearchURL = "https://hn.algolia.com/api/v1/search"
	hnItemURL   = "https://news.ycombinator.com/item?id="

	SourceHackerNews = "Hacker News"
)

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAt   string `json:"created_at"`
	StoryTitle  string `json:"story_title"`
	StoryID     int    `json:"story_id"`
}

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

// hnSearch runs one Algolia query restricted to the last window.
func hnSearch(ctx context.Context, env Env, baseURL, query, tags string, hits int, window time.Duration) ([]hnHit, error) {
	cutoff := env.now().Add(-window).Unix()
	endpoint := baseURL + "?" + url.Values{
		"query":          {query},
		"tags":           {tags},
		"numericFilters": {fmt.Sprintf("created_at_i>%d", cutoff)},
		"hitsPerPage":    {strconv.Itoa(hits)},
	}.Encode()

	var resp hnSearchResponse
	if err := env.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

// HackerNews collects Claude stories with some community traction.
type HackerNews struct {
	env       Env
	BaseURL   string
	Queries   []string
	Hits      int
	Window    time.Duration
	MinPoints int
	MinCount  int
	Limit     int
}

var _ ports.Source = (*HackerNews)(nil)

// NewHackerNews searches stories from the last two weeks.
func NewHackerNews(env Env) *HackerNews {
	return &HackerNews{
		env:       env,
		BaseURL:   hnSearchURL,
		Queries:   []string{"claude anthropic", "claude code", "anthropic ai", "claude api"},
		Hits:      20,
		Window:    14 * 24 * time.Hour,
		MinPoints: 5,
		MinCount:  3,
		Limit:     15,
	}
}

// Name identifies the source inside the registry.
func (h *HackerNews) Name() string { return "hackernews" }

// Collect keeps stories with at least MinPoints points or MinCount comments.
func (h *HackerNews) Collect(ctx context.Context) ([]domain.Item, error) {
	log := h.env.logger(h.Name())

	seen := map[string]struct{}{}
	failed := 0
	var out []domain.Item
	for _, query := range h.Queries {
		hits, err := hnSearch(ctx, h.env, h.BaseURL, query, "story", h.Hits, h.Window)
		if err != nil {
			failed++
			log.Warn("hn search failed", "query", query, "error", err)
			continue
		}

		for _, hit := range hits {
			if _, dup := seen[hit.ObjectID]; dup {
				continue
			}
			seen[hit.ObjectID] = struct{}{}

			if hit.Points < h.MinPoints && hit.NumComments < h.MinCount {
				continue
			}

			discussion := hnItemURL + hit.ObjectID
			link := strings.TrimSpace(hit.URL)
			if link == "" {
				link = discussion
			}
			out = append(out, domain.Item{
				Title:       hit.Title,
				URL:         link,
				HNURL:       discussion,
				Summary:     fmt.Sprintf("%d points, %d comments on HN", hit.Points, hit.NumComments),
				Published:   hit.CreatedAt,
				PublishedAt: collector.ParseTime(hit.CreatedAt),
				Source:      SourceHackerNews,
				Category:    domain.CategoryCommunityDiscussions,
				Author:      hit.Author,
				Engagement: domain.Engagement{
					domain.SignalPoints:   hit.Points,
					domain.SignalComments: hit.NumComments,
				},
			})
		}
	}

	if failed == len(h.Queries) && failed > 0 {
		return nil, fmt.Errorf("all %d hn queries failed", failed)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a := out[i].Engagement[domain.SignalPoints] + out[i].Engagement[domain.SignalComments]
		b := out[j].Engagement[domain.SignalPoints] + out[j].Engagement[domain.SignalComments]
		return a > b
	})
	if len(out) > h.Limit {
		out = out[:h.Limit]
	}

	log.Info("collected hn discussions", "count", len(out))
	return out, nil
}

// HackerNewsClaudeCode searches stories and comments about Claude Code.
type HackerNewsClaudeCode struct {
	env     Env
	BaseURL string
	Queries []string
	Hits    int
	Window  time.Duration
	Limit   int
}

var _ ports.Source = (*HackerNewsClaudeCode)(nil)

// NewHackerNewsClaudeCode mixes stories and comments from the last two weeks.
func NewHackerNewsClaudeCode(env Env) *HackerNewsClaudeCode {
	return &HackerNewsClaudeCode{
		env:     env,
		BaseURL: hnSearchURL,
		Queries: []string{`"claude code"`, "claude terminal", "claude cli", "anthropic mcp"},
		Hits:    15,
		Window:  14 * 24 * time.Hour,
		Limit:   10,
	}
}

// Name identifies the source inside the registry.
func (h *HackerNewsClaudeCode) Name() string { return "hackernews-claude-code" }

// Collect points every hit at its HN story, so comments on the same story collapse.
func (h *HackerNewsClaudeCode) Collect(ctx context.Context) ([]domain.Item, error) {
	log := h.env.logger(h.Name())

	seenIDs := map[string]struct{}{}
	seenURLs := map[string]struct{}{}
	failed := 0
	var out []domain.Item
	for _, query := range h.Queries {
		hits, err := hnSearch(ctx, h.env, h.BaseURL, query, "(story,comment)", h.Hits, h.Window)
		if err != nil {
			failed++
			log.Warn("hn search failed", "query", query, "error", err)
			continue
		}

		for _, hit := range hits {
			if _, dup := seenIDs[hit.ObjectID]; dup {
				continue
			}
			seenIDs[hit.ObjectID] = struct{}{}

			title, storyID := hit.Title, hit.ObjectID
			if title == "" {
				title = hit.StoryTitle
				if title == "" {
					title = "HN Discussion"
				}
				if hit.StoryID != 0 {
					storyID = strconv.Itoa(hit.StoryID)
				}
			}

			link := hnItemURL + storyID
			if _, dup := seenURLs[link]; dup {
				continue
			}
			seenURLs[link] = struct{}{}

			out = append(out, domain.Item{
				Title:       title,
				URL:         link,
				HNURL:       link,
				Summary:     "Claude Code discussion on HN",
				Published:   hit.CreatedAt,
				PublishedAt: collector.ParseTime(hit.CreatedAt),
				Source:      SourceHackerNews,
				Category:    domain.CategoryClaudeCode,
				Author:      hit.Author,
				Engagement:  domain.Engagement{domain.SignalPoints: hit.Points},
			})
		}
	}

	if failed == len(h.Queries) && failed > 0 {
		return nil, fmt.Errorf("all %d hn queries failed", failed)
	}
	if len(out) > h.Limit {
		out = out[:h.Limit]
	}

	log.Info("collected hn claude code posts", "count", len(out))
	return out, nil
}

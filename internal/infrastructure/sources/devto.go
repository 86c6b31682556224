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
	devtoAPIURL = "https://dev.to/api/articles"

	SourceDevTo = "Dev.to"
)

// DevToTag is one tag listing; Trusted tags skip the keyword filter.
type DevToTag struct {
	Tag     string
	PerPage int
	Trusted bool
}

type devtoArticle struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	PublishedAt string   `json:"published_at"`
	Reactions   int      `json:"public_reactions_count"`
	Comments    int      `json:"comments_count"`
	TagList     []string `json:"tag_list"`
	CoverImage  string   `json:"cover_image"`
	SocialImage string   `json:"social_image"`
	User        struct {
		Name string `json:"name"`
	} `json:"user"`
}

var devtoCategories = collector.CategoryRules{
	Rules: []collector.CategoryRule{
		{
			Match:    collector.ContentOrTagHas("tutorial", "guide", "how to", "tips", "best practice"),
			Category: domain.CategoryTutorialsAndTips,
		},
		{
			Match:    collector.ContentHas("claude code", "terminal", "cli", "vscode", "coding"),
			Category: domain.CategoryClaudeCode,
		},
		{
			Match:    collector.ContentHas("project", "built", "created", "workflow", "use case"),
			Category: domain.CategoryUseCases,
		},
	},
	Fallback: domain.CategoryBlogPosts,
}

// DevTo reads tag listings from the Dev.to public API.
type DevTo struct {
	env      Env
	BaseURL  string
	Tags     []DevToTag
	Keywords []string
	Recency  collector.RecencyPolicy
	Limit    int
}

var _ ports.Source = (*DevTo)(nil)

// NewDevTo reads the claude and anthropic tags plus two broader AI tags.
func NewDevTo(env Env) *DevTo {
	return &DevTo{
		env:     env,
		BaseURL: devtoAPIURL,
		Tags: []DevToTag{
			{Tag: "claude", PerPage: 30, Trusted: true},
			{Tag: "anthropic", PerPage: 30, Trusted: true},
			{Tag: "ai", PerPage: 50},
			{Tag: "llm", PerPage: 50},
		},
		Keywords: []string{"claude", "anthropic", "sonnet", "opus", "haiku"},
		Recency:  collector.RecencyPolicy{Window: 14 * 24 * time.Hour},
		Limit:    15,
	}
}

// Name identifies the source inside the registry.
func (d *DevTo) Name() string { return "devto" }

// Collect ranks articles by reactions plus twice the comments.
func (d *DevTo) Collect(ctx context.Context) ([]domain.Item, error) {
	log := d.env.logger(d.Name())
	now := d.env.now()

	seen := map[int]struct{}{}
	failed := 0
	var out []domain.Item
	for _, tag := range d.Tags {
		endpoint := d.BaseURL + "?" + url.Values{
			"tag":      {tag.Tag},
			"per_page": {strconv.Itoa(tag.PerPage)},
		}.Encode()

		var articles []devtoArticle
		if err := d.env.getJSON(ctx, endpoint, nil, &articles); err != nil {
			failed++
			log.Warn("devto listing failed", "tag", tag.Tag, "error", err)
			continue
		}

		for _, a := range articles {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}

			content := a.Title + " " + a.Description
			if !tag.Trusted && !collector.MatchesAny(content, d.Keywords) {
				continue
			}
			published := collector.ParseTime(a.PublishedAt)
			if !d.Recency.Keep(published, now) {
				continue
			}

			author := strings.TrimSpace(a.User.Name)
			if author == "" {
				author = "Unknown"
			}
			image := a.CoverImage
			if image == "" {
				image = a.SocialImage
			}
			out = append(out, domain.Item{
				Title:       a.Title,
				URL:         a.URL,
				Summary:     collector.Clip(a.Description, 300),
				Published:   a.PublishedAt,
				PublishedAt: published,
				Source:      SourceDevTo,
				Category:    devtoCategories.Classify(collector.NewSignals(content, "", a.TagList)),
				Author:      author,
				Tags:        a.TagList,
				ImageURL:    image,
				Engagement: domain.Engagement{
					domain.SignalReactions: a.Reactions,
					domain.SignalComments:  a.Comments,
				},
			})
		}
	}

	if failed == len(d.Tags) && failed > 0 {
		return nil, fmt.Errorf("all %d devto listings failed", failed)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return devtoWeight(out[i]) > devtoWeight(out[j])
	})
	if len(out) > d.Limit {
		out = out[:d.Limit]
	}

	log.Info("collected devto articles", "count", len(out))
	return out, nil
}

func devtoWeight(item domain.Item) int {
	return item.Engagement[domain.SignalReactions] + 2*item.Engagement[domain.SignalComments]
}

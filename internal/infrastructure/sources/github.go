package sources

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"ClaudeDigest/internal/collector"
	"ClaudeDigest/internal/domain"
	"ClaudeDigest/internal/ports"
)

const (
	githubAPIURL = "https://api.github.com"

	SourceGitHub         = "GitHub"
	SourceGitHubReleases = "GitHub Releases"
)

type githubRepo struct {
	FullName    string    `json:"full_name"`
	HTMLURL     string    `json:"html_url"`
	Description string    `json:"description"`
	Stars       int       `json:"stargazers_count"`
	Language    string    `json:"language"`
	UpdatedAt   time.Time `json:"updated_at"`
	Owner       struct {
		AvatarURL string `json:"avatar_url"`
	} `json:"owner"`
}

type githubSearchResponse struct {
	Items []githubRepo `json:"items"`
}

type githubRelease struct {
	Name      string `json:"name"`
	TagName   string `json:"tag_name"`
	HTMLURL   string `json:"html_url"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

func githubHeaders(token string) map[string]string {
	return map[string]string{
		"Accept":               "application/vnd.github+json",
		"Authorization":        "Bearer " + token,
		"X-GitHub-Api-Version": "2022-11-28",
	}
}

// GitHubSearch finds popular or active repositories about Claude.
type GitHubSearch struct {
	env        Env
	BaseURL    string
	Queries    []string
	PerQuery   int
	MinStars   int
	ActiveDays int
	Limit      int
}

var _ ports.Source = (*GitHubSearch)(nil)

// NewGitHubSearch balances Claude API and Claude Code queries.
func NewGitHubSearch(env Env) *GitHubSearch {
	return &GitHubSearch{
		env:     env,
		BaseURL: githubAPIURL,
		Queries: []string{
			"claude anthropic",
			"claude api",
			"anthropic sdk",
			"claude-code",
			"claude code cli",
			"mcp server anthropic",
			"model context protocol",
		},
		PerQuery:   10,
		MinStars:   10,
		ActiveDays: 90,
		Limit:      15,
	}
}

// Name identifies the source inside the registry.
func (g *GitHubSearch) Name() string { return "github-search" }

// Collect runs every query; a failing query does not stop the rest.
func (g *GitHubSearch) Collect(ctx context.Context) ([]domain.Item, error) {
	log := g.env.logger(g.Name())
	token := g.env.Credentials.GitHubToken
	if token == "" {
		log.Warn("GITHUB_TOKEN not set, skipping GitHub search")
		return nil, nil
	}

	now := g.env.now()
	seen := map[string]struct{}{}
	var out []domain.Item
	for _, query := range g.Queries {
		endpoint := fmt.Sprintf("%s/search/repositories?%s", strings.TrimSuffix(g.BaseURL, "/"), url.Values{
			"q":        {query},
			"sort":     {"stars"},
			"order":    {"desc"},
			"per_page": {fmt.Sprint(g.PerQuery)},
		}.Encode())

		var resp githubSearchResponse
		if err := g.env.getJSON(ctx, endpoint, githubHeaders(token), &resp); err != nil {
			log.Warn("github search failed", "query", query, "error", err)
			continue
		}

		for i, repo := range resp.Items {
			if i >= g.PerQuery {
				break
			}
			if _, dup := seen[repo.FullName]; dup {
				continue
			}
			seen[repo.FullName] = struct{}{}

			active := now.Sub(repo.UpdatedAt) < time.Duration(g.ActiveDays)*24*time.Hour
			if repo.Stars < g.MinStars && !active {
				continue
			}

			description := strings.TrimSpace(repo.Description)
			if description == "" {
				description = "No description provided"
			}
			updated := repo.UpdatedAt.UTC()
			out = append(out, domain.Item{
				Title:       repo.FullName,
				URL:         repo.HTMLURL,
				Description: description,
				Published:   updated.Format(time.RFC3339),
				PublishedAt: &updated,
				Source:      SourceGitHub,
				Category:    domain.CategoryGitHubProjects,
				Stars:       intPtr(repo.Stars),
				Language:    repo.Language,
				OwnerAvatar: repo.Owner.AvatarURL,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Stars > *out[j].Stars
	})
	if len(out) > g.Limit {
		out = out[:g.Limit]
	}

	log.Info("collected github projects", "count", len(out))
	return out, nil
}

// GitHubReleases tracks recent releases of a fixed set of repositories.
type GitHubReleases struct {
	env       Env
	BaseURL   string
	Repos     []string
	PerRepo   int
	Recency   collector.RecencyPolicy
	BodyLimit int
}

var _ ports.Source = (*GitHubReleases)(nil)

// NewGitHubReleases watches SDK and Claude Code repositories.
func NewGitHubReleases(env Env) *GitHubReleases {
	return &GitHubReleases{
		env:     env,
		BaseURL: githubAPIURL,
		Repos: []string{
			"anthropics/anthropic-sdk-python",
			"anthropics/anthropic-sdk-typescript",
			"anthropics/anthropic-cookbook",
			"anthropics/courses",
			"anthropics/claude-code",
			"modelcontextprotocol/servers",
			"modelcontextprotocol/typescript-sdk",
			"modelcontextprotocol/python-sdk",
		},
		PerRepo:   3,
		Recency:   collector.RecencyPolicy{Window: 30 * 24 * time.Hour, DropIfUnparseable: true},
		BodyLimit: 200,
	}
}

// Name identifies the source inside the registry.
func (g *GitHubReleases) Name() string { return "github-releases" }

// Collect returns releases published inside the recency window.
func (g *GitHubReleases) Collect(ctx context.Context) ([]domain.Item, error) {
	log := g.env.logger(g.Name())
	token := g.env.Credentials.GitHubToken
	if token == "" {
		log.Warn("GITHUB_TOKEN not set, skipping GitHub releases")
		return nil, nil
	}

	now := g.env.now()
	var out []domain.Item
	for _, repo := range g.Repos {
		endpoint := fmt.Sprintf("%s/repos/%s/releases?per_page=%d", strings.TrimSuffix(g.BaseURL, "/"), repo, g.PerRepo)

		var releases []githubRelease
		if err := g.env.getJSON(ctx, endpoint, githubHeaders(token), &releases); err != nil {
			log.Warn("could not fetch releases", "repo", repo, "error", err)
			continue
		}

		for i, rel := range releases {
			if i >= g.PerRepo {
				break
			}
			created := collector.ParseTime(rel.CreatedAt)
			if !g.Recency.Keep(created, now) {
				continue
			}
			name := strings.TrimSpace(rel.Name)
			if name == "" {
				name = rel.TagName
			}
			body := strings.TrimSpace(rel.Body)
			if body == "" {
				body = "No description"
			}
			out = append(out, domain.Item{
				Title:       fmt.Sprintf("%s: %s", repo, name),
				URL:         rel.HTMLURL,
				Description: collector.Clip(body, g.BodyLimit),
				Published:   rel.CreatedAt,
				PublishedAt: created,
				Source:      SourceGitHubReleases,
				Category:    domain.CategoryGitHubProjects,
			})
		}
	}

	log.Info("collected github releases", "count", len(out))
	return out, nil
}

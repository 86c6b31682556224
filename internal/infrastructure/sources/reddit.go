package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ClaudeDigest/internal/collector"
	"ClaudeDigest/internal/domain"
	"ClaudeDigest/internal/ports"
)

const (
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIURL   = "https://oauth.reddit.com"
	redditWebURL   = "https://www.reddit.com"
)

var errNoRedditCredentials = errors.New("reddit credentials not configured")

// RedditAuth obtains an application-only OAuth token and shares it
// between the Reddit adapters of a run.
type RedditAuth struct {
	env      Env
	TokenURL string

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewRedditAuth uses the client credentials found in env.
func NewRedditAuth(env Env) *RedditAuth {
	return &RedditAuth{env: env, TokenURL: redditTokenURL}
}

// Token returns the cached token or requests a new one.
func (r *RedditAuth) Token(ctx context.Context) (string, error) {
	creds := r.env.Credentials
	if creds.RedditClientID == "" || creds.RedditClientSecret == "" {
		return "", errNoRedditCredentials
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.env.now()
	if r.token != "" && now.Before(r.expires) {
		return r.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(creds.RedditClientID, creds.RedditClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.env.UserAgent)

	resp, err := r.env.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reddit auth: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit auth: %w", &StatusError{URL: r.TokenURL, Status: resp.Status, Code: resp.StatusCode})
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode reddit token: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("reddit auth: empty access token")
	}

	ttl := time.Duration(body.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	r.token = body.AccessToken
	r.expires = now.Add(ttl - time.Minute)
	return r.token, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Flair       string  `json:"link_flair_text"`
}

func (p redditPost) created() *time.Time {
	if p.CreatedUTC <= 0 {
		return nil
	}
	sec, frac := math.Modf(p.CreatedUTC)
	t := time.Unix(int64(sec), int64(frac*1e9)).UTC()
	return &t
}

// formatCreated leaves Published empty for posts without a timestamp.
func formatCreated(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func (p redditPost) link() string {
	if p.Permalink == "" {
		return ""
	}
	return redditWebURL + p.Permalink
}

func (p redditPost) engagement() domain.Engagement {
	return domain.Engagement{
		domain.SignalScore:    p.Score,
		domain.SignalComments: p.NumComments,
	}
}

// redditGet fetches one listing with the bearer token.
func redditGet(ctx context.Context, env Env, auth *RedditAuth, endpoint string) ([]redditPost, error) {
	token, err := auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := env.getJSON(ctx, endpoint, map[string]string{"Authorization": "Bearer " + token}, &listing); err != nil {
		return nil, err
	}
	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

var redditCategories = collector.CategoryRules{
	Rules: []collector.CategoryRule{
		{Match: collector.ContentHas("claude code", "terminal", "cli", "vscode"), Category: domain.CategoryClaudeCode},
		{Match: collector.FlairHas("tip", "guide", "tutorial"), Category: domain.CategoryTutorialsAndTips},
		{Match: collector.ContentHas("workflow", "use case", "project"), Category: domain.CategoryUseCases},
	},
	Fallback: domain.CategoryCommunityDiscussions,
}

// Reddit reads hot and new listings of AI subreddits.
type Reddit struct {
	env        Env
	auth       *RedditAuth
	BaseURL    string
	Subreddits []string
	Sorts      []string
	PerListing int
	Keywords   []string
	Unfiltered []string
	Recency    collector.RecencyPolicy
	MinScore   int
	MinCount   int
	Limit      int
}

var _ ports.Source = (*Reddit)(nil)

// NewReddit watches four subreddits over the last two weeks.
func NewReddit(env Env, auth *RedditAuth) *Reddit {
	return &Reddit{
		env:        env,
		auth:       auth,
		BaseURL:    redditAPIURL,
		Subreddits: []string{"ClaudeAI", "ChatGPTCoding", "LocalLLaMA", "artificial"},
		Sorts:      []string{"hot", "new"},
		PerListing: 50,
		Keywords: []string{
			"claude", "anthropic", "claude code", "sonnet", "opus", "haiku",
			"claude api", "mcp", "model context protocol",
		},
		Unfiltered: []string{"ClaudeAI"},
		Recency:    collector.RecencyPolicy{Window: 14 * 24 * time.Hour, DropIfUnparseable: true},
		MinScore:   5,
		MinCount:   3,
		Limit:      20,
	}
}

// Name identifies the source inside the registry.
func (r *Reddit) Name() string { return "reddit" }

func (r *Reddit) filtered(subreddit string) bool {
	for _, s := range r.Unfiltered {
		if s == subreddit {
			return false
		}
	}
	return true
}

// Collect skips subreddits that deny access and keeps going.
func (r *Reddit) Collect(ctx context.Context) ([]domain.Item, error) {
	log := r.env.logger(r.Name())
	if _, err := r.auth.Token(ctx); err != nil {
		if errors.Is(err, errNoRedditCredentials) {
			log.Warn("REDDIT_CLIENT_ID/REDDIT_CLIENT_SECRET not set, skipping Reddit")
			return nil, nil
		}
		return nil, err
	}

	now := r.env.now()
	seen := map[string]struct{}{}
	var out []domain.Item
	for _, subreddit := range r.Subreddits {
		for _, sorting := range r.Sorts {
			endpoint := fmt.Sprintf("%s/r/%s/%s?limit=%d", strings.TrimSuffix(r.BaseURL, "/"), subreddit, sorting, r.PerListing)
			posts, err := redditGet(ctx, r.env, r.auth, endpoint)
			if err != nil {
				var status *StatusError
				if errors.As(err, &status) && status.Code == http.StatusForbidden {
					log.Warn("access denied", "subreddit", subreddit)
				} else {
					log.Warn("reddit listing failed", "subreddit", subreddit, "sort", sorting, "error", err)
				}
				continue
			}

			for _, post := range posts {
				if _, dup := seen[post.ID]; dup {
					continue
				}
				seen[post.ID] = struct{}{}

				created := post.created()
				if !r.Recency.Keep(created, now) {
					continue
				}
				content := post.Title + " " + post.Selftext
				if r.filtered(subreddit) && !collector.MatchesAny(content, r.Keywords) {
					continue
				}
				if post.Score < r.MinScore && post.NumComments < r.MinCount {
					continue
				}

				summary := collector.Truncate(post.Selftext, 300)
				if summary == "" {
					summary = "Discussion in r/" + subreddit
				}
				out = append(out, domain.Item{
					Title:       post.Title,
					URL:         post.link(),
					Summary:     summary,
					Published:   formatCreated(created),
					PublishedAt: created,
					Source:      "Reddit r/" + subreddit,
					Category:    redditCategories.Classify(collector.NewSignals(content, post.Flair, nil)),
					Engagement:  post.engagement(),
					Author:      post.Author,
					Flair:       post.Flair,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return redditWeight(out[i]) > redditWeight(out[j])
	})
	if len(out) > r.Limit {
		out = out[:r.Limit]
	}

	log.Info("collected reddit posts", "count", len(out))
	return out, nil
}

func redditWeight(item domain.Item) int {
	return item.Engagement[domain.SignalScore] + 2*item.Engagement[domain.SignalComments]
}

// RedditTips searches r/ClaudeAI for tips and tutorials.
type RedditTips struct {
	env       Env
	auth      *RedditAuth
	BaseURL   string
	Subreddit string
	Queries   []string
	PerQuery  int
	Recency   collector.RecencyPolicy
	Limit     int
}

var _ ports.Source = (*RedditTips)(nil)

// NewRedditTips searches the last month and keeps the last two weeks.
func NewRedditTips(env Env, auth *RedditAuth) *RedditTips {
	return &RedditTips{
		env:       env,
		auth:      auth,
		BaseURL:   redditAPIURL,
		Subreddit: "ClaudeAI",
		Queries: []string{
			"flair:tip", "flair:guide", "title:tips",
			"title:how to", "title:tutorial", "title:best practices",
		},
		PerQuery: 25,
		Recency:  collector.RecencyPolicy{Window: 14 * 24 * time.Hour, DropIfUnparseable: true},
		Limit:    10,
	}
}

// Name identifies the source inside the registry.
func (r *RedditTips) Name() string { return "reddit-tips" }

// Collect returns the highest scored tip posts.
func (r *RedditTips) Collect(ctx context.Context) ([]domain.Item, error) {
	log := r.env.logger(r.Name())
	if _, err := r.auth.Token(ctx); err != nil {
		if errors.Is(err, errNoRedditCredentials) {
			log.Warn("REDDIT_CLIENT_ID/REDDIT_CLIENT_SECRET not set, skipping Reddit tips")
			return nil, nil
		}
		return nil, err
	}

	now := r.env.now()
	seen := map[string]struct{}{}
	var out []domain.Item
	for _, query := range r.Queries {
		endpoint := fmt.Sprintf("%s/r/%s/search?%s", strings.TrimSuffix(r.BaseURL, "/"), r.Subreddit, url.Values{
			"q":           {query},
			"restrict_sr": {"true"},
			"sort":        {"relevance"},
			"limit":       {strconv.Itoa(r.PerQuery)},
			"t":           {"month"},
		}.Encode())

		posts, err := redditGet(ctx, r.env, r.auth, endpoint)
		if err != nil {
			log.Warn("reddit search failed", "query", query, "error", err)
			continue
		}

		for _, post := range posts {
			if _, dup := seen[post.ID]; dup {
				continue
			}
			seen[post.ID] = struct{}{}

			created := post.created()
			if !r.Recency.Keep(created, now) {
				continue
			}
			out = append(out, domain.Item{
				Title:       post.Title,
				URL:         post.link(),
				Summary:     collector.Clip(post.Selftext, 200),
				Published:   formatCreated(created),
				PublishedAt: created,
				Source:      "Reddit r/" + r.Subreddit,
				Category:    domain.CategoryTutorialsAndTips,
				Engagement:  post.engagement(),
				Author:      post.Author,
				Flair:       post.Flair,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Engagement[domain.SignalScore] > out[j].Engagement[domain.SignalScore]
	})
	if len(out) > r.Limit {
		out = out[:r.Limit]
	}

	log.Info("collected reddit tips", "count", len(out))
	return out, nil
}

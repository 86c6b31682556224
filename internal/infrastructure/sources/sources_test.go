package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ClaudeDigest/internal/domain"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func testEnv(creds Credentials) Env {
	env := NewEnv(nil, 5*time.Second, "", nil, creds)
	env.Now = func() time.Time { return testNow }
	return env
}

func rfc(t time.Time) string { return t.Format(time.RFC3339) }

func TestAnthropicNewsFiltersAndTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("claude ", 60)
	feed := fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>News</title>
<item><title>Introducing Claude Sonnet</title><link>https://www.anthropic.com/news/sonnet</link><description>%s</description><pubDate>%s</pubDate></item>
<item><title>Company update</title><link>https://www.anthropic.com/news/company</link><description>hiring</description><pubDate>%s</pubDate></item>
<item><title>Introducing Claude Sonnet</title><link>https://www.anthropic.com/news/sonnet</link><description>dup</description></item>
</channel></rss>`, long, testNow.Add(-24*time.Hour).Format(time.RFC1123Z), testNow.Format(time.RFC1123Z))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	src := NewAnthropicNews(testEnv(Credentials{}))
	src.FeedURL = srv.URL

	items, err := src.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.Category != domain.CategoryOfficialUpdates || it.Source != SourceAnthropicNews {
		t.Fatalf("unexpected classification: %+v", it)
	}
	if !strings.HasSuffix(it.Summary, "...") || len([]rune(it.Summary)) != 303 {
		t.Fatalf("expected truncated summary, got %d runes", len([]rune(it.Summary)))
	}
	if it.PublishedAt == nil {
		t.Fatalf("expected parsed publication time")
	}
}

func TestAnthropicDocsRequiresHeading(t *testing.T) {
	t.Parallel()

	var body atomic.Value
	body.Store(`<html><body><h1>Release notes</h1><h2>October 2026</h2></body></html>`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body.Load().(string)))
	}))
	defer srv.Close()

	src := NewAnthropicDocs(testEnv(Credentials{}))
	src.URL = srv.URL

	items, err := src.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(items) != 1 || !strings.Contains(items[0].Summary, "October 2026") {
		t.Fatalf("unexpected items: %+v", items)
	}

	body.Store(`<html><body><p>maintenance</p></body></html>`)
	items, err = src.Collect(context.Background())
	if err != nil || len(items) != 0 {
		t.Fatalf("expected no items without heading, got %d (%v)", len(items), err)
	}
}

func TestGitHubSourcesSkipWithoutToken(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	env := testEnv(Credentials{})
	search := NewGitHubSearch(env)
	search.BaseURL = srv.URL
	releases := NewGitHubReleases(env)
	releases.BaseURL = srv.URL

	for _, collect := range []func(context.Context) ([]domain.Item, error){search.Collect, releases.Collect} {
		items, err := collect(context.Background())
		if err != nil || len(items) != 0 {
			t.Fatalf("expected empty result, got %d items (%v)", len(items), err)
		}
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no requests without token")
	}
}

func TestGitHubSearchFiltersAndSorts(t *testing.T) {
	t.Parallel()

	recent := rfc(testNow.Add(-48 * time.Hour))
	stale := rfc(testNow.Add(-200 * 24 * time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("q") == "claude api" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprintf(w, `{"items":[
			{"full_name":"a/small-active","html_url":"https://github.com/a/small-active","stargazers_count":3,"updated_at":%q},
			{"full_name":"b/popular","html_url":"https://github.com/b/popular","description":"MCP server","stargazers_count":900,"updated_at":%q,"owner":{"avatar_url":"https://avatars.example/b"}},
			{"full_name":"c/small-stale","html_url":"https://github.com/c/small-stale","stargazers_count":2,"updated_at":%q}
		]}`, recent, stale, stale)
	}))
	defer srv.Close()

	src := NewGitHubSearch(testEnv(Credentials{GitHubToken: "tok"}))
	src.BaseURL = srv.URL

	items, err := src.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 repos, got %d", len(items))
	}
	if items[0].Title != "b/popular" || *items[0].Stars != 900 || items[0].OwnerAvatar == "" {
		t.Fatalf("expected popular repo first, got %+v", items[0])
	}
	if items[1].Description != "No description provided" {
		t.Fatalf("expected default description, got %q", items[1].Description)
	}
}

func TestGitHubReleasesRecency(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"name":"","tag_name":"v1.2.0","html_url":"https://github.com/x/releases/v1.2.0","body":%q,"created_at":%q},
			{"name":"old","tag_name":"v0.1","html_url":"https://github.com/x/releases/v0.1","created_at":%q},
			{"name":"undated","tag_name":"v0.0","html_url":"https://github.com/x/releases/v0.0","created_at":""}
		]`, strings.Repeat("x", 500), rfc(testNow.Add(-time.Hour)), rfc(testNow.Add(-60*24*time.Hour)))
	}))
	defer srv.Close()

	src := NewGitHubReleases(testEnv(Credentials{GitHubToken: "tok"}))
	src.BaseURL = srv.URL
	src.Repos = []string{"anthropics/claude-code"}

	items, err := src.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 release, got %d", len(items))
	}
	if items[0].Title != "anthropics/claude-code: v1.2.0" || len(items[0].Description) != 200 {
		t.Fatalf("unexpected release item: %q / %d", items[0].Title, len(items[0].Description))
	}
}

func TestBlogsKeepUndatedAndSkipBrokenFeeds(t *testing.T) {
	t.Parallel()

	atom := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>Blog</title>
<entry><title>Notes on Claude</title><link href="https://blog.example/claude"/><summary>&lt;p&gt;Trying Anthropic models&lt;/p&gt;</summary><updated>%s</updated></entry>
<entry><title>Old Claude post</title><link href="https://blog.example/old"/><summary>claude</summary><updated>%s</updated></entry>
<entry><title>Unrelated</title><link href="https://blog.example/other"/><summary>rust</summary><updated>%s</updated></entry>
</feed>`, rfc(testNow.Add(-24*time.Hour)), rfc(testNow.Add(-30*24*time.Hour)), rfc(testNow))
	rss := `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>
<item><title>Anthropic raises</title><link>https://news.example/a</link><description>funding</description></item>
</channel></rss>`

	mux := http.NewServeMux()
	mux.HandleFunc("/atom", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(atom)) })
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(rss)) })
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewBlogs(testEnv(Credentials{}), []Feed{
		{URL: srv.URL + "/atom", Source: "Example Blog"},
		{URL: srv.URL + "/broken", Source: "Broken"},
		{URL: srv.URL + "/rss", Source: "Example News"},
	})

	items, err := src.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 posts, got %d: %+v", len(items), items)
	}
	if items[0].Source != "Example Blog" || items[0].Summary != "Trying Anthropic models" {
		t.Fatalf("unexpected first post: %+v", items[0])
	}
	if items[1].PublishedAt != nil || items[1].Category != domain.CategoryBlogPosts {
		t.Fatalf("expected undated blog post, got %+v", items[1])
	}
}

func TestHackerNewsEngagementAndOrder(t *testing.T) {
	t.Parallel()

	var lastFilter atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastFilter.Store(r.URL.Query().Get("numericFilters"))
		_, _ = w.Write([]byte(`{"hits":[
			{"objectID":"1","title":"Claude 5 launch","url":"https://example.com/launch","points":120,"num_comments":40,"created_at":"2026-10-16T10:00:00.000Z"},
			{"objectID":"2","title":"Ask HN: Claude API","url":"","points":2,"num_comments":4,"created_at":"2026-10-15T10:00:00.000Z"},
			{"objectID":"3","title":"Low signal","url":"https://example.com/low","points":1,"num_comments":0,"created_at":"2026-10-15T10:00:00.000Z"}
		]}`))
	}))
	defer srv.Close()

	src := NewHackerNews(testEnv(Credentials{}))
	src.BaseURL = srv.URL

	items, err := src.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(items))
	}
	if items[0].Summary != "120 points, 40 comments on HN" || items[0].HNURL != hnItemURL+"1" {
		t.Fatalf("unexpected first story: %+v", items[0])
	}
	if items[1].URL != hnItemURL+"2" {
		t.Fatalf("expected HN link fallback, got %q", items[1].URL)
	}
	want := fmt.Sprintf("created_at_i>%d", testNow.Add(-14*24*time.Hour).Unix())
	if got := lastFilter.Load(); got != want {
		t.Fatalf("expected filter %q, got %v", want, got)
	}
}

func TestHackerNewsClaudeCodeCollapsesComments(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tags") != "(story,comment)" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"hits":[
			{"objectID":"10","title":"Claude Code in the terminal","points":30},
			{"objectID":"11","story_title":"Claude Code in the terminal","story_id":10,"points":null},
			{"objectID":"12","story_id":99}
		]}`))
	}))
	defer srv.Close()

	src := NewHackerNewsClaudeCode(testEnv(Credentials{}))
	src.BaseURL = srv.URL

	items, err := src.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(items))
	}
	if items[1].Title != "HN Discussion" || items[1].URL != hnItemURL+"99" {
		t.Fatalf("unexpected comment resolution: %+v", items[1])
	}
	if items[0].Category != domain.CategoryClaudeCode {
		t.Fatalf("expected claude_code category, got %s", items[0].Category)
	}
}

type redditChild struct {
	Data map[string]any `json:"data"`
}

func redditListingJSON(posts ...map[string]any) []byte {
	var body struct {
		Data struct {
			Children []redditChild `json:"children"`
		} `json:"data"`
	}
	for _, p := range posts {
		body.Data.Children = append(body.Data.Children, redditChild{Data: p})
	}
	raw, _ := json.Marshal(body)
	return raw
}

func TestRedditSkipsWithoutCredentials(t *testing.T) {
	t.Parallel()

	env := testEnv(Credentials{})
	auth := NewRedditAuth(env)
	for _, src := range []interface {
		Collect(context.Context) ([]domain.Item, error)
	}{NewReddit(env, auth), NewRedditTips(env, auth)} {
		items, err := src.Collect(context.Background())
		if err != nil || len(items) != 0 {
			t.Fatalf("expected empty result, got %d items (%v)", len(items), err)
		}
	}
}

func TestRedditClassifiesAndSharesToken(t *testing.T) {
	t.Parallel()

	fresh := float64(testNow.Add(-24 * time.Hour).Unix())
	old := float64(testNow.Add(-30 * 24 * time.Hour).Unix())

	var tokens atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		tokens.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"abc","expires_in":3600}`))
	})
	mux.HandleFunc("/r/ClaudeAI/hot", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(redditListingJSON(
			map[string]any{"id": "a", "title": "My Claude Code setup", "permalink": "/r/ClaudeAI/a", "score": 50, "num_comments": 10, "created_utc": fresh},
			map[string]any{"id": "b", "title": "Prompting advice", "selftext": "", "permalink": "/r/ClaudeAI/b", "score": 8, "num_comments": 1, "created_utc": fresh, "link_flair_text": "Tips"},
			map[string]any{"id": "c", "title": "Ancient thread", "permalink": "/r/ClaudeAI/c", "score": 500, "num_comments": 100, "created_utc": old},
		))
	})
	mux.HandleFunc("/r/LocalLLaMA/hot", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(redditListingJSON(
			map[string]any{"id": "d", "title": "Llama vs Sonnet", "permalink": "/r/LocalLLaMA/d", "score": 40, "num_comments": 5, "created_utc": fresh},
			map[string]any{"id": "e", "title": "New GGUF quant", "permalink": "/r/LocalLLaMA/e", "score": 400, "num_comments": 50, "created_utc": fresh},
		))
	})
	mux.HandleFunc("/r/artificial/hot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/r/ClaudeAI/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(redditListingJSON(
			map[string]any{"id": "t1", "title": "Tips for long contexts", "selftext": strings.Repeat("s", 400), "permalink": "/r/ClaudeAI/t1", "score": 12, "num_comments": 2, "created_utc": fresh},
		))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	env := testEnv(Credentials{RedditClientID: "id", RedditClientSecret: "secret"})
	auth := NewRedditAuth(env)
	auth.TokenURL = srv.URL + "/token"

	reddit := NewReddit(env, auth)
	reddit.BaseURL = srv.URL
	reddit.Subreddits = []string{"ClaudeAI", "LocalLLaMA", "artificial"}
	reddit.Sorts = []string{"hot"}

	items, err := reddit.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 posts, got %d: %+v", len(items), items)
	}
	if items[0].Category != domain.CategoryClaudeCode || items[0].URL != "https://www.reddit.com/r/ClaudeAI/a" {
		t.Fatalf("unexpected top post: %+v", items[0])
	}
	if items[1].Source != "Reddit r/LocalLLaMA" || items[1].Category != domain.CategoryCommunityDiscussions {
		t.Fatalf("unexpected second post: %+v", items[1])
	}
	if items[2].Category != domain.CategoryTutorialsAndTips || items[2].Summary != "Discussion in r/ClaudeAI" {
		t.Fatalf("unexpected flair classification: %+v", items[2])
	}

	tips := NewRedditTips(env, auth)
	tips.BaseURL = srv.URL
	tipItems, err := tips.Collect(context.Background())
	if err != nil {
		t.Fatalf("tips Collect returned error: %v", err)
	}
	if len(tipItems) != 1 || len(tipItems[0].Summary) != 200 {
		t.Fatalf("unexpected tips: %+v", tipItems)
	}
	if tokens.Load() != 1 {
		t.Fatalf("expected one token request, got %d", tokens.Load())
	}
}

func TestDevToCategoriesAndFilter(t *testing.T) {
	t.Parallel()

	published := rfc(testNow.Add(-24 * time.Hour))
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("tag") {
		case "claude":
			fmt.Fprintf(w, `[
				{"id":1,"title":"Getting started","description":"A tutorial for the API","url":"https://dev.to/1","published_at":%q,"public_reactions_count":5,"comments_count":1,"tag_list":["claude"],"user":{"name":"Ann"}},
				{"id":2,"title":"Shipping with Claude Code","description":"terminal life","url":"https://dev.to/2","published_at":%q,"public_reactions_count":30,"comments_count":0,"tag_list":[]},
				{"id":3,"title":"Old news","description":"","url":"https://dev.to/3","published_at":"2025-01-01T00:00:00Z","public_reactions_count":99,"comments_count":9,"tag_list":[]}
			]`, published, published)
		case "ai":
			fmt.Fprintf(w, `[
				{"id":4,"title":"GPU prices","description":"hardware","url":"https://dev.to/4","published_at":%q,"public_reactions_count":80,"comments_count":10,"tag_list":["ai"]},
				{"id":5,"title":"Sonnet impressions","description":"thoughts","url":"https://dev.to/5","published_at":"","public_reactions_count":1,"comments_count":0,"tag_list":["guide"]}
			]`, published)
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewDevTo(testEnv(Credentials{}))
	src.BaseURL = srv.URL

	items, err := src.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 articles, got %d: %+v", len(items), items)
	}
	if items[0].URL != "https://dev.to/2" || items[0].Category != domain.CategoryClaudeCode || items[0].Author != "Unknown" {
		t.Fatalf("unexpected first article: %+v", items[0])
	}
	if items[1].Category != domain.CategoryTutorialsAndTips || items[1].Author != "Ann" {
		t.Fatalf("unexpected second article: %+v", items[1])
	}
	if items[2].URL != "https://dev.to/5" || items[2].Category != domain.CategoryTutorialsAndTips {
		t.Fatalf("expected tag-based tutorial, got %+v", items[2])
	}
}

func TestRedditLenientRecencyKeepsUndatedPosts(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"abc","expires_in":3600}`))
	})
	mux.HandleFunc("/r/ClaudeAI/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(redditListingJSON(
			map[string]any{"id": "u", "title": "Claude Code hooks walkthrough", "permalink": "/r/ClaudeAI/u", "score": 30, "num_comments": 4},
		))
	})
	mux.HandleFunc("/r/ClaudeAI/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(redditListingJSON(
			map[string]any{"id": "v", "title": "Tips for subagents", "permalink": "/r/ClaudeAI/v", "score": 9},
		))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	env := testEnv(Credentials{RedditClientID: "id", RedditClientSecret: "secret"})
	auth := NewRedditAuth(env)
	auth.TokenURL = srv.URL + "/token"

	reddit := NewReddit(env, auth)
	reddit.BaseURL = srv.URL
	reddit.Subreddits = []string{"ClaudeAI"}
	reddit.Sorts = []string{"new"}
	reddit.Recency.DropIfUnparseable = false

	items, err := reddit.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(items) != 1 || items[0].Published != "" || items[0].PublishedAt != nil {
		t.Fatalf("expected one undated post, got %+v", items)
	}

	tips := NewRedditTips(env, auth)
	tips.BaseURL = srv.URL
	tips.Queries = []string{"tips"}
	tips.Recency.DropIfUnparseable = false

	items, err = tips.Collect(context.Background())
	if err != nil {
		t.Fatalf("tips Collect returned error: %v", err)
	}
	if len(items) != 1 || items[0].Published != "" {
		t.Fatalf("expected one undated tip, got %+v", items)
	}
}

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const defaultUserAgent = "ClaudeDailyDigest/1.0"

// Credentials carries secrets for sources that need authentication.
// Empty values disable the corresponding sources for the run.
type Credentials struct {
	GitHubToken        string
	RedditClientID     string
	RedditClientSecret string
}

// Env is the per-run context shared by every source adapter.
type Env struct {
	Client      *http.Client
	UserAgent   string
	Logger      *slog.Logger
	Now         func() time.Time
	Credentials Credentials
}

// NewEnv fills defaults for a nil client, empty user agent, logger or clock.
func NewEnv(client *http.Client, timeout time.Duration, userAgent string, logger *slog.Logger, creds Credentials) Env {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Env{
		Client:      client,
		UserAgent:   userAgent,
		Logger:      logger,
		Now:         time.Now,
		Credentials: creds,
	}
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e Env) logger(source string) *slog.Logger {
	if e.Logger == nil {
		return slog.Default().With("source", source)
	}
	return e.Logger.With("source", source)
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %s", e.URL, e.Status)
}

func (e Env) do(ctx context.Context, method, rawURL string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{URL: rawURL, Status: resp.Status, Code: resp.StatusCode}
	}
	return resp, nil
}

func (e Env) getJSON(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	resp, err := e.do(ctx, http.MethodGet, rawURL, nil, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (e Env) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	resp, err := e.do(ctx, http.MethodGet, rawURL, nil, map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func (e Env) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	resp, err := e.do(ctx, http.MethodGet, feedURL, nil, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// htmlToText flattens markup found in feed summaries to plain text.
func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func feedItemTime(item *gofeed.Item) *time.Time {
	switch {
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		return &t
	case item.UpdatedParsed != nil:
		t := item.UpdatedParsed.UTC()
		return &t
	default:
		return nil
	}
}

func feedItemPublished(item *gofeed.Item) string {
	if item.Published != "" {
		return item.Published
	}
	return item.Updated
}

func feedItemSummary(item *gofeed.Item) string {
	raw := item.Description
	if raw == "" {
		raw = item.Content
	}
	return htmlToText(raw)
}

func intPtr(v int) *int { return &v }

package enrichment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"ClaudeDigest/internal/domain"
)

func TestSummarizeKeepsShortText(t *testing.T) {
	t.Parallel()

	text := "This is a line long enough to keep.\nShort\nSubscribe to our newsletter today please\n"
	if got := Summarize(text, 500); got != "This is a line long enough to keep." {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestSummarizeCutsAtSentence(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("word ", 90) + "end. " + strings.Repeat("more ", 100)
	got := Summarize(text, 500)
	if !strings.HasSuffix(got, "end....") {
		t.Fatalf("expected cut after sentence end, got suffix %q", got[len(got)-10:])
	}
	if utf8.RuneCountInString(got) != 457 {
		t.Fatalf("unexpected length %d", utf8.RuneCountInString(got))
	}
}

func TestSummarizeHardCut(t *testing.T) {
	t.Parallel()

	got := Summarize(strings.Repeat("x", 800), 500)
	if got != strings.Repeat("x", 501)+"..." {
		t.Fatalf("unexpected hard cut of length %d", len(got))
	}
}

func TestSummarizePrefersIdeographicStop(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("字", 450) + "。" + strings.Repeat("字", 80) + ". " + strings.Repeat("字", 300)
	got := Summarize(text, 500)
	want := strings.Repeat("字", 450) + "。..."
	if got != want {
		t.Fatalf("expected cut at ideographic full stop, got %d runes", utf8.RuneCountInString(got))
	}
}

func TestFallbackImage(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://www.github.com/anthropics/claude-code": "https://github.githubassets.com/images/modules/logos_page/GitHub-Mark.png",
		"https://old.reddit.com/r/ClaudeAI/x":           "https://www.redditstatic.com/desktop2x/img/favicon/android-icon-192x192.png",
		"https://www.example.org/post":                  "https://www.google.com/s2/favicons?domain=example.org&sz=128",
		"not a url":                                     "",
	}
	for in, want := range cases {
		if got := FallbackImage(in); got != want {
			t.Fatalf("%s: expected %q, got %q", in, want, got)
		}
	}
}

type stubResolver struct {
	images map[string]string
}

func (s stubResolver) Resolve(_ context.Context, pageURL string) (string, error) {
	img, ok := s.images[pageURL]
	if !ok {
		return "", errors.New("no page")
	}
	return img, nil
}

type stubExtractor struct {
	texts map[string]string
}

func (s stubExtractor) Extract(_ context.Context, item domain.Item) (string, error) {
	text, ok := s.texts[item.URL]
	if !ok {
		return "", errors.New("timeout")
	}
	return text, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryCache) Get(_ context.Context, url string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[url]
	return s, ok, nil
}

func (m *memoryCache) Put(_ context.Context, url, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[url] = summary
	return nil
}

func (m *memoryCache) Sweep(context.Context, time.Duration) (int64, error) { return 0, nil }

func TestEnrichNeverRegresses(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("A detailed sentence about Claude. ", 30)
	existing := strings.Repeat("e", 150)
	items := []domain.Item{
		{URL: "https://a.example/has-image", ImageURL: "https://img.example/original.png", Summary: strings.Repeat("s", 250)},
		{URL: "https://github.com/o/r", OwnerAvatar: "https://avatars.example/o"},
		{URL: "https://unknown.example/post", Summary: existing},
		{URL: "https://b.example/article", Summary: "short"},
	}

	resolver := stubResolver{images: map[string]string{
		"https://a.example/has-image": "https://img.example/other.png",
		"https://b.example/article":   "https://img.example/b.png",
	}}
	extractor := stubExtractor{texts: map[string]string{
		"https://a.example/has-image":  long,
		"https://unknown.example/post": "Tiny but valid line here.",
		"https://b.example/article":    long,
	}}
	cache := &memoryCache{data: map[string]string{}}

	p := NewPipeline(resolver, extractor, cache, Options{ImageWorkers: 2, SummaryWorkers: 2}, nil)
	out := p.Enrich(context.Background(), items)

	if out[0].ImageURL != "https://img.example/original.png" || out[0].Summary != items[0].Summary {
		t.Fatalf("existing image or long summary was replaced: %+v", out[0])
	}
	if out[1].ImageURL != "https://avatars.example/o" {
		t.Fatalf("expected owner avatar, got %q", out[1].ImageURL)
	}
	if out[2].ImageURL != "https://www.google.com/s2/favicons?domain=unknown.example&sz=128" {
		t.Fatalf("expected favicon fallback, got %q", out[2].ImageURL)
	}
	if out[2].Summary != existing {
		t.Fatalf("shorter extraction must not replace summary, got %q", out[2].Summary)
	}
	if out[3].ImageURL != "https://img.example/b.png" {
		t.Fatalf("expected page image, got %q", out[3].ImageURL)
	}
	if !strings.HasSuffix(out[3].Summary, "...") || len(out[3].Summary) <= len("short") {
		t.Fatalf("expected extracted summary, got %q", out[3].Summary)
	}
	for i := range items {
		if len(out[i].Summary) < len(items[i].Summary) {
			t.Fatalf("item %d summary regressed", i)
		}
	}
	if items[3].Summary != "short" {
		t.Fatalf("input slice must not be mutated")
	}

	cached, ok, _ := cache.Get(context.Background(), "https://b.example/article")
	if !ok || cached != out[3].Summary {
		t.Fatalf("expected summary to be cached")
	}

	again := NewPipeline(nil, stubExtractor{}, cache, Options{}, nil).Enrich(context.Background(), []domain.Item{
		{URL: "https://b.example/article", ImageURL: "x"},
	})
	if again[0].Summary != cached {
		t.Fatalf("expected cached summary on second run, got %q", again[0].Summary)
	}
}

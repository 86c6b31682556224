package enrich

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"ClaudeDigest/internal/domain"
	"ClaudeDigest/internal/ports"
)

const (
	githubAPIURL    = "https://api.github.com"
	defaultMaxChars = 8000
)

// noiseSelectors are stripped before looking for the main content.
var noiseSelectors = strings.Join([]string{
	"script", "style", "noscript", "iframe", "svg", "form",
	"nav", "header", "footer", "aside",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
	"[aria-hidden=true]",
	".comments", "#comments", ".share", ".social", ".newsletter", ".advertisement",
}, ", ")

// contentRoots are candidate containers, most specific first.
var contentRoots = []string{"article", "main", "[role=main]", "#content", ".post-content", ".entry-content", "body"}

const blockSelectors = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td"

// Extractor pulls readable text from the page behind an item. GitHub
// repositories are read through the README API instead of the HTML page.
type Extractor struct {
	fetcher     Fetcher
	GitHubAPI   string
	GitHubToken string
	MaxChars    int
}

var _ ports.ContentExtractor = (*Extractor)(nil)

func NewExtractor(f Fetcher, githubToken string) *Extractor {
	return &Extractor{
		fetcher:     f,
		GitHubAPI:   githubAPIURL,
		GitHubToken: githubToken,
		MaxChars:    defaultMaxChars,
	}
}

// Extract returns newline-separated text blocks, or "" when nothing readable
// was found.
func (e *Extractor) Extract(ctx context.Context, item domain.Item) (string, error) {
	if owner, repo, ok := githubRepo(item.URL); ok {
		return e.readme(ctx, owner, repo)
	}

	doc, err := e.fetcher.document(ctx, item.URL)
	if err != nil {
		return "", err
	}
	doc.Find(noiseSelectors).Remove()

	if text := articleText(doc, item.URL); text != "" {
		return clip(text, e.MaxChars), nil
	}
	return clip(readableText(doc), e.MaxChars), nil
}

// articleText runs readability over the cleaned page and keeps one line per
// block of the article it finds. It returns "" when readability fails.
func articleText(doc *goquery.Document, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || len(doc.Nodes) == 0 {
		return ""
	}
	html, err := doc.Html()
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return ""
	}

	content, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return ""
	}
	return strings.Join(blockLines(content.Selection), "\n")
}

func (e *Extractor) readme(ctx context.Context, owner, repo string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/readme", strings.TrimSuffix(e.GitHubAPI, "/"), owner, repo)
	headers := map[string]string{"Accept": "application/vnd.github.raw"}
	if e.GitHubToken != "" {
		headers["Authorization"] = "Bearer " + e.GitHubToken
	}

	resp, err := e.fetcher.get(ctx, endpoint, headers)
	if err != nil {
		return "", fmt.Errorf("fetch readme %s/%s: %w", owner, repo, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, int64(e.MaxChars)*4))
	if err != nil {
		return "", fmt.Errorf("read readme: %w", err)
	}
	return clip(string(raw), e.MaxChars), nil
}

// githubRepo recognizes github.com/<owner>/<repo> links, including deeper
// paths such as release pages.
func githubRepo(raw string) (string, string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "github.com" {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// readableText picks the densest content root and keeps one line per block.
// Noise must already be stripped.
func readableText(doc *goquery.Document) string {
	var best []string
	bestLen := 0
	for _, sel := range contentRoots {
		doc.Find(sel).Each(func(_ int, root *goquery.Selection) {
			lines := blockLines(root)
			n := 0
			for _, l := range lines {
				n += len(l)
			}
			if n > bestLen {
				best, bestLen = lines, n
			}
		})
		if bestLen > 0 && sel != "body" {
			break
		}
	}
	return strings.Join(best, "\n")
}

func blockLines(root *goquery.Selection) []string {
	var lines []string
	root.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		// nested blocks are visited on their own
		if s.Find(blockSelectors).Length() > 0 && goquery.NodeName(s) != "pre" {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		if text := strings.Join(strings.Fields(root.Text()), " "); text != "" {
			lines = append(lines, text)
		}
	}
	return lines
}

func clip(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

package enrich

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ClaudeDigest/internal/ports"
)

// imageSelectors are tried in order; the first usable value wins.
var imageSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="og:image"]`,
	`meta[name="twitter:image"]`,
	`meta[property="twitter:image"]`,
	`meta[name="twitter:image:src"]`,
}

// OGResolver reads Open Graph and Twitter card images from a page.
type OGResolver struct {
	fetcher Fetcher
}

var _ ports.ImageResolver = (*OGResolver)(nil)

func NewOGResolver(f Fetcher) *OGResolver {
	return &OGResolver{fetcher: f}
}

// Resolve returns "" when the page declares no usable image.
func (r *OGResolver) Resolve(ctx context.Context, pageURL string) (string, error) {
	doc, err := r.fetcher.document(ctx, pageURL)
	if err != nil {
		return "", err
	}

	for _, sel := range imageSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			content, _ := s.Attr("content")
			content = strings.TrimSpace(content)
			if usableImage(content) {
				found = content
				return false
			}
			return true
		})
		if found != "" {
			return found, nil
		}
	}
	return "", nil
}

// usableImage rejects relative URLs and tracking pixels.
func usableImage(u string) bool {
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	return !strings.Contains(lower, "pixel") && !strings.Contains(u, "1x1")
}

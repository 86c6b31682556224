package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// Category is the closed set of digest sections an item can belong to.
type Category string

const (
	CategoryOfficialUpdates      Category = "official_updates"
	CategoryGitHubProjects       Category = "github_projects"
	CategoryBlogPosts            Category = "blog_posts"
	CategoryCommunityDiscussions Category = "community_discussions"
	CategoryClaudeCode           Category = "claude_code"
	CategoryTutorialsAndTips     Category = "tutorials_and_tips"
	CategoryUseCases             Category = "use_cases"
)

// Categories lists every valid category in digest order.
var Categories = []Category{
	CategoryTutorialsAndTips,
	CategoryUseCases,
	CategoryClaudeCode,
	CategoryOfficialUpdates,
	CategoryCommunityDiscussions,
	CategoryGitHubProjects,
	CategoryBlogPosts,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Engagement holds per-source numeric signals such as points or comments.
// Keys differ by source; absent keys read as zero.
type Engagement map[string]int

const (
	SignalPoints    = "points"
	SignalScore     = "score"
	SignalReactions = "reactions"
	SignalComments  = "comments"
)

// Signal returns the first non-zero of points, score and reactions.
func (e Engagement) Signal() int {
	for _, key := range []string{SignalPoints, SignalScore, SignalReactions} {
		if v := e[key]; v != 0 {
			return v
		}
	}
	return 0
}

// Comments returns the comment count, zero when unknown.
func (e Engagement) Comments() int {
	return e[SignalComments]
}

// Item is the canonical content record produced by every source adapter.
type Item struct {
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	Summary      string     `json:"summary"`
	Description  string     `json:"description,omitempty"`
	Published    string     `json:"published,omitempty"`
	PublishedAt  *time.Time `json:"-"`
	Source       string     `json:"source"`
	Category     Category   `json:"category"`
	Engagement   Engagement `json:"engagement,omitempty"`
	Stars        *int       `json:"stars,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	QualityScore *int       `json:"quality_score,omitempty"`

	HNURL       string   `json:"hn_url,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Flair       string   `json:"flair,omitempty"`
	Language    string   `json:"language,omitempty"`
	OwnerAvatar string   `json:"owner_avatar,omitempty"`
}

// Fingerprint returns the deduplication identity of the item.
func (i Item) Fingerprint() string {
	return Fingerprint(i.URL, i.Title)
}

// Fingerprint hashes the normalized url and title. Items with the same
// normalized pair share a fingerprint regardless of source or category.
func Fingerprint(rawURL, title string) string {
	sum := sha256.Sum256([]byte(NormalizeURL(rawURL) + "\x00" + normalizeTitle(title)))
	return hex.EncodeToString(sum[:])
}

// NormalizeURL lowercases scheme and host, drops the fragment and a trailing
// slash. Unparseable input is only trimmed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
	} else {
		u.Path = ""
	}
	return u.String()
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// LedgerEntry is a persisted record of a previously seen item.
type LedgerEntry struct {
	Fingerprint string
	URL         string
	Title       string
	Category    Category
	SeenAt      time.Time
}

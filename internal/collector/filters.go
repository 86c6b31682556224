package collector

import (
	"strings"
	"time"

	"ClaudeDigest/internal/domain"
)

// MatchesAny reports whether any keyword occurs in text, ignoring case.
func MatchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// RecencyPolicy bounds how old an item may be. Sources with reliable date
// metadata drop undated items; sources where dates are rare keep them.
type RecencyPolicy struct {
	Window            time.Duration
	DropIfUnparseable bool
}

// Keep decides whether an item published at the given time survives.
// A nil time means the date was missing or could not be parsed.
func (p RecencyPolicy) Keep(published *time.Time, now time.Time) bool {
	if published == nil {
		return !p.DropIfUnparseable
	}
	if p.Window <= 0 {
		return true
	}
	return now.Sub(*published) < p.Window
}

// ParseTime tries the layouts used by the upstream APIs and feeds.
func ParseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		time.RFC1123Z,
		time.RFC1123,
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Signals is the text a category rule inspects. Fields are lowercase.
type Signals struct {
	Content string
	Flair   string
	Tags    []string
}

// NewSignals lowercases the inputs once for rule evaluation.
func NewSignals(content, flair string, tags []string) Signals {
	lowered := make([]string, 0, len(tags))
	for _, t := range tags {
		lowered = append(lowered, strings.ToLower(t))
	}
	return Signals{
		Content: strings.ToLower(content),
		Flair:   strings.ToLower(flair),
		Tags:    lowered,
	}
}

// CategoryRule assigns Category when Match holds.
type CategoryRule struct {
	Match    func(Signals) bool
	Category domain.Category
}

// CategoryRules is evaluated top to bottom; the first match wins.
type CategoryRules struct {
	Rules    []CategoryRule
	Fallback domain.Category
}

// Classify returns the category of the first matching rule.
func (c CategoryRules) Classify(s Signals) domain.Category {
	for _, rule := range c.Rules {
		if rule.Match != nil && rule.Match(s) {
			return rule.Category
		}
	}
	return c.Fallback
}

// ContentHas matches when any keyword is a substring of the content.
func ContentHas(keywords ...string) func(Signals) bool {
	return func(s Signals) bool {
		return containsAny(s.Content, keywords)
	}
}

// FlairHas matches when any keyword is a substring of the flair.
func FlairHas(keywords ...string) func(Signals) bool {
	return func(s Signals) bool {
		return containsAny(s.Flair, keywords)
	}
}

// ContentOrTagHas matches keywords in the content or equal to a tag.
func ContentOrTagHas(keywords ...string) func(Signals) bool {
	return func(s Signals) bool {
		for _, kw := range keywords {
			if strings.Contains(s.Content, kw) {
				return true
			}
			for _, tag := range s.Tags {
				if tag == kw {
					return true
				}
			}
		}
		return false
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Truncate cuts s to max runes and appends "..." when it was longer.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// Clip cuts s to max runes without a marker.
func Clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

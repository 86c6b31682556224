package enrichment

import (
	"strings"
	"unicode/utf8"
)

// noisePrefixes mark social and subscription boilerplate lines.
var noisePrefixes = []string{"Share", "Tweet", "Follow", "Subscribe", "Sign up"}

// sentenceEnds are searched in priority order, not position order.
var sentenceEnds = []string{"。", ". ", "! ", "? "}

const (
	minLineLength = 20
	cutWindow     = 100
)

// Summarize condenses extracted text to roughly target characters, cutting
// at the last sentence end found within target±100 and appending "..." when
// text was dropped.
func Summarize(text string, target int) string {
	var kept []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < minLineLength || hasNoisePrefix(line) {
			continue
		}
		kept = append(kept, line)
	}
	content := []rune(strings.Join(kept, " "))
	if len(content) <= target {
		return string(content)
	}

	start := max(0, target-cutWindow)
	end := min(len(content), target+cutWindow)
	window := string(content[start:end])

	offset := -1
	for _, mark := range sentenceEnds {
		if idx := strings.LastIndex(window, mark); idx >= 0 {
			offset = utf8.RuneCountInString(window[:idx])
			break
		}
	}
	if offset < 0 {
		offset = target - start
	}

	cut := min(start+offset+1, len(content))
	summary := strings.TrimSpace(string(content[:cut]))
	if utf8.RuneCountInString(summary) < len(content) {
		summary += "..."
	}
	return summary
}

func hasNoisePrefix(line string) bool {
	for _, p := range noisePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

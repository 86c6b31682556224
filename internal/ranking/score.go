package ranking

import (
	"strings"
	"unicode/utf8"

	"ClaudeDigest/internal/domain"
)

// Tier is a keyword group with separate weights for title and body hits.
type Tier struct {
	Name     string
	Keywords []string
	Title    int
	Body     int
}

// Step awards Bonus when a value is strictly above Over. Steps are checked
// in order and only the first match counts.
type Step struct {
	Over  int
	Bonus int
}

// Weights holds every tunable of the scoring function.
type Weights struct {
	Tiers          []Tier
	TrustedSources map[string]int
	Engagement     []Step
	Comments       []Step
	Stars          []Step
	BodyLength     []Step
}

// DefaultWeights favours practical how-to material, then Claude Code
// content, then official announcements, then general tech writing.
func DefaultWeights() Weights {
	return Weights{
		Tiers: []Tier{
			{
				Name: "practical",
				Keywords: []string{
					"tutorial", "guide", "how to", "step by step",
					"tips", "tricks", "best practices", "workflow",
					"use case", "example", "template", "prompt",
				},
				Title: 20,
				Body:  8,
			},
			{
				Name: "claude-code",
				Keywords: []string{
					"claude code", "claude-code", "mcp", "model context protocol",
					"terminal", "cli", "vscode", "agentic", "agent",
					"coding assistant", "code generation",
				},
				Title: 18,
				Body:  7,
			},
			{
				Name: "official",
				Keywords: []string{
					"claude", "anthropic", "api", "update", "release",
					"announcement", "feature", "new", "sonnet", "opus", "haiku",
				},
				Title: 15,
				Body:  5,
			},
			{
				Name: "general",
				Keywords: []string{
					"integration", "review", "comparison", "analysis",
					"project", "built with", "created",
				},
				Title: 10,
				Body:  3,
			},
		},
		TrustedSources: map[string]int{
			"Anthropic News":  30,
			"Anthropic Docs":  30,
			"GitHub Releases": 30,
		},
		Engagement: []Step{{Over: 100, Bonus: 25}, {Over: 50, Bonus: 15}, {Over: 20, Bonus: 10}},
		Comments:   []Step{{Over: 50, Bonus: 15}, {Over: 20, Bonus: 10}},
		Stars:      []Step{{Over: 500, Bonus: 25}, {Over: 100, Bonus: 20}, {Over: 50, Bonus: 10}},
		BodyLength: []Step{{Over: 500, Bonus: 10}, {Over: 200, Bonus: 5}},
	}
}

// Scorer computes quality scores with a fixed set of weights.
type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) Scorer {
	return Scorer{weights: w}
}

// Score is a pure function of the item; it never goes below zero.
func (s Scorer) Score(item domain.Item) int {
	title := strings.ToLower(item.Title)
	body := strings.ToLower(item.Summary + item.Description)

	score := 0
	for _, tier := range s.weights.Tiers {
		for _, kw := range tier.Keywords {
			if strings.Contains(title, kw) {
				score += tier.Title
			}
			if strings.Contains(body, kw) {
				score += tier.Body
			}
		}
	}

	score += s.weights.TrustedSources[item.Source]
	score += step(s.weights.Engagement, item.Engagement.Signal())
	score += step(s.weights.Comments, item.Engagement.Comments())
	if item.Stars != nil {
		score += step(s.weights.Stars, *item.Stars)
	}
	score += step(s.weights.BodyLength, utf8.RuneCountInString(body))

	if score < 0 {
		return 0
	}
	return score
}

func step(steps []Step, v int) int {
	for _, st := range steps {
		if v > st.Over {
			return st.Bonus
		}
	}
	return 0
}

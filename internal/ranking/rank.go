package ranking

import (
	"sort"

	"ClaudeDigest/internal/domain"
)

// FilterAndRank scores every item, drops those below minScore and orders the
// rest by descending score. Equal scores keep their input order.
func (s Scorer) FilterAndRank(items []domain.Item, minScore int) []domain.Item {
	ranked := make([]domain.Item, 0, len(items))
	for _, item := range items {
		score := s.Score(item)
		if score < minScore {
			continue
		}
		item.QualityScore = &score
		ranked = append(ranked, item)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].QualityScore > *ranked[j].QualityScore
	})
	return ranked
}

// Select splits a ranked list into the featured item and up to listSize
// followers. Everything after that is discarded for this run.
func Select(ranked []domain.Item, listSize int) (*domain.Item, []domain.Item) {
	if len(ranked) == 0 {
		return nil, []domain.Item{}
	}
	featured := ranked[0]
	rest := ranked[1:]
	if listSize >= 0 && len(rest) > listSize {
		rest = rest[:listSize]
	}
	items := make([]domain.Item, len(rest))
	copy(items, rest)
	return &featured, items
}

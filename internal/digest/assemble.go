package digest

import (
	"time"

	"ClaudeDigest/internal/domain"
)

// Assemble builds the run's document. Buckets are filled from items only, so
// the featured item never appears in a category list. Every bucket is
// non-nil so empty categories encode as []. A positive maxTotal caps the
// featured item plus the list; list items past the cap are dropped.
func Assemble(featured *domain.Item, items []domain.Item, now time.Time, maxTotal int) domain.Digest {
	if maxTotal > 0 {
		limit := maxTotal
		if featured != nil {
			limit--
		}
		if len(items) > limit {
			items = items[:limit]
		}
	}

	d := domain.Digest{
		GeneratedAt:  now,
		FeaturedItem: featured,
		Items:        make([]domain.Item, 0, len(items)),
	}
	for _, c := range domain.Categories {
		*d.Bucket(c) = []domain.Item{}
	}

	d.Items = append(d.Items, items...)
	for _, it := range items {
		if bucket := d.Bucket(it.Category); bucket != nil {
			*bucket = append(*bucket, it)
		}
	}

	total := len(items)
	if featured != nil {
		total++
	}
	d.TotalItems = total
	return d
}

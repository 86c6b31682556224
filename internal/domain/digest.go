package domain

import "time"

// Digest is the document produced once per run. Category buckets are
// subsets of Items; the featured item is never repeated in them.
type Digest struct {
	GeneratedAt  time.Time `json:"generated_at"`
	TotalItems   int       `json:"total_items"`
	FeaturedItem *Item     `json:"featured_item"`
	Items        []Item    `json:"items"`

	TutorialsAndTips     []Item `json:"tutorials_and_tips"`
	UseCases             []Item `json:"use_cases"`
	ClaudeCode           []Item `json:"claude_code"`
	OfficialUpdates      []Item `json:"official_updates"`
	CommunityDiscussions []Item `json:"community_discussions"`
	GitHubProjects       []Item `json:"github_projects"`
	BlogPosts            []Item `json:"blog_posts"`
}

// Bucket returns a pointer to the slice holding items of the category.
func (d *Digest) Bucket(c Category) *[]Item {
	switch c {
	case CategoryTutorialsAndTips:
		return &d.TutorialsAndTips
	case CategoryUseCases:
		return &d.UseCases
	case CategoryClaudeCode:
		return &d.ClaudeCode
	case CategoryOfficialUpdates:
		return &d.OfficialUpdates
	case CategoryCommunityDiscussions:
		return &d.CommunityDiscussions
	case CategoryGitHubProjects:
		return &d.GitHubProjects
	case CategoryBlogPosts:
		return &d.BlogPosts
	default:
		return nil
	}
}

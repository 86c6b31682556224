package domain

import "testing"

func TestFingerprintIgnoresSourceAndCategory(t *testing.T) {
	t.Parallel()

	a := Item{Title: "Claude 4 released", URL: "https://www.anthropic.com/news/claude-4", Source: "Anthropic News", Category: CategoryOfficialUpdates}
	b := Item{Title: "Claude 4 released", URL: "https://www.anthropic.com/news/claude-4", Source: "Hacker News", Category: CategoryCommunityDiscussions}

	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("expected equal fingerprints, got %s and %s", a.Fingerprint(), b.Fingerprint())
	}
}

func TestFingerprintNormalizesURLAndTitle(t *testing.T) {
	t.Parallel()

	base := Fingerprint("https://example.com/post", "Claude Code tips")
	variants := [][2]string{
		{"HTTPS://Example.com/post/", "Claude Code tips"},
		{"https://example.com/post#comments", "  claude   code TIPS "},
	}
	for _, v := range variants {
		if got := Fingerprint(v[0], v[1]); got != base {
			t.Fatalf("fingerprint(%q, %q) = %s, want %s", v[0], v[1], got, base)
		}
	}

	if Fingerprint("https://example.com/other", "Claude Code tips") == base {
		t.Fatalf("different url must change fingerprint")
	}
	if Fingerprint("https://example.com/post", "Claude Code tricks") == base {
		t.Fatalf("different title must change fingerprint")
	}
}

func TestFingerprintSeparatesURLFromTitle(t *testing.T) {
	t.Parallel()

	if Fingerprint("https://a.com/x", "y") == Fingerprint("https://a.com/", "xy") {
		t.Fatalf("url/title boundary must be part of the fingerprint")
	}
}

func TestEngagementSignal(t *testing.T) {
	t.Parallel()

	if got := (Engagement{"points": 0, "score": 12, "reactions": 40}).Signal(); got != 12 {
		t.Fatalf("expected score to win over reactions, got %d", got)
	}
	if got := (Engagement{"reactions": 7}).Signal(); got != 7 {
		t.Fatalf("expected reactions fallback, got %d", got)
	}
	var empty Engagement
	if empty.Signal() != 0 || empty.Comments() != 0 {
		t.Fatalf("nil engagement must read as zero")
	}
}

func TestCategoryValid(t *testing.T) {
	t.Parallel()

	for _, c := range Categories {
		if !c.Valid() {
			t.Fatalf("category %s should be valid", c)
		}
	}
	if Category("news").Valid() {
		t.Fatalf("unknown category accepted")
	}
}

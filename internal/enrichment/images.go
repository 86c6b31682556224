package enrichment

import (
	"fmt"
	"net/url"
	"strings"
)

type siteLogo struct {
	domain string
	image  string
}

// siteLogos is matched in order against the item's host.
var siteLogos = []siteLogo{
	{"github.com", "https://github.githubassets.com/images/modules/logos_page/GitHub-Mark.png"},
	{"news.ycombinator.com", "https://news.ycombinator.com/y18.svg"},
	{"reddit.com", "https://www.redditstatic.com/desktop2x/img/favicon/android-icon-192x192.png"},
	{"dev.to", "https://dev-to-uploads.s3.amazonaws.com/uploads/logos/resized_logo_UQww2soKuUsjaOGNB38o.png"},
	{"anthropic.com", "https://www.anthropic.com/images/icons/apple-touch-icon.png"},
	{"docs.anthropic.com", "https://www.anthropic.com/images/icons/apple-touch-icon.png"},
	{"medium.com", "https://cdn-images-1.medium.com/fit/c/152/152/1*sHhtYhaCe2Uc3IU0IgKwIQ.png"},
}

const faviconService = "https://www.google.com/s2/favicons?domain=%s&sz=128"

// FallbackImage returns a site logo for well known hosts and a favicon
// service URL for everything else. Unparseable URLs yield "".
func FallbackImage(pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	for _, logo := range siteLogos {
		if strings.Contains(host, logo.domain) {
			return logo.image
		}
	}
	return fmt.Sprintf(faviconService, url.QueryEscape(host))
}

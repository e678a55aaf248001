package sitemap

import (
	"time"

	"marketplace-sitemap/internal/domain"
)

// Fixed priorities per section.
const (
	PriorityBase       = 1.0
	PriorityStatic     = 0.9
	PriorityProducts   = 0.8
	PriorityCategories = 0.7
	PriorityBlogs      = 0.7
)

// StaticRoutes are the public pages listed after the site root, in output order.
var StaticRoutes = []string{
	"about-us",
	"ads",
	"blogs",
	"contact-us",
	"faqs",
	"landing",
	"privacy-policy",
	"refund-policy",
	"subscription",
	"terms-and-condition",
}

// BuildAlternates returns one "<url>?lang=<code>" link per language plus an
// x-default link for the default language. The URL is used verbatim and
// duplicate codes collapse onto the last one.
func BuildAlternates(url string, settings domain.SiteSettings) domain.AlternateLinks {
	links := make(map[string]string, len(settings.Languages)+1)
	for _, l := range settings.Languages {
		links[l.Code] = langURL(url, l.Code)
	}
	links[domain.XDefault] = langURL(url, settings.DefaultLanguageCode)
	return domain.AlternateLinks{Languages: links}
}

func langURL(url, code string) string {
	return url + "?lang=" + code
}

// BuildEntry assembles one sitemap entry and its alternates.
func BuildEntry(url string, lastModified time.Time, freq domain.ChangeFrequency, priority float64, settings domain.SiteSettings) domain.Entry {
	return domain.Entry{
		URL:             url,
		LastModified:    lastModified,
		ChangeFrequency: freq,
		Priority:        priority,
		Alternates:      BuildAlternates(url, settings),
	}
}

// lastModifiedOr substitutes fallback for a missing/unparseable timestamp.
func lastModifiedOr(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}

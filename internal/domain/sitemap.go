package domain

import "time"

// Language identifies one supported UI language (e.g. "en", "fr").
type Language struct {
	Code string
}

// SiteSettings is the part of the marketplace system settings the sitemap needs.
// It is resolved once per generation run.
type SiteSettings struct {
	DefaultLanguageCode string
	Languages           []Language
}

// FallbackLanguageCode is used when the settings omit default_language.
const FallbackLanguageCode = "en"

func DefaultSettings() SiteSettings {
	return SiteSettings{DefaultLanguageCode: FallbackLanguageCode, Languages: []Language{}}
}

// ContentItem is the common shape products, categories and blogs are reduced to.
// A zero UpdatedAt means the source did not send a usable timestamp.
type ContentItem struct {
	Slug      string
	UpdatedAt time.Time
}

type ChangeFrequency string

const (
	ChangeWeekly ChangeFrequency = "weekly"
)

// XDefault is the hreflang key pointing crawlers at the default language.
const XDefault = "x-default"

// AlternateLinks maps a language code (or "x-default") to an absolute URL.
type AlternateLinks struct {
	Languages map[string]string
}

// Entry is one <url> of the sitemap. Entries are never mutated after they are built.
type Entry struct {
	URL             string
	LastModified    time.Time
	ChangeFrequency ChangeFrequency
	Priority        float64
	Alternates      AlternateLinks
}

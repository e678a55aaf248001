package providers

import (
	"context"

	"marketplace-sitemap/internal/domain"
)

// SettingsSource resolves the site-wide language configuration.
type SettingsSource interface {
	Settings(ctx context.Context) (domain.SiteSettings, error)
}

// ContentSource lists one kind of content (products, categories, blogs).
type ContentSource interface {
	Name() string
	ListItems(ctx context.Context) ([]domain.ContentItem, error)
}

package marketplace

import (
	"context"
	"strings"

	"marketplace-sitemap/internal/domain"
)

// SettingsProvider adapts the client into providers.SettingsSource.
type SettingsProvider struct {
	C *Client
}

func (p SettingsProvider) Settings(ctx context.Context) (domain.SiteSettings, error) {
	res, err := p.C.GetSystemSettings(ctx)
	if err != nil {
		return domain.SiteSettings{}, err
	}

	out := domain.DefaultSettings()
	if res.Data == nil {
		return out, nil
	}
	if code := strings.TrimSpace(res.Data.DefaultLanguage); code != "" {
		out.DefaultLanguageCode = res.Data.DefaultLanguage
	}
	for _, l := range res.Data.Languages {
		out.Languages = append(out.Languages, domain.Language{Code: l.Code})
	}
	return out, nil
}

// Provider adapts one paginated collection into providers.ContentSource.
type Provider struct {
	C        *Client
	Section  string
	Path     string
	MaxPages int // <=0 means 1
}

func Products(c *Client) Provider   { return Provider{C: c, Section: "products", Path: PathItems} }
func Categories(c *Client) Provider { return Provider{C: c, Section: "categories", Path: PathCategories} }
func Blogs(c *Client) Provider      { return Provider{C: c, Section: "blogs", Path: PathBlogs} }

func (p Provider) Name() string { return p.Section }

func (p Provider) ListItems(ctx context.Context) ([]domain.ContentItem, error) {
	maxPages := p.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	out := make([]domain.ContentItem, 0, 64)
	for page := 1; page <= maxPages; page++ {
		res, err := p.C.ListPage(ctx, p.Path, page)
		if err != nil {
			return nil, err
		}

		for _, it := range res.Items {
			out = append(out, domain.ContentItem{
				Slug:      it.Slug,
				UpdatedAt: it.UpdatedAt.Time,
			})
		}

		// plain arrays carry no pagination metadata
		if res.LastPage <= 0 || res.CurrentPage >= res.LastPage {
			break
		}
	}
	return out, nil
}

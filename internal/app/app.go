package app

import (
	"log"

	"marketplace-sitemap/internal/cache"
	"marketplace-sitemap/internal/config"
	"marketplace-sitemap/internal/httpx"
	"marketplace-sitemap/internal/providers/marketplace"
	"marketplace-sitemap/internal/sitemap"
)

// App is the sitemap pipeline wired against the marketplace API.
type App struct {
	Generator *sitemap.Generator
	Settings  *cache.SettingsSlot
	Responses *cache.TTL
}

func New(cfg config.Config, logger *log.Logger) *App {
	responses := cache.NewTTL(256, cfg.Revalidate)
	settings := cache.NewSettingsSlot()

	client := marketplace.New(cfg.APIURL, cfg.EndPoint, httpx.New(cfg.HTTPTimeout, responses))

	products := marketplace.Products(client)
	categories := marketplace.Categories(client)
	blogs := marketplace.Blogs(client)
	products.MaxPages = cfg.MaxPages
	categories.MaxPages = cfg.MaxPages
	blogs.MaxPages = cfg.MaxPages

	gen := sitemap.New(cfg.WebURL, marketplace.SettingsProvider{C: client},
		sitemap.ProductsSection(products),
		sitemap.CategoriesSection(categories),
		sitemap.BlogsSection(blogs),
	)
	gen.SettingsCache = settings
	gen.Log = logger

	return &App{Generator: gen, Settings: settings, Responses: responses}
}

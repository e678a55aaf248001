package sitemap

import "marketplace-sitemap/internal/providers"

// Section binds a content source to its URL template and priority.
type Section struct {
	Name     string
	Source   providers.ContentSource
	URL      func(baseURL, slug string) string
	Priority float64
}

func ProductsSection(src providers.ContentSource) Section {
	return Section{
		Name:     "products",
		Source:   src,
		URL:      func(baseURL, slug string) string { return baseURL + "/ad-details/" + slug },
		Priority: PriorityProducts,
	}
}

func CategoriesSection(src providers.ContentSource) Section {
	return Section{
		Name:     "categories",
		Source:   src,
		URL:      func(baseURL, slug string) string { return baseURL + "/ads?category=" + slug },
		Priority: PriorityCategories,
	}
}

func BlogsSection(src providers.ContentSource) Section {
	return Section{
		Name:     "blogs",
		Source:   src,
		URL:      func(baseURL, slug string) string { return baseURL + "/blogs/" + slug },
		Priority: PriorityBlogs,
	}
}

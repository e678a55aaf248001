package sitemap

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"marketplace-sitemap/internal/cache"
	"marketplace-sitemap/internal/domain"
	"marketplace-sitemap/internal/httpx"
	"marketplace-sitemap/internal/providers/marketplace"
)

const testBaseURL = "https://x.test"

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeSettings struct {
	settings domain.SiteSettings
	err      error
	calls    int32
}

func (f *fakeSettings) Settings(ctx context.Context) (domain.SiteSettings, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.settings, f.err
}

type fakeSource struct {
	name  string
	items []domain.ContentItem
	err   error
	panic bool
	calls int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) ListItems(ctx context.Context) ([]domain.ContentItem, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.panic {
		panic("boom")
	}
	return f.items, f.err
}

func twoLanguages() *fakeSettings {
	return &fakeSettings{settings: domain.SiteSettings{
		DefaultLanguageCode: "en",
		Languages:           []domain.Language{{Code: "en"}, {Code: "fr"}},
	}}
}

func newTestGenerator(settings *fakeSettings, products, categories, blogs *fakeSource) (*Generator, *bytes.Buffer) {
	var buf bytes.Buffer
	g := New(testBaseURL, settings,
		ProductsSection(products),
		CategoriesSection(categories),
		BlogsSection(blogs),
	)
	g.Log = log.New(&buf, "", 0)
	g.Now = func() time.Time { return testNow }
	return g, &buf
}

func urls(entries []domain.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.URL)
	}
	return out
}

func TestGenerateOrderAndPriorities(t *testing.T) {
	updated := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	products := &fakeSource{name: "products", items: []domain.ContentItem{{Slug: "chair-1", UpdatedAt: updated}, {Slug: "desk-2"}}}
	categories := &fakeSource{name: "categories", items: []domain.ContentItem{{Slug: "cars"}}}
	blogs := &fakeSource{name: "blogs", items: []domain.ContentItem{{Slug: "hello"}}}

	g, _ := newTestGenerator(twoLanguages(), products, categories, blogs)
	entries := g.Generate(context.Background())

	want := []string{
		"https://x.test",
		"https://x.test/about-us",
		"https://x.test/ads",
		"https://x.test/blogs",
		"https://x.test/contact-us",
		"https://x.test/faqs",
		"https://x.test/landing",
		"https://x.test/privacy-policy",
		"https://x.test/refund-policy",
		"https://x.test/subscription",
		"https://x.test/terms-and-condition",
		"https://x.test/ad-details/chair-1",
		"https://x.test/ad-details/desk-2",
		"https://x.test/ads?category=cars",
		"https://x.test/blogs/hello",
	}
	if got := urls(entries); !reflect.DeepEqual(got, want) {
		t.Fatalf("Unexpected URLs:\n got %v\nwant %v", got, want)
	}

	wantPriorities := map[string]float64{
		"https://x.test":                    1,
		"https://x.test/faqs":               0.9,
		"https://x.test/ad-details/chair-1": 0.8,
		"https://x.test/ads?category=cars":  0.7,
		"https://x.test/blogs/hello":        0.7,
	}
	for _, e := range entries {
		if p, ok := wantPriorities[e.URL]; ok && e.Priority != p {
			t.Errorf("Priority for %s = %v, want %v", e.URL, e.Priority, p)
		}
		if e.ChangeFrequency != domain.ChangeWeekly {
			t.Errorf("ChangeFrequency for %s = %q, want weekly", e.URL, e.ChangeFrequency)
		}
		if len(e.Alternates.Languages) != 3 {
			t.Errorf("Expected 3 alternates for %s, got %d", e.URL, len(e.Alternates.Languages))
		}
	}

	if !entries[11].LastModified.Equal(updated) {
		t.Errorf("Expected product lastModified %v, got %v", updated, entries[11].LastModified)
	}
	if !entries[12].LastModified.Equal(testNow) {
		t.Errorf("Expected missing updated_at to fall back to generation time, got %v", entries[12].LastModified)
	}
	if !entries[0].LastModified.Equal(testNow) {
		t.Errorf("Expected base lastModified to be generation time, got %v", entries[0].LastModified)
	}
}

func TestGenerateBaseAlternates(t *testing.T) {
	g, _ := newTestGenerator(twoLanguages(), &fakeSource{name: "products"}, &fakeSource{name: "categories"}, &fakeSource{name: "blogs"})
	entries := g.Generate(context.Background())

	want := map[string]string{
		"en":        "https://x.test?lang=en",
		"fr":        "https://x.test?lang=fr",
		"x-default": "https://x.test?lang=en",
	}
	if !reflect.DeepEqual(entries[0].Alternates.Languages, want) {
		t.Errorf("Base alternates = %v, want %v", entries[0].Alternates.Languages, want)
	}
	if len(entries) != 1+len(StaticRoutes) {
		t.Errorf("Expected %d entries with empty sources, got %d", 1+len(StaticRoutes), len(entries))
	}
}

func TestGenerateSettingsFailureIsFatal(t *testing.T) {
	settings := &fakeSettings{err: errors.New("connection refused")}
	products := &fakeSource{name: "products", items: []domain.ContentItem{{Slug: "a"}}}
	categories := &fakeSource{name: "categories"}
	blogs := &fakeSource{name: "blogs"}

	g, logs := newTestGenerator(settings, products, categories, blogs)
	entries := g.Generate(context.Background())

	if entries == nil || len(entries) != 0 {
		t.Fatalf("Expected empty non-nil sitemap, got %v", entries)
	}
	if atomic.LoadInt32(&products.calls) != 0 {
		t.Error("Expected content sources not to be queried after a settings failure")
	}
	if !strings.Contains(logs.String(), "settings unavailable") {
		t.Errorf("Expected settings failure to be logged, got %q", logs.String())
	}
}

func TestGenerateContentFailureIsIsolated(t *testing.T) {
	products := &fakeSource{name: "products", err: errors.New("status=500")}
	categories := &fakeSource{name: "categories", items: []domain.ContentItem{{Slug: "cars"}}}
	blogs := &fakeSource{name: "blogs", items: []domain.ContentItem{{Slug: "hello"}}}

	g, logs := newTestGenerator(twoLanguages(), products, categories, blogs)
	entries := g.Generate(context.Background())

	if len(entries) != 1+len(StaticRoutes)+2 {
		t.Fatalf("Expected base, static and 2 content entries, got %d: %v", len(entries), urls(entries))
	}
	for _, e := range entries {
		if strings.Contains(e.URL, "/ad-details/") {
			t.Errorf("Unexpected product entry %s", e.URL)
		}
	}
	if entries[len(entries)-2].URL != "https://x.test/ads?category=cars" || entries[len(entries)-1].URL != "https://x.test/blogs/hello" {
		t.Errorf("Unexpected tail %v", urls(entries[len(entries)-2:]))
	}
	if !strings.Contains(logs.String(), "WARN: ") || !strings.Contains(logs.String(), "products failed") {
		t.Errorf("Expected products failure to be logged, got %q", logs.String())
	}
}

func TestGenerateSourcePanicIsIsolated(t *testing.T) {
	products := &fakeSource{name: "products", items: []domain.ContentItem{{Slug: "chair-1"}}}
	categories := &fakeSource{name: "categories", panic: true}
	blogs := &fakeSource{name: "blogs", items: []domain.ContentItem{{Slug: "hello"}}}

	g, _ := newTestGenerator(twoLanguages(), products, categories, blogs)
	entries := g.Generate(context.Background())

	if len(entries) != 1+len(StaticRoutes)+2 {
		t.Errorf("Expected categories to be skipped, got %v", urls(entries))
	}
}

func TestGenerateIdempotent(t *testing.T) {
	products := &fakeSource{name: "products", items: []domain.ContentItem{{Slug: "chair-1"}}}
	categories := &fakeSource{name: "categories", items: []domain.ContentItem{{Slug: "cars"}}}
	blogs := &fakeSource{name: "blogs", items: []domain.ContentItem{{Slug: "hello"}}}

	g, _ := newTestGenerator(twoLanguages(), products, categories, blogs)
	first := g.Generate(context.Background())
	g.Now = func() time.Time { return testNow.Add(time.Hour) }
	second := g.Generate(context.Background())

	if !reflect.DeepEqual(urls(first), urls(second)) {
		t.Fatalf("URLs differ between runs")
	}
	for i := range first {
		if !reflect.DeepEqual(first[i].Alternates, second[i].Alternates) {
			t.Errorf("Alternates differ for %s", first[i].URL)
		}
	}
}

func TestGenerateDuplicateSlugsAreKept(t *testing.T) {
	products := &fakeSource{name: "products", items: []domain.ContentItem{{Slug: "a"}, {Slug: "a"}, {Slug: " b "}}}

	g, _ := newTestGenerator(twoLanguages(), products, &fakeSource{name: "categories"}, &fakeSource{name: "blogs"})
	entries := g.Generate(context.Background())

	tail := urls(entries[1+len(StaticRoutes):])
	want := []string{"https://x.test/ad-details/a", "https://x.test/ad-details/a", "https://x.test/ad-details/ b "}
	if !reflect.DeepEqual(tail, want) {
		t.Errorf("Expected slugs verbatim without dedup, got %q", tail)
	}
}

func TestResolveSettingsUsesCache(t *testing.T) {
	settings := twoLanguages()
	g, _ := newTestGenerator(settings, &fakeSource{name: "products"}, &fakeSource{name: "categories"}, &fakeSource{name: "blogs"})
	g.SettingsCache = cache.NewSettingsSlot()

	g.Generate(context.Background())
	g.Generate(context.Background())
	if n := atomic.LoadInt32(&settings.calls); n != 1 {
		t.Errorf("Expected settings to be fetched once, got %d", n)
	}

	g.SettingsCache.Clear()
	g.Generate(context.Background())
	if n := atomic.LoadInt32(&settings.calls); n != 2 {
		t.Errorf("Expected a refetch after Clear, got %d calls", n)
	}
}

func TestResolveSettingsFailureNotCached(t *testing.T) {
	settings := &fakeSettings{err: errors.New("down")}
	g := New(testBaseURL, settings)
	g.Log = log.New(&bytes.Buffer{}, "", 0)
	g.SettingsCache = cache.NewSettingsSlot()

	if _, err := g.ResolveSettings(context.Background()); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if _, ok := g.SettingsCache.Get(); ok {
		t.Error("Expected failed settings not to be cached")
	}
}

func TestGenerateWithoutSettingsSource(t *testing.T) {
	g := New(testBaseURL, nil)
	g.Log = log.New(&bytes.Buffer{}, "", 0)

	if entries := g.Generate(context.Background()); len(entries) != 0 {
		t.Errorf("Expected empty sitemap, got %d entries", len(entries))
	}
}

func TestOutcome(t *testing.T) {
	ok := Outcome{Section: "blogs", Items: []domain.ContentItem{{Slug: "a"}}}
	if !ok.OK() || len(ok.ItemsOrEmpty()) != 1 {
		t.Errorf("Expected ok outcome with 1 item, got %+v", ok)
	}

	failed := Outcome{Section: "blogs", Items: []domain.ContentItem{{Slug: "a"}}, Err: errors.New("x")}
	if failed.OK() {
		t.Error("Expected failed outcome")
	}
	if items := failed.ItemsOrEmpty(); items == nil || len(items) != 0 {
		t.Errorf("Expected empty non-nil items for a failure, got %v", items)
	}
}

// End to end against a stub marketplace API.
func TestGenerateAgainstAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/get-system-settings":
			w.Write([]byte(`{"data":{"default_language":"en","languages":[{"code":"en"},{"code":"fr"}]}}`))
		case "/api/get-item":
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/get-categories":
			w.Write([]byte(`{"data":{"data":{"current_page":1,"last_page":4,"data":[{"slug":"cars","updated_at":"2024-01-01 00:00:00"}]}}}`))
		case "/api/blogs":
			w.Write([]byte(`{"data":{"data":[{"slug":"hello"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := marketplace.New(server.URL, "/api/", httpx.New(5*time.Second, nil))
	g := New(testBaseURL, marketplace.SettingsProvider{C: client},
		ProductsSection(marketplace.Products(client)),
		CategoriesSection(marketplace.Categories(client)),
		BlogsSection(marketplace.Blogs(client)),
	)
	g.Log = log.New(&bytes.Buffer{}, "", 0)

	entries := g.Generate(context.Background())

	if len(entries) != 1+len(StaticRoutes)+2 {
		t.Fatalf("Expected %d entries, got %d: %v", 1+len(StaticRoutes)+2, len(entries), urls(entries))
	}
	cat := entries[len(entries)-2]
	if cat.URL != "https://x.test/ads?category=cars" {
		t.Errorf("Unexpected category URL %q", cat.URL)
	}
	if !cat.LastModified.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected category lastModified %v", cat.LastModified)
	}
	if cat.Alternates.Languages["fr"] != "https://x.test/ads?category=cars?lang=fr" {
		t.Errorf("Unexpected fr alternate %q", cat.Alternates.Languages["fr"])
	}
}

func TestGenerateAgainstAPISettingsDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/get-system-settings" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":{"data":[{"slug":"x"}]}}`))
	}))
	defer server.Close()

	client := marketplace.New(server.URL, "/api/", httpx.New(5*time.Second, nil))
	g := New(testBaseURL, marketplace.SettingsProvider{C: client},
		ProductsSection(marketplace.Products(client)),
	)
	g.Log = log.New(&bytes.Buffer{}, "", 0)

	if entries := g.Generate(context.Background()); len(entries) != 0 {
		t.Errorf("Expected empty sitemap when settings are down, got %d entries", len(entries))
	}
}

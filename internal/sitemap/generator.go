package sitemap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"marketplace-sitemap/internal/cache"
	"marketplace-sitemap/internal/concurrency"
	"marketplace-sitemap/internal/domain"
	"marketplace-sitemap/internal/providers"
)

// Outcome is the result of fetching one section: Ok when Err is nil,
// Failed otherwise. A failed outcome contributes no entries.
type Outcome struct {
	Section string
	Items   []domain.ContentItem
	Err     error
}

func (o Outcome) OK() bool { return o.Err == nil }

// ItemsOrEmpty unwraps the outcome, turning a failure into an empty list.
func (o Outcome) ItemsOrEmpty() []domain.ContentItem {
	if o.Err != nil || o.Items == nil {
		return []domain.ContentItem{}
	}
	return o.Items
}

// Generator aggregates the base URL, static routes and content sections
// into one ordered sitemap.
type Generator struct {
	BaseURL  string
	Settings providers.SettingsSource
	Sections []Section

	// SettingsCache, when set, is consulted before Settings and filled on success.
	SettingsCache *cache.SettingsSlot

	Log *log.Logger
	Now func() time.Time
}

func New(baseURL string, settings providers.SettingsSource, sections ...Section) *Generator {
	return &Generator{
		BaseURL:  baseURL,
		Settings: settings,
		Sections: sections,
	}
}

// Generate never fails: when settings cannot be resolved it returns an empty
// sitemap, and a failing section only drops its own entries.
func (g *Generator) Generate(ctx context.Context) (entries []domain.Entry) {
	runID := uuid.NewString()
	start := g.now()

	defer func() {
		if r := recover(); r != nil {
			g.logf("ERROR: run=%s sitemap generation panicked: %v", runID, r)
			entries = []domain.Entry{}
		}
	}()

	settings, err := g.ResolveSettings(ctx)
	if err != nil {
		g.logf("WARN: run=%s settings unavailable, returning empty sitemap: %v", runID, err)
		return []domain.Entry{}
	}

	entries = make([]domain.Entry, 0, 1+len(StaticRoutes))
	entries = append(entries, BuildEntry(g.BaseURL, start, domain.ChangeWeekly, PriorityBase, settings))
	for _, route := range StaticRoutes {
		entries = append(entries, BuildEntry(g.BaseURL+"/"+route, start, domain.ChangeWeekly, PriorityStatic, settings))
	}

	outcomes := g.fetchSections(ctx)
	counts := make(map[string]int, len(outcomes))
	for i, o := range outcomes {
		sec := g.Sections[i]
		if !o.OK() {
			g.logf("WARN: run=%s %s failed: %v (section skipped)", runID, sec.Name, o.Err)
		}
		items := o.ItemsOrEmpty()
		counts[sec.Name] = len(items)
		for _, it := range items {
			url := sec.URL(g.BaseURL, it.Slug)
			entries = append(entries, BuildEntry(url, lastModifiedOr(it.UpdatedAt, start), domain.ChangeWeekly, sec.Priority, settings))
		}
	}

	g.logf("run=%s built %d sitemap entries (languages=%d sections=%v) in %s",
		runID, len(entries), len(settings.Languages), counts, g.now().Sub(start))
	return entries
}

// ResolveSettings returns cached settings when available, otherwise fetches
// them once. Failures are never cached.
func (g *Generator) ResolveSettings(ctx context.Context) (domain.SiteSettings, error) {
	if g.SettingsCache != nil {
		if s, ok := g.SettingsCache.Get(); ok {
			return s, nil
		}
	}
	if g.Settings == nil {
		return domain.SiteSettings{}, fmt.Errorf("sitemap: no settings source configured")
	}

	s, err := g.Settings.Settings(ctx)
	if err != nil {
		return domain.SiteSettings{}, err
	}
	if g.SettingsCache != nil {
		g.SettingsCache.Set(s)
	}
	return s, nil
}

// fetchSections queries every section concurrently, one attempt each.
// Outcomes are indexed like g.Sections regardless of completion order.
func (g *Generator) fetchSections(ctx context.Context) []Outcome {
	opts := concurrency.ParallelOptions{MaxWorkers: len(g.Sections)}
	outcomes, _ := concurrency.ProcessParallel(ctx, g.Sections, opts, func(ctx context.Context, _ int, sec Section) (Outcome, error) {
		o := fetchSection(ctx, sec)
		return o, o.Err
	})

	// a cancelled context leaves zero-valued slots behind
	for i := range outcomes {
		if outcomes[i].Section == "" {
			outcomes[i] = Outcome{Section: g.Sections[i].Name, Err: ctxErr(ctx)}
		}
	}
	return outcomes
}

func fetchSection(ctx context.Context, sec Section) (o Outcome) {
	o.Section = sec.Name
	defer func() {
		if r := recover(); r != nil {
			o.Items = nil
			o.Err = fmt.Errorf("sitemap: %s source panicked: %v", sec.Name, r)
		}
	}()

	if sec.Source == nil {
		o.Err = fmt.Errorf("sitemap: %s has no source", sec.Name)
		return o
	}
	o.Items, o.Err = sec.Source.ListItems(ctx)
	return o
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("sitemap: section not fetched")
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Generator) logf(format string, v ...any) {
	if g.Log != nil {
		g.Log.Printf(format, v...)
		return
	}
	log.Printf(format, v...)
}

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"marketplace-sitemap/internal/cache"
	"marketplace-sitemap/internal/domain"
	"marketplace-sitemap/internal/export"
)

// Generator produces the ordered sitemap entries.
type Generator interface {
	Generate(ctx context.Context) []domain.Entry
}

// Server renders the sitemap on demand and keeps the rendered document for
// the revalidation window.
type Server struct {
	gen       Generator
	settings  *cache.SettingsSlot
	responses *cache.TTL
	ttl       time.Duration
	logger    *log.Logger
	now       func() time.Time

	mu  sync.Mutex
	doc *document
}

type document struct {
	xml   []byte
	br    []byte
	built time.Time
}

func New(gen Generator, settings *cache.SettingsSlot, responses *cache.TTL, ttl time.Duration, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		gen:       gen,
		settings:  settings,
		responses: responses,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/sitemap.xml", s.sitemapXML)
	r.Delete("/cache/settings", s.clearCache)
	return r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) sitemapXML(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r.Context())
	if err != nil {
		s.logger.Printf("sitemap render failed: %v", err)
		http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/xml; charset=utf-8")
	h.Set("Vary", "Accept-Encoding")
	if s.ttl > 0 {
		h.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(s.ttl.Seconds())))
	}
	h.Set("Last-Modified", doc.built.UTC().Format(http.TimeFormat))

	body := doc.xml
	if acceptsBrotli(r) && doc.br != nil {
		h.Set("Content-Encoding", "br")
		body = doc.br
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// clearCache drops the settings slot, cached API responses and the rendered
// document so the next request starts from scratch.
func (s *Server) clearCache(w http.ResponseWriter, _ *http.Request) {
	if s.settings != nil {
		s.settings.Clear()
	}
	if s.responses != nil {
		s.responses.Clear()
	}
	s.mu.Lock()
	s.doc = nil
	s.mu.Unlock()

	s.logger.Printf("sitemap caches cleared")
	w.WriteHeader(http.StatusNoContent)
}

// document serializes generation so concurrent crawlers share one run.
// Empty sitemaps (settings down) are served but not kept.
func (s *Server) document(ctx context.Context) (*document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc != nil && s.ttl > 0 && s.now().Sub(s.doc.built) < s.ttl {
		return s.doc, nil
	}

	entries := s.gen.Generate(ctx)
	b, err := export.EncodeSitemapXML(entries)
	if err != nil {
		return nil, err
	}
	br, err := export.Brotli(b)
	if err != nil {
		s.logger.Printf("WARN: brotli encoding failed, serving plain xml: %v", err)
		br = nil
	}

	doc := &document{xml: b, br: br, built: s.now()}
	if len(entries) > 0 {
		s.doc = doc
	} else {
		s.doc = nil
	}
	return doc, nil
}

func acceptsBrotli(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(enc), "br") {
			continue
		}
		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil && v == 0 {
				return false
			}
		}
		return true
	}
	return false
}

// ListenAndServe runs the server until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	}
}

package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/andybalholm/brotli"

	"marketplace-sitemap/internal/domain"
)

/*
sitemaps.org urlset with hreflang alternates:

<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:xhtml="http://www.w3.org/1999/xhtml">
  <url>
    <loc>https://x.test/faqs</loc>
    <xhtml:link rel="alternate" hreflang="en" href="https://x.test/faqs?lang=en"/>
    <xhtml:link rel="alternate" hreflang="x-default" href="https://x.test/faqs?lang=en"/>
    <lastmod>2024-06-01T12:00:00Z</lastmod>
    <changefreq>weekly</changefreq>
    <priority>0.9</priority>
  </url>
</urlset>
*/

const (
	sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xhtmlNS   = "http://www.w3.org/1999/xhtml"
)

type smURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	Xhtml   string   `xml:"xmlns:xhtml,attr"`
	URLs    []smURL  `xml:"url"`
}

type smURL struct {
	Loc        string   `xml:"loc"`
	Links      []smLink `xml:"xhtml:link"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
	Priority   string   `xml:"priority,omitempty"`
}

type smLink struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// EncodeSitemapXML renders entries in order, one <url> per entry.
func EncodeSitemapXML(entries []domain.Entry) ([]byte, error) {
	out := smURLSet{
		Xmlns: sitemapNS,
		Xhtml: xhtmlNS,
		URLs:  make([]smURL, 0, len(entries)),
	}

	for _, e := range entries {
		row := smURL{
			Loc:        e.URL,
			Links:      alternateLinks(e.Alternates),
			ChangeFreq: string(e.ChangeFrequency),
			Priority:   formatPriority(e.Priority),
		}
		if !e.LastModified.IsZero() {
			row.LastMod = e.LastModified.UTC().Format(time.RFC3339)
		}
		out.URLs = append(out.URLs, row)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("export: marshal sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// alternateLinks sorts by hreflang with x-default last so output is stable.
func alternateLinks(a domain.AlternateLinks) []smLink {
	keys := make([]string, 0, len(a.Languages))
	for k := range a.Languages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == domain.XDefault) != (keys[j] == domain.XDefault) {
			return keys[j] == domain.XDefault
		}
		return keys[i] < keys[j]
	})

	links := make([]smLink, 0, len(keys))
	for _, k := range keys {
		links = append(links, smLink{Rel: "alternate", Hreflang: k, Href: a.Languages[k]})
	}
	return links
}

func formatPriority(p float64) string {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return strconv.FormatFloat(p, 'f', 1, 64)
}

// Brotli compresses b at the default quality.
func Brotli(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("export: brotli write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("export: brotli close: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSitemap writes outPath and, when compress is set, outPath+".br" next to it.
// It returns the paths written.
func WriteSitemap(outPath string, entries []domain.Entry, compress bool) ([]string, error) {
	b, err := EncodeSitemapXML(entries)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(outPath, b, 0o644); err != nil {
		return nil, fmt.Errorf("export: write xml: %w", err)
	}
	written := []string{outPath}

	if compress {
		br, err := Brotli(b)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(outPath+".br", br, 0o644); err != nil {
			return written, fmt.Errorf("export: write brotli: %w", err)
		}
		written = append(written, outPath+".br")
	}

	return written, nil
}

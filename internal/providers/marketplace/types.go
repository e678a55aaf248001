package marketplace

import (
	"encoding/json"
	"strings"
	"time"
)

/* -------- get-system-settings -------- */

type SystemSettingsResponse struct {
	Data *SystemSettings `json:"data"`
}

type SystemSettings struct {
	DefaultLanguage string     `json:"default_language"`
	Languages       []Language `json:"languages"`
}

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

/* -------- get-item / get-categories / blogs -------- */

type ListResponse struct {
	Data struct {
		Data Page `json:"data"`
	} `json:"data"`
}

type Item struct {
	Slug      string    `json:"slug"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Page puede venir como:
// - [ {...}, ... ]                                   (lista simple)
// - { "data": [...], "current_page": 1, "last_page": 7 } (paginado)
// - null
// CurrentPage/LastPage quedan en 0 cuando la respuesta no es paginada.
type Page struct {
	Items       []Item
	CurrentPage int
	LastPage    int
}

func (p *Page) UnmarshalJSON(b []byte) error {
	*p = Page{}

	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}

	switch s[0] {
	case '[':
		return json.Unmarshal(b, &p.Items)
	case '{':
		var paged struct {
			Data        []Item `json:"data"`
			CurrentPage int    `json:"current_page"`
			LastPage    int    `json:"last_page"`
		}
		if err := json.Unmarshal(b, &paged); err != nil {
			return err
		}
		p.Items = paged.Data
		p.CurrentPage = paged.CurrentPage
		p.LastPage = paged.LastPage
		return nil
	}

	// anything else ("", 0, true) is a malformed payload
	var items []Item
	return json.Unmarshal(b, &items)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp tolerates missing, null or unparseable values by staying zero.
// It never fails decoding, so one bad updated_at cannot drop a whole page.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	t.Time = parseTimestamp(s)
	return nil
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

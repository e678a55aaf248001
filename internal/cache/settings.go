package cache

import (
	"sync"

	"marketplace-sitemap/internal/domain"
)

// SettingsSlot holds the last successfully resolved site settings.
// It lives as long as the process and is emptied only by Clear.
type SettingsSlot struct {
	mu       sync.RWMutex
	settings *domain.SiteSettings
}

func NewSettingsSlot() *SettingsSlot {
	return &SettingsSlot{}
}

// Get returns the cached settings and whether the slot is populated.
func (s *SettingsSlot) Get() (domain.SiteSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return domain.SiteSettings{}, false
	}
	return copySettings(*s.settings), true
}

func (s *SettingsSlot) Set(settings domain.SiteSettings) {
	c := copySettings(settings)

	s.mu.Lock()
	s.settings = &c
	s.mu.Unlock()
}

func (s *SettingsSlot) Clear() {
	s.mu.Lock()
	s.settings = nil
	s.mu.Unlock()
}

// callers get their own Languages slice so they cannot write through the cache
func copySettings(in domain.SiteSettings) domain.SiteSettings {
	langs := make([]domain.Language, len(in.Languages))
	copy(langs, in.Languages)
	return domain.SiteSettings{DefaultLanguageCode: in.DefaultLanguageCode, Languages: langs}
}

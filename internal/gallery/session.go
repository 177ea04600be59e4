package gallery

import (
	"slices"
	"sync"

	"golang.org/x/text/language"

	"github.com/sangnt1552314/vidextract/internal/models"
)

// Ticket identifies one extraction request. Only the newest ticket may change
// the result set.
type Ticket uint64

// Session owns the current result set, the loading flag and the sort key.
type Session struct {
	mu      sync.RWMutex
	latest  Ticket
	loading bool
	videos  []models.Video
	sortKey SortKey
	lang    language.Tag
}

// NewSession returns an empty session sorting titles by lang.
func NewSession(lang language.Tag) *Session {
	return &Session{sortKey: SortRelevance, lang: lang, videos: []models.Video{}}
}

// Begin registers a new extraction request and marks the session loading.
func (s *Session) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	s.loading = true
	return s.latest
}

// Complete replaces the result set with videos if t is still the newest
// ticket. It reports whether the result was applied.
func (s *Session) Complete(t Ticket, videos []models.Video) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.latest {
		return false
	}
	s.videos = slices.Clone(videos)
	if s.videos == nil {
		s.videos = []models.Video{}
	}
	s.loading = false
	return true
}

// Fail ends the request for t, keeping the previous result set. It reports
// whether t was the newest ticket.
func (s *Session) Fail(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.latest {
		return false
	}
	s.loading = false
	return true
}

func (s *Session) IsCurrent(t Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return t == s.latest
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Videos returns a copy of the result set in extraction order.
func (s *Session) Videos() []models.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.videos)
}

func (s *Session) SetSort(key SortKey) {
	s.mu.Lock()
	s.sortKey = key
	s.mu.Unlock()
}

func (s *Session) SortKey() SortKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortKey
}

// View returns the result set ordered by the active sort key.
func (s *Session) View() []models.Video {
	s.mu.RLock()
	videos, key, lang := s.videos, s.sortKey, s.lang
	s.mu.RUnlock()
	return Sort(videos, key, lang)
}

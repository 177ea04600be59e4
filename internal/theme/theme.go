package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Theme is the colour scheme preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

const themeKey = "THEME"

// Parse accepts "light" or "dark" in any case.
func Parse(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// Store holds the process-wide theme, persists changes to a dotenv file and
// notifies subscribers.
type Store struct {
	mu      sync.RWMutex
	path    string
	theme   Theme
	subs    map[int]func(Theme)
	nextSub int
}

// Load builds a Store from the theme persisted at path. Without a persisted
// value it follows the terminal's background (COLORFGBG via getenv), and falls
// back to light.
func Load(path string, getenv func(string) string) *Store {
	if getenv == nil {
		getenv = os.Getenv
	}

	s := &Store{path: path, theme: Light, subs: make(map[int]func(Theme))}

	if values, err := godotenv.Read(path); err == nil {
		if t, err := Parse(values[themeKey]); err == nil {
			s.theme = t
			return s
		}
	}

	if prefersDark(getenv("COLORFGBG")) {
		s.theme = Dark
	}
	return s
}

// prefersDark reads the "fg;bg" (or "fg;default;bg") COLORFGBG convention;
// backgrounds 0-6 and 8 are dark.
func prefersDark(colorfgbg string) bool {
	if colorfgbg == "" {
		return false
	}
	parts := strings.Split(colorfgbg, ";")
	bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return false
	}
	return (bg >= 0 && bg <= 6) || bg == 8
}

func (s *Store) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// Set changes the theme, persists it and notifies subscribers. The in-memory
// theme changes even when persisting fails; the error is returned.
func (s *Store) Set(t Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return err
	}
	return s.update(func(Theme) Theme { return t })
}

func (s *Store) Toggle() error {
	return s.update(func(cur Theme) Theme {
		if cur == Dark {
			return Light
		}
		return Dark
	})
}

// update applies next and persists the result under the lock.
func (s *Store) update(next func(Theme) Theme) error {
	s.mu.Lock()
	t := next(s.theme)
	changed := s.theme != t
	s.theme = t
	err := s.persist(t)
	subs := make([]func(Theme), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(t)
		}
	}
	return err
}

// Subscribe registers fn to run after every theme change.
func (s *Store) Subscribe(fn func(Theme)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) persist(t Theme) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	if err := godotenv.Write(map[string]string{themeKey: string(t)}, s.path); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	return nil
}

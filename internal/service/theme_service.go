package service

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

// ThemeSettings persists the theme preference.
type ThemeSettings interface {
	LoadTheme(ctx context.Context) (model.Theme, bool, error)
	SaveTheme(ctx context.Context, theme model.Theme) error
}

// ThemeService holds the dark/light preference.
type ThemeService struct {
	mu       sync.Mutex
	settings ThemeSettings
	fallback model.Theme
}

// NewThemeService uses fallback until a theme has been saved.
func NewThemeService(settings ThemeSettings, fallback model.Theme) *ThemeService {
	if fallback == "" {
		fallback = model.ThemeLight
	}
	return &ThemeService{settings: settings, fallback: fallback}
}

func (s *ThemeService) Current(ctx context.Context) (model.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(ctx)
}

// Toggle switches between dark and light and saves the result.
func (s *ThemeService) Toggle(ctx context.Context) (model.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.currentLocked(ctx)
	if err != nil {
		return "", err
	}
	next := cur.Toggled()
	if err := s.settings.SaveTheme(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}

func (s *ThemeService) Set(ctx context.Context, theme model.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.SaveTheme(ctx, theme)
}

func (s *ThemeService) currentLocked(ctx context.Context) (model.Theme, error) {
	theme, found, err := s.settings.LoadTheme(ctx)
	switch {
	case errors.Is(err, repository.ErrMalformed):
		log.Warnf("ignoring stored theme: %v", err)
		return s.fallback, nil
	case err != nil:
		return "", err
	case !found:
		return s.fallback, nil
	default:
		return theme, nil
	}
}

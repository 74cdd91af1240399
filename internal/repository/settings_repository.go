package repository

import (
	"context"
	"fmt"

	"taskmaster/internal/model"
)

// ThemeKey holds "dark" or "light".
const ThemeKey = "theme"

// SettingsRepository persists user preferences.
type SettingsRepository struct {
	storage Storage
}

func NewSettingsRepository(storage Storage) *SettingsRepository {
	return &SettingsRepository{storage: storage}
}

// LoadTheme returns the saved theme; found is false when none was saved.
func (r *SettingsRepository) LoadTheme(ctx context.Context) (model.Theme, bool, error) {
	raw, found, err := r.storage.Get(ctx, ThemeKey)
	if err != nil {
		return "", false, fmt.Errorf("load theme: %w", err)
	}
	if !found {
		return "", false, nil
	}
	theme, err := model.ParseTheme(raw)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return theme, true, nil
}

func (r *SettingsRepository) SaveTheme(ctx context.Context, theme model.Theme) error {
	if err := r.storage.Set(ctx, ThemeKey, string(theme)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

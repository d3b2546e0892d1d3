package prefs

import (
	"context"
	"fmt"

	"github.com/Vixs101/Framez/internal/apperr"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

const themeKey = "theme_preference"

func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Dark resolves the theme against the device color scheme.
func (t Theme) Dark(systemDark bool) bool {
	if t == ThemeSystem {
		return systemDark
	}
	return t == ThemeDark
}

// LoadTheme falls back to ThemeSystem when nothing valid is stored.
func LoadTheme(ctx context.Context, s Store) (Theme, error) {
	v, ok, err := s.Get(ctx, themeKey)
	if err != nil {
		return ThemeSystem, err
	}
	if t := Theme(v); ok && t.Valid() {
		return t, nil
	}
	return ThemeSystem, nil
}

func SaveTheme(ctx context.Context, s Store, t Theme) error {
	if !t.Valid() {
		return apperr.Validation("theme", fmt.Sprintf("unknown theme %q", string(t)))
	}
	return s.Set(ctx, themeKey, string(t))
}

package repositories

import (
	"errors"
	"fmt"
	"strings"
)

const (
	TokenKey = "hypertrack-auth-token"
	ThemeKey = "hypertrack-theme"
)

// TokenStore persists the session token under [TokenKey].
type TokenStore struct {
	store Store
}

// NewTokenStore creates a [TokenStore] backed by store.
func NewTokenStore(store Store) *TokenStore {
	return &TokenStore{store: store}
}

// Load returns the stored token, or "" when none is stored.
func (s *TokenStore) Load() (string, error) {
	token, err := s.store.Get(TokenKey)
	if errors.Is(err, ErrPreferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// Save replaces the stored token. Saving "" clears it.
func (s *TokenStore) Save(token string) error {
	if token == "" {
		return s.Clear()
	}
	return s.store.Set(TokenKey, token)
}

// Clear removes the stored token.
func (s *TokenStore) Clear() error {
	return s.store.Delete(TokenKey)
}

// Theme is the dashboard color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeDark, ThemeLight:
		return t, nil
	default:
		return "", fmt.Errorf("unknown theme %q (want dark or light)", s)
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// ThemeStore persists the theme preference under [ThemeKey].
type ThemeStore struct {
	store    Store
	fallback Theme
}

// NewThemeStore creates a [ThemeStore] that reports fallback until a theme is saved.
func NewThemeStore(store Store, fallback Theme) *ThemeStore {
	if fallback == "" {
		fallback = ThemeDark
	}
	return &ThemeStore{store: store, fallback: fallback}
}

// Load returns the saved theme. Missing or unrecognized values yield the fallback.
func (s *ThemeStore) Load() (Theme, error) {
	v, err := s.store.Get(ThemeKey)
	if errors.Is(err, ErrPreferenceNotFound) {
		return s.fallback, nil
	}
	if err != nil {
		return s.fallback, err
	}

	t, err := ParseTheme(v)
	if err != nil {
		return s.fallback, nil
	}
	return t, nil
}

// Save stores t.
func (s *ThemeStore) Save(t Theme) error {
	return s.store.Set(ThemeKey, string(t))
}

package models

import (
	"fmt"
	"strings"
)

// Provider is the music service the backend uses for playlist discovery.
type Provider string

const (
	ProviderSpotify    Provider = "spotify"
	ProviderSoundCloud Provider = "soundcloud"
)

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderSpotify, ProviderSoundCloud:
		return p, nil
	default:
		return "", fmt.Errorf("unknown provider %q (want spotify or soundcloud)", s)
	}
}

// Toggle returns the other provider.
func (p Provider) Toggle() Provider {
	if p == ProviderSoundCloud {
		return ProviderSpotify
	}
	return ProviderSoundCloud
}

// Label returns a display name.
func (p Provider) Label() string {
	switch p {
	case ProviderSpotify:
		return "Spotify"
	case ProviderSoundCloud:
		return "SoundCloud"
	default:
		return string(p)
	}
}

// ProviderConfig is the body of GET and PATCH /config.
type ProviderConfig struct {
	Provider Provider `json:"provider"`
}

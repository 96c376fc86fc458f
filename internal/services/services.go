package services

import (
	"context"

	"github.com/desertthunder/hypertrack/internal/models"
)

// API is the set of resource operations the dashboard and CLI use.
type API interface {
	ListArtists(ctx context.Context) ([]models.Artist, error)
	// CreateFromURL submits a profile URL with surrounding whitespace trimmed. The backend validates it.
	CreateFromURL(ctx context.Context, url string) (*models.ArtistQueryResponse, error)
	GetArtist(ctx context.Context, id int) (*models.Artist, error)
	ListPlaylists(ctx context.Context, id int) ([]models.PlaylistSummary, error)
	ListHistory(ctx context.Context, id int) ([]models.Snapshot, error)
	// RefreshArtist runs discovery again. Two calls produce two snapshots.
	RefreshArtist(ctx context.Context, id int) (*models.ArtistQueryResponse, error)
	GetConfig(ctx context.Context) (*models.ProviderConfig, error)
	SetConfig(ctx context.Context, provider models.Provider) (*models.ProviderConfig, error)
}

// TokenSource supplies the session token for resource requests.
type TokenSource interface {
	Token() string
	// Reject reports that token was refused by the backend.
	Reject(token string) bool
}

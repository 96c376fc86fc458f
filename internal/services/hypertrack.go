package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/shared"
	"github.com/desertthunder/hypertrack/internal/transport"
)

// HypertrackService implements [API] against the Hypertrack backend.
type HypertrackService struct {
	transport *transport.Client
	tokens    TokenSource
	logger    *log.Logger
}

// NewHypertrackService creates a new [HypertrackService]. tokens may be nil for calls made without a session.
func NewHypertrackService(t *transport.Client, tokens TokenSource, logger *log.Logger) *HypertrackService {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &HypertrackService{
		transport: t,
		tokens:    tokens,
		logger:    shared.WithLogger(logger, "component", "resources"),
	}
}

func (s *HypertrackService) ListArtists(ctx context.Context) ([]models.Artist, error) {
	var artists []models.Artist
	if err := s.do(ctx, http.MethodGet, "/artists", nil, &artists); err != nil {
		return nil, err
	}
	return artists, nil
}

func (s *HypertrackService) CreateFromURL(ctx context.Context, url string) (*models.ArtistQueryResponse, error) {
	body := map[string]string{"url": strings.TrimSpace(url)}

	var resp models.ArtistQueryResponse
	if err := s.do(ctx, http.MethodPost, "/artists/from-url", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *HypertrackService) GetArtist(ctx context.Context, id int) (*models.Artist, error) {
	var artist models.Artist
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/artists/%d", id), nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

func (s *HypertrackService) ListPlaylists(ctx context.Context, id int) ([]models.PlaylistSummary, error) {
	var playlists []models.PlaylistSummary
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/artists/%d/playlists", id), nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

func (s *HypertrackService) ListHistory(ctx context.Context, id int) ([]models.Snapshot, error) {
	var history []models.Snapshot
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/artists/%d/history", id), nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *HypertrackService) RefreshArtist(ctx context.Context, id int) (*models.ArtistQueryResponse, error) {
	var resp models.ArtistQueryResponse
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/artists/%d/refresh", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *HypertrackService) GetConfig(ctx context.Context) (*models.ProviderConfig, error) {
	var cfg models.ProviderConfig
	if err := s.do(ctx, http.MethodGet, "/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *HypertrackService) SetConfig(ctx context.Context, provider models.Provider) (*models.ProviderConfig, error) {
	var cfg models.ProviderConfig
	if err := s.do(ctx, http.MethodPatch, "/config", models.ProviderConfig{Provider: provider}, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *HypertrackService) do(ctx context.Context, method, path string, body, out any) error {
	var token string
	if s.tokens != nil {
		token = s.tokens.Token()
	}

	err := s.transport.Do(ctx, transport.Request{
		Method:     method,
		Path:       path,
		Body:       body,
		Token:      token,
		ServiceKey: true,
	}, out)

	if err != nil && token != "" && transport.IsUnauthorized(err) {
		if s.tokens.Reject(token) {
			s.logger.Warn("session rejected", "method", method, "path", path)
		}
	}
	return err
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/shared"
	"github.com/desertthunder/hypertrack/internal/transport"
	"github.com/sony/gobreaker/v2"
)

// BreakerService wraps an [API] with a circuit breaker.
type BreakerService struct {
	next API
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerService creates a [BreakerService] that opens after maxFailures consecutive failures and
// lets a trial request through after openTimeout.
func NewBreakerService(next API, maxFailures uint32, openTimeout time.Duration, logger *log.Logger) *BreakerService {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if maxFailures == 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        "hypertrack-api",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: countsAsSuccess,
	}

	return &BreakerService{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State returns the breaker state name: closed, half-open or open.
func (b *BreakerService) State() string {
	return b.cb.State().String()
}

// countsAsSuccess treats any answer below 500 and caller cancellation as evidence the backend is healthy.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	status := transport.Status(err)
	return status > 0 && status < 500
}

func run[T any](b *BreakerService, fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(func() (any, error) {
		out, err := fn()
		return out, err
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
		}
		return zero, err
	}
	return v.(T), nil
}

func (b *BreakerService) ListArtists(ctx context.Context) ([]models.Artist, error) {
	return run(b, func() ([]models.Artist, error) { return b.next.ListArtists(ctx) })
}

func (b *BreakerService) CreateFromURL(ctx context.Context, url string) (*models.ArtistQueryResponse, error) {
	return run(b, func() (*models.ArtistQueryResponse, error) { return b.next.CreateFromURL(ctx, url) })
}

func (b *BreakerService) GetArtist(ctx context.Context, id int) (*models.Artist, error) {
	return run(b, func() (*models.Artist, error) { return b.next.GetArtist(ctx, id) })
}

func (b *BreakerService) ListPlaylists(ctx context.Context, id int) ([]models.PlaylistSummary, error) {
	return run(b, func() ([]models.PlaylistSummary, error) { return b.next.ListPlaylists(ctx, id) })
}

func (b *BreakerService) ListHistory(ctx context.Context, id int) ([]models.Snapshot, error) {
	return run(b, func() ([]models.Snapshot, error) { return b.next.ListHistory(ctx, id) })
}

func (b *BreakerService) RefreshArtist(ctx context.Context, id int) (*models.ArtistQueryResponse, error) {
	return run(b, func() (*models.ArtistQueryResponse, error) { return b.next.RefreshArtist(ctx, id) })
}

func (b *BreakerService) GetConfig(ctx context.Context) (*models.ProviderConfig, error) {
	return run(b, func() (*models.ProviderConfig, error) { return b.next.GetConfig(ctx) })
}

func (b *BreakerService) SetConfig(ctx context.Context, provider models.Provider) (*models.ProviderConfig, error) {
	return run(b, func() (*models.ProviderConfig, error) { return b.next.SetConfig(ctx, provider) })
}

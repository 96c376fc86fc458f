package tasks

import (
	"context"

	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/services"
	"golang.org/x/sync/errgroup"
)

// Detail is everything shown for one artist.
type Detail struct {
	Artist    models.Artist
	Playlists []models.PlaylistSummary
	History   []models.Snapshot // oldest first
}

// LoadDetail fetches an artist with its playlists and history concurrently. The first failure cancels the rest.
func LoadDetail(ctx context.Context, api services.API, id int) (*Detail, error) {
	g, ctx := errgroup.WithContext(ctx)

	var (
		artist    *models.Artist
		playlists []models.PlaylistSummary
		history   []models.Snapshot
	)

	g.Go(func() (err error) {
		artist, err = api.GetArtist(ctx, id)
		return err
	})
	g.Go(func() (err error) {
		playlists, err = api.ListPlaylists(ctx, id)
		return err
	})
	g.Go(func() (err error) {
		history, err = api.ListHistory(ctx, id)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	models.SortHistory(history)
	return &Detail{Artist: *artist, Playlists: playlists, History: history}, nil
}

// Counts returns the playlist totals of an ascending history, for charting.
func (d *Detail) Counts() []int {
	counts := make([]int, len(d.History))
	for i, s := range d.History {
		counts[i] = s.TotalPlaylistsFound
	}
	return counts
}

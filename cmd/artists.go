package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/hypertrack/internal/formatter"
	"github.com/desertthunder/hypertrack/internal/shared"
	"github.com/desertthunder/hypertrack/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ArtistsList prints the tracked artists.
func (r *Runner) ArtistsList(ctx context.Context, cmd *cli.Command) error {
	artists, err := r.api.ListArtists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(artists, true)
	}

	text, err := formatter.ArtistsText(artists)
	if err != nil {
		return err
	}
	return r.writeBytes(text)
}

// ArtistsAdd tracks an artist from a profile URL and reports the playlists found.
func (r *Runner) ArtistsAdd(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: profile URL", shared.ErrMissingArgument)
	}

	d := r.newDashboard()
	defer d.Close()

	r.logger.Info("adding artist", "url", url)

	resp, err := d.AddFromURL(ctx, url)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(resp, true)
	}

	r.writePlain("✓ Added %s (id %d)\n", resp.Artist.Name, resp.Artist.ID)
	r.writePlain("  Found on %s\n", shared.Plural(resp.Snapshot.TotalPlaylistsFound, "playlist"))
	for _, p := range resp.CurrentPlaylists {
		r.writePlain("  • %s [%s]\n", p.Name, p.PlaylistType.Label())
	}
	return nil
}

// ArtistsShow prints an artist with its current playlists and history.
func (r *Runner) ArtistsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := artistID(cmd)
	if err != nil {
		return err
	}

	detail, err := tasks.LoadDetail(ctx, r.api, id)
	if err != nil {
		return artistError(err, id)
	}

	if cmd.Bool("json") {
		return r.writeJSON(detail, true)
	}

	r.writePlainHeader(detail.Artist.Name)
	if detail.Artist.SpotifyURL != "" {
		r.writePlain("%s\n", detail.Artist.SpotifyURL)
	}
	r.writePlain("\n")

	playlists, err := formatter.PlaylistsText(detail.Playlists)
	if err != nil {
		return err
	}
	r.writeBytes(playlists)
	r.writePlain("\n")

	history, err := formatter.HistoryText(detail.Artist, detail.History)
	if err != nil {
		return err
	}
	return r.writeBytes(history)
}

// ArtistsPlaylists prints the playlists an artist currently appears on.
func (r *Runner) ArtistsPlaylists(ctx context.Context, cmd *cli.Command) error {
	id, err := artistID(cmd)
	if err != nil {
		return err
	}

	playlists, err := r.api.ListPlaylists(ctx, id)
	if err != nil {
		return artistError(err, id)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	var data []byte
	switch format := strings.ToLower(cmd.String("format")); format {
	case formatter.FormatText:
		data, err = formatter.PlaylistsText(playlists)
	case formatter.FormatCSV:
		data, err = formatter.PlaylistsCSV(playlists)
	default:
		return fmt.Errorf("%w: format %q (want text or csv)", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// ArtistsHistory prints an artist's snapshot history, oldest first, or writes it to --output.
func (r *Runner) ArtistsHistory(ctx context.Context, cmd *cli.Command) error {
	id, err := artistID(cmd)
	if err != nil {
		return err
	}

	detail, err := tasks.LoadDetail(ctx, r.api, id)
	if err != nil {
		return artistError(err, id)
	}

	if cmd.Bool("json") {
		return r.writeJSON(detail.History, true)
	}

	data, err := formatter.Render(cmd.String("format"), detail.Artist, detail.History)
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(data, output)
		if err != nil {
			return err
		}
		r.logger.Info("history exported", "artist", detail.Artist.Name, "path", path)
		return r.writePlain("✓ Exported %s to %s\n", shared.Plural(len(detail.History), "snapshot"), path)
	}
	return r.writeBytes(data)
}

// ArtistsRefresh runs discovery for an artist and reports gained and lost playlists.
func (r *Runner) ArtistsRefresh(ctx context.Context, cmd *cli.Command) error {
	id, err := artistID(cmd)
	if err != nil {
		return err
	}

	d := r.newDashboard()
	defer d.Close()

	r.logger.Info("refreshing artist", "id", id)

	resp, err := d.Refresh(ctx, id)
	if err != nil {
		return artistError(err, id)
	}

	if cmd.Bool("json") {
		return r.writeJSON(resp, true)
	}

	r.writePlain("✓ Refreshed %s: %s\n", resp.Artist.Name, formatter.ChangeSummary(len(resp.Changes.Gained), len(resp.Changes.Lost)))
	for _, p := range resp.Changes.Gained {
		r.writePlain("  + %s [%s]\n", p.Name, p.PlaylistType.Label())
	}
	for _, p := range resp.Changes.Lost {
		r.writePlain("  − %s [%s]\n", p.Name, p.PlaylistType.Label())
	}
	return r.writePlain("  Now on %s\n", shared.Plural(resp.Snapshot.TotalPlaylistsFound, "playlist"))
}

// ArtistsOpen opens the artist's profile URL in the default browser.
func (r *Runner) ArtistsOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := artistID(cmd)
	if err != nil {
		return err
	}

	artist, err := r.api.GetArtist(ctx, id)
	if err != nil {
		return artistError(err, id)
	}
	if artist.SpotifyURL == "" {
		return fmt.Errorf("%w: %s has no profile URL", shared.ErrEmptyURL, artist.Name)
	}

	if err := r.openURL(artist.SpotifyURL); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return r.writePlain("Opened %s\n", artist.SpotifyURL)
}

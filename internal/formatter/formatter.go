// package formatter renders artists, playlists and snapshot history as plain text, Markdown and CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/shared"
)

// Format names accepted by [Render]
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

const timeLayout = "2006-01-02 15:04"

var sparks = []rune("▁▂▃▄▅▆▇█")

// ChangeSummary renders gained/lost counts, e.g. "+2 gained, −1 lost".
func ChangeSummary(gained, lost int) string {
	switch {
	case gained == 0 && lost == 0:
		return "no changes"
	case lost == 0:
		return fmt.Sprintf("+%d gained", gained)
	case gained == 0:
		return fmt.Sprintf("−%d lost", lost)
	default:
		return fmt.Sprintf("+%d gained, −%d lost", gained, lost)
	}
}

// SnapshotLine renders one history row: time, playlist count and changes.
func SnapshotLine(s models.Snapshot) string {
	var b strings.Builder
	b.WriteString(formatTime(s.SnapshotTime))
	b.WriteString("  ")
	b.WriteString(shared.Plural(s.TotalPlaylistsFound, "playlist"))
	if s.GainedCount > 0 {
		fmt.Fprintf(&b, "  +%d gained", s.GainedCount)
	}
	if s.LostCount > 0 {
		fmt.Fprintf(&b, "  −%d lost", s.LostCount)
	}
	return b.String()
}

// Sparkline draws counts as a row of block characters scaled between their minimum and maximum.
func Sparkline(counts []int) string {
	if len(counts) == 0 {
		return ""
	}

	lo, hi := slices.Min(counts), slices.Max(counts)
	out := make([]rune, len(counts))
	for i, c := range counts {
		if hi == lo {
			out[i] = sparks[len(sparks)/2]
			continue
		}
		out[i] = sparks[(c-lo)*(len(sparks)-1)/(hi-lo)]
	}
	return string(out)
}

// HistoryText renders an artist's history oldest first, one snapshot per line.
func HistoryText(artist models.Artist, history []models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	history = ascending(history)

	fmt.Fprintf(&buf, "Artist: %s\n", artist.Name)
	fmt.Fprintf(&buf, "Snapshots: %d\n", len(history))
	if len(history) == 0 {
		buf.WriteString("\nNo snapshots yet.\n")
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "Trend: %s\n\n", Sparkline(counts(history)))
	for _, s := range history {
		buf.WriteString(SnapshotLine(s))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// HistoryMarkdown renders an artist's history oldest first as a Markdown table.
func HistoryMarkdown(artist models.Artist, history []models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	history = ascending(history)

	fmt.Fprintf(&buf, "# %s\n\n", artist.Name)
	if artist.SpotifyURL != "" {
		fmt.Fprintf(&buf, "**Profile**: %s\n\n", artist.SpotifyURL)
	}

	buf.WriteString("## History\n\n")
	if len(history) == 0 {
		buf.WriteString("No snapshots yet.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Time | Playlists | Gained | Lost |\n")
	buf.WriteString("|------|-----------|--------|------|\n")
	for _, s := range history {
		fmt.Fprintf(&buf, "| %s | %d | %d | %d |\n", formatTime(s.SnapshotTime), s.TotalPlaylistsFound, s.GainedCount, s.LostCount)
	}
	return buf.Bytes(), nil
}

// HistoryCSV renders history oldest first with columns: ID, Time, Playlists, Checked, Gained, Lost, Method
func HistoryCSV(history []models.Snapshot) ([]byte, error) {
	records := [][]string{{"ID", "Time", "Playlists", "Checked", "Gained", "Lost", "Method"}}
	for _, s := range ascending(history) {
		method := ""
		if s.DiscoveryMethodUsed != nil {
			method = *s.DiscoveryMethodUsed
		}
		records = append(records, []string{
			strconv.Itoa(s.ID),
			s.SnapshotTime.UTC().Format(time.RFC3339),
			strconv.Itoa(s.TotalPlaylistsFound),
			strconv.Itoa(s.PlaylistsCheckedCount),
			strconv.Itoa(s.GainedCount),
			strconv.Itoa(s.LostCount),
			method,
		})
	}
	return writeCSV(records)
}

// PlaylistsText renders current playlists, one per line with type and track counts.
func PlaylistsText(playlists []models.PlaylistSummary) ([]byte, error) {
	var buf bytes.Buffer

	if len(playlists) == 0 {
		buf.WriteString("No playlists found.\n")
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "%s\n\n", shared.Plural(len(playlists), "playlist"))
	for i, p := range playlists {
		fmt.Fprintf(&buf, "%d. %s [%s] %s\n", i+1, p.Name, p.PlaylistType.Label(), p.TrackLine())
	}
	return buf.Bytes(), nil
}

// PlaylistsCSV renders playlists with columns: ID, Name, Type, Artist Tracks, Total Tracks
func PlaylistsCSV(playlists []models.PlaylistSummary) ([]byte, error) {
	records := [][]string{{"ID", "Name", "Type", "Artist Tracks", "Total Tracks"}}
	for _, p := range playlists {
		total := ""
		if p.TotalTracks != nil {
			total = strconv.Itoa(*p.TotalTracks)
		}
		records = append(records, []string{
			strconv.Itoa(p.ID),
			p.Name,
			string(p.PlaylistType),
			strconv.Itoa(p.TracksCount),
			total,
		})
	}
	return writeCSV(records)
}

// ArtistsText renders the tracked artist list with each artist's latest snapshot summary.
func ArtistsText(artists []models.Artist) ([]byte, error) {
	var buf bytes.Buffer

	if len(artists) == 0 {
		buf.WriteString("No artists yet. Add one with a SoundCloud or Spotify profile URL.\n")
		return buf.Bytes(), nil
	}

	for _, a := range artists {
		fmt.Fprintf(&buf, "%4d  %s\n", a.ID, a.Name)
		buf.WriteString("      ")
		buf.WriteString(ArtistSummary(a))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ArtistSummary describes an artist's latest snapshot, or says it has none.
func ArtistSummary(a models.Artist) string {
	if !a.Tracked() {
		return "not checked yet"
	}

	parts := []string{}
	if a.LastPlaylistCount != nil {
		parts = append(parts, shared.Plural(*a.LastPlaylistCount, "playlist"))
	}
	if a.LastGainedCount != nil && *a.LastGainedCount > 0 {
		parts = append(parts, fmt.Sprintf("+%d gained", *a.LastGainedCount))
	}
	if a.LastLostCount != nil && *a.LastLostCount > 0 {
		parts = append(parts, fmt.Sprintf("−%d lost", *a.LastLostCount))
	}
	if a.LastSnapshotAt != nil {
		parts = append(parts, "checked "+formatTime(*a.LastSnapshotAt))
	}
	return strings.Join(parts, " · ")
}

// Render renders history in the named format.
func Render(format string, artist models.Artist, history []models.Snapshot) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return HistoryText(artist, history)
	case FormatMarkdown, "md":
		return HistoryMarkdown(artist, history)
	case FormatCSV:
		return HistoryCSV(history)
	default:
		return nil, fmt.Errorf("%w: format %q (want text, markdown or csv)", shared.ErrInvalidFlag, format)
	}
}

// WriteExport writes data to path, creating parent directories as needed.
func WriteExport(data []byte, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func ascending(history []models.Snapshot) []models.Snapshot {
	out := slices.Clone(history)
	models.SortHistory(out)
	return out
}

func counts(history []models.Snapshot) []int {
	out := make([]int, len(history))
	for i, s := range history {
		out[i] = s.TotalPlaylistsFound
	}
	return out
}

func formatTime(t models.Timestamp) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(timeLayout)
}

package models

import (
	"fmt"
	"sort"
	"strings"
)

// PlaylistType classifies how a playlist is curated.
type PlaylistType string

const (
	PlaylistEditorial     PlaylistType = "editorial"
	PlaylistAlgorithmic   PlaylistType = "algorithmic"
	PlaylistUserGenerated PlaylistType = "user_generated"
)

// Label returns a display label. Unknown types are shown as sent.
func (t PlaylistType) Label() string {
	switch PlaylistType(strings.ToLower(string(t))) {
	case PlaylistEditorial:
		return "Editorial"
	case PlaylistAlgorithmic:
		return "Algorithmic"
	case PlaylistUserGenerated:
		return "User"
	default:
		return string(t)
	}
}

// Artist is a tracked artist. The Last* fields are only populated by the list endpoint.
type Artist struct {
	ID                int        `json:"id"`
	SpotifyArtistID   string     `json:"spotify_artist_id"`
	Name              string     `json:"name"`
	SpotifyURL        string     `json:"spotify_url"`
	ImageURL          *string    `json:"image_url"`
	LastSnapshotAt    *Timestamp `json:"last_snapshot_at,omitempty"`
	LastPlaylistCount *int       `json:"last_playlist_count,omitempty"`
	LastGainedCount   *int       `json:"last_gained_count,omitempty"`
	LastLostCount     *int       `json:"last_lost_count,omitempty"`
}

// Tracked reports whether the artist has at least one snapshot.
func (a Artist) Tracked() bool {
	return a.LastSnapshotAt != nil
}

// PlaylistSummary is a playlist the artist appears on.
type PlaylistSummary struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	PlaylistType PlaylistType `json:"playlist_type"`
	TracksCount  int          `json:"tracks_count"`
	TotalTracks  *int         `json:"total_tracks,omitempty"`
}

// TrackLine describes the playlist's size and the artist's share of it.
func (p PlaylistSummary) TrackLine() string {
	if p.TotalTracks != nil {
		line := pluralize(*p.TotalTracks, "track")
		if p.TracksCount > 0 {
			line += fmt.Sprintf(" (%d by artist)", p.TracksCount)
		}
		return line
	}
	return pluralize(p.TracksCount, "track") + " by artist"
}

// Snapshot is one discovery run for an artist, with the changes relative to the previous run.
type Snapshot struct {
	ID                    int       `json:"id"`
	ArtistID              int       `json:"artist_id"`
	SnapshotTime          Timestamp `json:"snapshot_time"`
	TotalPlaylistsFound   int       `json:"total_playlists_found"`
	PlaylistsCheckedCount int       `json:"playlists_checked_count"`
	DiscoveryMethodUsed   *string   `json:"discovery_method_used"`
	GainedCount           int       `json:"gained_count"`
	LostCount             int       `json:"lost_count"`
}

// SnapshotRef is the abbreviated snapshot embedded in an [ArtistQueryResponse].
type SnapshotRef struct {
	ID                  int       `json:"id"`
	SnapshotTime        Timestamp `json:"snapshot_time"`
	TotalPlaylistsFound int       `json:"total_playlists_found"`
}

// Changes lists the playlists gained and lost since the previous snapshot.
type Changes struct {
	Gained []PlaylistSummary `json:"gained"`
	Lost   []PlaylistSummary `json:"lost"`
}

// ArtistQueryResponse is returned when an artist is created from a URL or refreshed.
type ArtistQueryResponse struct {
	Artist           Artist            `json:"artist"`
	Snapshot         SnapshotRef       `json:"snapshot"`
	Changes          Changes           `json:"changes"`
	CurrentPlaylists []PlaylistSummary `json:"current_playlists"`
}

// SortHistory orders snapshots oldest first, in place. Snapshots with equal times keep ID order.
func SortHistory(history []Snapshot) {
	sort.SliceStable(history, func(i, j int) bool {
		ti, tj := history[i].SnapshotTime.Time, history[j].SnapshotTime.Time
		if ti.Equal(tj) {
			return history[i].ID < history[j].ID
		}
		return ti.Before(tj)
	})
}

// Latest returns the newest snapshot of an ascending history.
func Latest(history []Snapshot) (Snapshot, bool) {
	if len(history) == 0 {
		return Snapshot{}, false
	}
	return history[len(history)-1], true
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

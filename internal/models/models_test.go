package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "zoned", input: `"2025-03-01T10:30:00Z"`, want: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{name: "offset", input: `"2025-03-01T12:30:00+02:00"`, want: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{name: "naive with micros", input: `"2025-03-01T10:30:00.123456"`, want: time.Date(2025, 3, 1, 10, 30, 0, 123456000, time.UTC)},
		{name: "naive", input: `"2025-03-01T10:30:00"`, want: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.input), &ts); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("got %v, want %v", ts.Time, tt.want)
			}
		})
	}

	t.Run("null leaves zero value", func(t *testing.T) {
		var ts Timestamp
		if err := json.Unmarshal([]byte(`null`), &ts); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !ts.IsZero() || ts.Display() != "never" {
			t.Errorf("expected zero timestamp, got %v", ts.Time)
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		var ts Timestamp
		if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
			t.Error("expected error for unparseable timestamp")
		}
	})
}

func TestArtistDecode(t *testing.T) {
	body := `{
		"id": 7,
		"spotify_artist_id": "4Z8W4fKeB5YxbusRsdQVPb",
		"name": "Radiohead",
		"spotify_url": "https://open.spotify.com/artist/4Z8W4fKeB5YxbusRsdQVPb",
		"image_url": null,
		"last_snapshot_at": "2025-03-01T10:30:00",
		"last_playlist_count": 12,
		"last_gained_count": 2,
		"last_lost_count": 0
	}`

	var a Artist
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if a.ID != 7 || a.Name != "Radiohead" {
		t.Errorf("unexpected artist %+v", a)
	}
	if a.ImageURL != nil {
		t.Error("expected nil image URL")
	}
	if !a.Tracked() || *a.LastPlaylistCount != 12 || *a.LastGainedCount != 2 {
		t.Errorf("expected summary fields to decode, got %+v", a)
	}

	var bare Artist
	if err := json.Unmarshal([]byte(`{"id":1,"name":"New"}`), &bare); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if bare.Tracked() {
		t.Error("artist without snapshot should not report tracked")
	}
}

func TestSortHistory(t *testing.T) {
	at := func(day int) Timestamp {
		return Timestamp{Time: time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)}
	}

	history := []Snapshot{
		{ID: 3, SnapshotTime: at(3)},
		{ID: 1, SnapshotTime: at(1)},
		{ID: 5, SnapshotTime: at(2)},
		{ID: 4, SnapshotTime: at(2)},
	}

	SortHistory(history)

	want := []int{1, 4, 5, 3}
	for i, id := range want {
		if history[i].ID != id {
			t.Fatalf("position %d: got id %d, want %d (order %v)", i, history[i].ID, id, history)
		}
	}

	latest, ok := Latest(history)
	if !ok || latest.ID != 3 {
		t.Errorf("Latest() = %v, %v", latest.ID, ok)
	}

	if _, ok := Latest(nil); ok {
		t.Error("Latest(nil) should report false")
	}
}

func TestPlaylistSummary(t *testing.T) {
	total := 50
	one := 1

	tc := []struct {
		name string
		p    PlaylistSummary
		want string
	}{
		{name: "total and share", p: PlaylistSummary{TracksCount: 2, TotalTracks: &total}, want: "50 tracks (2 by artist)"},
		{name: "total without share", p: PlaylistSummary{TotalTracks: &one}, want: "1 track"},
		{name: "share only", p: PlaylistSummary{TracksCount: 1}, want: "1 track by artist"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.TrackLine(); got != tt.want {
				t.Errorf("TrackLine() = %q, want %q", got, tt.want)
			}
		})
	}

	if PlaylistType("EDITORIAL").Label() != "Editorial" {
		t.Error("playlist type labels should be case-insensitive")
	}
	if PlaylistType("curated").Label() != "curated" {
		t.Error("unknown playlist types should be shown as sent")
	}
}

func TestProvider(t *testing.T) {
	p, err := ParseProvider(" SoundCloud ")
	if err != nil || p != ProviderSoundCloud {
		t.Fatalf("ParseProvider() = %v, %v", p, err)
	}
	if p.Toggle() != ProviderSpotify || ProviderSpotify.Toggle() != ProviderSoundCloud {
		t.Error("Toggle() should switch between providers")
	}
	if _, err := ParseProvider("tidal"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

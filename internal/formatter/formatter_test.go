package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/shared"
	th "github.com/desertthunder/hypertrack/internal/testing"
)

func ts(day, hour int) models.Timestamp {
	return models.Timestamp{Time: time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)}
}

func intp(n int) *int { return &n }

func testHistory() []models.Snapshot {
	method := "search"
	return []models.Snapshot{
		{ID: 3, SnapshotTime: ts(3, 9), TotalPlaylistsFound: 5, GainedCount: 2, LostCount: 1},
		{ID: 1, SnapshotTime: ts(1, 9), TotalPlaylistsFound: 1, DiscoveryMethodUsed: &method},
		{ID: 2, SnapshotTime: ts(2, 9), TotalPlaylistsFound: 4, GainedCount: 3},
	}
}

func TestChangeSummary(t *testing.T) {
	tests := []struct {
		gained, lost int
		want         string
	}{
		{0, 0, "no changes"},
		{3, 0, "+3 gained"},
		{0, 2, "−2 lost"},
		{1, 1, "+1 gained, −1 lost"},
	}

	for _, tt := range tests {
		if got := ChangeSummary(tt.gained, tt.lost); got != tt.want {
			t.Errorf("ChangeSummary(%d, %d) = %q, want %q", tt.gained, tt.lost, got, tt.want)
		}
	}
}

func TestSnapshotLine(t *testing.T) {
	tests := []struct {
		name string
		snap models.Snapshot
		want string
	}{
		{"singular", models.Snapshot{SnapshotTime: ts(1, 9), TotalPlaylistsFound: 1}, "2025-03-01 09:00  1 playlist"},
		{"gained", models.Snapshot{SnapshotTime: ts(1, 9), TotalPlaylistsFound: 4, GainedCount: 3}, "2025-03-01 09:00  4 playlists  +3 gained"},
		{"both", models.Snapshot{SnapshotTime: ts(1, 9), TotalPlaylistsFound: 0, GainedCount: 1, LostCount: 2}, "2025-03-01 09:00  0 playlists  +1 gained  −2 lost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnapshotLine(tt.snap); got != tt.want {
				t.Errorf("SnapshotLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Errorf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]int{0, 7}); got != "▁█" {
		t.Errorf("expected ▁█, got %q", got)
	}
	if got := Sparkline([]int{3, 3, 3}); got != "▅▅▅" {
		t.Errorf("expected flat line, got %q", got)
	}
	if got := []rune(Sparkline([]int{1, 4, 5, 2})); len(got) != 4 {
		t.Errorf("expected one rune per value, got %d", len(got))
	}
}

func TestHistoryExporters(t *testing.T) {
	artist := models.Artist{ID: 7, Name: "Bicep", SpotifyURL: "https://open.spotify.com/artist/bicep"}

	t.Run("HistoryText", func(t *testing.T) {
		data, err := HistoryText(artist, testHistory())
		if err != nil {
			t.Fatalf("HistoryText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Artist: Bicep") || !strings.Contains(output, "Snapshots: 3") {
			t.Errorf("missing header, got: %s", output)
		}

		first := strings.Index(output, "2025-03-01")
		second := strings.Index(output, "2025-03-02")
		third := strings.Index(output, "2025-03-03")
		if first < 0 || first > second || second > third {
			t.Errorf("expected oldest first, got: %s", output)
		}
	})

	t.Run("HistoryText Empty", func(t *testing.T) {
		data, _ := HistoryText(artist, nil)
		if !strings.Contains(string(data), "No snapshots yet.") {
			t.Errorf("expected empty message, got: %s", data)
		}
	})

	t.Run("Does Not Reorder Input", func(t *testing.T) {
		history := testHistory()
		if _, err := HistoryText(artist, history); err != nil {
			t.Fatal(err)
		}
		if history[0].ID != 3 {
			t.Errorf("expected caller's slice untouched, got first ID %d", history[0].ID)
		}
	})

	t.Run("HistoryMarkdown", func(t *testing.T) {
		data, err := HistoryMarkdown(artist, testHistory())
		if err != nil {
			t.Fatalf("HistoryMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Bicep",
			"**Profile**: https://open.spotify.com/artist/bicep",
			"| Time | Playlists | Gained | Lost |",
			"| 2025-03-03 09:00 | 5 | 2 | 1 |",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("HistoryCSV", func(t *testing.T) {
		data, err := HistoryCSV(testHistory())
		if err != nil {
			t.Fatalf("HistoryCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header plus 3 rows, got %d", len(lines))
		}
		if lines[0] != "ID,Time,Playlists,Checked,Gained,Lost,Method" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[1] != "1,2025-03-01T09:00:00Z,1,0,0,0,search" {
			t.Errorf("unexpected first row %q", lines[1])
		}
	})

	t.Run("Render", func(t *testing.T) {
		for _, format := range []string{"", "text", "markdown", "md", "CSV"} {
			if _, err := Render(format, artist, testHistory()); err != nil {
				t.Errorf("Render(%q) error = %v", format, err)
			}
		}

		if _, err := Render("xml", artist, nil); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestPlaylistExporters(t *testing.T) {
	playlists := []models.PlaylistSummary{
		{ID: 1, Name: "mint", PlaylistType: models.PlaylistEditorial, TracksCount: 2, TotalTracks: intp(100)},
		{ID: 2, Name: "Discover, Weekly", PlaylistType: models.PlaylistAlgorithmic, TracksCount: 1},
	}

	t.Run("PlaylistsText", func(t *testing.T) {
		data, err := PlaylistsText(playlists)
		if err != nil {
			t.Fatalf("PlaylistsText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "2 playlists") {
			t.Errorf("missing count, got: %s", output)
		}
		if !strings.Contains(output, "1. mint [Editorial] 100 tracks (2 by artist)") {
			t.Errorf("missing first playlist, got: %s", output)
		}
	})

	t.Run("PlaylistsText Empty", func(t *testing.T) {
		data, _ := PlaylistsText(nil)
		if string(data) != "No playlists found.\n" {
			t.Errorf("unexpected output %q", data)
		}
	})

	t.Run("PlaylistsCSV", func(t *testing.T) {
		data, err := PlaylistsCSV(playlists)
		if err != nil {
			t.Fatalf("PlaylistsCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Name,Type,Artist Tracks,Total Tracks") {
			t.Errorf("missing headers, got: %s", output)
		}
		if !strings.Contains(output, `2,"Discover, Weekly",algorithmic,1,`) {
			t.Errorf("expected quoted name and empty total, got: %s", output)
		}
	})
}

func TestArtistsText(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		data, _ := ArtistsText(nil)
		if !strings.HasPrefix(string(data), "No artists yet.") {
			t.Errorf("unexpected output %q", data)
		}
	})

	t.Run("Summaries", func(t *testing.T) {
		checked := ts(4, 18)
		artists := []models.Artist{
			{ID: 1, Name: "Bicep", LastSnapshotAt: &checked, LastPlaylistCount: intp(5), LastGainedCount: intp(2), LastLostCount: intp(0)},
			{ID: 2, Name: "Overmono"},
		}

		data, err := ArtistsText(artists)
		if err != nil {
			t.Fatalf("ArtistsText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "5 playlists · +2 gained · checked 2025-03-04 18:00") {
			t.Errorf("missing summary, got: %s", output)
		}
		if strings.Contains(output, "−0 lost") {
			t.Errorf("zero losses should be omitted, got: %s", output)
		}
		if !strings.Contains(output, "not checked yet") {
			t.Errorf("missing untracked marker, got: %s", output)
		}
	})
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exports", "bicep.csv")

	got, err := WriteExport([]byte("a,b\n"), path)
	if err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	if got != path {
		t.Errorf("expected %s, got %s", path, got)
	}

	th.AssertFileExists(t, path)
	if data, _ := os.ReadFile(path); string(data) != "a,b\n" {
		t.Errorf("unexpected contents %q", data)
	}

	if _, err := WriteExport(nil, ""); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

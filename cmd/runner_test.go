package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/hypertrack/internal/gate"
	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/repositories"
	"github.com/desertthunder/hypertrack/internal/shared"
	tu "github.com/desertthunder/hypertrack/internal/testing"
	"github.com/desertthunder/hypertrack/internal/transport"
)

const (
	testEmail    = "a@b.com"
	testPassword = "pw"
)

type harness struct {
	backend *tu.FakeBackend
	store   *repositories.MemoryStore
	output  *bytes.Buffer
	runner  *Runner
	opened  []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := tu.NewFakeBackend(t)
	backend.AddUser(testEmail, testPassword)

	client := transport.New(transport.Options{
		BaseURL:        backend.URL(),
		ServiceKey:     tu.FakeAPIKey,
		AuthTimeout:    2 * time.Second,
		RequestTimeout: 2 * time.Second,
	})

	h := &harness{
		backend: backend,
		store:   repositories.NewMemoryStore(),
		output:  &bytes.Buffer{},
	}
	h.runner = NewRunner(RunnerOpts{
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: h.output,
		Input:  strings.NewReader(""),
		Client: client,
		Store:  h.store,
		OpenURL: func(u string) error {
			h.opened = append(h.opened, u)
			return nil
		},
	})
	return h
}

// run executes args against a fresh root command and returns what was written.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	h.output.Reset()
	err := newApp(h.runner).Run(context.Background(), append([]string{"hypertrack"}, args...))
	return h.output.String(), err
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	if _, err := h.run(t, "auth", "login", "--email", testEmail, "--password", testPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func (h *harness) seedArtist(t *testing.T) models.Artist {
	t.Helper()
	count := 3
	return h.backend.AddArtist(testEmail, models.Artist{
		Name:              "Radiohead",
		SpotifyURL:        "https://open.spotify.com/artist/4Z8W4fKeB5YxbusRsdQVPb",
		LastPlaylistCount: &count,
	}, []models.PlaylistSummary{
		{ID: 11, Name: "This Is Radiohead", PlaylistType: models.PlaylistEditorial, TracksCount: 50},
		{ID: 12, Name: "Daily Mix 1", PlaylistType: models.PlaylistAlgorithmic, TracksCount: 4},
	}, []models.Snapshot{
		{ID: 2, SnapshotTime: ts(t, "2025-02-01T10:00:00Z"), TotalPlaylistsFound: 3, GainedCount: 1},
		{ID: 1, SnapshotTime: ts(t, "2025-01-01T10:00:00Z"), TotalPlaylistsFound: 2},
	})
}

func ts(t *testing.T, s string) models.Timestamp {
	t.Helper()
	v, err := models.ParseTimestamp(s)
	if err != nil {
		t.Fatalf("ParseTimestamp(%q): %v", s, err)
	}
	return v
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with client and store wires immediately", func(t *testing.T) {
			h := newHarness(t)

			if h.runner.config == nil {
				t.Error("expected default config")
			}
			if h.runner.session == nil {
				t.Error("expected session manager to be wired")
			}
			if h.runner.api == nil {
				t.Error("expected api to be wired")
			}
			if h.runner.themes == nil || h.runner.tokens == nil {
				t.Error("expected stores to be wired")
			}
		})

		t.Run("without client defers wiring to Init", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.logger == nil {
				t.Error("expected default logger")
			}
			if runner.session != nil {
				t.Error("expected session to be unset before Init")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		h := newHarness(t)
		names := []string{}
		for _, c := range h.runner.register() {
			names = append(names, c.Name)
		}

		want := []string{"auth", "artists", "provider", "theme", "api", "setup", "tui"}
		if strings.Join(names, ",") != strings.Join(want, ",") {
			t.Errorf("register() = %v, want %v", names, want)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		h := newHarness(t)

		if err := h.runner.writeJSON(map[string]int{"a": 1}, false); err != nil {
			t.Fatalf("writeJSON() error = %v", err)
		}
		if got := h.output.String(); got != "{\"a\":1}\n" {
			t.Errorf("writeJSON() wrote %q", got)
		}

		h.output.Reset()
		if err := h.runner.writeJSON(func() {}, false); err == nil {
			t.Error("expected marshal error for func value")
		}
	})

	t.Run("writePlain", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := runner.writePlain("hello %s", "world"); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("prompt shares buffered input", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Input: strings.NewReader("me@x.com\nsecret\n")})

		email, err := runner.prompt("Email")
		if err != nil || email != "me@x.com" {
			t.Fatalf("prompt(Email) = %q, %v", email, err)
		}
		password, err := runner.prompt("Password")
		if err != nil || password != "secret" {
			t.Fatalf("prompt(Password) = %q, %v", password, err)
		}
	})
}

func TestArtistID(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	if _, err := h.run(t, "artists", "show"); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
	if _, err := h.run(t, "artists", "show", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := h.run(t, "artists", "show", "-3"); err == nil {
		t.Error("expected error for negative id")
	}
}

func TestAuthCommands(t *testing.T) {
	t.Run("login stores token", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run(t, "auth", "login", "--email", testEmail, "--password", testPassword)
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !strings.Contains(out, "Logged in as "+testEmail) {
			t.Errorf("unexpected output: %q", out)
		}
		if token, _ := h.store.Get(repositories.TokenKey); token == "" {
			t.Error("expected token to be stored")
		}
	})

	t.Run("login prompts for missing credentials", func(t *testing.T) {
		h := newHarness(t)
		h.runner.input.Reset(strings.NewReader(testEmail + "\n" + testPassword + "\n"))

		out, err := h.run(t, "auth", "login")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !strings.Contains(out, "Email: ") || !strings.Contains(out, "Logged in as "+testEmail) {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("login with wrong password keeps the user logged out", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run(t, "auth", "login", "--email", testEmail, "--password", "nope")
		if err == nil {
			t.Fatal("expected login to fail")
		}
		if transport.Status(err) != 401 {
			t.Errorf("expected 401, got %v", err)
		}
		if token, _ := h.store.Get(repositories.TokenKey); token != "" {
			t.Error("expected no stored token")
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		h := newHarness(t)

		if _, err := h.run(t, "auth", "login", "--email", testEmail); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("signup", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run(t, "auth", "signup", "--email", "new@b.com", "--password", "pw2")
		if err != nil {
			t.Fatalf("signup failed: %v", err)
		}
		if !strings.Contains(out, "Account created, logged in as new@b.com") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("status", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run(t, "auth", "status")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(out, "Not logged in") {
			t.Errorf("expected logged out status, got %q", out)
		}

		h.login(t)
		out, err = h.run(t, "auth", "status")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		for _, want := range []string{"Session", "Email:   " + testEmail, "Backend: " + h.backend.URL()} {
			if !strings.Contains(out, want) {
				t.Errorf("status output missing %q:\n%s", want, out)
			}
		}

		out, err = h.run(t, "--json", "auth", "status")
		if err != nil {
			t.Fatalf("status --json failed: %v", err)
		}
		var payload struct {
			State string       `json:"state"`
			User  *models.User `json:"user"`
		}
		if err := json.Unmarshal([]byte(out), &payload); err != nil {
			t.Fatalf("status --json is not JSON: %v\n%s", err, out)
		}
		if payload.State != "authenticated" || payload.User == nil || payload.User.Email != testEmail {
			t.Errorf("unexpected payload: %+v", payload)
		}
	})

	t.Run("status with revoked token", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		h.backend.RevokeTokens()

		out, err := h.run(t, "auth", "status")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(out, "Not logged in") {
			t.Errorf("expected logged out status, got %q", out)
		}
		if token, _ := h.store.Get(repositories.TokenKey); token != "" {
			t.Error("expected rejected token to be cleared")
		}
	})

	t.Run("logout", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		calls := h.backend.TotalCalls()

		out, err := h.run(t, "auth", "logout")
		if err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if !strings.Contains(out, "Logged out") {
			t.Errorf("unexpected output: %q", out)
		}
		if h.backend.TotalCalls() != calls {
			t.Error("logout should not call the backend")
		}
		if token, _ := h.store.Get(repositories.TokenKey); token != "" {
			t.Error("expected token to be cleared")
		}
	})
}

func TestArtistsCommands(t *testing.T) {
	t.Run("gated without session", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run(t, "artists", "list")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		var lre *gate.LoginRequiredError
		if !errors.As(err, &lre) || !strings.Contains(lre.From, "artists") {
			t.Errorf("expected login redirect naming the command, got %v", err)
		}
		if h.backend.Calls("GET", "/api/artists") != 0 {
			t.Error("gated command should not reach the backend")
		}
	})

	t.Run("list", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		out, err := h.run(t, "artists", "list")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(out, "No artists yet") {
			t.Errorf("expected empty list, got %q", out)
		}

		a := h.seedArtist(t)
		out, err = h.run(t, "artists", "ls")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(out, a.Name) || !strings.Contains(out, "3 playlists") {
			t.Errorf("unexpected list output: %q", out)
		}
	})

	t.Run("add", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		out, err := h.run(t, "artists", "add", "https://soundcloud.com/someone")
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if !strings.Contains(out, "✓ Added") || !strings.Contains(out, "Found on 2 playlists") {
			t.Errorf("unexpected add output: %q", out)
		}

		if _, err := h.run(t, "artists", "add"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("show", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		a := h.seedArtist(t)

		out, err := h.run(t, "artists", "show", strconv.Itoa(a.ID))
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		for _, want := range []string{a.Name, a.SpotifyURL, "This Is Radiohead", "Snapshots: 2"} {
			if !strings.Contains(out, want) {
				t.Errorf("show output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("show unknown artist", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		_, err := h.run(t, "artists", "show", "999")
		if !errors.Is(err, shared.ErrArtistNotFound) || !strings.Contains(err.Error(), "id 999") {
			t.Errorf("expected ErrArtistNotFound for id 999, got %v", err)
		}

		if _, err := h.run(t, "artists", "open", "999"); !errors.Is(err, shared.ErrArtistNotFound) {
			t.Errorf("expected ErrArtistNotFound from open, got %v", err)
		}
	})

	t.Run("playlists formats", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		a := h.seedArtist(t)

		out, err := h.run(t, "artists", "playlists", "--format", "csv", strconv.Itoa(a.ID))
		if err != nil {
			t.Fatalf("playlists failed: %v", err)
		}
		if !strings.HasPrefix(out, "ID,Name,Type,Artist Tracks,Total Tracks\n") {
			t.Errorf("unexpected csv: %q", out)
		}

		if _, err := h.run(t, "artists", "playlists", "--format", "xml", strconv.Itoa(a.ID)); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("history oldest first", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		a := h.seedArtist(t)

		out, err := h.run(t, "artists", "history", strconv.Itoa(a.ID))
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		jan, feb := strings.Index(out, "2025-01-01"), strings.Index(out, "2025-02-01")
		if jan < 0 || feb < 0 || jan > feb {
			t.Errorf("expected January before February:\n%s", out)
		}

		out, err = h.run(t, "artists", "history", "-f", "markdown", strconv.Itoa(a.ID))
		if err != nil {
			t.Fatalf("history markdown failed: %v", err)
		}
		if !strings.Contains(out, "# Radiohead") || !strings.Contains(out, "| Time | Playlists | Gained | Lost |") {
			t.Errorf("unexpected markdown:\n%s", out)
		}
	})

	t.Run("history export", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		a := h.seedArtist(t)
		path := filepath.Join(t.TempDir(), "exports", "history.csv")

		out, err := h.run(t, "artists", "history", "-f", "csv", "-o", path, strconv.Itoa(a.ID))
		if err != nil {
			t.Fatalf("history export failed: %v", err)
		}
		if !strings.Contains(out, "Exported 2 snapshots") {
			t.Errorf("unexpected output: %q", out)
		}

		data := tu.MustReadFile(t, path)
		if !strings.HasPrefix(data, "ID,Time,Playlists,Checked,Gained,Lost,Method\n1,") {
			t.Errorf("unexpected export:\n%s", data)
		}
	})

	t.Run("refresh reports changes", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		a := h.seedArtist(t)
		h.backend.SetDiscovery(a.ID, []models.PlaylistSummary{
			{ID: 11, Name: "This Is Radiohead", PlaylistType: models.PlaylistEditorial, TracksCount: 50},
			{ID: 13, Name: "Alt Rock Classics", PlaylistType: models.PlaylistUserGenerated, TracksCount: 1},
		})

		out, err := h.run(t, "artists", "refresh", strconv.Itoa(a.ID))
		if err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		for _, want := range []string{"✓ Refreshed Radiohead: +1 gained, −1 lost", "+ Alt Rock Classics", "− Daily Mix 1"} {
			if !strings.Contains(out, want) {
				t.Errorf("refresh output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("open", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		a := h.seedArtist(t)

		if _, err := h.run(t, "artists", "open", strconv.Itoa(a.ID)); err != nil {
			t.Fatalf("open failed: %v", err)
		}
		if len(h.opened) != 1 || h.opened[0] != a.SpotifyURL {
			t.Errorf("opened = %v", h.opened)
		}
	})
}

func TestPreferenceCommands(t *testing.T) {
	t.Run("provider", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		out, err := h.run(t, "provider", "get")
		if err != nil {
			t.Fatalf("provider get failed: %v", err)
		}
		if strings.TrimSpace(out) != models.ProviderSpotify.Label() {
			t.Errorf("unexpected provider: %q", out)
		}

		if _, err := h.run(t, "provider", "set", "soundcloud"); err != nil {
			t.Fatalf("provider set failed: %v", err)
		}
		if h.backend.Provider() != models.ProviderSoundCloud {
			t.Errorf("backend provider = %s", h.backend.Provider())
		}

		if _, err := h.run(t, "provider", "set", "tidal"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("theme does not need a session", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run(t, "theme", "get")
		if err != nil {
			t.Fatalf("theme get failed: %v", err)
		}
		if strings.TrimSpace(out) != "dark" {
			t.Errorf("expected default dark theme, got %q", out)
		}

		if _, err := h.run(t, "theme", "set", "LIGHT"); err != nil {
			t.Fatalf("theme set failed: %v", err)
		}
		if v, _ := h.store.Get(repositories.ThemeKey); v != "light" {
			t.Errorf("stored theme = %q", v)
		}

		if _, err := h.run(t, "theme", "set", "sepia"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("get with stored token", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		out, err := h.run(t, "api", "get", "/api/config")
		if err != nil {
			t.Fatalf("api get failed: %v", err)
		}
		if !strings.Contains(out, `"provider": "spotify"`) {
			t.Errorf("unexpected body: %q", out)
		}

		req, ok := h.backend.LastRequest("GET", "/api/config")
		if !ok || !strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
			t.Error("expected bearer token on raw request")
		}
	})

	t.Run("get accepts paths relative to the API root", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		out, err := h.run(t, "api", "get", "/config")
		if err != nil {
			t.Fatalf("api get failed: %v", err)
		}
		if !strings.Contains(out, `"provider": "spotify"`) {
			t.Errorf("unexpected body: %q", out)
		}
		if h.backend.Calls("GET", "/api/config") != 1 {
			t.Errorf("expected one call to /api/config, got %d", h.backend.Calls("GET", "/api/config"))
		}
	})

	t.Run("get without token surfaces status", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run(t, "api", "get", "/api/artists")
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "status 401") {
			t.Errorf("expected 401 API error, got %v", err)
		}
	})

	t.Run("post validates JSON", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if _, err := h.run(t, "api", "post", "--data", "{nope", "/api/artists/from-url"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestSetupConfig(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	h.runner.configPath = path

	if _, err := h.run(t, "setup", "config"); err != nil {
		t.Fatalf("setup config failed: %v", err)
	}
	tu.AssertFileExists(t, path)

	if _, err := h.run(t, "setup", "config"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected refusal to overwrite, got %v", err)
	}
	if _, err := h.run(t, "setup", "config", "--force"); err != nil {
		t.Errorf("setup config --force failed: %v", err)
	}
}

func TestSetupDatabase(t *testing.T) {
	h := newHarness(t)
	h.runner.config.Database.Path = filepath.Join(t.TempDir(), "db", "hypertrack.db")

	out, err := h.run(t, "setup", "database")
	if err != nil {
		t.Fatalf("setup database failed: %v", err)
	}
	if !strings.Contains(out, "Database ready") || !strings.Contains(out, "Schema version 0") {
		t.Errorf("unexpected output: %q", out)
	}
	tu.AssertDirExists(t, filepath.Dir(h.runner.config.Database.Path))
	tu.AssertFileExists(t, h.runner.config.Database.Path)

	out, err = h.run(t, "setup", "database", "--rollback")
	if err != nil {
		t.Fatalf("setup database --rollback failed: %v", err)
	}
	if !strings.Contains(out, "Rolled back") || !strings.Contains(out, "0 migrations applied, 1 pending") {
		t.Errorf("unexpected rollback output: %q", out)
	}

	if _, err := h.run(t, "setup", "database", "--rollback"); err == nil {
		t.Error("expected rollback with nothing applied to fail")
	}
}

func TestInitEphemeral(t *testing.T) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{}), Output: output})
	defer runner.Close()

	config := filepath.Join(t.TempDir(), "missing.toml")
	args := []string{"hypertrack", "--ephemeral", "--config", config, "theme", "set", "light"}
	if err := newApp(runner).Run(context.Background(), args); err != nil {
		t.Fatalf("theme set failed: %v", err)
	}

	if _, ok := runner.store.(*repositories.MemoryStore); !ok {
		t.Errorf("expected in-memory store, got %T", runner.store)
	}
	if runner.db != nil {
		t.Error("ephemeral run should not open the database")
	}
	if !strings.Contains(output.String(), "Theme set to light") {
		t.Errorf("unexpected output: %q", output.String())
	}
}

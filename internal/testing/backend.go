package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/hypertrack/internal/models"
)

// FakeAPIKey is the service key a [FakeBackend] accepts unless changed.
const FakeAPIKey = "test-key"

// FakeBackend is an in-memory Hypertrack backend served over [httptest.Server].
//
// Every request is recorded before it is handled, so a test can observe a call while it is still pending.
// Individual routes can be made to fail ([FakeBackend.FailNext]) or to block until released ([FakeBackend.Hold]).
type FakeBackend struct {
	Server *httptest.Server
	APIKey string

	mu        sync.Mutex
	nextID    int
	clock     time.Time
	users     map[string]*fakeUser
	tokens    map[string]int
	artists   map[int]*fakeArtist
	provider  models.Provider
	discovery map[int][]models.PlaylistSummary
	failures  map[string][]failure
	holds     map[string]*hold
	requests  []RecordedRequest
}

// RecordedRequest is a request as received by a [FakeBackend].
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type fakeUser struct {
	user     models.User
	password string
}

type fakeArtist struct {
	owner     int
	artist    models.Artist
	playlists []models.PlaylistSummary
	history   []models.Snapshot
}

type failure struct {
	status int
	detail any
}

type hold struct {
	arrived     chan struct{}
	release     chan struct{}
	arriveOnce  sync.Once
	releaseOnce sync.Once
}

// NewFakeBackend starts a [FakeBackend] that is closed when the test ends.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()

	f := &FakeBackend{
		APIKey:    FakeAPIKey,
		clock:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		users:     make(map[string]*fakeUser),
		tokens:    make(map[string]int),
		artists:   make(map[int]*fakeArtist),
		provider:  models.ProviderSpotify,
		discovery: make(map[int][]models.PlaylistSummary),
		failures:  make(map[string][]failure),
		holds:     make(map[string]*hold),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signup", f.handleSignup)
	mux.HandleFunc("POST /api/auth/login", f.handleLogin)
	mux.HandleFunc("GET /api/auth/me", f.handleMe)
	mux.HandleFunc("GET /api/artists", f.protected(f.handleListArtists))
	mux.HandleFunc("POST /api/artists/from-url", f.protected(f.handleCreateFromURL))
	mux.HandleFunc("GET /api/artists/{id}", f.protected(f.handleGetArtist))
	mux.HandleFunc("GET /api/artists/{id}/playlists", f.protected(f.handlePlaylists))
	mux.HandleFunc("GET /api/artists/{id}/history", f.protected(f.handleHistory))
	mux.HandleFunc("POST /api/artists/{id}/refresh", f.protected(f.handleRefresh))
	mux.HandleFunc("GET /api/config", f.protected(f.handleGetConfig))
	mux.HandleFunc("PATCH /api/config", f.protected(f.handleSetConfig))

	f.Server = httptest.NewServer(f.intercept(mux))
	t.Cleanup(func() {
		f.ReleaseAll()
		f.Server.Close()
	})

	return f
}

// URL returns the backend's base URL.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// AddUser registers an account.
func (f *FakeBackend) AddUser(email, password string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUser(email, password)
}

func (f *FakeBackend) addUser(email, password string) models.User {
	f.nextID++
	u := models.User{ID: f.nextID, Email: email, CreatedAt: models.Timestamp{Time: f.tick()}}
	f.users[email] = &fakeUser{user: u, password: password}
	return u
}

// IssueToken returns a valid bearer token for an existing account.
func (f *FakeBackend) IssueToken(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		panic(fmt.Sprintf("fake backend: unknown user %s", email))
	}
	return f.issue(u.user.ID)
}

func (f *FakeBackend) issue(userID int) string {
	f.nextID++
	token := fmt.Sprintf("token-%d-%d", userID, f.nextID)
	f.tokens[token] = userID
	return token
}

// RevokeTokens invalidates every issued token.
func (f *FakeBackend) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]int)
}

// AddArtist stores an artist owned by email with its current playlists and history.
// The artist ID is assigned when zero.
func (f *FakeBackend) AddArtist(email string, a models.Artist, playlists []models.PlaylistSummary, history []models.Snapshot) models.Artist {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		panic(fmt.Sprintf("fake backend: unknown user %s", email))
	}

	if a.ID == 0 {
		f.nextID++
		a.ID = f.nextID
	}
	for i := range history {
		history[i].ArtistID = a.ID
	}

	f.artists[a.ID] = &fakeArtist{owner: u.user.ID, artist: a, playlists: playlists, history: history}
	return a
}

// SetDiscovery sets the playlists the next refresh of artist id will find.
func (f *FakeBackend) SetDiscovery(id int, playlists []models.PlaylistSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discovery[id] = playlists
}

// Provider returns the currently configured provider.
func (f *FakeBackend) Provider() models.Provider {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.provider
}

// FailNext makes the next request to method and path fail with status and a detail body.
// A nil detail produces an empty body.
func (f *FakeBackend) FailNext(method, path string, status int, detail any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := method + " " + path
	f.failures[key] = append(f.failures[key], failure{status: status, detail: detail})
}

// Hold blocks requests to method and path until release is called.
// arrived is closed when the first such request is received.
func (f *FakeBackend) Hold(method, path string) (arrived <-chan struct{}, release func()) {
	h := &hold{arrived: make(chan struct{}), release: make(chan struct{})}

	f.mu.Lock()
	f.holds[method+" "+path] = h
	f.mu.Unlock()

	return h.arrived, func() {
		f.mu.Lock()
		if f.holds[method+" "+path] == h {
			delete(f.holds, method+" "+path)
		}
		f.mu.Unlock()
		h.releaseOnce.Do(func() { close(h.release) })
	}
}

// ReleaseAll unblocks every held route.
func (f *FakeBackend) ReleaseAll() {
	f.mu.Lock()
	holds := f.holds
	f.holds = make(map[string]*hold)
	f.mu.Unlock()

	for _, h := range holds {
		h.releaseOnce.Do(func() { close(h.release) })
	}
}

// Calls counts the requests received for method and path.
func (f *FakeBackend) Calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// TotalCalls counts every request received.
func (f *FakeBackend) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Requests returns a copy of the recorded requests.
func (f *FakeBackend) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// LastRequest returns the most recent request to method and path.
func (f *FakeBackend) LastRequest(method, path string) (RecordedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.requests) - 1; i >= 0; i-- {
		if r := f.requests[i]; r.Method == method && r.Path == path {
			return r, true
		}
	}
	return RecordedRequest{}, false
}

func (f *FakeBackend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		key := r.Method + " " + r.URL.Path

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		h := f.holds[key]
		var fail *failure
		if queued := f.failures[key]; len(queued) > 0 {
			fail = &queued[0]
			f.failures[key] = queued[1:]
		}
		f.mu.Unlock()

		if h != nil {
			h.arriveOnce.Do(func() { close(h.arrived) })
			select {
			case <-h.release:
			case <-r.Context().Done():
				return
			}
		}

		if fail != nil {
			if fail.detail == nil {
				w.WriteHeader(fail.status)
				return
			}
			writeDetail(w, fail.status, fail.detail)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// protected enforces the service key and bearer token, passing the caller's user ID on.
func (f *FakeBackend) protected(next func(http.ResponseWriter, *http.Request, int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.APIKey != "" && r.Header.Get("x-api-key") != f.APIKey {
			writeDetail(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}

		userID, ok := f.authenticate(w, r)
		if !ok {
			return
		}
		next(w, r, userID)
	}
}

func (f *FakeBackend) authenticate(w http.ResponseWriter, r *http.Request) (int, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		writeDetail(w, http.StatusUnauthorized, "Missing Authorization header")
		return 0, false
	}

	f.mu.Lock()
	userID, ok := f.tokens[header[len("bearer "):]]
	f.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return 0, false
	}
	return userID, true
}

func (f *FakeBackend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.users[creds.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	writeJSON(w, http.StatusOK, f.addUser(creds.Email, creds.Password))
}

func (f *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[creds.Email]
	if !ok || u.password != creds.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, models.AuthToken{AccessToken: f.issue(u.user.ID), TokenType: "bearer"})
}

func (f *FakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := f.authenticate(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.user.ID == userID {
			writeJSON(w, http.StatusOK, u.user)
			return
		}
	}
	writeDetail(w, http.StatusUnauthorized, "User not found or inactive")
}

func (f *FakeBackend) handleListArtists(w http.ResponseWriter, _ *http.Request, userID int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int, 0, len(f.artists))
	for id, a := range f.artists {
		if a.owner == userID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	out := make([]models.Artist, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.artists[id].summary())
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeBackend) handleCreateFromURL(w http.ResponseWriter, r *http.Request, userID int) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.URL) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, []map[string]any{{"loc": []string{"body", "url"}, "msg": "field required"}})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	slug := path.Base(strings.TrimRight(strings.TrimSpace(body.URL), "/"))
	f.nextID++
	a := &fakeArtist{
		owner: userID,
		artist: models.Artist{
			ID:              f.nextID,
			SpotifyArtistID: slug,
			Name:            slug,
			SpotifyURL:      strings.TrimSpace(body.URL),
		},
	}
	f.artists[a.artist.ID] = a

	found := f.discovery[a.artist.ID]
	if found == nil {
		found = []models.PlaylistSummary{
			{ID: 1, Name: "Fresh Finds", PlaylistType: models.PlaylistEditorial, TracksCount: 1},
			{ID: 2, Name: "Discover Weekly", PlaylistType: models.PlaylistAlgorithmic, TracksCount: 1},
		}
	}
	writeJSON(w, http.StatusOK, f.discover(a, found))
}

func (f *FakeBackend) handleGetArtist(w http.ResponseWriter, r *http.Request, userID int) {
	f.withArtist(w, r, userID, func(a *fakeArtist) {
		writeJSON(w, http.StatusOK, a.artist)
	})
}

func (f *FakeBackend) handlePlaylists(w http.ResponseWriter, r *http.Request, userID int) {
	f.withArtist(w, r, userID, func(a *fakeArtist) {
		writeJSON(w, http.StatusOK, nonNil(a.playlists))
	})
}

// handleHistory answers newest first, as the real backend does.
func (f *FakeBackend) handleHistory(w http.ResponseWriter, r *http.Request, userID int) {
	f.withArtist(w, r, userID, func(a *fakeArtist) {
		out := make([]models.Snapshot, len(a.history))
		copy(out, a.history)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].SnapshotTime.After(out[j].SnapshotTime.Time)
		})
		writeJSON(w, http.StatusOK, out)
	})
}

func (f *FakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request, userID int) {
	f.withArtist(w, r, userID, func(a *fakeArtist) {
		found, ok := f.discovery[a.artist.ID]
		if !ok {
			found = a.playlists
		}
		delete(f.discovery, a.artist.ID)
		writeJSON(w, http.StatusOK, f.discover(a, found))
	})
}

func (f *FakeBackend) handleGetConfig(w http.ResponseWriter, _ *http.Request, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, models.ProviderConfig{Provider: f.provider})
}

func (f *FakeBackend) handleSetConfig(w http.ResponseWriter, r *http.Request, _ int) {
	var body models.ProviderConfig
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	p, err := models.ParseProvider(string(body.Provider))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "provider must be one of: soundcloud, spotify")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.provider = p
	writeJSON(w, http.StatusOK, models.ProviderConfig{Provider: f.provider})
}

// withArtist resolves the {id} path value under the lock, answering 404 for unknown or foreign artists.
func (f *FakeBackend) withArtist(w http.ResponseWriter, r *http.Request, userID int, fn func(*fakeArtist)) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "artist_id must be an integer")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.artists[id]
	if !ok || a.owner != userID {
		writeDetail(w, http.StatusNotFound, "Artist not found")
		return
	}
	fn(a)
}

// discover records a new snapshot for a with the given playlists and builds the response. Callers hold f.mu.
func (f *FakeBackend) discover(a *fakeArtist, found []models.PlaylistSummary) models.ArtistQueryResponse {
	previous := make(map[int]models.PlaylistSummary, len(a.playlists))
	for _, p := range a.playlists {
		previous[p.ID] = p
	}
	current := make(map[int]bool, len(found))

	changes := models.Changes{Gained: []models.PlaylistSummary{}, Lost: []models.PlaylistSummary{}}
	for _, p := range found {
		current[p.ID] = true
		if _, ok := previous[p.ID]; !ok {
			changes.Gained = append(changes.Gained, p)
		}
	}
	for _, p := range a.playlists {
		if !current[p.ID] {
			changes.Lost = append(changes.Lost, p)
		}
	}

	f.nextID++
	snap := models.Snapshot{
		ID:                    f.nextID,
		ArtistID:              a.artist.ID,
		SnapshotTime:          models.Timestamp{Time: f.tick()},
		TotalPlaylistsFound:   len(found),
		PlaylistsCheckedCount: len(found),
		GainedCount:           len(changes.Gained),
		LostCount:             len(changes.Lost),
	}
	a.history = append(a.history, snap)
	a.playlists = found

	return models.ArtistQueryResponse{
		Artist: a.artist,
		Snapshot: models.SnapshotRef{
			ID:                  snap.ID,
			SnapshotTime:        snap.SnapshotTime,
			TotalPlaylistsFound: snap.TotalPlaylistsFound,
		},
		Changes:          changes,
		CurrentPlaylists: nonNil(found),
	}
}

func (f *FakeBackend) tick() time.Time {
	f.clock = f.clock.Add(time.Hour)
	return f.clock
}

func (a *fakeArtist) summary() models.Artist {
	out := a.artist
	if len(a.history) == 0 {
		return out
	}

	latest := a.history[0]
	for _, s := range a.history[1:] {
		if s.SnapshotTime.After(latest.SnapshotTime.Time) {
			latest = s
		}
	}

	at := latest.SnapshotTime
	count, gained, lost := latest.TotalPlaylistsFound, latest.GainedCount, latest.LostCount
	out.LastSnapshotAt = &at
	out.LastPlaylistCount = &count
	out.LastGainedCount = &gained
	out.LastLostCount = &lost
	return out
}

func nonNil(p []models.PlaylistSummary) []models.PlaylistSummary {
	if p == nil {
		return []models.PlaylistSummary{}
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

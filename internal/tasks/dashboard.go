package tasks

import (
	"context"
	"io"
	"maps"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/services"
	"github.com/desertthunder/hypertrack/internal/shared"
)

const noticeBuffer = 32

// State is a copy of the dashboard state.
type State struct {
	Artists           []models.Artist
	Draft             string
	Adding            bool
	Loading           bool
	Loaded            bool // at least one load has succeeded
	Provider          models.Provider
	SwitchingProvider bool
	Refreshing        map[int]bool
	Err               error  // last failure, cleared when the next action starts
	ErrMessage        string // Err rendered for display
}

// IsRefreshing reports whether artist id has a refresh in flight.
func (s State) IsRefreshing(id int) bool {
	return s.Refreshing[id]
}

// Artist returns the artist with id from the list.
func (s State) Artist(id int) (models.Artist, bool) {
	for _, a := range s.Artists {
		if a.ID == id {
			return a, true
		}
	}
	return models.Artist{}, false
}

// Dashboard is the single owner of the dashboard state.
type Dashboard struct {
	api      services.API
	describe func(error) string
	logger   *log.Logger
	notices  chan Notice

	mu         sync.Mutex
	state      State
	refreshing map[int]bool
	loads      int    // loads in flight
	loadSeq    uint64 // last load issued
	appliedSeq uint64 // last load whose result was applied
	closed     bool
}

// NewDashboard creates a [Dashboard]. describe renders errors for display and defaults to err.Error().
func NewDashboard(api services.API, describe func(error) string, logger *log.Logger) *Dashboard {
	if describe == nil {
		describe = func(err error) string { return err.Error() }
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Dashboard{
		api:        api,
		describe:   describe,
		logger:     shared.WithLogger(logger, "component", "dashboard"),
		notices:    make(chan Notice, noticeBuffer),
		refreshing: make(map[int]bool),
	}
}

// Notices delivers action outcomes. The channel is closed by [Dashboard.Close].
func (d *Dashboard) Notices() <-chan Notice {
	return d.notices
}

// State returns a copy of the current state.
func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	s.Artists = append([]models.Artist(nil), d.state.Artists...)
	s.Refreshing = maps.Clone(d.refreshing)
	s.Loading = d.loads > 0
	return s
}

// SetDraft stores the URL being typed.
func (d *Dashboard) SetDraft(draft string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Draft = draft
}

// Load fetches the artist list. A failure leaves the current list in place.
// When loads overlap, a result older than one already applied is dropped.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return shared.ErrDashboardClosed
	}
	d.loads++
	d.loadSeq++
	seq := d.loadSeq
	d.state.Err, d.state.ErrMessage = nil, ""
	d.mu.Unlock()

	artists, err := d.api.ListArtists(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.loads--
	if d.closed {
		return shared.ErrDashboardClosed
	}

	if err != nil {
		d.logger.Warn("failed to load artists", "error", err)
		d.fail(ActionLoad, 0, "Failed to load", err)
		return err
	}

	if seq < d.appliedSeq {
		d.logger.Debug("dropping stale artist list", "seq", seq, "applied", d.appliedSeq)
		return nil
	}
	d.appliedSeq = seq
	d.state.Artists = artists
	d.state.Loaded = true
	return nil
}

// AddFromURL creates an artist from a profile URL and reloads the list.
//
// Blank input returns [shared.ErrEmptyURL] without a network call; a second submission while one is
// pending returns [shared.ErrAddInFlight]. On success the draft is cleared and an Added notice is sent
// before the reload.
func (d *Dashboard) AddFromURL(ctx context.Context, url string) (*models.ArtistQueryResponse, error) {
	if strings.TrimSpace(url) == "" {
		return nil, shared.ErrEmptyURL
	}

	d.mu.Lock()
	switch {
	case d.closed:
		d.mu.Unlock()
		return nil, shared.ErrDashboardClosed
	case d.state.Adding:
		d.mu.Unlock()
		return nil, shared.ErrAddInFlight
	}
	d.state.Adding = true
	d.state.Err, d.state.ErrMessage = nil, ""
	d.mu.Unlock()

	resp, err := d.api.CreateFromURL(ctx, url)

	d.mu.Lock()
	d.state.Adding = false
	if d.closed {
		d.mu.Unlock()
		return resp, shared.ErrDashboardClosed
	}
	if err != nil {
		d.logger.Info("failed to add artist", "error", err)
		d.fail(ActionAdd, 0, "Failed to add", err)
		d.mu.Unlock()
		return nil, err
	}
	d.state.Draft = ""
	d.emit(addedNotice(resp))
	d.mu.Unlock()

	d.logger.Info("artist added", "id", resp.Artist.ID, "name", resp.Artist.Name)
	if err := d.Load(ctx); err != nil {
		// recorded in State().Err; the add itself succeeded
		d.logger.Debug("reload after add failed", "error", err)
	}
	return resp, nil
}

// Refresh runs discovery for artist id and reloads the list.
//
// If id is already refreshing, [shared.ErrRefreshInFlight] is returned without a network call.
// Otherwise id stays marked until the refresh and the following reload complete, and is unmarked on every path.
func (d *Dashboard) Refresh(ctx context.Context, id int) (*models.ArtistQueryResponse, error) {
	d.mu.Lock()
	switch {
	case d.closed:
		d.mu.Unlock()
		return nil, shared.ErrDashboardClosed
	case d.refreshing[id]:
		d.mu.Unlock()
		return nil, shared.ErrRefreshInFlight
	}
	d.refreshing[id] = true
	d.state.Err, d.state.ErrMessage = nil, ""
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.refreshing, id)
		d.mu.Unlock()
	}()

	resp, err := d.api.RefreshArtist(ctx, id)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return resp, shared.ErrDashboardClosed
	}
	if err != nil {
		d.logger.Info("refresh failed", "id", id, "error", err)
		d.fail(ActionRefresh, id, "Refresh failed", err)
		d.mu.Unlock()
		return nil, err
	}
	d.emit(refreshedNotice(resp))
	d.mu.Unlock()

	if err := d.Load(ctx); err != nil {
		// recorded in State().Err; the refresh itself succeeded
		d.logger.Debug("reload after refresh failed", "id", id, "error", err)
	}
	return resp, nil
}

// LoadProvider reads the backend's provider setting.
func (d *Dashboard) LoadProvider(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return shared.ErrDashboardClosed
	}
	d.mu.Unlock()

	cfg, err := d.api.GetConfig(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return shared.ErrDashboardClosed
	}
	if err != nil {
		d.logger.Warn("failed to load provider", "error", err)
		return err
	}
	d.state.Provider = cfg.Provider
	return nil
}

// SetProvider switches the backend's provider. Overlapping switches return [shared.ErrProviderInFlight].
func (d *Dashboard) SetProvider(ctx context.Context, p models.Provider) error {
	d.mu.Lock()
	switch {
	case d.closed:
		d.mu.Unlock()
		return shared.ErrDashboardClosed
	case d.state.SwitchingProvider:
		d.mu.Unlock()
		return shared.ErrProviderInFlight
	}
	d.state.SwitchingProvider = true
	d.state.Err, d.state.ErrMessage = nil, ""
	d.mu.Unlock()

	cfg, err := d.api.SetConfig(ctx, p)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.state.SwitchingProvider = false
	if d.closed {
		return shared.ErrDashboardClosed
	}
	if err != nil {
		d.fail(ActionProvider, 0, "Failed to switch provider", err)
		return err
	}
	d.state.Provider = cfg.Provider
	d.emit(providerNotice(cfg.Provider))
	return nil
}

// ToggleProvider switches to the provider not currently in use.
func (d *Dashboard) ToggleProvider(ctx context.Context) error {
	return d.SetProvider(ctx, d.State().Provider.Toggle())
}

// Close tears the dashboard down. It is safe to call more than once.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.notices)
}

// fail records err as the last failure and publishes it. Callers hold d.mu.
func (d *Dashboard) fail(action string, id int, fallback string, err error) {
	msg := d.describe(err)
	if msg == "" {
		msg = fallback
	}
	d.state.Err = err
	d.state.ErrMessage = msg
	d.emit(failedNotice(action, id, msg, err))
}

// emit publishes n without blocking. Callers hold d.mu.
func (d *Dashboard) emit(n Notice) {
	if d.closed {
		return
	}
	select {
	case d.notices <- n:
	default:
		d.logger.Debug("notice dropped", "kind", n.Kind.String())
	}
}

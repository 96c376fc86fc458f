package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/hypertrack/internal/gate"
	"github.com/desertthunder/hypertrack/internal/repositories"
	"github.com/desertthunder/hypertrack/internal/services"
	"github.com/desertthunder/hypertrack/internal/session"
	"github.com/desertthunder/hypertrack/internal/shared"
	"github.com/desertthunder/hypertrack/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ResolvingView ViewState = iota
	LoginView
	DashboardView
	DetailView
)

const dashboardRoute = "dashboard"

// Options are the TUI's collaborators.
type Options struct {
	Session *session.Manager
	API     services.API
	// NewDashboard is called after every successful login.
	NewDashboard func() *tasks.Dashboard
	Themes       *repositories.ThemeStore
	Describe     func(error) string
	OpenURL      func(string) error
	Logger       *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	opts   Options
	logger *log.Logger
	view   ViewState
	from   string

	dash   *tasks.Dashboard
	state  tasks.State
	theme  repositories.Theme
	styles *Palette

	spinner    spinner.Model
	email      textinput.Model
	password   textinput.Model
	signup     bool
	submitting bool
	loginErr   string

	url     textinput.Model
	artists list.Model
	status  string
	failed  bool

	detailID      int
	detail        *tasks.Detail
	detailLoading bool
	detailErr     string

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Describe == nil {
		opts.Describe = func(err error) string { return err.Error() }
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	theme := repositories.ThemeDark
	if opts.Themes != nil {
		if t, err := opts.Themes.Load(); err == nil {
			theme = t
		} else {
			logger.Warn("failed to load theme", "error", err)
		}
	}

	email := textinput.New()
	email.Placeholder = "Email"
	email.Prompt = "Email    "
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	url := textinput.New()
	url.Placeholder = "Artist URL (SoundCloud or Spotify)"
	url.Prompt = "+ "

	artists := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	artists.Title = "Artists"
	artists.SetShowHelp(false)
	artists.SetFilteringEnabled(false)

	return &Model{
		ctx:      ctx,
		opts:     opts,
		logger:   shared.WithLogger(logger, "component", "ui"),
		view:     ResolvingView,
		theme:    theme,
		styles:   paletteFor(theme),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		email:    email,
		password: password,
		url:      url,
		artists:  artists,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// View returns the current view.
func (m *Model) View() string {
	switch m.view {
	case ResolvingView:
		return m.renderResolving()
	case LoginView:
		return m.renderLogin()
	case DashboardView:
		return m.renderDashboard()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

// Init restores the stored session and starts listening for session transitions.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.restore(), m.waitForSession())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.artists.SetSize(msg.Width-4, max(msg.Height-12, 4))
		m.url.Width = max(msg.Width-8, 20)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case ResolvingView:
			if key.Matches(msg, m.keys.quit) {
				return m, m.quit()
			}
			return m, nil
		case LoginView:
			return m.handleLoginKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionChanged:
		return m, tea.Batch(m.route(), m.waitForSession())

	case MsgAuthDone:
		m.submitting = false
		if err, _ := msg.data.(error); err != nil && !errors.Is(err, shared.ErrSessionReplaced) {
			m.loginErr = m.opts.Describe(err)
		}
		return m, m.route()

	case MsgActionDone:
		res := msg.data.(actionResult)
		m.sync()
		if res.err != nil {
			m.logger.Debug("action finished with error", "action", res.action, "error", res.err)
			if res.action == actionOpen {
				m.setStatus(m.opts.Describe(res.err), true)
			}
		}
		return m, nil

	case MsgNotice:
		res := msg.data.(noticeResult)
		if res.dash != m.dash {
			return m, nil
		}
		n := res.notice
		m.sync()
		m.setStatus(n.Message, n.Kind == tasks.Failed)
		if n.Kind == tasks.Added {
			m.url.Reset()
		}
		var cmd tea.Cmd
		if n.Kind == tasks.Refreshed && m.view == DetailView && n.ArtistID == m.detailID {
			cmd = m.loadDetail(m.detailID)
		}
		return m, tea.Batch(cmd, m.waitForNotice(m.dash))

	case MsgDetailLoaded:
		res := msg.data.(detailResult)
		if res.id != m.detailID {
			return m, nil
		}
		m.detailLoading = false
		if res.err != nil {
			m.detailErr = m.opts.Describe(res.err)
			return m, nil
		}
		m.detail = res.detail
		m.detailErr = ""
		return m, nil
	}
	return m, nil
}

// route picks the view for the current session through the gate.
func (m *Model) route() tea.Cmd {
	destination := m.destination()
	outcome := gate.Check(m.opts.Session.Current(), destination)

	switch outcome.Decision {
	case gate.Wait:
		if m.view == LoginView && m.submitting {
			return nil
		}
		m.view = ResolvingView
		return m.spinner.Tick

	case gate.Redirect:
		if m.from == "" || m.view != LoginView {
			m.from = outcome.From
		}
		m.teardown()
		if m.view != LoginView {
			m.view = LoginView
			m.password.Reset()
			return m.focusLogin(0)
		}
		return nil
	}

	if m.dash != nil {
		if m.view == ResolvingView || m.view == LoginView {
			m.view = DashboardView
		}
		return nil
	}

	m.loginErr = ""
	m.password.Reset()
	m.dash = m.opts.NewDashboard()
	m.state = m.dash.State()
	m.view = DashboardView
	if m.from != "" && m.from != dashboardRoute && m.detailID != 0 {
		m.view = DetailView
	}
	m.from = ""

	cmds := []tea.Cmd{m.load(), m.loadProvider(), m.waitForNotice(m.dash)}
	if m.view == DetailView {
		cmds = append(cmds, m.loadDetail(m.detailID))
	}
	return tea.Batch(cmds...)
}

func (m *Model) destination() string {
	switch m.view {
	case DetailView:
		return fmt.Sprintf("artists/%d", m.detailID)
	case DashboardView:
		return dashboardRoute
	}
	if m.from != "" {
		return m.from
	}
	return dashboardRoute
}

// teardown closes the dashboard of the previous session.
func (m *Model) teardown() {
	if m.dash == nil {
		return
	}
	m.dash.Close()
	m.dash = nil
	m.state = tasks.State{}
	m.artists.SetItems(nil)
	m.url.Reset()
	m.url.Blur()
	m.status = ""
	m.detail = nil
}

// sync re-reads the dashboard state into the list.
func (m *Model) sync() {
	if m.dash == nil {
		return
	}
	m.state = m.dash.State()
	m.artists.SetItems(artistItems(m.state.Artists, m.state.Refreshing))
	if m.state.ErrMessage != "" {
		m.setStatus(m.state.ErrMessage, true)
	}
}

func (m *Model) setStatus(s string, failed bool) {
	m.status = s
	m.failed = failed
}

func (m *Model) selected() (artistItem, bool) {
	item, ok := m.artists.SelectedItem().(artistItem)
	return item, ok
}

func (m *Model) quit() tea.Cmd {
	m.teardown()
	return tea.Quit
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.abort):
		return m, m.quit()
	case key.Matches(msg, m.keys.next):
		if m.email.Focused() {
			return m, m.focusLogin(1)
		}
		return m, m.focusLogin(0)
	case key.Matches(msg, m.keys.mode):
		m.signup = !m.signup
		m.loginErr = ""
		return m, nil
	case msg.Type == tea.KeyEnter:
		if m.submitting {
			return m, nil
		}
		if m.email.Focused() && m.password.Value() == "" {
			return m, m.focusLogin(1)
		}
		m.submitting = true
		m.loginErr = ""
		return m, m.authenticate(m.email.Value(), m.password.Value())
	}

	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusLogin(field int) tea.Cmd {
	if field == 0 {
		m.password.Blur()
		return m.email.Focus()
	}
	m.email.Blur()
	return m.password.Focus()
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.url.Focused() {
		switch {
		case key.Matches(msg, m.keys.abort):
			return m, m.quit()
		case key.Matches(msg, m.keys.back):
			m.url.Blur()
			return m, nil
		case msg.Type == tea.KeyEnter:
			if m.state.Adding || strings.TrimSpace(m.url.Value()) == "" {
				return m, nil
			}
			m.state.Adding = true
			m.setStatus("", false)
			return m, m.add(m.url.Value())
		}

		var cmd tea.Cmd
		m.url, cmd = m.url.Update(msg)
		m.dash.SetDraft(m.url.Value())
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.add):
		return m, m.url.Focus()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.selected(); ok {
			return m, m.openDetail(item.artist.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		if item, ok := m.selected(); ok {
			return m, m.refresh(item.artist.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.provider):
		return m, m.toggleProvider()
	case key.Matches(msg, m.keys.theme):
		m.toggleTheme()
		return m, nil
	case key.Matches(msg, m.keys.open):
		if item, ok := m.selected(); ok {
			return m, m.openProfile(item.artist.SpotifyURL)
		}
		return m, nil
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}

	var cmd tea.Cmd
	m.artists, cmd = m.artists.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.back):
		m.view = DashboardView
		m.detail = nil
		m.detailID = 0
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.refresh(m.detailID)
	case key.Matches(msg, m.keys.theme):
		m.toggleTheme()
		return m, nil
	case key.Matches(msg, m.keys.open):
		if m.detail != nil {
			return m, m.openProfile(m.detail.Artist.SpotifyURL)
		}
		return m, nil
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}
	return m, nil
}

func (m *Model) openDetail(id int) tea.Cmd {
	m.view = DetailView
	m.detailID = id
	m.detail = nil
	m.detailErr = ""
	return m.loadDetail(id)
}

func (m *Model) toggleTheme() {
	m.theme = m.theme.Toggle()
	m.styles = paletteFor(m.theme)
	if m.opts.Themes == nil {
		return
	}
	if err := m.opts.Themes.Save(m.theme); err != nil {
		m.logger.Warn("failed to save theme", "theme", m.theme, "error", err)
	}
}

func (m *Model) logout() tea.Cmd {
	if err := m.opts.Session.Logout(); err != nil {
		m.logger.Warn("failed to clear stored token", "error", err)
	}
	m.view = DashboardView
	m.detailID = 0
	m.from = ""
	return m.route()
}

func (m *Model) restore() tea.Cmd {
	return func() tea.Msg {
		_, err := m.opts.Session.Restore(m.ctx)
		if err != nil {
			m.logger.Info("stored session not restored", "error", err)
		}
		return authDoneMsg(nil)
	}
}

func (m *Model) authenticate(email, password string) tea.Cmd {
	signup := m.signup
	return func() tea.Msg {
		var err error
		if signup {
			_, err = m.opts.Session.Signup(m.ctx, email, password)
		} else {
			_, err = m.opts.Session.Login(m.ctx, email, password)
		}
		return authDoneMsg(err)
	}
}

func (m *Model) waitForSession() tea.Cmd {
	changes := m.opts.Session.Changes()
	return func() tea.Msg {
		s, ok := <-changes
		if !ok {
			return nil
		}
		return sessionChangedMsg(s)
	}
}

func (m *Model) waitForNotice(d *tasks.Dashboard) tea.Cmd {
	if d == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-d.Notices()
		if !ok {
			return nil
		}
		return noticeMsg(d, n)
	}
}

func (m *Model) load() tea.Cmd {
	d := m.dash
	return func() tea.Msg {
		return actionDoneMsg(actionLoad, d.Load(m.ctx))
	}
}

func (m *Model) loadProvider() tea.Cmd {
	d := m.dash
	return func() tea.Msg {
		return actionDoneMsg(actionProvider, d.LoadProvider(m.ctx))
	}
}

func (m *Model) add(url string) tea.Cmd {
	d := m.dash
	return func() tea.Msg {
		_, err := d.AddFromURL(m.ctx, url)
		return actionDoneMsg(actionAdd, err)
	}
}

func (m *Model) refresh(id int) tea.Cmd {
	if m.dash == nil || m.state.IsRefreshing(id) || m.dash.State().IsRefreshing(id) {
		return nil
	}
	if m.state.Refreshing == nil {
		m.state.Refreshing = make(map[int]bool)
	}
	m.state.Refreshing[id] = true
	m.artists.SetItems(artistItems(m.state.Artists, m.state.Refreshing))

	d := m.dash
	return func() tea.Msg {
		_, err := d.Refresh(m.ctx, id)
		return actionDoneMsg(actionRefresh, err)
	}
}

func (m *Model) toggleProvider() tea.Cmd {
	if m.dash == nil || m.state.SwitchingProvider {
		return nil
	}
	d := m.dash
	m.state.SwitchingProvider = true
	return func() tea.Msg {
		return actionDoneMsg(actionProvider, d.ToggleProvider(m.ctx))
	}
}

func (m *Model) openProfile(url string) tea.Cmd {
	if url == "" {
		return nil
	}
	return func() tea.Msg {
		return actionDoneMsg(actionOpen, m.opts.OpenURL(url))
	}
}

func (m *Model) loadDetail(id int) tea.Cmd {
	m.detailLoading = true
	return func() tea.Msg {
		detail, err := tasks.LoadDetail(m.ctx, m.opts.API, id)
		return detailLoadedMsg(id, detail, err)
	}
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/hypertrack/internal/formatter"
	"github.com/desertthunder/hypertrack/internal/models"
)

const maxDetailPlaylists = 15

func (m *Model) renderResolving() string {
	return fmt.Sprintf("\n  %s Checking your session…\n\n%s", m.spinner.View(), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderLogin() string {
	var b strings.Builder

	title, submit, other := "Log in", "log in", "Need an account? ctrl+s to sign up"
	if m.signup {
		title, submit, other = "Sign up", "create account", "Have an account? ctrl+s to log in"
	}

	b.WriteString(m.styles.title.Render("hypertrack · " + title))
	b.WriteString("\n")
	b.WriteString(m.email.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	switch {
	case m.submitting:
		b.WriteString(m.spinner.View() + " " + m.styles.muted.Render("Working…"))
		b.WriteString("\n\n")
	case m.loginErr != "":
		b.WriteString(m.styles.err.Render(m.loginErr))
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.help.Render(other))
	b.WriteString("\n")

	enter := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", submit))
	b.WriteString(m.help.ShortHelpView([]key.Binding{enter, m.keys.next, m.keys.mode, m.keys.abort}))
	return b.String()
}

func (m *Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("hypertrack"))
	b.WriteString("\n")
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(m.url.View())
	if m.state.Adding {
		b.WriteString("  " + m.spinner.View() + m.styles.muted.Render(" Adding…"))
	}
	b.WriteString("\n")

	if m.status != "" {
		style := m.styles.ok
		if m.failed {
			style = m.styles.err
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n\n")

	switch {
	case !m.state.Loaded && m.state.Loading:
		b.WriteString(m.spinner.View() + " Loading artists…")
	case m.state.Loaded && len(m.state.Artists) == 0:
		b.WriteString(m.styles.muted.Render("No artists yet. Add one with a SoundCloud or Spotify profile URL above."))
	default:
		b.WriteString(m.artists.View())
	}
	b.WriteString("\n\n")

	keys := []key.Binding{m.keys.add, m.keys.enter, m.keys.refresh, m.keys.provider, m.keys.open, m.keys.theme, m.keys.logout, m.keys.quit}
	if m.url.Focused() {
		submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add"))
		keys = []key.Binding{submit, m.keys.back, m.keys.abort}
	}
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}

func (m *Model) renderHeader() string {
	parts := []string{}
	if user := m.opts.Session.Current().User; user != nil {
		parts = append(parts, user.Email)
	}

	provider := "Provider: "
	switch {
	case m.state.SwitchingProvider:
		provider += "switching…"
	case m.state.Provider == "":
		provider += "…"
	default:
		provider += m.state.Provider.Label()
	}
	parts = append(parts, provider)
	parts = append(parts, "Theme: "+string(m.theme))

	return m.styles.muted.Render(strings.Join(parts, " · "))
}

func (m *Model) renderDetail() string {
	var b strings.Builder

	if m.detail == nil {
		b.WriteString(m.styles.title.Render("Artist"))
		b.WriteString("\n")
		switch {
		case m.detailErr != "":
			b.WriteString(m.styles.err.Render(m.detailErr))
		case m.detailLoading:
			b.WriteString(m.spinner.View() + " Loading…")
		}
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
		return b.String()
	}

	d := m.detail
	title := d.Artist.Name
	if m.state.IsRefreshing(d.Artist.ID) {
		title += " (refreshing…)"
	}
	b.WriteString(m.styles.title.Render(title))
	b.WriteString("\n")
	if d.Artist.SpotifyURL != "" {
		b.WriteString(m.styles.muted.Render(d.Artist.SpotifyURL))
		b.WriteString("\n")
	}
	if m.detailErr != "" {
		b.WriteString(m.styles.err.Render(m.detailErr))
		b.WriteString("\n")
	}
	if m.status != "" && !m.failed {
		b.WriteString(m.styles.ok.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	left := m.styles.box.Render(renderPlaylists(d.Playlists))
	right := m.styles.box.Render(m.renderHistory(d.History))
	if m.width > 0 && lipgloss.Width(left)+lipgloss.Width(right) > m.width {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, left, right))
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	}
	b.WriteString("\n\n")

	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.refresh, m.keys.open, m.keys.back, m.keys.theme, m.keys.quit}))
	return b.String()
}

func renderPlaylists(playlists []models.PlaylistSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Current playlists (%d)\n", len(playlists)))
	if len(playlists) == 0 {
		b.WriteString("None found.")
		return b.String()
	}

	for i, p := range playlists {
		if i == maxDetailPlaylists {
			b.WriteString(fmt.Sprintf("\n… and %d more", len(playlists)-maxDetailPlaylists))
			break
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("• %s [%s] %s", p.Name, p.PlaylistType.Label(), p.TrackLine()))
	}
	return b.String()
}

func (m *Model) renderHistory(history []models.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("History (%d)\n", len(history)))
	if len(history) == 0 {
		b.WriteString("No snapshots yet.")
		return b.String()
	}

	b.WriteString(m.styles.ok.Render(formatter.Sparkline(m.detail.Counts())))
	for _, s := range history {
		b.WriteString("\n")
		b.WriteString(formatter.SnapshotLine(s))
	}
	return b.String()
}

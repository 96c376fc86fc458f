// Package ui implements the interactive dashboard using bubbletea's Elm architecture.
//
// The TUI moves between four views, chosen by the access gate from the current session:
//  1. [ResolvingView] : A stored token is being checked
//  2. [LoginView] : Log in or sign up (ctrl+s switches between the two)
//  3. [DashboardView] : Tracked artists, the add-by-URL field and the provider switch
//  4. [DetailView] : One artist's current playlists and snapshot history
//
// The [Model] never mutates session or dashboard state itself: it issues commands against the
// session manager and the [tasks.Dashboard] and re-reads their state when the results arrive.
// Session transitions and dashboard notices are fed back in as messages through their channels.
//
// A new dashboard is created for every login and closed on logout, so nothing from a previous
// session is shown to the next one.
package ui

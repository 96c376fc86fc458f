// Package tasks runs the dashboard's user actions against the backend and owns their in-memory state.
//
// # Dashboard
//
// A [Dashboard] holds the artist list, the URL draft, the provider setting and the set of artists being
// refreshed. Every action is a blocking call meant to be run off the UI loop; state is read back with
// [Dashboard.State], which returns a copy.
//
//   - [Dashboard.Load] replaces the list wholesale on success and leaves it untouched on failure
//   - [Dashboard.AddFromURL] rejects blank input without a network call and refuses overlapping submissions
//   - [Dashboard.Refresh] allows one refresh per artist at a time; the artist stays marked until the
//     refresh and the reload that follows it have finished, whatever the outcome
//   - [Dashboard.LoadProvider] and [Dashboard.SetProvider] read and switch the backend's music provider
//
// After [Dashboard.Close], results of calls still in flight are discarded and no further notices are sent.
//
// # Notices
//
// Outcomes worth telling the user about are published as [Notice] values on [Dashboard.Notices].
// Sends never block: when the buffer is full the notice is dropped.
//
// # Artist Detail
//
// [LoadDetail] fetches an artist, its current playlists and its history concurrently and orders the
// history oldest first.
package tasks

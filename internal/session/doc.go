// Package session owns the client's authentication state.
//
// A [Manager] moves between three states:
//
//	Unauthenticated ──login/restore──▶ Resolving ──/auth/me ok──▶ Authenticated
//	       ▲                               │                           │
//	       └──────── failure, logout ──────┴──── logout, rejection ────┘
//
// A session in the Resolving state carries a token but no user; an Authenticated session carries both.
// The Manager is the only writer of the persisted token. Readers get [Session] value snapshots.
//
// Logout always wins over a pending resolution: every transition bumps a generation counter and a
// resolution that completes under an older generation is discarded.
package session

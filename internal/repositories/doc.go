// Package repositories implements the client's durable key-value store.
//
// Values live in the SQLite preferences table created by the embedded migrations in package shared.
// Writes replace the whole value of a key atomically, so a reader never observes a partial token.
//
// Key Implementations:
//   - [PreferenceRepository] : SQLite-backed [Store]
//   - [MemoryStore] : in-process [Store] for tests and ephemeral runs
//   - [TokenStore] : the persisted session token
//   - [ThemeStore] : the persisted light/dark preference
package repositories

// Package models defines the wire types exchanged with the Hypertrack backend.
//
// The package contains three groups of types:
//
// 1. Tracking resources returned by the artist endpoints
//   - [Artist] : A tracked artist with the summary of its latest snapshot
//   - [PlaylistSummary] : A playlist currently featuring the artist
//   - [Snapshot] : One point-in-time discovery run with gained/lost counts
//   - [ArtistQueryResponse] : The result of creating or refreshing an artist
//
// 2. Identity types returned by the auth endpoints
//   - [User] : The authenticated account
//   - [AuthToken] : The opaque bearer token issued on login or signup
//
// 3. Backend configuration
//   - [Provider] and [ProviderConfig] : The music provider used for discovery
//
// Timestamps are decoded with [Timestamp], which accepts both zoned and naive ISO-8601 values.
package models

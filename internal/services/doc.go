// Package services defines the [API] interface for the backend's resource endpoints and implements it.
//
// # Resource Client
//
// [HypertrackService] issues typed requests through a [transport.Client]. Every request carries the
// service key, and the session token when a [TokenSource] provides one. Errors are returned as the
// transport produced them; nothing is retried.
//
// A 401 answer to a request that carried a token is reported back through [TokenSource.Reject] so the
// session can be torn down.
//
// # Circuit Breaker
//
// [BreakerService] wraps any [API] with a circuit breaker. While the backend keeps failing, calls fail fast
// with [shared.ErrServiceUnavailable] instead of waiting out their deadline. Rejections below 500 mean the
// backend is up and are not counted as failures. The breaker never retries.
//
// # History Ordering
//
// [API.ListHistory] returns snapshots in the order the server sent them. Consumers sort with [models.SortHistory].
package services

// Package store holds the application state for one running app.
//
// A Store is constructed once at startup and passed to every consumer. All
// mutation goes through Dispatch:
//
//	Idle -> middleware -> (vetoed -> Idle)
//	                   |-> reduce -> persist -> notify -> Idle
//
// There is no partial commit: a dispatch that survives the middleware chain
// always persists and notifies, in that order. A persistence failure is
// logged, reported through Health and Result.Err, and the in-memory change
// is kept.
//
// # Concurrency
//
// Dispatch calls are serialized by a write mutex. Readers (GetState and the
// convenience getters) never wait for persistence. Subscribers are notified
// after the write mutex is released but before the next commit's
// notification, so every listener sees commits in commit order across all
// callers.
//
// A subscriber must not call Dispatch, Import or Clear synchronously from its
// own callback; that deadlocks on the notification lock. Use Post to
// re-dispatch from a listener; Run drains posted actions in FIFO order on one
// goroutine.
//
// # Loading
//
// Initialize and Import share one acceptance path: decode, migrate to the
// configured version, validate the shape, then re-derive currentJob from
// jobs. Load additionally discards records older than Config.MaxAge. Any
// failure on the load path degrades to the default state.
package store

// Package kv provides the host key-value storage the persistence layer writes to.
//
// The store keeps its whole state under a single key with last-writer-wins
// semantics, so a backend only needs Get, Set and Delete on opaque strings.
//
// # Backends
//
//   - Memory: process-local map. Used by tests and ephemeral sessions.
//   - SQLite: a single-table database file (WAL mode, single writer).
//   - Redis: a shared Redis instance, optionally with a key TTL.
//
// Concurrent writers to the same key are not coordinated by any backend.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("kv: storage closed")

// Storage is a string key-value store.
type Storage interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

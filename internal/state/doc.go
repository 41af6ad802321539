// Package state defines the shape of the whole application state.
//
// This package contains type definitions and small value helpers only. Every
// other internal package imports state; state imports nothing internal.
//
// Ownership is structural:
//   - State owns Jobs.
//   - A Job owns its JobMaterials and Uploads (by inclusion in its slices).
//   - CurrentJob is a view copy of one entry in Jobs, never an owner.
//
// JSON tags are the persisted wire names and must stay stable across releases;
// shape changes go through a registered migration (internal/migrate).
package state

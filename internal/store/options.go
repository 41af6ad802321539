package store

import (
	"log/slog"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/clock"
	"github.com/roach88/jobstate/internal/kv"
	"github.com/roach88/jobstate/internal/middleware"
	"github.com/roach88/jobstate/internal/migrate"
	"github.com/roach88/jobstate/internal/persist"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	storage    kv.Storage
	codec      persist.Codec
	clock      clock.Clock
	logger     *slog.Logger
	ids        action.IDGenerator
	extra      []middleware.Middleware
	pipeline   *middleware.Pipeline
	migrations *migrate.Registry
}

// WithStorage sets the storage backend. Default: kv.NewMemory().
func WithStorage(s kv.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithCodec sets the record codec. Default: persist.NewObfuscator(cfg.Key).
func WithCodec(c persist.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithClock sets the wall clock used for timestamps and staleness.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger. Default: slog.Default(), or a debug-level
// stderr logger when Config.Debug is set.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIDs sets the id generator used by NewJob, NewMaterial and NewUpload.
// Default: action.UUIDv7Generator.
func WithIDs(g action.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithMiddleware appends stages after the standard chain.
func WithMiddleware(ms ...middleware.Middleware) Option {
	return func(o *options) { o.extra = append(o.extra, ms...) }
}

// WithPipeline replaces the standard chain entirely. Stages added with
// WithMiddleware still run after it.
func WithPipeline(p *middleware.Pipeline) Option {
	return func(o *options) { o.pipeline = p }
}

// WithMigrations sets the migration registry. Default: migrate.Default().
func WithMigrations(r *migrate.Registry) Option {
	return func(o *options) { o.migrations = r }
}

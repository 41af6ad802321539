package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/jobstate/internal/kv"
	"github.com/roach88/jobstate/internal/persist"
	"github.com/roach88/jobstate/internal/store"
)

// StoreConfig returns the store.Config for c.
func (c Config) StoreConfig() store.Config {
	return store.Config{
		Key:     c.Store.Key,
		Version: c.Store.Version,
		MaxAge:  c.Store.MaxAge,
		Debug:   c.Store.Debug,
	}
}

// OpenStorage opens the configured backend. The caller owns the result.
func (c Config) OpenStorage(ctx context.Context) (kv.Storage, error) {
	switch c.Storage.Backend {
	case BackendMemory:
		return kv.NewMemory(), nil
	case BackendSQLite:
		return kv.OpenSQLite(c.Storage.SQLite.Path)
	case BackendRedis:
		r := c.Storage.Redis
		return kv.OpenRedis(ctx, kv.RedisConfig{
			Addr:     r.Addr,
			DB:       r.DB,
			Password: r.Password,
			Prefix:   r.Prefix,
			TTL:      r.TTL,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
}

// NewCodec returns the configured record codec.
func (c Config) NewCodec() (persist.Codec, error) {
	switch c.Codec.Kind {
	case CodecObfuscate, "":
		return persist.NewObfuscator(c.Store.Key), nil
	case CodecSeal:
		return persist.NewSealer([]byte(c.Codec.Secret), c.Store.Key)
	}
	return nil, fmt.Errorf("unknown codec %q", c.Codec.Kind)
}

// NewLogger returns a slog.Logger writing to w at the configured level.
// Store.Debug forces debug level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch c.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if c.Store.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Open builds a store from c. Store.Close closes the storage backend.
func (c Config) Open(ctx context.Context, logger *slog.Logger, opts ...store.Option) (*store.Store, error) {
	storage, err := c.OpenStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	codec, err := c.NewCodec()
	if err != nil {
		storage.Close()
		return nil, err
	}
	base := []store.Option{
		store.WithStorage(storage),
		store.WithCodec(codec),
		store.WithLogger(logger),
	}
	s, err := store.New(c.StoreConfig(), append(base, opts...)...)
	if err != nil {
		storage.Close()
		return nil, err
	}
	return s, nil
}

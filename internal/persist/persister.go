package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/jobstate/internal/clock"
	"github.com/roach88/jobstate/internal/kv"
	"github.com/roach88/jobstate/internal/state"
)

// Options configures a Persister.
type Options struct {
	// Key is the single storage key the record lives under.
	Key string
	// MaxAge discards records older than this on Load. Zero disables the check.
	MaxAge time.Duration
	// Codec defaults to an Obfuscator keyed by Key.
	Codec  Codec
	Clock  clock.Clock
	Logger *slog.Logger
}

// Persister writes and reads the store's record.
type Persister struct {
	storage kv.Storage
	codec   Codec
	key     string
	maxAge  time.Duration
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a Persister over storage.
func New(storage kv.Storage, opts Options) (*Persister, error) {
	if storage == nil {
		return nil, errors.New("persist: nil storage")
	}
	if opts.Key == "" {
		return nil, errors.New("persist: empty key")
	}
	if opts.MaxAge < 0 {
		return nil, fmt.Errorf("persist: negative max age %s", opts.MaxAge)
	}
	p := &Persister{
		storage: storage,
		codec:   opts.Codec,
		key:     opts.Key,
		maxAge:  opts.MaxAge,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	if p.codec == nil {
		p.codec = NewObfuscator(opts.Key)
	}
	if p.clock == nil {
		p.clock = clock.System{}
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p, nil
}

// Key returns the storage key.
func (p *Persister) Key() string { return p.key }

// Codec returns the codec used for records.
func (p *Persister) Codec() Codec { return p.codec }

// Persist writes s, replacing any previous record.
func (p *Persister) Persist(ctx context.Context, s state.State) error {
	blob, err := Seal(p.codec, s, p.clock.Now())
	if err != nil {
		return fmt.Errorf("persist %q: %w", p.key, err)
	}
	if err := p.storage.Set(ctx, p.key, blob); err != nil {
		return fmt.Errorf("persist %q: %w", p.key, err)
	}
	return nil
}

// Load reads the saved record.
//
// It returns (nil, nil) when nothing usable is saved: the key is absent or
// the record is stale. A record that cannot be decoded is logged and yields
// (nil, err) with err wrapping ErrCorrupt. Storage failures are returned
// unchanged.
func (p *Persister) Load(ctx context.Context) (*Loaded, error) {
	blob, ok, err := p.storage.Get(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", p.key, err)
	}
	if !ok {
		return nil, nil
	}

	loaded, err := Open(p.codec, blob)
	if err != nil {
		p.logger.Error("discarding unreadable saved state", "key", p.key, "error", err)
		return nil, err
	}

	if p.maxAge > 0 {
		if age := loaded.Age(p.clock.Now()); age > p.maxAge {
			p.logger.Info("discarding stale saved state",
				"key", p.key, "age", age.Round(time.Second), "max_age", p.maxAge)
			return nil, nil
		}
	}
	return loaded, nil
}

// Clear removes the saved record.
func (p *Persister) Clear(ctx context.Context) error {
	if err := p.storage.Delete(ctx, p.key); err != nil {
		return fmt.Errorf("clear %q: %w", p.key, err)
	}
	return nil
}

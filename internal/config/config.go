// Package config loads jobstate settings from a YAML file, a .env file and
// JOBSTATE_* environment variables, in that order of increasing precedence.
//
// Secrets (the Redis password and the sealing secret) are only read from the
// environment; the YAML file cannot carry them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/jobstate/internal/state"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Codec kinds.
const (
	CodecObfuscate = "obfuscate"
	CodecSeal      = "seal"
)

// Config is the full jobstate configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Storage StorageConfig `yaml:"storage"`
	Codec   CodecConfig   `yaml:"codec"`
	Log     LogConfig     `yaml:"log"`
}

// StoreConfig mirrors store.Config.
type StoreConfig struct {
	Key     string        `yaml:"key" validate:"required"`
	Version string        `yaml:"version" validate:"required"`
	MaxAge  time.Duration `yaml:"max_age"`
	Debug   bool          `yaml:"debug"`
}

// StorageConfig selects and configures the backend.
type StorageConfig struct {
	Backend string       `yaml:"backend" validate:"oneof=memory sqlite redis"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Redis   RedisConfig  `yaml:"redis"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	DB       int           `yaml:"db" validate:"gte=0"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
	Password string        `yaml:"-"`
}

// CodecConfig selects how the persisted record is encoded.
type CodecConfig struct {
	Kind   string `yaml:"kind" validate:"oneof=obfuscate seal"`
	Secret string `yaml:"-"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Key:     "job-search-state",
			Version: state.SchemaVersion,
			MaxAge:  30 * 24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			SQLite:  SQLiteConfig{Path: "jobstate.db"},
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "jobstate:"},
		},
		Codec: CodecConfig{Kind: CodecObfuscate},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Options controls where Load looks.
type Options struct {
	// Path is the YAML file. Empty skips the file.
	Path string
	// EnvFile is loaded into the process environment first. Empty tries
	// ".env" and ignores its absence.
	EnvFile string
	// Lookup reads environment variables. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load builds a Config from defaults, the YAML file, the env file and the
// environment, then validates it.
func Load(opts Options) (Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}

	cfg := Default()
	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(opts.Lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML over cfg. Unknown fields are rejected so typos fail
// loudly (e.g. "max_ag:").
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// Environment variables read by Load.
const (
	EnvKey           = "JOBSTATE_KEY"
	EnvMaxAge        = "JOBSTATE_MAX_AGE"
	EnvDebug         = "JOBSTATE_DEBUG"
	EnvBackend       = "JOBSTATE_STORAGE"
	EnvSQLitePath    = "JOBSTATE_SQLITE_PATH"
	EnvRedisAddr     = "JOBSTATE_REDIS_ADDR"
	EnvRedisDB       = "JOBSTATE_REDIS_DB"
	EnvRedisPassword = "JOBSTATE_REDIS_PASSWORD"
	EnvCodec         = "JOBSTATE_CODEC"
	EnvSecret        = "JOBSTATE_SECRET"
	EnvLogLevel      = "JOBSTATE_LOG_LEVEL"
	EnvLogFormat     = "JOBSTATE_LOG_FORMAT"
)

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str(EnvKey, &c.Store.Key)
	str(EnvBackend, &c.Storage.Backend)
	str(EnvSQLitePath, &c.Storage.SQLite.Path)
	str(EnvRedisAddr, &c.Storage.Redis.Addr)
	str(EnvRedisPassword, &c.Storage.Redis.Password)
	str(EnvCodec, &c.Codec.Kind)
	str(EnvSecret, &c.Codec.Secret)
	str(EnvLogLevel, &c.Log.Level)
	str(EnvLogFormat, &c.Log.Format)

	if v, ok := lookup(EnvMaxAge); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxAge, err)
		}
		c.Store.MaxAge = d
	}
	if v, ok := lookup(EnvDebug); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDebug, err)
		}
		c.Store.Debug = b
	}
	if v, ok := lookup(EnvRedisDB); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRedisDB, err)
		}
		c.Storage.Redis.DB = n
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			return errors.New("storage.sqlite.path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required for the redis backend")
		}
	}
	if c.Codec.Kind == CodecSeal && c.Codec.Secret == "" {
		return fmt.Errorf("codec %q requires %s", CodecSeal, EnvSecret)
	}
	return nil
}

// Package store provides the key-value storage port the rule editor persists to,
// with in-memory, SQL and Redis adapters.
//
// The port is deliberately small (Get/Set/Delete of opaque byte values) so the
// editor engine can run against a fake in tests and against any backend in
// production. Adapters for network backends bound every call with their own
// timeout because the engine's operations are synchronous and carry no context.
package store

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/solatis/skiplogic/internal/core/db"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("key not found")

// Store is a namespaced key-value store.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Backend is a Store that owns resources which must be released.
type Backend interface {
	Store
	Close() error
}

// Options configure Open.
type Options struct {
	// Namespace isolates keys of different workspaces sharing one backend.
	Namespace string
	// Timeout bounds each network call. Zero means DefaultTimeout.
	Timeout time.Duration
	// AutoMigrate applies pending SQL migrations on open instead of failing.
	AutoMigrate bool
	Logger      *zap.Logger
}

// DefaultTimeout bounds backend calls when Options.Timeout is unset.
const DefaultTimeout = 5 * time.Second

// DefaultNamespace is used when Options.Namespace is empty.
const DefaultNamespace = "default"

// Open connects to the backend named by rawURL.
// Supported schemes: memory:, sqlite://, postgres://, redis://, rediss://
func Open(rawURL string, opts Options) (Backend, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid storage URL: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "postgres", "postgresql":
		return openSQL(rawURL, opts)
	case "redis", "rediss":
		r, err := OpenRedis(rawURL, opts)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported storage scheme: %q (expected memory, sqlite, postgres or redis)", u.Scheme)
	}
}

func openSQL(rawURL string, opts Options) (Backend, error) {
	database, err := db.Open(rawURL)
	if err != nil {
		return nil, err
	}

	if opts.AutoMigrate {
		err = db.MigrateUp(database)
	} else {
		err = db.RequireMigrations(database)
	}
	if err != nil {
		database.Close()
		return nil, err
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, err
	}

	opts.Logger.Debug("opened sql storage",
		zap.String("driver", database.DriverName()),
		zap.String("namespace", opts.Namespace))

	s := NewSQL(queries, opts.Namespace, opts.Timeout)
	s.closer = database.Close
	return s, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/skiplogic/internal/core/db"
)

// SQL stores entries in the kv_entries table through named queries.
// Safe for concurrent use; sqlx pools connections.
type SQL struct {
	queries   *db.Queries
	namespace string
	timeout   time.Duration
	closer    func() error
}

// NewSQL wraps loaded queries. The caller keeps ownership of the database
// unless the store was created by Open.
func NewSQL(queries *db.Queries, namespace string, timeout time.Duration) *SQL {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SQL{queries: queries, namespace: namespace, timeout: timeout}
}

func (s *SQL) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var value string
	err := s.queries.GetContext(ctx, "get-kv-entry", &value, s.namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return []byte(value), nil
}

func (s *SQL) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.queries.ExecContext(ctx, "upsert-kv-entry", s.namespace, key, string(value), now); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func (s *SQL) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.queries.ExecContext(ctx, "delete-kv-entry", s.namespace, key); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

// Close releases the database when the store owns it.
func (s *SQL) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Package repositories holds the PostgreSQL-backed stores.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidfriends/mediadeck/internal/db"
	"github.com/vidfriends/mediadeck/internal/prefs"
)

// PostgresPreferenceStore keeps preferences in a shared database. Each
// installation writes under its own namespace.
type PostgresPreferenceStore struct {
	pool      db.Pool
	namespace string
}

// NewPostgresPreferenceStore constructs a preference store backed by PostgreSQL.
func NewPostgresPreferenceStore(pool db.Pool, namespace string) *PostgresPreferenceStore {
	if strings.TrimSpace(namespace) == "" {
		namespace = "default"
	}
	return &PostgresPreferenceStore{pool: pool, namespace: namespace}
}

// Get loads a preference value.
func (s *PostgresPreferenceStore) Get(ctx context.Context, key string) ([]byte, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT value
        FROM preferences
        WHERE namespace = $1 AND key = $2
    `, s.namespace, key)

	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, prefs.ErrNotFound
		}
		return nil, fmt.Errorf("select preference %s: %w", key, err)
	}
	return value, nil
}

// Put stores or replaces a preference value. The upsert is retried on
// serialization failures.
func (s *PostgresPreferenceStore) Put(ctx context.Context, key string, value []byte) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO preferences (namespace, key, value, updated_at)
            VALUES ($1, $2, $3, NOW())
            ON CONFLICT (namespace, key)
            DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
        `, s.namespace, key, value)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("upsert preference %s: %w", key, err)
	}
	return nil
}

// Delete removes a preference. Deleting a missing key is not an error.
func (s *PostgresPreferenceStore) Delete(ctx context.Context, key string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM preferences
        WHERE namespace = $1 AND key = $2
    `, s.namespace, key); err != nil {
		return fmt.Errorf("delete preference %s: %w", key, err)
	}
	return nil
}

var _ prefs.Store = (*PostgresPreferenceStore)(nil)

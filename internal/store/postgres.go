package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore backs the Store interface with two tables: kv_records for
// single records and kv_log_entries for append-only logs. See
// migrations/001_kv_schema.sql.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, "SELECT value FROM kv_records WHERE key = $1", key).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_records (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM kv_records WHERE key = $1", key)
	if err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT key FROM kv_records WHERE key LIKE $1", prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("postgres keys %s: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) Append(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, "INSERT INTO kv_log_entries (key, value) VALUES ($1, $2)", key, value)
	if err != nil {
		return fmt.Errorf("postgres append %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Range(ctx context.Context, key string) ([][]byte, error) {
	rows, err := s.pool.Query(ctx, "SELECT value FROM kv_log_entries WHERE key = $1 ORDER BY id", key)
	if err != nil {
		return nil, fmt.Errorf("postgres range %s: %w", key, err)
	}
	defer rows.Close()

	var values [][]byte
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

func (s *PostgresStore) Trim(ctx context.Context, key string, max int64) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM kv_log_entries
		WHERE key = $1
		  AND id NOT IN (
			SELECT id FROM kv_log_entries
			WHERE key = $1
			ORDER BY id DESC
			LIMIT $2
		  )
	`, key, max)
	if err != nil {
		return fmt.Errorf("postgres trim %s: %w", key, err)
	}
	return nil
}

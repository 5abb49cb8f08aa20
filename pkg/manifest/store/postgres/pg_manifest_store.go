// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lakesift/lakesift/internal/backoff"
	pglib "github.com/lakesift/lakesift/internal/postgres"
	"github.com/lakesift/lakesift/pkg/manifest"
)

// Store keeps the manifest log in an insert-only postgres table. Appends rely
// on the database for write serialization; the latest entry is the most
// recently processed row for the batch identifier.
type Store struct {
	conn            pglib.Querier
	backoffProvider backoff.Provider
}

const tableName = "lakesift.manifest_entries"

type Option func(*Store)

func New(ctx context.Context, url string, opts ...Option) (*Store, error) {
	conn, err := pglib.NewConn(ctx, url)
	if err != nil {
		return nil, err
	}

	s := &Store{
		conn:            conn,
		backoffProvider: backoff.NewProvider(nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.createTable(ctx); err != nil {
		return nil, fmt.Errorf("creating manifest table: %w", err)
	}
	return s, nil
}

// WithBackoff enables retries of store IO with the given policy.
func WithBackoff(cfg *backoff.Config) Option {
	return func(s *Store) {
		s.backoffProvider = backoff.NewProvider(cfg)
	}
}

func (s *Store) Append(ctx context.Context, entry *manifest.Entry) error {
	query := fmt.Sprintf(`INSERT INTO %s (batch_id, content_hash, row_count, processed_at)
	VALUES($1, $2, $3, $4)`, tableName)
	return s.backoffProvider(ctx).Retry(func() error {
		_, err := s.conn.Exec(ctx, query, entry.BatchID, entry.ContentHash, entry.RowCount, entry.ProcessedAt)
		if err != nil {
			// constraint violations won't go away on retry
			if pglib.IsConstraintError(err) {
				return fmt.Errorf("inserting manifest entry: %w: %w", backoff.ErrPermanent, err)
			}
			return fmt.Errorf("inserting manifest entry: %w", err)
		}
		return nil
	})
}

func (s *Store) Latest(ctx context.Context, batchID string) (*manifest.Entry, error) {
	query := fmt.Sprintf(`SELECT batch_id, content_hash, row_count, processed_at FROM %s
	WHERE batch_id = $1 ORDER BY processed_at DESC, id DESC LIMIT 1`, tableName)

	var entry *manifest.Entry
	err := s.backoffProvider(ctx).Retry(func() error {
		e := &manifest.Entry{}
		err := s.conn.QueryRow(ctx, query, batchID).Scan(&e.BatchID, &e.ContentHash, &e.RowCount, &e.ProcessedAt)
		if err != nil {
			if errors.Is(err, pglib.ErrNoRows) {
				entry = nil
				return nil
			}
			return fmt.Errorf("querying latest manifest entry: %w", err)
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Store) Close() error {
	return s.conn.Close(context.Background())
}

func (s *Store) createTable(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS lakesift"); err != nil {
		return err
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	batch_id TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL
	)`, tableName)
	if _, err := s.conn.Exec(ctx, query); err != nil {
		return err
	}
	_, err := s.conn.Exec(ctx, fmt.Sprintf("CREATE INDEX IF NOT EXISTS manifest_entries_batch_id_idx ON %s (batch_id, processed_at)", tableName))
	return err
}

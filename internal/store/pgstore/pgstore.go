// Package pgstore is a store.Store backed by Postgres, adapted from the
// teacher's apps/api/repository/metro.go (pgxpool.Pool construction) for
// callers who want a shared, persistent store rather than the in-process
// memstore. Like sqlitestore it keeps one documents table of opaque JSON
// blobs; unlike sqlitestore, FindByQuery builds its predicate list with
// Masterminds/squirrel (grounded in jkilzi-assisted-migration-agent's use
// of squirrel for its own dynamic query layer) instead of loading every row
// and filtering in Go, since Postgres's jsonb operators make a pushed-down
// WHERE worthwhile.
package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/you/trainctl/internal/store"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store is a Postgres-backed store.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and ensures the documents table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool wraps an already-constructed pool, for callers that share one
// pool across stores.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data JSONB NOT NULL,
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("pgstore: ensure schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

func decodeRow(raw []byte) (store.Record, error) {
	var rec store.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("pgstore: decode record: %w", err)
	}
	return rec, nil
}

func (s *Store) FindAll(ctx context.Context, collection string) ([]store.Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("pgstore: find all: %w", err)
	}
	defer rows.Close()

	out := make([]store.Record, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("pgstore: scan: %w", err)
		}
		rec, err := decodeRow(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) FindByID(ctx context.Context, collection, id string) (store.Record, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pgstore: find by id: %w", err)
	}
	return decodeRow(raw)
}

// FindByQuery builds `collection = ? AND data->>'field' = ?` per query key
// with squirrel, so the equality filter list in spec §6 ("equality match on
// every key in queryMap") is pushed down to Postgres's jsonb accessor
// instead of re-filtering every row in Go.
func (s *Store) FindByQuery(ctx context.Context, collection string, query store.Query) ([]store.Record, error) {
	b := psql.Select("data").From("documents").Where(sq.Eq{"collection": collection})
	for k, v := range query {
		b = b.Where(fmt.Sprintf("data->>'%s' = ?", k), fmt.Sprintf("%v", v))
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("pgstore: build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: find by query: %w", err)
	}
	defer rows.Close()

	out := make([]store.Record, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("pgstore: scan: %w", err)
		}
		rec, err := decodeRow(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, collection string, record store.Record) (store.Record, error) {
	rec := make(store.Record, len(record))
	for k, v := range record {
		rec[k] = v
	}
	id, _ := rec["id"].(string)
	if id == "" {
		id = newID()
		rec["id"] = id
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("pgstore: encode record: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`, collection, id, data)
	if err != nil {
		return nil, fmt.Errorf("pgstore: insert: %w", err)
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Record) (store.Record, error) {
	existing, err := s.FindByID(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	for k, v := range patch {
		existing[k] = v
	}
	existing["id"] = id
	data, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("pgstore: encode record: %w", err)
	}
	_, err = s.pool.Exec(ctx, `UPDATE documents SET data = $1 WHERE collection = $2 AND id = $3`, data, collection, id)
	if err != nil {
		return nil, fmt.Errorf("pgstore: update: %w", err)
	}
	return existing, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return 0, fmt.Errorf("pgstore: delete: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) ClearCollection(ctx context.Context, collection string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return 0, fmt.Errorf("pgstore: clear collection: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var _ store.Store = (*Store)(nil)

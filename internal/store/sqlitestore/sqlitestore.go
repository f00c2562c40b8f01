// Package sqlitestore is a store.Store backed by SQLite, adapted from the
// teacher's apps/api/repository/sqlite.go connection-setup idiom
// (sql.Open("sqlite", ...), WAL + foreign keys pragmas, tuned connection
// pool) but storing opaque documents — one row per record, one JSON blob
// per row — instead of typed columns, since the core's store contract has
// no schema beyond "a record has an id".
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/you/trainctl/internal/store"
)

// Store is a SQLite-backed store.Store. One underlying table holds every
// collection's documents, keyed by (collection, id).
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at path (":memory:" for an ephemeral
// store) and ensures the documents table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("sqlitestore: ensure schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

func decodeRow(data string) (store.Record, error) {
	var rec store.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("sqlitestore: decode record: %w", err)
	}
	return rec, nil
}

func (s *Store) FindAll(ctx context.Context, collection string) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: find all: %w", err)
	}
	defer rows.Close()

	out := make([]store.Record, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan: %w", err)
		}
		rec, err := decodeRow(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) FindByID(ctx context.Context, collection, id string) (store.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: find by id: %w", err)
	}
	return decodeRow(data)
}

func (s *Store) FindByQuery(ctx context.Context, collection string, query store.Query) ([]store.Record, error) {
	all, err := s.FindAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]store.Record, 0)
	for _, rec := range all {
		if recMatches(rec, query) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func recMatches(rec store.Record, query store.Query) bool {
	for k, want := range query {
		got, ok := rec[k]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func (s *Store) Create(ctx context.Context, collection string, record store.Record) (store.Record, error) {
	rec := make(store.Record, len(record))
	for k, v := range record {
		rec[k] = v
	}
	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: encode record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)`,
		collection, id, string(data))
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: insert: %w", err)
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
		return nil, fmt.Errorf("sqlitestore: encode record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET data = ? WHERE collection = ? AND id = ?`,
		string(data), collection, id)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: update: %w", err)
	}
	return existing, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: delete: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) ClearCollection(ctx context.Context, collection string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: clear collection: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ store.Store = (*Store)(nil)

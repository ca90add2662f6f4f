package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"accessible_travel/internal/adapters/observability"
)

// Store is a domain.KVStore backed by the kv_entries table.
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

// Open connects with the mysql driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// Migrate creates kv_entries when missing.
func (r *Store) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createKVSQL)
	return err
}

func (r *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, getKVSQL, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		observability.ObserveCache("mysql", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache("mysql", "hit")
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Store) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	observability.ObserveCache("mysql", "set")
	_, err = r.db.ExecContext(ctx, upsertKVSQL, key, string(b))
	return err
}

func (r *Store) Del(ctx context.Context, key string) error {
	observability.ObserveCache("mysql", "del")
	_, err := r.db.ExecContext(ctx, deleteKVSQL, key)
	return err
}

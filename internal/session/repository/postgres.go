package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
)

const (
	getStateSQL    = `SELECT value FROM client_session_state WHERE client_id = $1 AND key = $2`
	listStateSQL   = `SELECT key, value FROM client_session_state WHERE client_id = $1`
	upsertStateSQL = `INSERT INTO client_session_state (client_id, key, value, updated_at) VALUES ($1, $2, $3, now())
ON CONFLICT (client_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteStateSQL = `DELETE FROM client_session_state WHERE client_id = $1 AND key = $2`
)

// PostgresRepository stores the session keys as rows of client_session_state, one row per key.
type PostgresRepository struct {
	db       *sql.DB
	clientID string
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
// The schema is created by the migrations in internal/db/migrations.
func NewPostgresRepository(db *sql.DB, clientID string) *PostgresRepository {
	return &PostgresRepository{db: db, clientID: clientID}
}

// Get returns the value for key, or ok false if there is no row.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, getStateSQL, r.clientID, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

// GetAll returns every key stored for the client.
func (r *PostgresRepository) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, listStateSQL, r.clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// PutAll upserts every value in one transaction. Keys are written in sorted order.
func (r *PostgresRepository) PutAll(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, upsertStateSQL, r.clientID, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the given keys in one transaction.
func (r *PostgresRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, deleteStateSQL, r.clientID, k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

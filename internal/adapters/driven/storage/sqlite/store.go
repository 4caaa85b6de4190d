// Package sqlite provides SQLite-backed implementations of the driven
// storage ports, sharing a single database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
)

// schema bootstraps the database. Every store row is a JSON-encoded
// domain record keyed by its platform (or state token), matching the
// single-upsert-per-key write discipline.
const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	platform TEXT PRIMARY KEY,
	data     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sync_state (
	platform TEXT PRIMARY KEY,
	data     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pending_auth (
	state      TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fact_batches (
	id          TEXT PRIMARY KEY,
	platform    TEXT NOT NULL,
	data        TEXT NOT NULL,
	produced_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fact_batches_platform
	ON fact_batches(platform, produced_at DESC);
CREATE TABLE IF NOT EXISTS fact_keys (
	key      TEXT PRIMARY KEY,
	platform TEXT NOT NULL
);
`

// Store is a unified SQLite-based storage that provides access to all
// persistence interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.factsync/data/factsync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".factsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "factsync.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TokenStore returns a TokenStore interface backed by this store.
func (s *Store) TokenStore() driven.TokenStore {
	return &tokenStore{store: s}
}

// SyncStateStore returns a SyncStateStore interface backed by this store.
func (s *Store) SyncStateStore() driven.SyncStateStore {
	return &syncStateStore{store: s}
}

// PendingAuthStore returns a PendingAuthStore interface backed by this store.
func (s *Store) PendingAuthStore() driven.PendingAuthStore {
	return &pendingAuthStore{store: s}
}

// FactStore returns a FactStore interface backed by this store.
func (s *Store) FactStore() driven.FactStore {
	return &factStore{store: s}
}

// --- TokenStore ---

type tokenStore struct {
	store *Store
}

func (t *tokenStore) Save(ctx context.Context, token domain.UserToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	_, err = t.store.db.ExecContext(ctx,
		`INSERT INTO tokens (platform, data) VALUES (?, ?)
		 ON CONFLICT(platform) DO UPDATE SET data = excluded.data`,
		string(token.Platform), string(data))
	return err
}

func (t *tokenStore) Get(ctx context.Context, platform domain.Platform) (*domain.UserToken, error) {
	var data string
	err := t.store.db.QueryRowContext(ctx,
		`SELECT data FROM tokens WHERE platform = ?`, string(platform)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var token domain.UserToken
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &token, nil
}

func (t *tokenStore) Delete(ctx context.Context, platform domain.Platform) error {
	_, err := t.store.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE platform = ?`, string(platform))
	return err
}

// --- SyncStateStore ---

type syncStateStore struct {
	store *Store
}

func (s *syncStateStore) Save(ctx context.Context, info domain.SyncInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal sync info: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx,
		`INSERT INTO sync_state (platform, data) VALUES (?, ?)
		 ON CONFLICT(platform) DO UPDATE SET data = excluded.data`,
		string(info.Platform), string(data))
	return err
}

func (s *syncStateStore) Get(ctx context.Context, platform domain.Platform) (*domain.SyncInfo, error) {
	var data string
	err := s.store.db.QueryRowContext(ctx,
		`SELECT data FROM sync_state WHERE platform = ?`, string(platform)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var info domain.SyncInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("unmarshal sync info: %w", err)
	}
	return &info, nil
}

func (s *syncStateStore) Delete(ctx context.Context, platform domain.Platform) error {
	_, err := s.store.db.ExecContext(ctx,
		`DELETE FROM sync_state WHERE platform = ?`, string(platform))
	return err
}

// --- PendingAuthStore ---

type pendingAuthStore struct {
	store *Store
}

func (p *pendingAuthStore) Save(ctx context.Context, pending domain.PendingAuth) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending auth: %w", err)
	}
	_, err = p.store.db.ExecContext(ctx,
		`INSERT INTO pending_auth (state, data, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(state) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		pending.State, string(data), pending.CreatedAt.Unix())
	return err
}

// Consume deletes the row inside a transaction so a state token can be
// consumed at most once even across concurrent callers.
func (p *pendingAuthStore) Consume(ctx context.Context, state string) (*domain.PendingAuth, error) {
	tx, err := p.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM pending_auth WHERE state = ?`, state).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM pending_auth WHERE state = ?`, state)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return nil, domain.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	var pending domain.PendingAuth
	if err := json.Unmarshal([]byte(data), &pending); err != nil {
		return nil, fmt.Errorf("unmarshal pending auth: %w", err)
	}
	if pending.Expired(time.Now()) {
		return nil, domain.ErrNotFound
	}
	return &pending, nil
}

func (p *pendingAuthStore) Delete(ctx context.Context, state string) error {
	_, err := p.store.db.ExecContext(ctx,
		`DELETE FROM pending_auth WHERE state = ?`, state)
	return err
}

// --- FactStore ---

type factStore struct {
	store *Store
}

// SaveBatch writes the batch and its dedup keys in one transaction.
func (f *factStore) SaveBatch(ctx context.Context, batch domain.FactBatch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal fact batch: %w", err)
	}

	tx, err := f.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO fact_batches (id, platform, data, produced_at) VALUES (?, ?, ?, ?)`,
		batch.ID, string(batch.Platform), string(data), batch.ProducedAt.Unix())
	if err != nil {
		return err
	}
	for _, fact := range batch.Triplets {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO fact_keys (key, platform) VALUES (?, ?)`,
			fact.Key, string(batch.Platform))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (f *factStore) HasKey(ctx context.Context, key string) (bool, error) {
	var one int
	err := f.store.db.QueryRowContext(ctx,
		`SELECT 1 FROM fact_keys WHERE key = ?`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (f *factStore) ListBatches(ctx context.Context, platform domain.Platform) ([]domain.FactBatch, error) {
	rows, err := f.store.db.QueryContext(ctx,
		`SELECT data FROM fact_batches WHERE platform = ? ORDER BY produced_at DESC`,
		string(platform))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []domain.FactBatch
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var batch domain.FactBatch
		if err := json.Unmarshal([]byte(data), &batch); err != nil {
			return nil, fmt.Errorf("unmarshal fact batch: %w", err)
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

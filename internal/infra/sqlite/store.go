// Package sqlite persists the tracker's state as named JSON buckets in
// a local SQLite database: one bucket per entity collection, written
// through after every committed command (last write wins).
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go driver

	"github.com/betmanager/betmanager/internal/domain"
)

// Bucket names. The layout mirrors the persisted-state contract: every
// collection is one JSON-encoded array (or object) under its name.
const (
	BucketTasks       = "tasks"
	BucketLogs        = "logs"
	BucketAccounts    = "accounts"
	BucketPacks       = "packs"
	BucketHouses      = "houses"
	BucketPixKeys     = "pixKeys"
	BucketTaskTypes   = "taskTypes"
	BucketUsers       = "users"
	BucketCurrentUser = "currentUser"
)

// DB wraps the SQLite handle.
type DB struct {
	db *sql.DB
}

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS buckets (
			name       TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
}

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; the engine serializes commands anyway.
	db.SetMaxOpenConns(1)
	for _, stmt := range Migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &DB{db: db}, nil
}

// Close closes the underlying handle.
func (d *DB) Close() error { return d.db.Close() }

// ─── Bucket Operations ──────────────────────────────────────────────────────

// SaveBucket JSON-encodes v and upserts it under name.
func (d *DB) SaveBucket(name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode bucket %s: %w", name, err)
	}
	_, err = d.db.Exec(`
		INSERT INTO buckets (name, data, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			data       = excluded.data,
			updated_at = datetime('now')
	`, name, string(data))
	if err != nil {
		return fmt.Errorf("save bucket %s: %w", name, err)
	}
	return nil
}

// LoadBucket decodes the bucket into out. A missing bucket leaves out
// untouched and returns nil: an empty store is a valid first run.
func (d *DB) LoadBucket(name string, out interface{}) error {
	var data string
	err := d.db.QueryRow(`SELECT data FROM buckets WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load bucket %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("decode bucket %s: %w", name, err)
	}
	return nil
}

// ─── StateStore Implementation ──────────────────────────────────────────────

// LoadState loads the four engine-owned collections.
func (d *DB) LoadState() (domain.State, error) {
	var st domain.State
	pairs := []struct {
		name string
		out  interface{}
	}{
		{BucketTasks, &st.Tasks},
		{BucketLogs, &st.Logs},
		{BucketAccounts, &st.Accounts},
		{BucketPacks, &st.Packs},
	}
	for _, p := range pairs {
		if err := d.LoadBucket(p.name, p.out); err != nil {
			return domain.State{}, err
		}
	}
	return st, nil
}

// SaveState writes the four collections in a single transaction so a
// half-written snapshot is never observable on restart.
func (d *DB) SaveState(st domain.State) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	pairs := []struct {
		name string
		v    interface{}
	}{
		{BucketTasks, st.Tasks},
		{BucketLogs, st.Logs},
		{BucketAccounts, st.Accounts},
		{BucketPacks, st.Packs},
	}
	for _, p := range pairs {
		data, err := json.Marshal(p.v)
		if err != nil {
			return fmt.Errorf("encode bucket %s: %w", p.name, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO buckets (name, data, updated_at)
			VALUES (?, ?, datetime('now'))
			ON CONFLICT(name) DO UPDATE SET
				data       = excluded.data,
				updated_at = datetime('now')
		`, p.name, string(data)); err != nil {
			return fmt.Errorf("save bucket %s: %w", p.name, err)
		}
	}
	return tx.Commit()
}

// ─── SettingsStore Implementation ───────────────────────────────────────────

// LoadHouses returns the configured house names.
func (d *DB) LoadHouses() ([]string, error) {
	var houses []string
	err := d.LoadBucket(BucketHouses, &houses)
	return houses, err
}

// SaveHouses persists the house names.
func (d *DB) SaveHouses(houses []string) error {
	return d.SaveBucket(BucketHouses, houses)
}

// LoadTaskTypes returns the configured task-type options.
func (d *DB) LoadTaskTypes() ([]domain.TaskTypeOption, error) {
	var types []domain.TaskTypeOption
	err := d.LoadBucket(BucketTaskTypes, &types)
	return types, err
}

// SaveTaskTypes persists the task-type options.
func (d *DB) SaveTaskTypes(types []domain.TaskTypeOption) error {
	return d.SaveBucket(BucketTaskTypes, types)
}

// LoadPixKeys returns the configured payout destinations.
func (d *DB) LoadPixKeys() ([]domain.PixKey, error) {
	var keys []domain.PixKey
	err := d.LoadBucket(BucketPixKeys, &keys)
	return keys, err
}

// SavePixKeys persists the payout destinations.
func (d *DB) SavePixKeys(keys []domain.PixKey) error {
	return d.SaveBucket(BucketPixKeys, keys)
}

// LoadUsers returns all known identity records.
func (d *DB) LoadUsers() ([]domain.User, error) {
	var users []domain.User
	err := d.LoadBucket(BucketUsers, &users)
	return users, err
}

// SaveUsers persists the identity records.
func (d *DB) SaveUsers(users []domain.User) error {
	return d.SaveBucket(BucketUsers, users)
}

// LoadCurrentUser returns the active session user, or nil.
func (d *DB) LoadCurrentUser() (*domain.User, error) {
	var u *domain.User
	err := d.LoadBucket(BucketCurrentUser, &u)
	return u, err
}

// SaveCurrentUser persists (or clears, with nil) the session user.
func (d *DB) SaveCurrentUser(u *domain.User) error {
	return d.SaveBucket(BucketCurrentUser, u)
}

// Package settings holds the explicit UI state the map and table pages
// restore between visits, and the key/value store it is saved in.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	KeyMapSettings      = "tahisis_map_settings"
	KeyPageState        = "tahisis_page_state"
	KeyMapView          = "tahisis_map_view"
	KeyEstatesFilters   = "tahisis_estates_filters"
	KeyEstatesSorting   = "tahisis_estates_sorting"
	KeyActiveRevision   = "tahisis_active_revision"
	KeyActiveEstateType = "tahisis_active_estate_type"
	KeyTableSettings    = "tahisis_table_settings"
)

// Keys lists every key this package writes, in a stable order.
var Keys = []string{
	KeyMapSettings,
	KeyPageState,
	KeyMapView,
	KeyEstatesFilters,
	KeyEstatesSorting,
	KeyActiveRevision,
	KeyActiveEstateType,
	KeyTableSettings,
}

var ErrEmptyKey = errors.New("settings key is required")

// Store persists JSON values by key. Load reports false when the key was
// never saved.
type Store interface {
	Save(ctx context.Context, key string, v any) error
	Load(ctx context.Context, key string, dst any) (bool, error)
	Remove(ctx context.Context, key string) error
}

// SQLiteStore keeps settings in a single kv table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(kvSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, key string, v any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(b), s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, ErrEmptyKey
	}
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Clear drops every known key.
func Clear(ctx context.Context, st Store) error {
	for _, k := range Keys {
		if err := st.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Package sqlite implements the store interfaces on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pibox/pibox/internal/store"
)

// Open opens (creating if needed) the controller database at path, applies
// the schema, and returns the wired store set plus the handle for closing.
func Open(ctx context.Context, path string) (*sql.DB, *store.Stores, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	// Per-connection PRAGMAs: WAL and a busy timeout are good defaults for a
	// single-process server.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		path,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}

	// Single connection sidesteps SQLITE_BUSY between writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	stores := &store.Stores{
		Vehicles:   &VehicleStore{db: db},
		AccessLogs: &AccessLogStore{db: db},
		Barriers:   &BarrierStore{db: db},
		Cameras:    &CameraStore{db: db},
		Settings:   &SettingsStore{db: db},
	}
	return db, stores, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
  plate       TEXT PRIMARY KEY,
  owner_name  TEXT NOT NULL DEFAULT '',
  unit_name   TEXT NOT NULL DEFAULT '',
  unit_id     INTEGER NOT NULL DEFAULT 0,
  iu_number   TEXT NOT NULL DEFAULT '',
  active      INTEGER NOT NULL DEFAULT 1,
  expires_ms  INTEGER,
  updated_ms  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS access_logs (
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  plate          TEXT NOT NULL,
  camera_ip      TEXT NOT NULL DEFAULT '',
  camera_name    TEXT NOT NULL DEFAULT '',
  access_granted INTEGER NOT NULL,
  vehicle_type   TEXT NOT NULL DEFAULT 'unknown',
  unit_name      TEXT NOT NULL DEFAULT '',
  owner_name     TEXT NOT NULL DEFAULT '',
  image_path     TEXT NOT NULL DEFAULT '',
  relay_channels TEXT NOT NULL DEFAULT '',
  pushed         INTEGER NOT NULL DEFAULT 0,
  timestamp_ms   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_access_logs_ts ON access_logs(timestamp_ms);

CREATE TABLE IF NOT EXISTS barrier_mappings (
  camera_ip      TEXT PRIMARY KEY,
  camera_name    TEXT NOT NULL DEFAULT '',
  relay_channels TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS anpr_cameras (
  reg_code       TEXT PRIMARY KEY,
  name           TEXT NOT NULL DEFAULT '',
  password       TEXT NOT NULL DEFAULT '',
  location_id    INTEGER NOT NULL DEFAULT 0,
  relay_channels TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS settings (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

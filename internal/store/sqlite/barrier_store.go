package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pibox/pibox/internal/store"
)

type BarrierStore struct {
	db *sql.DB
}

func (s *BarrierStore) GetByCameraIP(ctx context.Context, ip string) (store.BarrierMapping, error) {
	var m store.BarrierMapping
	var channels string
	err := s.db.QueryRowContext(ctx, `
SELECT camera_ip, camera_name, relay_channels FROM barrier_mappings WHERE camera_ip = ?;
`, ip).Scan(&m.CameraIP, &m.CameraName, &channels)
	if err == sql.ErrNoRows {
		return store.BarrierMapping{}, store.ErrNotFound
	}
	if err != nil {
		return store.BarrierMapping{}, fmt.Errorf("get barrier mapping: %w", err)
	}
	m.RelayChannels = splitChannels(channels)
	return m, nil
}

func (s *BarrierStore) Put(ctx context.Context, m store.BarrierMapping) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO barrier_mappings(camera_ip, camera_name, relay_channels)
VALUES (?, ?, ?)
ON CONFLICT(camera_ip) DO UPDATE SET
  camera_name=excluded.camera_name, relay_channels=excluded.relay_channels;
`, m.CameraIP, m.CameraName, joinChannels(m.RelayChannels))
	if err != nil {
		return fmt.Errorf("put barrier mapping: %w", err)
	}
	return nil
}

func (s *BarrierStore) Delete(ctx context.Context, ip string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM barrier_mappings WHERE camera_ip = ?;`, ip)
	return err
}

func (s *BarrierStore) List(ctx context.Context) ([]store.BarrierMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT camera_ip, camera_name, relay_channels FROM barrier_mappings ORDER BY camera_ip;
`)
	if err != nil {
		return nil, fmt.Errorf("list barrier mappings: %w", err)
	}
	defer rows.Close()

	var out []store.BarrierMapping
	for rows.Next() {
		var m store.BarrierMapping
		var channels string
		if err := rows.Scan(&m.CameraIP, &m.CameraName, &channels); err != nil {
			return nil, fmt.Errorf("scan barrier mapping: %w", err)
		}
		m.RelayChannels = splitChannels(channels)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *BarrierStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM barrier_mappings;`).Scan(&n)
	return n, err
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pibox/pibox/internal/store"
)

type CameraStore struct {
	db *sql.DB
}

func (s *CameraStore) GetByRegCode(ctx context.Context, regCode string) (store.AnprCamera, error) {
	var cam store.AnprCamera
	var channels string
	err := s.db.QueryRowContext(ctx, `
SELECT reg_code, name, password, location_id, relay_channels FROM anpr_cameras WHERE reg_code = ?;
`, regCode).Scan(&cam.RegCode, &cam.Name, &cam.Password, &cam.LocationID, &channels)
	if err == sql.ErrNoRows {
		return store.AnprCamera{}, store.ErrNotFound
	}
	if err != nil {
		return store.AnprCamera{}, fmt.Errorf("get camera: %w", err)
	}
	cam.RelayChannels = splitChannels(channels)
	return cam, nil
}

func (s *CameraStore) Put(ctx context.Context, cam store.AnprCamera) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO anpr_cameras(reg_code, name, password, location_id, relay_channels)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(reg_code) DO UPDATE SET
  name=excluded.name, password=excluded.password,
  location_id=excluded.location_id, relay_channels=excluded.relay_channels;
`, cam.RegCode, cam.Name, cam.Password, cam.LocationID, joinChannels(cam.RelayChannels))
	if err != nil {
		return fmt.Errorf("put camera: %w", err)
	}
	return nil
}

func (s *CameraStore) Delete(ctx context.Context, regCode string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM anpr_cameras WHERE reg_code = ?;`, regCode)
	return err
}

func (s *CameraStore) List(ctx context.Context) ([]store.AnprCamera, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT reg_code, name, password, location_id, relay_channels FROM anpr_cameras ORDER BY reg_code;
`)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var out []store.AnprCamera
	for rows.Next() {
		var cam store.AnprCamera
		var channels string
		if err := rows.Scan(&cam.RegCode, &cam.Name, &cam.Password, &cam.LocationID, &channels); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		cam.RelayChannels = splitChannels(channels)
		out = append(out, cam)
	}
	return out, rows.Err()
}

func (s *CameraStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM anpr_cameras;`).Scan(&n)
	return n, err
}

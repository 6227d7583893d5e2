package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pibox/pibox/internal/store"
)

type AccessLogStore struct {
	db *sql.DB
}

func (s *AccessLogStore) Insert(ctx context.Context, rec *store.AccessLog) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO access_logs(plate, camera_ip, camera_name, access_granted, vehicle_type,
  unit_name, owner_name, image_path, relay_channels, pushed, timestamp_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, rec.Plate, rec.CameraIP, rec.CameraName, boolToInt(rec.AccessGranted), rec.VehicleType,
		rec.UnitName, rec.OwnerName, rec.ImagePath, joinChannels(rec.RelayChannels),
		boolToInt(rec.Pushed), rec.Timestamp.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	return err
}

func (s *AccessLogStore) List(ctx context.Context, limit int) ([]store.AccessLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, plate, camera_ip, camera_name, access_granted, vehicle_type,
  unit_name, owner_name, image_path, relay_channels, pushed, timestamp_ms
FROM access_logs ORDER BY id DESC LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list access logs: %w", err)
	}
	defer rows.Close()

	var out []store.AccessLog
	for rows.Next() {
		var rec store.AccessLog
		var granted, pushed int
		var channels string
		var tsMs int64
		if err := rows.Scan(&rec.ID, &rec.Plate, &rec.CameraIP, &rec.CameraName, &granted,
			&rec.VehicleType, &rec.UnitName, &rec.OwnerName, &rec.ImagePath,
			&channels, &pushed, &tsMs); err != nil {
			return nil, fmt.Errorf("scan access log: %w", err)
		}
		rec.AccessGranted = granted != 0
		rec.Pushed = pushed != 0
		rec.RelayChannels = splitChannels(channels)
		rec.Timestamp = msToTime(tsMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *AccessLogStore) TodayStats(ctx context.Context) (store.TodayStats, error) {
	// Start of the local day, in ms, to match logged timestamps.
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var stats store.TodayStats
	err := s.db.QueryRowContext(ctx, `
SELECT
  COUNT(*),
  COALESCE(SUM(CASE WHEN access_granted = 1 THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN access_granted = 0 THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN vehicle_type = 'resident' THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN vehicle_type = 'unknown' THEN 1 ELSE 0 END), 0)
FROM access_logs WHERE timestamp_ms >= ?;
`, dayStart.UnixMilli()).Scan(&stats.Total, &stats.Granted, &stats.Denied, &stats.Residents, &stats.Unknown)
	if err != nil {
		return store.TodayStats{}, fmt.Errorf("today stats: %w", err)
	}
	return stats, nil
}

func (s *AccessLogStore) MarkPushed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE access_logs SET pushed = 1 WHERE id = ?;`, id)
	return err
}

func (s *AccessLogStore) CountUnpushed(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_logs WHERE pushed = 0;`).Scan(&n)
	return n, err
}

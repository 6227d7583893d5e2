package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pibox/pibox/internal/store"
)

type VehicleStore struct {
	db *sql.DB
}

func (s *VehicleStore) GetByPlate(ctx context.Context, plate string) (store.Vehicle, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT plate, owner_name, unit_name, unit_id, iu_number, active, expires_ms, updated_ms
FROM vehicles WHERE plate = ?;
`, plate)
	return scanVehicle(row)
}

func (s *VehicleStore) Upsert(ctx context.Context, v store.Vehicle) error {
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = time.Now().UTC()
	}
	var expiresMs any
	if v.ExpiresAt != nil {
		expiresMs = v.ExpiresAt.UTC().UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO vehicles(plate, owner_name, unit_name, unit_id, iu_number, active, expires_ms, updated_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(plate) DO UPDATE SET
  owner_name=excluded.owner_name, unit_name=excluded.unit_name,
  unit_id=excluded.unit_id, iu_number=excluded.iu_number,
  active=excluded.active, expires_ms=excluded.expires_ms,
  updated_ms=excluded.updated_ms;
`, v.Plate, v.OwnerName, v.UnitName, v.UnitID, v.IUNumber, boolToInt(v.Active), expiresMs, v.UpdatedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert vehicle: %w", err)
	}
	return nil
}

func (s *VehicleStore) ReplaceAll(ctx context.Context, vehicles []store.Vehicle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vehicles;`); err != nil {
		return fmt.Errorf("clear vehicles: %w", err)
	}

	now := time.Now().UTC().UnixMilli()
	for _, v := range vehicles {
		var expiresMs any
		if v.ExpiresAt != nil {
			expiresMs = v.ExpiresAt.UTC().UnixMilli()
		}
		updated := now
		if !v.UpdatedAt.IsZero() {
			updated = v.UpdatedAt.UTC().UnixMilli()
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO vehicles(plate, owner_name, unit_name, unit_id, iu_number, active, expires_ms, updated_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`, v.Plate, v.OwnerName, v.UnitName, v.UnitID, v.IUNumber, boolToInt(v.Active), expiresMs, updated); err != nil {
			return fmt.Errorf("insert vehicle %s: %w", v.Plate, err)
		}
	}
	return tx.Commit()
}

func (s *VehicleStore) List(ctx context.Context) ([]store.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT plate, owner_name, unit_name, unit_id, iu_number, active, expires_ms, updated_ms
FROM vehicles ORDER BY plate;
`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var out []store.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *VehicleStore) Delete(ctx context.Context, plate string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM vehicles WHERE plate = ?;`, plate)
	return err
}

func (s *VehicleStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles;`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (store.Vehicle, error) {
	var v store.Vehicle
	var active int
	var expiresMs sql.NullInt64
	var updatedMs int64
	err := row.Scan(&v.Plate, &v.OwnerName, &v.UnitName, &v.UnitID, &v.IUNumber, &active, &expiresMs, &updatedMs)
	if err == sql.ErrNoRows {
		return store.Vehicle{}, store.ErrNotFound
	}
	if err != nil {
		return store.Vehicle{}, fmt.Errorf("scan vehicle: %w", err)
	}
	v.Active = active != 0
	if expiresMs.Valid {
		t := msToTime(expiresMs.Int64)
		v.ExpiresAt = &t
	}
	v.UpdatedAt = msToTime(updatedMs)
	return v, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package store defines the persistence interfaces for the edge controller
// and their shared record types. Implementations live in the sqlite and
// memory subpackages.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("store: not found")

// Vehicle is a registered vehicle synced from the remote directory.
type Vehicle struct {
	Plate     string     `json:"plate"`
	OwnerName string     `json:"owner_name"`
	UnitName  string     `json:"unit_name"`
	UnitID    int64      `json:"unit_id"`
	IUNumber  string     `json:"iu_number,omitempty"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Valid reports whether the vehicle currently grants access.
func (v Vehicle) Valid() bool {
	if !v.Active {
		return false
	}
	return v.ExpiresAt == nil || v.ExpiresAt.After(time.Now())
}

// AccessLog is one recorded access decision.
type AccessLog struct {
	ID            int64     `json:"id"`
	Plate         string    `json:"plate"`
	CameraIP      string    `json:"camera_ip,omitempty"`
	CameraName    string    `json:"camera_name,omitempty"`
	AccessGranted bool      `json:"access_granted"`
	VehicleType   string    `json:"vehicle_type"`
	UnitName      string    `json:"unit_name,omitempty"`
	OwnerName     string    `json:"owner_name,omitempty"`
	ImagePath     string    `json:"image_path,omitempty"`
	RelayChannels []int     `json:"relay_channels,omitempty"`
	Pushed        bool      `json:"pushed"`
	Timestamp     time.Time `json:"timestamp"`
}

// TodayStats aggregates today's access decisions.
type TodayStats struct {
	Total     int `json:"total"`
	Granted   int `json:"granted"`
	Denied    int `json:"denied"`
	Residents int `json:"residents"`
	Unknown   int `json:"unknown"`
}

// BarrierMapping maps a camera IP to the relay channels it opens.
type BarrierMapping struct {
	CameraIP      string `json:"camera_ip"`
	CameraName    string `json:"camera_name"`
	RelayChannels []int  `json:"relay_channels"`
}

// AnprCamera is a camera registered by its registration code.
type AnprCamera struct {
	RegCode       string `json:"reg_code"`
	Name          string `json:"name"`
	Password      string `json:"password,omitempty"`
	LocationID    int64  `json:"location_id,omitempty"`
	RelayChannels []int  `json:"relay_channels"`
}

// VehicleStore persists the synced vehicle directory.
type VehicleStore interface {
	GetByPlate(ctx context.Context, plate string) (Vehicle, error)
	Upsert(ctx context.Context, v Vehicle) error
	// ReplaceAll swaps the full vehicle set in one transaction (sync job).
	ReplaceAll(ctx context.Context, vehicles []Vehicle) error
	List(ctx context.Context) ([]Vehicle, error)
	Delete(ctx context.Context, plate string) error
	Count(ctx context.Context) (int, error)
}

// AccessLogStore records access decisions.
type AccessLogStore interface {
	// Insert stores the record and fills in its ID.
	Insert(ctx context.Context, rec *AccessLog) error
	List(ctx context.Context, limit int) ([]AccessLog, error)
	TodayStats(ctx context.Context) (TodayStats, error)
	MarkPushed(ctx context.Context, id int64) error
	CountUnpushed(ctx context.Context) (int, error)
}

// BarrierStore persists camera-IP to relay-channel mappings.
type BarrierStore interface {
	GetByCameraIP(ctx context.Context, ip string) (BarrierMapping, error)
	Put(ctx context.Context, m BarrierMapping) error
	Delete(ctx context.Context, ip string) error
	List(ctx context.Context) ([]BarrierMapping, error)
	Count(ctx context.Context) (int, error)
}

// CameraStore persists registered ANPR cameras.
type CameraStore interface {
	GetByRegCode(ctx context.Context, regCode string) (AnprCamera, error)
	Put(ctx context.Context, cam AnprCamera) error
	Delete(ctx context.Context, regCode string) error
	List(ctx context.Context) ([]AnprCamera, error)
	Count(ctx context.Context) (int, error)
}

// SettingsStore is a persisted key/value bag for runtime configuration
// (directory server credentials, sync interval, pulse duration).
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// Stores bundles every store backed by one database.
type Stores struct {
	Vehicles   VehicleStore
	AccessLogs AccessLogStore
	Barriers   BarrierStore
	Cameras    CameraStore
	Settings   SettingsStore
}

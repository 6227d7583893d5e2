// Package memory provides in-memory store implementations for tests and
// for running without a database file.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pibox/pibox/internal/store"
)

// New returns a fully wired in-memory store set.
func New() *store.Stores {
	return &store.Stores{
		Vehicles:   &VehicleStore{vehicles: make(map[string]store.Vehicle)},
		AccessLogs: &AccessLogStore{},
		Barriers:   &BarrierStore{mappings: make(map[string]store.BarrierMapping)},
		Cameras:    &CameraStore{cameras: make(map[string]store.AnprCamera)},
		Settings:   &SettingsStore{values: make(map[string]string)},
	}
}

type VehicleStore struct {
	mu       sync.RWMutex
	vehicles map[string]store.Vehicle
}

func (s *VehicleStore) GetByPlate(_ context.Context, plate string) (store.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[plate]
	if !ok {
		return store.Vehicle{}, store.ErrNotFound
	}
	return v, nil
}

func (s *VehicleStore) Upsert(_ context.Context, v store.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = time.Now().UTC()
	}
	s.vehicles[v.Plate] = v
	return nil
}

func (s *VehicleStore) ReplaceAll(_ context.Context, vehicles []store.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = make(map[string]store.Vehicle, len(vehicles))
	for _, v := range vehicles {
		s.vehicles[v.Plate] = v
	}
	return nil
}

func (s *VehicleStore) List(_ context.Context) ([]store.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plate < out[j].Plate })
	return out, nil
}

func (s *VehicleStore) Delete(_ context.Context, plate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vehicles, plate)
	return nil
}

func (s *VehicleStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vehicles), nil
}

type AccessLogStore struct {
	mu     sync.RWMutex
	logs   []store.AccessLog
	nextID int64
}

func (s *AccessLogStore) Insert(_ context.Context, rec *store.AccessLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	s.logs = append(s.logs, *rec)
	return nil
}

func (s *AccessLogStore) List(_ context.Context, limit int) ([]store.AccessLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.logs) {
		limit = len(s.logs)
	}
	out := make([]store.AccessLog, 0, limit)
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.logs[i])
	}
	return out, nil
}

func (s *AccessLogStore) TodayStats(_ context.Context) (store.TodayStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var stats store.TodayStats
	for _, rec := range s.logs {
		if rec.Timestamp.Before(dayStart) {
			continue
		}
		stats.Total++
		if rec.AccessGranted {
			stats.Granted++
		} else {
			stats.Denied++
		}
		switch rec.VehicleType {
		case "resident":
			stats.Residents++
		case "unknown":
			stats.Unknown++
		}
	}
	return stats, nil
}

func (s *AccessLogStore) MarkPushed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.logs {
		if s.logs[i].ID == id {
			s.logs[i].Pushed = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *AccessLogStore) CountUnpushed(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.logs {
		if !rec.Pushed {
			n++
		}
	}
	return n, nil
}

type BarrierStore struct {
	mu       sync.RWMutex
	mappings map[string]store.BarrierMapping
}

func (s *BarrierStore) GetByCameraIP(_ context.Context, ip string) (store.BarrierMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mappings[ip]
	if !ok {
		return store.BarrierMapping{}, store.ErrNotFound
	}
	return m, nil
}

func (s *BarrierStore) Put(_ context.Context, m store.BarrierMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[m.CameraIP] = m
	return nil
}

func (s *BarrierStore) Delete(_ context.Context, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mappings, ip)
	return nil
}

func (s *BarrierStore) List(_ context.Context) ([]store.BarrierMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.BarrierMapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CameraIP < out[j].CameraIP })
	return out, nil
}

func (s *BarrierStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings), nil
}

type CameraStore struct {
	mu      sync.RWMutex
	cameras map[string]store.AnprCamera
}

func (s *CameraStore) GetByRegCode(_ context.Context, regCode string) (store.AnprCamera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cam, ok := s.cameras[regCode]
	if !ok {
		return store.AnprCamera{}, store.ErrNotFound
	}
	return cam, nil
}

func (s *CameraStore) Put(_ context.Context, cam store.AnprCamera) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras[cam.RegCode] = cam
	return nil
}

func (s *CameraStore) Delete(_ context.Context, regCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cameras, regCode)
	return nil
}

func (s *CameraStore) List(_ context.Context) ([]store.AnprCamera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.AnprCamera, 0, len(s.cameras))
	for _, cam := range s.cameras {
		out = append(out, cam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegCode < out[j].RegCode })
	return out, nil
}

func (s *CameraStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cameras), nil
}

type SettingsStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func (s *SettingsStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *SettingsStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *SettingsStore) All(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

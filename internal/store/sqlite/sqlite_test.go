package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pibox/pibox/internal/store"
)

func openTestStores(t *testing.T) *store.Stores {
	t.Helper()
	db, stores, err := Open(context.Background(), filepath.Join(t.TempDir(), "pibox.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return stores
}

func TestVehicleStore_UpsertAndLookup(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	v := store.Vehicle{Plate: "SGX1234A", OwnerName: "Tan Wei", UnitName: "01-02", UnitID: 7, Active: true}
	if err := stores.Vehicles.Upsert(ctx, v); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := stores.Vehicles.GetByPlate(ctx, "SGX1234A")
	if err != nil {
		t.Fatalf("GetByPlate: %v", err)
	}
	if got.OwnerName != "Tan Wei" || !got.Valid() {
		t.Errorf("unexpected vehicle: %+v", got)
	}

	// Upsert replaces, not duplicates.
	v.OwnerName = "Tan Wei Ming"
	if err := stores.Vehicles.Upsert(ctx, v); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if n, _ := stores.Vehicles.Count(ctx); n != 1 {
		t.Errorf("expected 1 vehicle, got %d", n)
	}

	if _, err := stores.Vehicles.GetByPlate(ctx, "MISSING"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVehicleStore_ReplaceAll(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	stores.Vehicles.Upsert(ctx, store.Vehicle{Plate: "OLD1", Active: true})
	err := stores.Vehicles.ReplaceAll(ctx, []store.Vehicle{
		{Plate: "NEW1", Active: true},
		{Plate: "NEW2", Active: false},
	})
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	if _, err := stores.Vehicles.GetByPlate(ctx, "OLD1"); err != store.ErrNotFound {
		t.Error("old vehicle should be gone after ReplaceAll")
	}
	if n, _ := stores.Vehicles.Count(ctx); n != 2 {
		t.Errorf("expected 2 vehicles, got %d", n)
	}
}

func TestVehicle_ExpiryValidity(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	stores.Vehicles.Upsert(ctx, store.Vehicle{Plate: "EXPIRED", Active: true, ExpiresAt: &past})

	got, err := stores.Vehicles.GetByPlate(ctx, "EXPIRED")
	if err != nil {
		t.Fatalf("GetByPlate: %v", err)
	}
	if got.Valid() {
		t.Error("expired vehicle should not be valid")
	}
}

func TestAccessLogStore_InsertAndStats(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	records := []store.AccessLog{
		{Plate: "AAA111", AccessGranted: true, VehicleType: "resident", RelayChannels: []int{1, 2}},
		{Plate: "BBB222", AccessGranted: false, VehicleType: "unknown"},
		{Plate: "CCC333", AccessGranted: true, VehicleType: "resident"},
	}
	for i := range records {
		if err := stores.AccessLogs.Insert(ctx, &records[i]); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if records[i].ID == 0 {
			t.Fatal("Insert should assign an ID")
		}
	}

	stats, err := stores.AccessLogs.TodayStats(ctx)
	if err != nil {
		t.Fatalf("TodayStats: %v", err)
	}
	want := store.TodayStats{Total: 3, Granted: 2, Denied: 1, Residents: 2, Unknown: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	logs, err := stores.AccessLogs.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(logs) != 2 || logs[0].Plate != "CCC333" {
		t.Errorf("expected newest-first listing, got %+v", logs)
	}
	if len(logs[1].RelayChannels) != 0 {
		t.Errorf("unexpected channels: %+v", logs[1])
	}

	if err := stores.AccessLogs.MarkPushed(ctx, records[0].ID); err != nil {
		t.Fatalf("MarkPushed: %v", err)
	}
	if n, _ := stores.AccessLogs.CountUnpushed(ctx); n != 2 {
		t.Errorf("expected 2 unpushed, got %d", n)
	}
}

func TestBarrierStore_RoundTrip(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	m := store.BarrierMapping{CameraIP: "10.0.0.5", CameraName: "Entry", RelayChannels: []int{1, 3}}
	if err := stores.Barriers.Put(ctx, m); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := stores.Barriers.GetByCameraIP(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("GetByCameraIP: %v", err)
	}
	if len(got.RelayChannels) != 2 || got.RelayChannels[1] != 3 {
		t.Errorf("unexpected mapping: %+v", got)
	}

	if err := stores.Barriers.Delete(ctx, "10.0.0.5"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := stores.Barriers.GetByCameraIP(ctx, "10.0.0.5"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCameraStore_RoundTrip(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	cam := store.AnprCamera{RegCode: "GATE1", Name: "Main Gate", LocationID: 4, RelayChannels: []int{2}}
	if err := stores.Cameras.Put(ctx, cam); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := stores.Cameras.GetByRegCode(ctx, "GATE1")
	if err != nil {
		t.Fatalf("GetByRegCode: %v", err)
	}
	if got.Name != "Main Gate" || got.LocationID != 4 {
		t.Errorf("unexpected camera: %+v", got)
	}
}

func TestSettingsStore_RoundTrip(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	if _, err := stores.Settings.Get(ctx, "sync_interval"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	stores.Settings.Set(ctx, "sync_interval", "300")
	stores.Settings.Set(ctx, "sync_interval", "600")

	v, err := stores.Settings.Get(ctx, "sync_interval")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "600" {
		t.Errorf("expected 600, got %s", v)
	}

	all, _ := stores.Settings.All(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 setting, got %v", all)
	}
}

package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pibox/pibox/internal/store"
	"github.com/pibox/pibox/internal/store/memory"
)

// fakeDirectory implements just enough of the JSON-RPC surface.
type fakeDirectory struct {
	t        *testing.T
	vehicles []map[string]any
	logins   atomic.Int64
	creates  atomic.Int64
	failAll  atomic.Bool
}

func (f *fakeDirectory) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.failAll.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		var req struct {
			Params struct {
				Service string `json:"service"`
				Method  string `json:"method"`
				Args    []any  `json:"args"`
			} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Errorf("bad request body: %v", err)
			return
		}

		var result any
		switch {
		case req.Params.Service == "common" && req.Params.Method == "login":
			f.logins.Add(1)
			result = 7
		case req.Params.Service == "object":
			model := req.Params.Args[3].(string)
			method := req.Params.Args[4].(string)
			switch model + "." + method {
			case "parking.vehicle.search_read":
				result = f.vehicles
			case "parking.access.log.create":
				f.creates.Add(1)
				result = f.creates.Load()
			default:
				f.t.Errorf("unexpected call %s.%s", model, method)
			}
		default:
			f.t.Errorf("unexpected service %q method %q", req.Params.Service, req.Params.Method)
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "result": result})
	}
}

func newFakeDirectory(t *testing.T) (*fakeDirectory, *Client) {
	t.Helper()
	f := &fakeDirectory{t: t}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, NewClient(srv.URL, "site1", "controller", "secret")
}

func TestFetchVehicles(t *testing.T) {
	f, client := newFakeDirectory(t)
	f.vehicles = []map[string]any{
		{"license_plate": "AB123CD", "owner_name": "Jordan Lee", "unit_name": "12-34", "active": true},
		{"license_plate": "EX111PD", "active": true, "expires_at": "2026-12-31 23:59:59"},
	}

	got, err := client.FetchVehicles(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d vehicles, want 2", len(got))
	}
	if got[0].Plate != "AB123CD" || got[0].OwnerName != "Jordan Lee" {
		t.Errorf("vehicle 0 = %+v", got[0])
	}
	if got[1].ExpiresAt == nil || got[1].ExpiresAt.Year() != 2026 {
		t.Errorf("vehicle 1 expiry = %v", got[1].ExpiresAt)
	}
	if f.logins.Load() != 1 {
		t.Errorf("logins = %d, want 1 (cached uid)", f.logins.Load())
	}
}

func TestLoginCachedAcrossCalls(t *testing.T) {
	f, client := newFakeDirectory(t)
	for i := 0; i < 3; i++ {
		if _, err := client.FetchVehicles(context.Background()); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if f.logins.Load() != 1 {
		t.Errorf("logins = %d, want 1", f.logins.Load())
	}
}

func TestRPCErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": 200, "message": "Odoo Server Error"},
		})
	}))
	defer srv.Close()
	client := NewClient(srv.URL, "site1", "controller", "secret")
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from RPC error response")
	}
}

func TestSyncPassReplacesVehiclesAndPushesPending(t *testing.T) {
	f, client := newFakeDirectory(t)
	f.vehicles = []map[string]any{
		{"license_plate": "AB123CD", "active": true},
	}
	stores := memory.New()

	// One stale vehicle that should disappear, one unpushed log to drain.
	stores.Vehicles.Upsert(context.Background(), store.Vehicle{Plate: "OLD000", Active: true})
	entry := store.AccessLog{Plate: "AB123CD", AccessGranted: true, Timestamp: time.Now()}
	stores.AccessLogs.Insert(context.Background(), &entry)

	s := New(client, stores, nil, time.Hour)
	s.pass()

	if _, err := stores.Vehicles.GetByPlate(context.Background(), "OLD000"); err != store.ErrNotFound {
		t.Errorf("stale vehicle still present, err = %v", err)
	}
	if _, err := stores.Vehicles.GetByPlate(context.Background(), "AB123CD"); err != nil {
		t.Errorf("synced vehicle missing: %v", err)
	}
	if f.creates.Load() != 1 {
		t.Errorf("creates = %d, want 1", f.creates.Load())
	}
	if n, _ := stores.AccessLogs.CountUnpushed(context.Background()); n != 0 {
		t.Errorf("unpushed = %d, want 0", n)
	}

	st := s.Status()
	if !st.DirectoryConnected || st.VehicleCount != 1 || st.LastSync == "" {
		t.Errorf("status = %+v", st)
	}
}

func TestSyncFailureSetsStatus(t *testing.T) {
	f, client := newFakeDirectory(t)
	f.failAll.Store(true)
	s := New(client, memory.New(), nil, time.Hour)
	s.pass()

	st := s.Status()
	if st.DirectoryConnected || st.LastError == "" {
		t.Errorf("status = %+v, want disconnected with error", st)
	}
}

func TestPushAccessLogMarksPushed(t *testing.T) {
	_, client := newFakeDirectory(t)
	stores := memory.New()
	entry := store.AccessLog{Plate: "AB123CD", Timestamp: time.Now()}
	stores.AccessLogs.Insert(context.Background(), &entry)

	s := New(client, stores, nil, time.Hour)
	s.PushAccessLog(context.Background(), entry)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if n, _ := stores.AccessLogs.CountUnpushed(context.Background()); n == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("entry never marked pushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNilClientStatusOnly(t *testing.T) {
	s := New(nil, memory.New(), nil, time.Hour)
	s.Start()
	st := s.Status()
	if st.DirectoryConnected || st.DirectoryURL != "" {
		t.Errorf("status = %+v", st)
	}
	s.Stop()
}

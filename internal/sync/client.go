// Package sync keeps the local vehicle directory aligned with the remote
// management server and pushes access logs back upstream. The server speaks
// Odoo-style JSON-RPC: a single /jsonrpc endpoint, login via the common
// service, everything else through object.execute_kw.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pibox/pibox/internal/store"
)

// Client is a minimal JSON-RPC client for the directory server.
type Client struct {
	baseURL  string
	db       string
	username string
	password string
	http     *http.Client

	mu  sync.Mutex
	uid int64
}

// NewClient builds a directory client. The URL is the server root, without
// the /jsonrpc suffix.
func NewClient(baseURL, db, username, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		db:       db,
		username: username,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) Error() string {
	if e.Data.Message != "" {
		return e.Data.Message
	}
	return e.Message
}

func (c *Client) call(ctx context.Context, service, method string, args []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      time.Now().UnixNano(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jsonrpc", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sync: directory request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync: directory returned %s", resp.Status)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("sync: decode response: %w", err)
	}
	if rr.Error != nil {
		return fmt.Errorf("sync: directory error: %w", rr.Error)
	}
	if out != nil {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return fmt.Errorf("sync: decode result: %w", err)
		}
	}
	return nil
}

// login authenticates and caches the uid.
func (c *Client) login(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != 0 {
		return c.uid, nil
	}
	var uid int64
	if err := c.call(ctx, "common", "login", []any{c.db, c.username, c.password}, &uid); err != nil {
		return 0, err
	}
	if uid == 0 {
		return 0, fmt.Errorf("sync: directory rejected credentials")
	}
	c.uid = uid
	return uid, nil
}

// executeKw runs a model method through the object service.
func (c *Client) executeKw(ctx context.Context, model, method string, args any, out any) error {
	uid, err := c.login(ctx)
	if err != nil {
		return err
	}
	callArgs := []any{c.db, uid, c.password, model, method, args}
	err = c.call(ctx, "object", "execute_kw", callArgs, out)
	if err != nil {
		// Session may have been invalidated server-side. Re-login once.
		c.mu.Lock()
		c.uid = 0
		c.mu.Unlock()
	}
	return err
}

// directoryVehicle is the wire shape of a vehicle record.
type directoryVehicle struct {
	Plate     string `json:"license_plate"`
	OwnerName string `json:"owner_name"`
	UnitName  string `json:"unit_name"`
	UnitID    int64  `json:"unit_id"`
	IUNumber  string `json:"iu_number"`
	Active    bool   `json:"active"`
	ExpiresAt string `json:"expires_at"`
}

// FetchVehicles pulls the complete registered vehicle set.
func (c *Client) FetchVehicles(ctx context.Context) ([]store.Vehicle, error) {
	var raw []directoryVehicle
	args := []any{
		[]any{[]any{"site_id", "=", c.db}},
	}
	if err := c.executeKw(ctx, "parking.vehicle", "search_read", args, &raw); err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]store.Vehicle, 0, len(raw))
	for _, v := range raw {
		vehicle := store.Vehicle{
			Plate:     v.Plate,
			OwnerName: v.OwnerName,
			UnitName:  v.UnitName,
			UnitID:    v.UnitID,
			IUNumber:  v.IUNumber,
			Active:    v.Active,
			UpdatedAt: now,
		}
		if v.ExpiresAt != "" {
			if ts, err := time.Parse("2006-01-02 15:04:05", v.ExpiresAt); err == nil {
				vehicle.ExpiresAt = &ts
			}
		}
		out = append(out, vehicle)
	}
	return out, nil
}

// CreateAccessLog pushes one access log row upstream and returns the remote
// record ID.
func (c *Client) CreateAccessLog(ctx context.Context, entry store.AccessLog) (int64, error) {
	record := map[string]any{
		"license_plate":  entry.Plate,
		"camera_name":    entry.CameraName,
		"access_granted": entry.AccessGranted,
		"vehicle_type":   entry.VehicleType,
		"event_time":     entry.Timestamp.UTC().Format("2006-01-02 15:04:05"),
	}
	var id int64
	if err := c.executeKw(ctx, "parking.access.log", "create", []any{record}, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// Ping verifies the server is reachable and the credentials still work.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.login(ctx)
	return err
}

// Package models defines request and response bodies for the HTTP API.
package models

import (
	"github.com/pibox/pibox/internal/events"
	"github.com/pibox/pibox/internal/health"
	"github.com/pibox/pibox/internal/store"
)

// HealthData contains API health status and host vitals.
type HealthData struct {
	Status string          `json:"status" example:"ok" doc:"API health status"`
	Host   health.Snapshot `json:"host" doc:"Host vitals"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Body HealthData
}

// VersionData contains version and build metadata.
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc123" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-01T00:00:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"12345" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go runtime version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"OS and architecture"`
}

// VersionResponse is the version endpoint response.
type VersionResponse struct {
	Body VersionData
}

// VehicleListData wraps the vehicle list.
type VehicleListData struct {
	Vehicles []store.Vehicle `json:"vehicles" doc:"Registered vehicles"`
	Count    int             `json:"count" doc:"Number of vehicles"`
}

// VehicleListResponse is the vehicle list response.
type VehicleListResponse struct {
	Body VehicleListData
}

// VehicleResponse wraps a single vehicle.
type VehicleResponse struct {
	Body store.Vehicle
}

// AccessLogListData wraps recent access log entries.
type AccessLogListData struct {
	Logs []store.AccessLog `json:"logs" doc:"Access log entries, newest first"`
}

// AccessLogListResponse is the access log list response.
type AccessLogListResponse struct {
	Body AccessLogListData
}

// StatsResponse wraps today's access statistics.
type StatsResponse struct {
	Body store.TodayStats
}

// StatusResponse wraps the controller status snapshot.
type StatusResponse struct {
	Body events.SystemStatusEvent
}

// BarrierListData wraps barrier mappings.
type BarrierListData struct {
	Barriers []store.BarrierMapping `json:"barriers" doc:"Camera to relay channel mappings"`
}

// BarrierListResponse is the barrier mapping list response.
type BarrierListResponse struct {
	Body BarrierListData
}

// BarrierResponse wraps one barrier mapping.
type BarrierResponse struct {
	Body store.BarrierMapping
}

// CameraListData wraps registered cameras.
type CameraListData struct {
	Cameras []store.AnprCamera `json:"cameras" doc:"Registered ANPR cameras"`
}

// CameraListResponse is the camera list response.
type CameraListResponse struct {
	Body CameraListData
}

// CameraResponse wraps one registered camera.
type CameraResponse struct {
	Body store.AnprCamera
}

// RelayStatusData wraps relay board state.
type RelayStatusData struct {
	Relays map[int]events.RelayState `json:"relays" doc:"State of every relay channel"`
}

// RelayStatusResponse is the relay status response.
type RelayStatusResponse struct {
	Body RelayStatusData
}

// ActionResult reports the outcome of a relay or sync action.
type ActionResult struct {
	Success bool   `json:"success" doc:"Whether the action completed"`
	Message string `json:"message,omitempty" doc:"Human-readable detail"`
}

// ActionResponse wraps an action result.
type ActionResponse struct {
	Body ActionResult
}

// SettingsData wraps the settings key/value bag.
type SettingsData struct {
	Settings map[string]string `json:"settings" doc:"Runtime settings"`
}

// SettingsResponse is the settings response.
type SettingsResponse struct {
	Body SettingsData
}

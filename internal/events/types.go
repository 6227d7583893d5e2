package events

// Event type constants for kelindar/event.
const (
	TypeCameraDetection uint32 = iota + 1
	TypeAccessDecision
	TypeBarrierStatus
	TypeSystemStatus
	TypeStats
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// CameraEvent represents a single plate detection on one camera.
// It is the only event kind that passes through per-client subscription filters.
type CameraEvent struct {
	Camera        string  `json:"camera" example:"GATE1" doc:"Camera identifier (registration code)"`
	Plate         string  `json:"plate" example:"SGX1234A" doc:"Normalized plate number"`
	Confidence    float64 `json:"confidence" example:"0.97" doc:"Recognition confidence 0..1"`
	AccessGranted bool    `json:"access_granted" doc:"Outcome of the access decision"`
	VehicleType   string  `json:"vehicle_type" example:"resident" doc:"resident or unknown"`
	Timestamp     string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Detection timestamp"`
	ImageURL      string  `json:"image_url,omitempty" doc:"Reference to the stored plate image"`
}

// Type returns the event type identifier for CameraEvent.
func (e CameraEvent) Type() uint32 { return TypeCameraDetection }

// AccessEvent represents a completed access decision.
// Broadcast to every connected client regardless of subscriptions.
type AccessEvent struct {
	LogID         int64  `json:"id,omitempty" doc:"Access log row ID"`
	Plate         string `json:"plate" example:"SGX1234A" doc:"Normalized plate number"`
	Camera        string `json:"camera,omitempty" example:"GATE1" doc:"Camera that triggered the decision"`
	AccessGranted bool   `json:"access_granted" doc:"Whether access was granted"`
	Action        string `json:"action" example:"barrier_pulse" doc:"Action taken on the decision"`
	VehicleType   string `json:"vehicle_type,omitempty" example:"resident" doc:"resident or unknown"`
	OwnerName     string `json:"owner_name,omitempty" doc:"Registered owner, when known"`
	UnitName      string `json:"unit_name,omitempty" doc:"Registered unit, when known"`
	ImageURL      string `json:"image_url,omitempty" doc:"Reference to the stored plate image"`
	Timestamp     string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Decision timestamp"`
}

// Type returns the event type identifier for AccessEvent.
func (e AccessEvent) Type() uint32 { return TypeAccessDecision }

// RelayState describes one relay channel.
type RelayState struct {
	Name  string `json:"name" example:"Entry Barrier" doc:"Channel display name"`
	State bool   `json:"state" doc:"Whether the relay is energized"`
	Pin   int    `json:"pin" example:"5" doc:"BCM pin number"`
}

// BarrierStatusEvent represents a change in relay/barrier state.
// Broadcast to every connected client.
type BarrierStatusEvent struct {
	Relays    map[int]RelayState `json:"relays" doc:"State of every relay channel"`
	Timestamp string             `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Snapshot timestamp"`
}

// Type returns the event type identifier for BarrierStatusEvent.
func (e BarrierStatusEvent) Type() uint32 { return TypeBarrierStatus }

// SystemStatusEvent represents controller health and sync status.
// Broadcast to every connected client.
type SystemStatusEvent struct {
	DirectoryConnected bool   `json:"directory_connected" doc:"Whether the remote vehicle directory is reachable"`
	DirectoryURL       string `json:"directory_url,omitempty" doc:"Configured directory server URL"`
	LastSync           string `json:"last_sync,omitempty" doc:"Last successful sync timestamp"`
	LastError          string `json:"last_error,omitempty" doc:"Last sync error, if any"`
	VehicleCount       int    `json:"vehicle_count" doc:"Vehicles in the local database"`
	CameraCount        int    `json:"camera_count" doc:"Registered ANPR cameras"`
	BarrierCount       int    `json:"barrier_count" doc:"Configured barrier mappings"`
	QueuePending       int    `json:"queue_pending" doc:"Access logs waiting to be pushed upstream"`
	Uptime             string `json:"uptime,omitempty" doc:"Controller uptime"`
}

// Type returns the event type identifier for SystemStatusEvent.
func (e SystemStatusEvent) Type() uint32 { return TypeSystemStatus }

// StatsEvent represents today's access statistics.
// Broadcast on a fixed period to every connected client.
type StatsEvent struct {
	Total     int `json:"total" doc:"Total decisions today"`
	Granted   int `json:"granted" doc:"Granted decisions today"`
	Denied    int `json:"denied" doc:"Denied decisions today"`
	Residents int `json:"residents" doc:"Decisions for registered vehicles"`
	Unknown   int `json:"unknown" doc:"Decisions for unknown vehicles"`
}

// Type returns the event type identifier for StatsEvent.
func (e StatsEvent) Type() uint32 { return TypeStats }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

package ws

import (
	"encoding/json"

	"github.com/pibox/pibox/internal/events"
)

// Inbound command kinds accepted from clients.
const (
	cmdSubscribe        = "subscribe"
	cmdUnsubscribe      = "unsubscribe"
	cmdSubscribeAll     = "subscribe_all"
	cmdGetSubscriptions = "get_subscriptions"
	cmdPing             = "ping"
	cmdGetStats         = "get_stats"
	cmdGetStatus        = "get_status"
)

// Outbound message kinds sent to clients.
const (
	kindCameraEvent   = "camera_event"
	kindAccessEvent   = "access_event"
	kindBarrierStatus = "barrier_status"
	kindSystemStatus  = "system_status"
	kindStats         = "stats"
	kindSubscribed    = "subscribed"
	kindUnsubscribed  = "unsubscribed"
	kindSubscriptions = "subscriptions"
	kindPong          = "pong"
	kindError         = "error"
)

// command is the closed inbound message shape. Anything that does not map
// cleanly onto it is answered with an error frame and never reaches dispatch.
type command struct {
	// Type is the command kind; "action" is accepted as a legacy alias.
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Camera string `json:"camera,omitempty"`
	Filter string `json:"filter,omitempty"`
}

// kind returns the effective command kind.
func (c command) kind() string {
	if c.Type != "" {
		return c.Type
	}
	return c.Action
}

// envelope wraps a domain event for the wire.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ackFrame is the response to subscribe/unsubscribe/get_subscriptions.
type ackFrame struct {
	Type          string   `json:"type"`
	Camera        string   `json:"camera,omitempty"`
	Subscriptions []string `json:"subscriptions"`
}

// errorFrame is the structured protocol-error response. The connection
// stays open after sending one.
type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// pongFrame answers a client ping.
type pongFrame struct {
	Type string `json:"type"`
}

// encodeEvent marshals a domain event into its wire envelope.
// Returns the frame, the wire kind, and false for unroutable event kinds.
func encodeEvent(ev events.Event) ([]byte, string, bool) {
	var kind string
	switch ev.(type) {
	case events.CameraEvent:
		kind = kindCameraEvent
	case events.AccessEvent:
		kind = kindAccessEvent
	case events.BarrierStatusEvent:
		kind = kindBarrierStatus
	case events.SystemStatusEvent:
		kind = kindSystemStatus
	case events.StatsEvent:
		kind = kindStats
	default:
		return nil, "", false
	}

	frame, err := json.Marshal(envelope{Type: kind, Data: ev})
	if err != nil {
		return nil, "", false
	}
	return frame, kind, true
}

func mustMarshal(v any) []byte {
	frame, err := json.Marshal(v)
	if err != nil {
		// All frame types marshal cleanly; a failure here is a programming error.
		panic(err)
	}
	return frame
}

package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pibox/pibox/internal/events"
	"github.com/pibox/pibox/internal/metrics"
)

// Client is one websocket session: an inbound command reader, an outbound
// writer draining a bounded queue, and the session's subscription state.
// Lifecycle is Open -> Closing -> Closed; the transition into Closing
// happens exactly once regardless of which side triggers it.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	remote string
	subs   *subscriptionSet

	// send is the bounded outbound queue; sendMu serializes enqueues so the
	// drop-oldest policy is atomic per client.
	sendMu sync.Mutex
	send   chan []byte
	done   chan struct{}

	closeOnce sync.Once

	// Overflow accounting, guarded by sendMu.
	overflowStart time.Time
	overflowCount int
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:     uuid.NewString(),
		hub:    hub,
		conn:   conn,
		remote: conn.RemoteAddr().String(),
		subs:   newSubscriptionSet(),
		send:   make(chan []byte, hub.cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// enqueue places a frame on the outbound queue without ever blocking the
// caller. When the queue is full the oldest frame is discarded to admit the
// new one; a client that keeps overflowing inside the configured window is
// disconnected.
func (c *Client) enqueue(frame []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- frame:
		return
	default:
	}

	// Queue full: freshness over completeness.
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- frame:
	default:
	}

	metrics.EventsDropped.Inc()

	now := time.Now()
	if c.overflowStart.IsZero() || now.Sub(c.overflowStart) > c.hub.cfg.OverflowWindow {
		c.overflowStart = now
		c.overflowCount = 0
	}
	c.overflowCount++
	if c.overflowCount > c.hub.cfg.OverflowLimit {
		metrics.SlowClientDisconnects.Inc()
		c.hub.logger.Warn("Disconnecting slow websocket client",
			"client_id", c.id, "remote", c.remote, "overflows", c.overflowCount)
		go c.close()
	}
}

// close moves the client to Closing exactly once. Both pumps observe the
// done channel or the closed conn and exit, which completes teardown.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
		c.hub.remove(c)
	})
}

// readPump decodes one command at a time. The read deadline is the liveness
// bound: it is extended on every inbound frame, and the server never pings.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxCommandBytes)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.IdleTimeout))
	c.conn.SetPingHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.IdleTimeout))
		return c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.hub.cfg.WriteTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			// Transport close or liveness expiry: fatal to this client only.
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.IdleTimeout))
		c.handleCommand(raw)
	}
}

// writePump is the single writer draining the outbound queue in FIFO order.
func (c *Client) writePump() {
	defer c.close()

	for {
		select {
		case <-c.done:
			deadline := time.Now().Add(c.hub.cfg.WriteTimeout)
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}
}

// handleCommand dispatches one inbound command. Malformed input yields an
// error frame; the connection stays open.
func (c *Client) handleCommand(raw []byte) {
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.enqueue(mustMarshal(errorFrame{Type: kindError, Error: "invalid message"}))
		return
	}

	switch cmd.kind() {
	case cmdSubscribe:
		if cmd.Camera == "" {
			c.enqueue(mustMarshal(errorFrame{Type: kindError, Error: "camera is required"}))
			return
		}
		filter, err := ParseFilterKind(cmd.Filter)
		if err != nil {
			c.enqueue(mustMarshal(errorFrame{Type: kindError, Error: err.Error()}))
			return
		}
		cameras := c.subs.subscribe(cmd.Camera, filter)
		c.enqueue(mustMarshal(ackFrame{Type: kindSubscribed, Camera: cmd.Camera, Subscriptions: cameras}))

	case cmdUnsubscribe:
		if cmd.Camera == "" {
			c.enqueue(mustMarshal(errorFrame{Type: kindError, Error: "camera is required"}))
			return
		}
		cameras := c.subs.unsubscribe(cmd.Camera)
		c.enqueue(mustMarshal(ackFrame{Type: kindUnsubscribed, Camera: cmd.Camera, Subscriptions: cameras}))

	case cmdSubscribeAll:
		c.subs.subscribeAll()

	case cmdGetSubscriptions:
		c.enqueue(mustMarshal(ackFrame{Type: kindSubscriptions, Subscriptions: c.subs.cameras()}))

	case cmdPing:
		c.enqueue(mustMarshal(pongFrame{Type: kindPong}))

	case cmdGetStats:
		c.hub.sendStats(c)

	case cmdGetStatus:
		c.hub.sendStatus(c)

	default:
		c.enqueue(mustMarshal(errorFrame{Type: kindError, Error: "unknown command"}))
	}
}

// deliver routes a pre-encoded event frame to this client, applying the
// subscription filter for camera events. All other kinds bypass filters.
func (c *Client) deliver(frame []byte, kind string, camera *events.CameraEvent) {
	if camera != nil && !c.subs.wants(*camera) {
		return
	}
	metrics.EventsRouted.WithLabelValues(kind).Inc()
	c.enqueue(frame)
}

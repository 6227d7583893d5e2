// Package ws implements the real-time fan-out layer: a websocket hub that
// lets each client subscribe to a subset of cameras with a per-subscription
// filter and routes every domain event to the clients whose subscriptions
// match. A slow client never stalls delivery to others.
package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pibox/pibox/internal/events"
	"github.com/pibox/pibox/internal/metrics"
)

// ErrHubClosed is returned when a connection arrives during shutdown.
var ErrHubClosed = errors.New("ws: hub closed")

const maxCommandBytes = 4096

// Config bounds the per-client queue and the liveness/overflow policy.
type Config struct {
	// QueueSize is the outbound queue capacity per client.
	QueueSize int
	// IdleTimeout closes a client that sends nothing for this long.
	// Default covers three missed 30s client heartbeats.
	IdleTimeout time.Duration
	// WriteTimeout bounds a single transport write.
	WriteTimeout time.Duration
	// OverflowLimit is the number of dropped frames within OverflowWindow
	// after which a client is disconnected as persistently slow.
	OverflowLimit  int
	OverflowWindow time.Duration
	// StatsInterval is the period of the unconditional stats broadcast.
	StatsInterval time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize:      256,
		IdleTimeout:    90 * time.Second,
		WriteTimeout:   10 * time.Second,
		OverflowLimit:  8,
		OverflowWindow: 30 * time.Second,
		StatsInterval:  30 * time.Second,
	}
}

// Options configures a Hub.
type Options struct {
	Config Config
	Logger *slog.Logger
	// Stats builds the payload for stats broadcasts and get_stats requests.
	Stats func() events.StatsEvent
	// Status builds the payload for system_status pushes.
	Status func() events.SystemStatusEvent
}

// Hub owns the set of live clients and routes domain events to them.
// It is the only component that mutates the client set.
type Hub struct {
	cfg    Config
	logger *slog.Logger
	stats  func() events.StatsEvent
	status func() events.SystemStatusEvent

	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHub creates a hub and starts its periodic stats broadcast.
func NewHub(opts Options) *Hub {
	cfg := opts.Config
	if cfg.QueueSize <= 0 {
		cfg = DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &Hub{
		cfg:     cfg,
		logger:  logger,
		stats:   opts.Stats,
		status:  opts.Status,
		clients: make(map[*Client]struct{}),
		stop:    make(chan struct{}),
	}

	if h.stats != nil && cfg.StatsInterval > 0 {
		h.wg.Add(1)
		go h.statsLoop()
	}
	return h
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		// Allow localhost for development/proxying
		if strings.Contains(origin, "://localhost:") || strings.Contains(origin, "://127.0.0.1:") {
			return true
		}
		// Strict same-origin check for others
		host := r.Host
		if after, ok := strings.CutPrefix(origin, "http://"); ok {
			return after == host
		}
		if after, ok := strings.CutPrefix(origin, "https://"); ok {
			return after == host
		}
		return false
	},
}

// ServeHTTP upgrades the request and runs the client until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	client := newClient(h, conn)
	if err := h.register(client); err != nil {
		conn.Close()
		return
	}

	h.logger.Info("Websocket client connected",
		"client_id", client.id, "remote", client.remote, "total", h.ClientCount())

	go client.writePump()
	go client.readPump()

	// New clients get an immediate status snapshot.
	if h.status != nil {
		h.sendStatus(client)
	}
}

func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.clients[c] = struct{}{}
	metrics.ConnectedClients.Inc()
	return nil
}

// remove deregisters a client. No-op if the client is already gone.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		metrics.ConnectedClients.Dec()
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("Websocket client disconnected",
			"client_id", c.id, "remote", c.remote, "total", total)
	}
}

// snapshot returns a momentary view of the client set. Fan-out iterates the
// copy so a slow client cannot block registration or teardown.
func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// Broadcast routes one domain event. Camera events pass through each
// client's subscription filter; every other kind is delivered to all open
// clients unconditionally. Enqueue is non-blocking, so this never waits on
// a slow consumer.
func (h *Hub) Broadcast(ev events.Event) {
	frame, kind, ok := encodeEvent(ev)
	if !ok {
		h.logger.Warn("Dropping unroutable event", "type", ev.Type())
		return
	}

	var camera *events.CameraEvent
	if ce, isCamera := ev.(events.CameraEvent); isCamera {
		camera = &ce
	}

	for _, client := range h.snapshot() {
		client.deliver(frame, kind, camera)
	}
}

// Attach subscribes the hub to every routable event kind on the bus.
// Returns a function that detaches all subscriptions.
func (h *Hub) Attach(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.CameraEvent) { h.Broadcast(e) }),
		bus.Subscribe(func(e events.AccessEvent) { h.Broadcast(e) }),
		bus.Subscribe(func(e events.BarrierStatusEvent) { h.Broadcast(e) }),
		bus.Subscribe(func(e events.SystemStatusEvent) { h.Broadcast(e) }),
		bus.Subscribe(func(e events.StatsEvent) { h.Broadcast(e) }),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// sendStats pushes a stats frame to a single client.
func (h *Hub) sendStats(c *Client) {
	if h.stats == nil {
		c.enqueue(mustMarshal(errorFrame{Type: kindError, Error: "stats unavailable"}))
		return
	}
	if frame, _, ok := encodeEvent(h.stats()); ok {
		c.enqueue(frame)
	}
}

// sendStatus pushes a system_status frame to a single client.
func (h *Hub) sendStatus(c *Client) {
	if h.status == nil {
		c.enqueue(mustMarshal(errorFrame{Type: kindError, Error: "status unavailable"}))
		return
	}
	if frame, _, ok := encodeEvent(h.status()); ok {
		c.enqueue(frame)
	}
}

// statsLoop broadcasts stats on a fixed period while the hub is open.
func (h *Hub) statsLoop() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			if h.ClientCount() > 0 {
				h.Broadcast(h.stats())
			}
		}
	}
}

// Close rejects new connections, closes every client, and waits for the
// stats loop to exit.
func (h *Hub) Close() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		clients := make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			clients = append(clients, c)
		}
		h.mu.Unlock()

		close(h.stop)
		for _, c := range clients {
			c.close()
		}
		h.wg.Wait()
		h.logger.Info("Websocket hub stopped")
	})
}

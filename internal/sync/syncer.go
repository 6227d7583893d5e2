package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pibox/pibox/internal/events"
	"github.com/pibox/pibox/internal/logging"
	"github.com/pibox/pibox/internal/store"
)

// DefaultInterval is the directory pull period.
const DefaultInterval = 5 * time.Minute

// Syncer runs the background directory sync and the access log push queue,
// and keeps the system status snapshot other components report from.
type Syncer struct {
	client   *Client
	stores   *store.Stores
	bus      *events.Bus
	logger   *slog.Logger
	interval time.Duration
	started  time.Time

	mu        sync.Mutex
	connected bool
	lastSync  time.Time
	lastError string

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// New builds a syncer. A nil client disables remote sync; the syncer then
// only serves local status.
func New(client *Client, stores *store.Stores, bus *events.Bus, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Syncer{
		client:   client,
		stores:   stores,
		bus:      bus,
		logger:   logging.GetLogger("sync"),
		interval: interval,
		started:  time.Now(),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sync loop.
func (s *Syncer) Start() {
	go s.run()
}

// Stop shuts the loop down and waits for it to exit.
func (s *Syncer) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// Trigger requests an immediate sync pass.
func (s *Syncer) Trigger() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Syncer) run() {
	defer close(s.done)
	if s.client == nil {
		<-s.stop
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.pass()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.pass()
		case <-s.wake:
			s.pass()
		}
	}
}

// pass runs one full sync cycle: pull vehicles, then drain unpushed logs.
func (s *Syncer) pass() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	vehicles, err := s.client.FetchVehicles(ctx)
	if err != nil {
		s.fail(err)
		return
	}
	if err := s.stores.Vehicles.ReplaceAll(ctx, vehicles); err != nil {
		s.fail(err)
		return
	}

	s.pushPending(ctx)

	s.mu.Lock()
	s.connected = true
	s.lastSync = time.Now()
	s.lastError = ""
	s.mu.Unlock()

	s.logger.Info("directory sync complete", "vehicles", len(vehicles))
	s.publishStatus()
}

func (s *Syncer) fail(err error) {
	s.mu.Lock()
	s.connected = false
	s.lastError = err.Error()
	s.mu.Unlock()
	s.logger.Error("directory sync failed", "error", err)
	s.publishStatus()
}

// PushAccessLog queues one entry for upstream delivery. Called from the
// access pipeline, so it must not block the decision path.
func (s *Syncer) PushAccessLog(ctx context.Context, entry store.AccessLog) {
	if s.client == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.client.CreateAccessLog(ctx, entry); err != nil {
			// Left unpushed, the next sync pass retries it.
			s.logger.Warn("access log push failed", "id", entry.ID, "error", err)
			return
		}
		if err := s.stores.AccessLogs.MarkPushed(ctx, entry.ID); err != nil {
			s.logger.Warn("mark pushed failed", "id", entry.ID, "error", err)
		}
	}()
}

// pushPending retries every unpushed access log.
func (s *Syncer) pushPending(ctx context.Context) {
	logs, err := s.stores.AccessLogs.List(ctx, 500)
	if err != nil {
		s.logger.Warn("pending log scan failed", "error", err)
		return
	}
	for _, entry := range logs {
		if entry.Pushed {
			continue
		}
		if _, err := s.client.CreateAccessLog(ctx, entry); err != nil {
			s.logger.Warn("access log push failed", "id", entry.ID, "error", err)
			return
		}
		if err := s.stores.AccessLogs.MarkPushed(ctx, entry.ID); err != nil {
			s.logger.Warn("mark pushed failed", "id", entry.ID, "error", err)
		}
	}
}

// Status builds the current system status snapshot.
func (s *Syncer) Status() events.SystemStatusEvent {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	ev := events.SystemStatusEvent{
		DirectoryConnected: s.connected,
		LastError:          s.lastError,
		Uptime:             time.Since(s.started).Round(time.Second).String(),
	}
	if s.client != nil {
		ev.DirectoryURL = s.client.baseURL
	}
	if !s.lastSync.IsZero() {
		ev.LastSync = s.lastSync.UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()

	if n, err := s.stores.Vehicles.Count(ctx); err == nil {
		ev.VehicleCount = n
	}
	if n, err := s.stores.Cameras.Count(ctx); err == nil {
		ev.CameraCount = n
	}
	if n, err := s.stores.Barriers.Count(ctx); err == nil {
		ev.BarrierCount = n
	}
	if n, err := s.stores.AccessLogs.CountUnpushed(ctx); err == nil {
		ev.QueuePending = n
	}
	return ev
}

func (s *Syncer) publishStatus() {
	if s.bus == nil {
		return
	}
	s.bus.Publish(s.Status())
}

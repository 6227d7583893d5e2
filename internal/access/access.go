// Package access implements the plate decision pipeline: normalize the
// detection, look the vehicle up, fire the mapped barrier relays, persist
// the log entry, and broadcast the outcome.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pibox/pibox/internal/anpr"
	"github.com/pibox/pibox/internal/events"
	"github.com/pibox/pibox/internal/logging"
	"github.com/pibox/pibox/internal/metrics"
	"github.com/pibox/pibox/internal/relay"
	"github.com/pibox/pibox/internal/store"
)

// MinConfidence is the floor below which detections are logged but never
// open a barrier. Zero confidence means the camera did not report one and
// is accepted as-is.
const MinConfidence = 0.6

// Pusher forwards a stored access log entry to the directory service.
// Implementations must be safe for concurrent use.
type Pusher interface {
	PushAccessLog(ctx context.Context, entry store.AccessLog)
}

// Snapshots stores detection imagery and returns a serving path.
type Snapshots interface {
	Save(ctx context.Context, plate string, image []byte) (string, error)
}

// Camera identifies the source of a detection. RegCode is set for cameras
// that authenticate with a registration code, IP for plain HTTP pushes.
type Camera struct {
	RegCode string
	IP      string
	Name    string
}

func (c Camera) label() string {
	if c.Name != "" {
		return c.Name
	}
	if c.RegCode != "" {
		return c.RegCode
	}
	return c.IP
}

// Service runs the decision pipeline.
type Service struct {
	stores    *store.Stores
	relays    *relay.Controller
	bus       *events.Bus
	pusher    Pusher
	snapshots Snapshots
	logger    *slog.Logger

	pulse time.Duration
}

// Option configures the service.
type Option func(*Service)

// WithPusher enables async forwarding of access logs.
func WithPusher(p Pusher) Option {
	return func(s *Service) { s.pusher = p }
}

// WithSnapshots enables detection image storage.
func WithSnapshots(sn Snapshots) Option {
	return func(s *Service) { s.snapshots = sn }
}

// WithPulseDuration overrides the barrier pulse length.
func WithPulseDuration(d time.Duration) Option {
	return func(s *Service) { s.pulse = d }
}

// New builds the pipeline service.
func New(stores *store.Stores, relays *relay.Controller, bus *events.Bus, opts ...Option) *Service {
	s := &Service{
		stores: stores,
		relays: relays,
		bus:    bus,
		logger: logging.GetLogger("access"),
		pulse:  relay.DefaultPulse,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decision is the outcome of one detection.
type Decision struct {
	Plate       string
	Granted     bool
	Action      string
	VehicleType string
	OwnerName   string
	UnitName    string
	LogID       int64
}

// HandleDetection runs the full pipeline for one camera detection.
func (s *Service) HandleDetection(ctx context.Context, cam Camera, det *anpr.Detection) (*Decision, error) {
	plate := anpr.NormalizePlate(det.Plate)
	if plate == "" {
		return nil, anpr.ErrNoPlate
	}

	dec := &Decision{Plate: plate, Action: "denied", VehicleType: "unknown"}

	vehicle, err := s.stores.Vehicles.GetByPlate(ctx, plate)
	switch {
	case err == store.ErrNotFound:
		// Unknown plate, decision stays denied.
	case err != nil:
		return nil, fmt.Errorf("access: vehicle lookup: %w", err)
	default:
		dec.VehicleType = "resident"
		dec.OwnerName = vehicle.OwnerName
		dec.UnitName = vehicle.UnitName
		switch {
		case !vehicle.Valid():
			dec.Action = "expired"
		case det.Confidence > 0 && det.Confidence < MinConfidence:
			dec.Action = "low_confidence"
		default:
			dec.Granted = true
			dec.Action = "barrier_pulse"
		}
	}

	var channels []int
	if dec.Granted {
		channels, err = s.resolveChannels(ctx, cam)
		if err == nil {
			err = s.relays.PulseAll(channels, s.pulse)
		}
		if err != nil {
			s.logger.Error("barrier open failed", "plate", plate, "camera", cam.label(), "error", err)
			dec.Granted = false
			dec.Action = "relay_error"
			channels = nil
		}
	}

	imagePath := s.saveSnapshot(ctx, plate, det)
	now := time.Now()

	entry := store.AccessLog{
		Plate:         plate,
		CameraIP:      cam.IP,
		CameraName:    cam.label(),
		AccessGranted: dec.Granted,
		VehicleType:   dec.VehicleType,
		UnitName:      dec.UnitName,
		OwnerName:     dec.OwnerName,
		ImagePath:     imagePath,
		RelayChannels: channels,
		Timestamp:     now,
	}
	if err := s.stores.AccessLogs.Insert(ctx, &entry); err != nil {
		s.logger.Error("access log insert failed", "plate", plate, "error", err)
	} else {
		dec.LogID = entry.ID
	}

	outcome := "denied"
	if dec.Granted {
		outcome = "granted"
	}
	metrics.AccessDecisions.WithLabelValues(outcome).Inc()

	s.broadcast(cam, det.Confidence, dec, entry)

	if s.pusher != nil && entry.ID != 0 {
		s.pusher.PushAccessLog(ctx, entry)
	}

	s.logger.Info("access decision",
		"plate", plate, "camera", cam.label(),
		"granted", dec.Granted, "action", dec.Action,
		"confidence", det.Confidence)
	return dec, nil
}

// resolveChannels finds which relays to pulse: the camera registration
// first, then the camera-IP barrier mapping.
func (s *Service) resolveChannels(ctx context.Context, cam Camera) ([]int, error) {
	if cam.RegCode != "" {
		reg, err := s.stores.Cameras.GetByRegCode(ctx, cam.RegCode)
		if err == nil && len(reg.RelayChannels) > 0 {
			return reg.RelayChannels, nil
		}
		if err != nil && err != store.ErrNotFound {
			return nil, err
		}
	}
	if cam.IP != "" {
		mapping, err := s.stores.Barriers.GetByCameraIP(ctx, cam.IP)
		if err == nil && len(mapping.RelayChannels) > 0 {
			return mapping.RelayChannels, nil
		}
		if err != nil && err != store.ErrNotFound {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no relay channels mapped for camera %q", cam.label())
}

func (s *Service) saveSnapshot(ctx context.Context, plate string, det *anpr.Detection) string {
	if s.snapshots == nil {
		return ""
	}
	img := det.VehicleImage
	if img == nil {
		img = det.PlateImage
	}
	if img == nil {
		return ""
	}
	path, err := s.snapshots.Save(ctx, plate, img)
	if err != nil {
		s.logger.Warn("snapshot save failed", "plate", plate, "error", err)
		return ""
	}
	return path
}

func (s *Service) broadcast(cam Camera, confidence float64, dec *Decision, entry store.AccessLog) {
	if s.bus == nil {
		return
	}
	ts := entry.Timestamp.UTC().Format(time.RFC3339)
	s.bus.Publish(events.CameraEvent{
		Camera:        cam.label(),
		Plate:         dec.Plate,
		Confidence:    confidence,
		AccessGranted: dec.Granted,
		VehicleType:   dec.VehicleType,
		Timestamp:     ts,
		ImageURL:      entry.ImagePath,
	})
	s.bus.Publish(events.AccessEvent{
		LogID:         entry.ID,
		Plate:         dec.Plate,
		Camera:        cam.label(),
		AccessGranted: dec.Granted,
		Action:        dec.Action,
		VehicleType:   dec.VehicleType,
		OwnerName:     dec.OwnerName,
		UnitName:      dec.UnitName,
		ImageURL:      entry.ImagePath,
		Timestamp:     ts,
	})
}

// ManualOpen pulses the barrier mapped to a camera without a detection and
// records the override in the access log.
func (s *Service) ManualOpen(ctx context.Context, cam Camera, operator string) error {
	channels, err := s.resolveChannels(ctx, cam)
	if err != nil {
		return err
	}
	if err := s.relays.PulseAll(channels, s.pulse); err != nil {
		return err
	}

	entry := store.AccessLog{
		Plate:         "MANUAL",
		CameraIP:      cam.IP,
		CameraName:    cam.label(),
		AccessGranted: true,
		VehicleType:   "manual",
		OwnerName:     operator,
		RelayChannels: channels,
		Timestamp:     time.Now(),
	}
	if err := s.stores.AccessLogs.Insert(ctx, &entry); err != nil {
		s.logger.Error("manual open log insert failed", "camera", cam.label(), "error", err)
	}
	metrics.AccessDecisions.WithLabelValues("granted").Inc()
	s.broadcast(cam, 0, &Decision{
		Plate: entry.Plate, Granted: true, Action: "manual_open",
		VehicleType: entry.VehicleType, OwnerName: operator, LogID: entry.ID,
	}, entry)
	return nil
}

// Package relay drives the barrier relay board. On target hardware the
// channels map to GPIO lines exported through sysfs; everywhere else the
// controller falls back to an in-memory simulation so the access pipeline
// and API behave identically in development.
package relay

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pibox/pibox/internal/events"
	"github.com/pibox/pibox/internal/logging"
	"github.com/pibox/pibox/internal/metrics"
)

// ChannelCount is the number of relay channels on the board.
const ChannelCount = 8

// DefaultPulse is how long a relay stays energized during a pulse.
const DefaultPulse = 1500 * time.Millisecond

// Driver abstracts the physical relay board.
type Driver interface {
	// Set switches one channel. Channels are 1-based.
	Set(channel int, on bool) error
	Close() error
}

// Controller owns relay state and serializes access to the driver.
type Controller struct {
	driver Driver
	bus    *events.Bus
	logger *slog.Logger

	mu     sync.Mutex
	state  [ChannelCount]bool
	names  map[int]string
	pulses map[int]*time.Timer
}

// Option configures a Controller.
type Option func(*Controller)

// WithDriver overrides the autodetected driver.
func WithDriver(d Driver) Option {
	return func(c *Controller) { c.driver = d }
}

// WithChannelName labels a channel for status output.
func WithChannelName(channel int, name string) Option {
	return func(c *Controller) { c.names[channel] = name }
}

// New builds a controller. Without WithDriver it probes sysfs GPIO and
// falls back to simulation when the hardware is absent.
func New(bus *events.Bus, opts ...Option) *Controller {
	c := &Controller{
		bus:    bus,
		logger: logging.GetLogger("relay"),
		names:  make(map[int]string),
		pulses: make(map[int]*time.Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.driver == nil {
		if d, err := newGPIODriver(); err == nil {
			c.driver = d
			c.logger.Info("using GPIO relay driver")
		} else {
			c.driver = newSimDriver(c.logger)
			c.logger.Info("GPIO unavailable, using simulated relays", "reason", err)
		}
	}
	return c
}

// Set switches one channel and broadcasts the new board state.
func (c *Controller) Set(channel int, on bool) error {
	if channel < 1 || channel > ChannelCount {
		return fmt.Errorf("relay: channel %d out of range 1..%d", channel, ChannelCount)
	}

	c.mu.Lock()
	if t, ok := c.pulses[channel]; ok {
		t.Stop()
		delete(c.pulses, channel)
	}
	err := c.driver.Set(channel, on)
	if err == nil {
		c.state[channel-1] = on
	}
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("relay: set channel %d: %w", channel, err)
	}
	c.publishState()
	return nil
}

// Pulse energizes a channel for the given duration, then releases it. A
// second pulse on the same channel restarts the timer.
func (c *Controller) Pulse(channel int, d time.Duration) error {
	if d <= 0 {
		d = DefaultPulse
	}
	if err := c.Set(channel, true); err != nil {
		return err
	}
	metrics.RelayPulses.WithLabelValues(fmt.Sprint(channel)).Inc()

	c.mu.Lock()
	c.pulses[channel] = time.AfterFunc(d, func() {
		if err := c.Set(channel, false); err != nil {
			c.logger.Error("pulse release failed", "channel", channel, "error", err)
		}
	})
	c.mu.Unlock()
	return nil
}

// PulseAll pulses the listed channels together.
func (c *Controller) PulseAll(channels []int, d time.Duration) error {
	for _, ch := range channels {
		if err := c.Pulse(ch, d); err != nil {
			return err
		}
	}
	return nil
}

// SetAll switches every channel at once.
func (c *Controller) SetAll(on bool) error {
	for ch := 1; ch <= ChannelCount; ch++ {
		if err := c.Set(ch, on); err != nil {
			return err
		}
	}
	return nil
}

// States returns the current board state keyed by channel.
func (c *Controller) States() map[int]events.RelayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]events.RelayState, ChannelCount)
	for i := 0; i < ChannelCount; i++ {
		ch := i + 1
		out[ch] = events.RelayState{
			Name:  c.channelName(ch),
			State: c.state[i],
			Pin:   ch,
		}
	}
	return out
}

// Close releases all channels and shuts the driver down.
func (c *Controller) Close() error {
	c.mu.Lock()
	for ch, t := range c.pulses {
		t.Stop()
		delete(c.pulses, ch)
	}
	for i := 0; i < ChannelCount; i++ {
		if c.state[i] {
			c.driver.Set(i+1, false)
			c.state[i] = false
		}
	}
	c.mu.Unlock()
	return c.driver.Close()
}

func (c *Controller) channelName(ch int) string {
	if n, ok := c.names[ch]; ok {
		return n
	}
	return fmt.Sprintf("relay%d", ch)
}

func (c *Controller) publishState() {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.BarrierStatusEvent{
		Relays:    c.States(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

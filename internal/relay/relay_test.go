package relay

import (
	"sync"
	"testing"
	"time"

	"github.com/pibox/pibox/internal/events"
)

// fakeDriver records switch calls.
type fakeDriver struct {
	mu    sync.Mutex
	calls []switchCall
}

type switchCall struct {
	channel int
	on      bool
}

func (d *fakeDriver) Set(channel int, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, switchCall{channel, on})
	return nil
}

func (d *fakeDriver) Close() error { return nil }

func (d *fakeDriver) last() (switchCall, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.calls) == 0 {
		return switchCall{}, false
	}
	return d.calls[len(d.calls)-1], true
}

func newTestController(t *testing.T) (*Controller, *fakeDriver) {
	t.Helper()
	d := &fakeDriver{}
	c := New(nil, WithDriver(d), WithChannelName(1, "entry barrier"))
	t.Cleanup(func() { c.Close() })
	return c, d
}

func TestSetOutOfRange(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.Set(0, true); err == nil {
		t.Error("expected error for channel 0")
	}
	if err := c.Set(ChannelCount+1, true); err == nil {
		t.Error("expected error for channel past the board")
	}
}

func TestSetUpdatesState(t *testing.T) {
	c, d := newTestController(t)
	if err := c.Set(3, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if call, ok := d.last(); !ok || call != (switchCall{3, true}) {
		t.Errorf("driver call = %+v", call)
	}
	if !c.States()[3].State {
		t.Error("channel 3 not reported on")
	}
}

func TestPulseReleases(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.Pulse(2, 20*time.Millisecond); err != nil {
		t.Fatalf("pulse: %v", err)
	}
	if !c.States()[2].State {
		t.Fatal("channel 2 should be on right after pulse")
	}

	deadline := time.Now().Add(time.Second)
	for c.States()[2].State {
		if time.Now().After(deadline) {
			t.Fatal("channel 2 never released")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPulseRestartExtends(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.Pulse(4, 30*time.Millisecond); err != nil {
		t.Fatalf("pulse: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := c.Pulse(4, 60*time.Millisecond); err != nil {
		t.Fatalf("second pulse: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if !c.States()[4].State {
		t.Error("restarted pulse released too early")
	}
}

func TestExplicitSetCancelsPulse(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.Pulse(5, 30*time.Millisecond); err != nil {
		t.Fatalf("pulse: %v", err)
	}
	if err := c.Set(5, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if !c.States()[5].State {
		t.Error("explicit on was released by a stale pulse timer")
	}
}

func TestChannelNames(t *testing.T) {
	c, _ := newTestController(t)
	states := c.States()
	if states[1].Name != "entry barrier" {
		t.Errorf("channel 1 name = %q", states[1].Name)
	}
	if states[2].Name != "relay2" {
		t.Errorf("channel 2 name = %q", states[2].Name)
	}
}

func TestCloseReleasesAll(t *testing.T) {
	d := &fakeDriver{}
	c := New(nil, WithDriver(d))
	c.Set(1, true)
	c.Set(7, true)
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if call, ok := d.last(); !ok || call.on {
		t.Errorf("last driver call = %+v, want a release", call)
	}
}

func TestSetPublishesBarrierStatus(t *testing.T) {
	bus := events.New()
	got := make(chan events.BarrierStatusEvent, 4)
	unsub := bus.Subscribe(func(ev events.BarrierStatusEvent) { got <- ev })
	defer unsub()

	c := New(bus, WithDriver(&fakeDriver{}))
	defer c.Close()
	if err := c.Set(6, true); err != nil {
		t.Fatalf("set: %v", err)
	}

	select {
	case ev := <-got:
		if !ev.Relays[6].State {
			t.Errorf("broadcast state for channel 6 = %+v", ev.Relays[6])
		}
	case <-time.After(time.Second):
		t.Fatal("no barrier status broadcast")
	}
}

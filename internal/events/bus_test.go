package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan CameraEvent, 1)

	unsub := bus.Subscribe(func(e CameraEvent) {
		received <- e
	})
	defer unsub()

	event := CameraEvent{
		Camera:        "GATE1",
		Plate:         "SGX1234A",
		Confidence:    0.97,
		AccessGranted: true,
		Timestamp:     "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.Plate != event.Plate {
		t.Errorf("Expected plate %s, got %s", event.Plate, got.Plate)
	}
	if !got.AccessGranted {
		t.Error("Expected access_granted to survive publish")
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan AccessEvent, 1)
	received2 := make(chan AccessEvent, 1)

	unsub1 := bus.Subscribe(func(e AccessEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e AccessEvent) {
		received2 <- e
	})
	defer unsub2()

	event := AccessEvent{Plate: "SGX1234A", Action: "barrier_pulse"}
	bus.Publish(event)

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan StatsEvent, 1)

	unsub := bus.Subscribe(func(e StatsEvent) {
		received <- e
	})

	bus.Publish(StatsEvent{Total: 1})
	<-received

	unsub()

	bus.Publish(StatsEvent{Total: 2})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_UnknownHandlerType(t *testing.T) {
	bus := New()

	unsub := bus.Subscribe(func(s string) {})
	if unsub == nil {
		t.Fatal("Subscribe should return a no-op unsubscribe for unknown handler types")
	}
	unsub()
}

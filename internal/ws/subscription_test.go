package ws

import (
	"reflect"
	"testing"

	"github.com/pibox/pibox/internal/events"
)

func TestSubscriptionSet_UpsertKeepsOneEntry(t *testing.T) {
	subs := newSubscriptionSet()

	subs.subscribe("GATE1", FilterAll)
	cameras := subs.subscribe("GATE1", FilterRegistered)

	if !reflect.DeepEqual(cameras, []string{"GATE1"}) {
		t.Fatalf("expected single GATE1 entry, got %v", cameras)
	}

	// The replacement filter is the effective one.
	denied := events.CameraEvent{Camera: "GATE1", AccessGranted: false}
	if subs.wants(denied) {
		t.Error("registered filter should not match a denied event")
	}
	granted := events.CameraEvent{Camera: "GATE1", AccessGranted: true}
	if !subs.wants(granted) {
		t.Error("registered filter should match a granted event")
	}
}

func TestSubscriptionSet_InsertionOrder(t *testing.T) {
	subs := newSubscriptionSet()
	subs.subscribe("GATE2", FilterAll)
	subs.subscribe("GATE1", FilterAll)
	subs.subscribe("GATE3", FilterAll)

	if got := subs.cameras(); !reflect.DeepEqual(got, []string{"GATE2", "GATE1", "GATE3"}) {
		t.Errorf("expected insertion order, got %v", got)
	}

	subs.unsubscribe("GATE1")
	if got := subs.cameras(); !reflect.DeepEqual(got, []string{"GATE2", "GATE3"}) {
		t.Errorf("expected GATE1 removed, got %v", got)
	}
}

func TestSubscriptionSet_UnsubscribeIdempotent(t *testing.T) {
	subs := newSubscriptionSet()
	if got := subs.unsubscribe("GATE9"); len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}

func TestSubscriptionSet_SubscribeAllSuperset(t *testing.T) {
	subs := newSubscriptionSet()
	subs.subscribe("GATE1", FilterNone)
	subs.subscribeAll()

	// Subscribe-all overrides the per-camera none filter and unknown cameras.
	if !subs.wants(events.CameraEvent{Camera: "GATE1", AccessGranted: true}) {
		t.Error("subscribe_all should override a none filter")
	}
	if !subs.wants(events.CameraEvent{Camera: "GATE9", AccessGranted: false}) {
		t.Error("subscribe_all should match unsubscribed cameras")
	}

	// Individual subscriptions are kept and still listed.
	if got := subs.cameras(); len(got) != 1 || got[0] != "GATE1" {
		t.Errorf("subscribe_all should not clear subscriptions, got %v", got)
	}
}

func TestSubscriptionSet_NoneSuppressesDelivery(t *testing.T) {
	subs := newSubscriptionSet()
	subs.subscribe("GATE1", FilterNone)

	if subs.wants(events.CameraEvent{Camera: "GATE1", AccessGranted: false}) {
		t.Error("none filter must never deliver")
	}
	if got := subs.cameras(); len(got) != 1 {
		t.Errorf("none subscription must remain observable, got %v", got)
	}
}

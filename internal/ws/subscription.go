package ws

import (
	"sync"

	"github.com/pibox/pibox/internal/events"
)

// subscriptionSet holds one client's camera subscriptions.
// Mutated only by the owning client's read pump; read by the hub during
// fan-out, so access is guarded by the set's own mutex.
type subscriptionSet struct {
	mu      sync.Mutex
	filters map[string]FilterKind
	order   []string
	all     bool
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{filters: make(map[string]FilterKind)}
}

// subscribe inserts or replaces the filter for a camera and returns the
// resulting camera list in insertion order.
func (s *subscriptionSet) subscribe(camera string, filter FilterKind) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.filters[camera]; !exists {
		s.order = append(s.order, camera)
	}
	s.filters[camera] = filter
	return s.camerasLocked()
}

// unsubscribe removes a camera subscription if present. Idempotent.
func (s *subscriptionSet) unsubscribe(camera string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.filters[camera]; exists {
		delete(s.filters, camera)
		for i, c := range s.order {
			if c == camera {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return s.camerasLocked()
}

// subscribeAll sets the subscribe-all flag. Individual subscriptions are
// kept; the flag is a superset and takes precedence during matching.
func (s *subscriptionSet) subscribeAll() {
	s.mu.Lock()
	s.all = true
	s.mu.Unlock()
}

// cameras returns the subscribed camera list in insertion order.
func (s *subscriptionSet) cameras() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camerasLocked()
}

func (s *subscriptionSet) camerasLocked() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// wants reports whether a camera event should be delivered to this client.
func (s *subscriptionSet) wants(ev events.CameraEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.all {
		return true
	}
	filter, ok := s.filters[ev.Camera]
	if !ok {
		return false
	}
	return filter.Matches(ev)
}

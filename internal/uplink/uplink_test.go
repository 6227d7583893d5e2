package uplink

import (
	"testing"

	"github.com/pibox/pibox/internal/events"
)

func TestNewRequiresBrokerURL(t *testing.T) {
	if _, err := New(Config{}, events.New()); err == nil {
		t.Fatal("expected error without broker URL")
	}
}

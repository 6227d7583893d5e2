package ws

import (
	"fmt"

	"github.com/pibox/pibox/internal/events"
)

// FilterKind selects which camera events a subscription delivers.
type FilterKind string

// Known filter kinds. The zero value is not valid; an absent filter in a
// subscribe command defaults to FilterAll at the protocol boundary.
const (
	FilterAll          FilterKind = "all"
	FilterUnregistered FilterKind = "unregistered"
	FilterRegistered   FilterKind = "registered"
	FilterNone         FilterKind = "none"
)

// ParseFilterKind validates a filter string from a subscribe command.
// An empty string defaults to FilterAll.
func ParseFilterKind(s string) (FilterKind, error) {
	switch FilterKind(s) {
	case "":
		return FilterAll, nil
	case FilterAll, FilterUnregistered, FilterRegistered, FilterNone:
		return FilterKind(s), nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

// Matches reports whether a camera event passes this filter.
// Pure predicate: unknown kinds never reach here, they are rejected at parse.
func (f FilterKind) Matches(ev events.CameraEvent) bool {
	switch f {
	case FilterAll:
		return true
	case FilterUnregistered:
		return !ev.AccessGranted
	case FilterRegistered:
		return ev.AccessGranted
	default: // FilterNone
		return false
	}
}

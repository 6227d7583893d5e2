package ws

import (
	"testing"

	"github.com/pibox/pibox/internal/events"
)

func TestParseFilterKind(t *testing.T) {
	cases := []struct {
		in      string
		want    FilterKind
		wantErr bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"unregistered", FilterUnregistered, false},
		{"registered", FilterRegistered, false},
		{"none", FilterNone, false},
		{"ALL", "", true},
		{"bogus", "", true},
	}

	for _, tc := range cases {
		got, err := ParseFilterKind(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFilterKind(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFilterKind(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFilterKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFilterKind_Matches(t *testing.T) {
	granted := events.CameraEvent{Camera: "GATE1", AccessGranted: true}
	denied := events.CameraEvent{Camera: "GATE1", AccessGranted: false}

	cases := []struct {
		filter      FilterKind
		granted     bool
		wantDenied  bool
		wantGranted bool
	}{
		{FilterAll, true, true, true},
		{FilterUnregistered, false, true, false},
		{FilterRegistered, true, false, true},
		{FilterNone, false, false, false},
	}

	for _, tc := range cases {
		if got := tc.filter.Matches(denied); got != tc.wantDenied {
			t.Errorf("%s.Matches(denied) = %v, want %v", tc.filter, got, tc.wantDenied)
		}
		if got := tc.filter.Matches(granted); got != tc.wantGranted {
			t.Errorf("%s.Matches(granted) = %v, want %v", tc.filter, got, tc.wantGranted)
		}
	}
}

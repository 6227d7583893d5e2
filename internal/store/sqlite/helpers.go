package sqlite

import (
	"strconv"
	"strings"
	"time"
)

// Relay channel lists are stored as comma-joined text.
func joinChannels(channels []int) string {
	if len(channels) == 0 {
		return ""
	}
	parts := make([]string, len(channels))
	for i, ch := range channels {
		parts[i] = strconv.Itoa(ch)
	}
	return strings.Join(parts, ",")
}

func splitChannels(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if ch, err := strconv.Atoi(p); err == nil {
			out = append(out, ch)
		}
	}
	return out
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

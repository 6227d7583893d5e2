package health

import (
	"testing"
	"time"
)

func TestSampleFillsBasics(t *testing.T) {
	s := Sample()
	if s.SampledAt == "" {
		t.Error("missing sample timestamp")
	}
	if _, err := time.Parse(time.RFC3339, s.SampledAt); err != nil {
		t.Errorf("bad timestamp %q: %v", s.SampledAt, err)
	}
	if s.MemoryTotalMB == 0 {
		t.Error("total memory not sampled")
	}
	if s.MemoryPercent < 0 || s.MemoryPercent > 100 {
		t.Errorf("memory percent = %v", s.MemoryPercent)
	}
	if s.DiskPercent < 0 || s.DiskPercent > 100 {
		t.Errorf("disk percent = %v", s.DiskPercent)
	}
}

func TestRound1(t *testing.T) {
	if got := round1(12.345); got != 12.3 {
		t.Errorf("round1(12.345) = %v", got)
	}
	if got := round1(99.96); got != 100.0 {
		t.Errorf("round1(99.96) = %v", got)
	}
}

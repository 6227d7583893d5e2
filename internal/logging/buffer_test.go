package logging

import (
	"log/slog"
	"testing"
)

func resetLogging() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	logBuffer = nil
	logCallback = nil
	mutex.Unlock()
}

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Write(LogEntry{Message: string(rune('a' + i))})
	}
	entries := rb.ReadAll()
	if len(entries) != 3 {
		t.Fatalf("count = %d, want 3", len(entries))
	}
	// Oldest two entries were overwritten
	want := []string{"c", "d", "e"}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Message, want[i])
		}
	}
}

func TestBufferReceivesModuleLogs(t *testing.T) {
	resetLogging()
	Initialize(Config{Level: "info", Format: "text"})

	GetLogger("access").Info("access decision", "plate", "AB123CD")

	entries := GetBuffer().ReadAll()
	if len(entries) == 0 {
		t.Fatal("buffer empty after logging")
	}
	last := entries[len(entries)-1]
	if last.Module != "access" || last.Message != "access decision" {
		t.Errorf("entry = %+v", last)
	}
	if last.Attributes["plate"] != "AB123CD" {
		t.Errorf("attributes = %v", last.Attributes)
	}
}

func TestLogCallbackInvoked(t *testing.T) {
	resetLogging()
	Initialize(Config{Level: "info", Format: "text"})

	got := make(chan LogEntry, 1)
	SetLogCallback(func(e LogEntry) {
		select {
		case got <- e:
		default:
		}
	})
	defer SetLogCallback(nil)

	GetLogger("ws").Warn("client dropped")

	select {
	case e := <-got:
		if e.Level != "warn" || e.Module != "ws" {
			t.Errorf("entry = %+v", e)
		}
	default:
		t.Fatal("callback never invoked")
	}
}

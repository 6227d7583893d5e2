package snapshot

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSaveAndOpen(t *testing.T) {
	s := newTestStore(t)
	url, err := s.Save(context.Background(), "AB123CD", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "/api/images/") {
		t.Errorf("url = %q", url)
	}
	name := strings.TrimPrefix(url, "/api/images/")
	if !strings.Contains(name, "AB123CD") {
		t.Errorf("image name %q missing plate", name)
	}

	f, err := s.Open(name)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "jpegdata" {
		t.Errorf("read back %q", data)
	}
}

func TestUniqueNamesForSamePlate(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Save(context.Background(), "AB123CD", []byte("one"))
	b, _ := s.Save(context.Background(), "AB123CD", []byte("two"))
	if a == b {
		t.Errorf("both saves produced %q", a)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Open("../etc/passwd"); !os.IsNotExist(err) {
		t.Errorf("traversal open err = %v", err)
	}
	if _, err := s.Open(".hidden"); !os.IsNotExist(err) {
		t.Errorf("dotfile open err = %v", err)
	}
}

func TestSweepRemovesOldImages(t *testing.T) {
	s := newTestStore(t, WithRetention(time.Hour))
	url, _ := s.Save(context.Background(), "AB123CD", []byte("old"))
	name := strings.TrimPrefix(url, "/api/images/")
	old := time.Now().Add(-2 * time.Hour)
	os.Chtimes(filepath.Join(s.dir, name), old, old)
	s.Save(context.Background(), "XY999ZZ", []byte("fresh"))

	if removed := s.Sweep(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	names, err := s.List(0)
	if err != nil || len(names) != 1 {
		t.Fatalf("names = %v, err %v", names, err)
	}
	if !strings.Contains(names[0], "XY999ZZ") {
		t.Errorf("survivor = %q", names[0])
	}
}

func TestListLimit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		s.Save(context.Background(), "AB123CD", []byte("x"))
	}
	names, err := s.List(3)
	if err != nil || len(names) != 3 {
		t.Errorf("names = %v, err %v", names, err)
	}
}

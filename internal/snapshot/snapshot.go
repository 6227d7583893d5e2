// Package snapshot stores detection imagery. Images land on local disk
// first so the access pipeline never waits on the network; an upload worker
// then offloads them to S3-compatible object storage when configured.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pibox/pibox/internal/logging"
)

// DefaultRetention is how long local images are kept before the sweep
// removes them.
const DefaultRetention = 7 * 24 * time.Hour

// Store saves detection images locally and mirrors them to object storage.
type Store struct {
	dir       string
	retention time.Duration
	logger    *slog.Logger

	mc     *minio.Client
	bucket string

	uploads chan string
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Option configures the store.
type Option func(*Store)

// WithRetention overrides the local retention window.
func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

// WithObjectStorage enables mirroring to an S3-compatible endpoint.
func WithObjectStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool) Option {
	return func(s *Store) {
		mc, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: useSSL,
		})
		if err != nil {
			s.logger.Error("object storage client init failed", "endpoint", endpoint, "error", err)
			return
		}
		s.mc = mc
		s.bucket = bucket
	}
}

// New builds a store rooted at dir, creating it if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	s := &Store{
		dir:       dir,
		retention: DefaultRetention,
		logger:    logging.GetLogger("snapshot"),
		uploads:   make(chan string, 64),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.worker()
	return s, nil
}

// Save writes one image to disk and queues its upload. Returns the path
// the API serves the image under.
func (s *Store) Save(ctx context.Context, plate string, image []byte) (string, error) {
	name := fmt.Sprintf("%s_%s_%s.jpg",
		time.Now().UTC().Format("20060102T150405"),
		sanitize(plate),
		uuid.NewString()[:8])

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("snapshot: write image: %w", err)
	}

	if s.mc != nil {
		select {
		case s.uploads <- name:
		default:
			s.logger.Warn("upload queue full, image kept local only", "image", name)
		}
	}
	return "/api/images/" + name, nil
}

// Open returns the local file for a previously saved image name.
func (s *Store) Open(name string) (*os.File, error) {
	clean := filepath.Base(name)
	if clean != name || strings.HasPrefix(name, ".") {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(s.dir, clean))
}

// Sweep removes local images older than the retention window and returns
// how many were deleted.
func (s *Store) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("retention sweep failed", "error", err)
		return 0
	}
	cutoff := time.Now().Add(-s.retention)
	removed := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		s.logger.Info("retention sweep", "removed", removed)
	}
	return removed
}

// Close stops the upload worker.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Store) worker() {
	defer close(s.done)
	sweep := time.NewTicker(time.Hour)
	defer sweep.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-sweep.C:
			s.Sweep()
		case name := <-s.uploads:
			s.upload(name)
		}
	}
}

func (s *Store) upload(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	key := time.Now().UTC().Format("2006/01/02") + "/" + name
	_, err := s.mc.FPutObject(ctx, s.bucket, key, filepath.Join(s.dir, name),
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		s.logger.Warn("image upload failed", "image", name, "error", err)
		return
	}
	s.logger.Debug("image uploaded", "image", name, "key", key)
}

func sanitize(plate string) string {
	var b strings.Builder
	for _, r := range plate {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "UNKNOWN"
	}
	return b.String()
}

// List returns saved image names, newest first, up to limit.
func (s *Store) List(limit int) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

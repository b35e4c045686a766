package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes artifacts to a flat directory on the local filesystem and
// serves them via public URLs under /uploads/. Expiry is handled by the
// retention Sweeper, which reads creation time from file mtimes — the store
// keeps no metadata of its own.
type DiskStore struct {
	root       string
	publicBase string
}

// NewDiskStore ensures the storage root exists and returns a ready DiskStore.
// Creating the directory is idempotent.
func NewDiskStore(root, publicBase string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", root, err)
	}
	return &DiskStore{
		root:       root,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Persist writes data to <root>/<key> atomically: the bytes go to a temp file
// in the same directory first, then a rename publishes them. A concurrent
// directory listing (sweeper, static serving) never observes a half-written
// artifact under its final name.
func (s *DiskStore) Persist(ctx context.Context, key string, data []byte) (*Saved, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("write artifact %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("close artifact %q: %w", key, err)
	}

	final := filepath.Join(s.root, key)
	// Keys are unique by construction; an existing file means a generator
	// collision and must not be silently overwritten.
	if _, err := os.Lstat(final); err == nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("artifact %q already exists", key)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("publish artifact %q: %w", key, err)
	}

	return &Saved{URL: s.publicBase + "/uploads/" + key}, nil
}

// Mode returns the backend name.
func (s *DiskStore) Mode() string {
	return ModePersistent
}

// Root returns the storage root directory. Used by the retention sweeper and
// by static file serving.
func (s *DiskStore) Root() string {
	return s.root
}

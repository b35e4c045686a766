package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/imagedrop/service/internal/metrics"
)

// Sweeper periodically deletes artifacts from a DiskStore once they outlive
// the retention TTL. Creation time is read from file mtimes. A sweep that is
// still running when the next tick fires is skipped, not queued. Per-entry
// failures are counted and logged, never fatal: files may legitimately vanish
// mid-scan.
type Sweeper struct {
	store    *DiskStore
	ttl      time.Duration
	interval time.Duration
	rec      metrics.Recorder
	log      zerolog.Logger

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSweeper creates a Sweeper over the given disk store.
func NewSweeper(store *DiskStore, ttl, interval time.Duration, rec metrics.Recorder, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		ttl:      ttl,
		interval: interval,
		rec:      rec,
		log:      log.With().Str("component", "sweeper").Logger(),
	}
}

// Start launches the background sweep loop. It returns immediately.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	s.log.Info().
		Dur("ttl", s.ttl).
		Dur("interval", s.interval).
		Str("root", s.store.Root()).
		Msg("retention sweeper started")
}

// Stop cancels the loop and waits for it to exit. An in-flight sweep finishes
// in the background; its deletions are safe to race with shutdown.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.log.Info().Msg("retention sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.running.CompareAndSwap(false, true) {
				s.log.Debug().Msg("previous sweep still running, skipping tick")
				continue
			}
			go func() {
				defer s.running.Store(false)
				s.Sweep(ctx)
			}()
		}
	}
}

// Sweep performs one scan-and-delete pass over the storage root.
func (s *Sweeper) Sweep(ctx context.Context) {
	entries, err := os.ReadDir(s.store.Root())
	if err != nil {
		s.log.Warn().Err(err).Msg("cannot list storage root")
		s.rec.ObserveSweep(0, 1)
		return
	}

	cutoff := time.Now().Add(-s.ttl)
	var deleted, failed int

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			s.log.Warn().Err(err).Str("name", entry.Name()).Msg("cannot stat artifact")
			failed++
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.store.Root(), entry.Name())); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			s.log.Warn().Err(err).Str("name", entry.Name()).Msg("cannot delete expired artifact")
			failed++
			continue
		}
		deleted++
	}

	s.rec.ObserveSweep(deleted, failed)
	if deleted > 0 || failed > 0 {
		s.log.Info().Int("deleted", deleted).Int("failed", failed).Msg("sweep finished")
	}
}

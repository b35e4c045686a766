package upload

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/imagedrop/service/internal/storage"
)

// Result is returned to the client after a successful upload. URL is set by
// the persistent and s3 backends, Data by the ephemeral backend.
type Result struct {
	URL       string  `json:"url,omitempty"`
	Data      string  `json:"data,omitempty"`
	Filename  string  `json:"filename"`
	SizeKB    float64 `json:"sizeKB"`
	Timestamp string  `json:"timestamp"`

	// SizeBytes is the exact artifact size, kept for instrumentation.
	SizeBytes int `json:"-"`
}

// Service orchestrates the upload lifecycle against a single storage backend
// chosen at startup.
type Service struct {
	store   storage.Backend
	maxDim  int
	quality int
	sem     chan struct{}
	log     zerolog.Logger
}

// NewService creates an upload Service. Transcoding is CPU-bound, so in-flight
// decodes are limited to the number of cores to keep memory bounded under
// concurrent large uploads.
func NewService(store storage.Backend, maxDim, quality int, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		maxDim:  maxDim,
		quality: quality,
		sem:     make(chan struct{}, runtime.NumCPU()),
		log:     log.With().Str("component", "upload").Logger(),
	}
}

// Mode reports the active storage backend's mode.
func (s *Service) Mode() string {
	return s.store.Mode()
}

// Process validates raw, normalizes it, names it, and persists it. On failure
// it returns one of the sentinel errors from this package; no partial state is
// observable, the name is never reused, and nothing references an unwritten
// artifact.
func (s *Service) Process(ctx context.Context, raw []byte) (*Result, error) {
	if len(raw) == 0 {
		return nil, ErrMissingFile
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, ctx.Err())
	}
	img, err := Normalize(raw, s.maxDim, s.quality)
	<-s.sem
	if err != nil {
		return nil, err
	}

	name, err := NewName()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
	key := name + ".jpg"

	saved, err := s.store.Persist(ctx, key, img.Data)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("persist failed")
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	s.log.Info().
		Str("key", key).
		Int("width", img.Width).
		Int("height", img.Height).
		Int("bytes", len(img.Data)).
		Msg("upload stored")

	return &Result{
		URL:       saved.URL,
		Data:      saved.DataURI,
		Filename:  key,
		SizeKB:    math.Round(float64(len(img.Data))/1024*100) / 100,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		SizeBytes: len(img.Data),
	}, nil
}

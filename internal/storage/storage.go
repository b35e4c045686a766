// Package storage provides the artifact storage backends and the retention
// sweeper. Exactly one backend is selected at startup from configuration —
// swap implementations by changing the concrete type injected in cmd/api.
package storage

import "context"

// Backend persists a normalized artifact under a unique key.
type Backend interface {
	// Persist stores data under key and returns how to reach it. The write is
	// all-or-nothing: on error no partially written artifact is observable.
	Persist(ctx context.Context, key string, data []byte) (*Saved, error)
	// Mode names the backend for logs, metrics, and the health endpoint.
	Mode() string
}

// Saved describes where a persisted artifact can be retrieved. Exactly one of
// URL and DataURI is set, depending on the backend.
type Saved struct {
	URL     string
	DataURI string
}

// Backend mode names. These match the STORAGE_MODE configuration values.
const (
	ModeEphemeral  = "ephemeral"
	ModePersistent = "persistent"
	ModeS3         = "s3"
)

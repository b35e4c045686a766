package storage

import (
	"context"
	"encoding/base64"
)

// InlineStore returns processed images as base64 data URIs instead of writing
// them anywhere. Suited to stateless deployments with no durable filesystem.
type InlineStore struct{}

// NewInlineStore creates an InlineStore.
func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

// Persist encodes data as a JPEG data URI. It never touches the filesystem.
func (s *InlineStore) Persist(_ context.Context, _ string, data []byte) (*Saved, error) {
	return &Saved{
		DataURI: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Mode returns the backend name.
func (s *InlineStore) Mode() string {
	return ModeEphemeral
}

package upload

import "errors"

// ErrMissingFile is returned when the request carries no image payload.
var ErrMissingFile = errors.New("no image provided")

// ErrInvalidImage is returned when the payload does not decode as a supported
// image or its declared dimensions exceed the pixel-area ceiling.
var ErrInvalidImage = errors.New("invalid or unsupported image")

// ErrProcessingFailed is returned when transcoding fails despite valid-looking input.
var ErrProcessingFailed = errors.New("image processing failed")

// ErrStorageFailed is returned when the storage backend cannot persist the artifact.
var ErrStorageFailed = errors.New("failed to store image")

package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/imagedrop/service/internal/metrics"
	"github.com/imagedrop/service/internal/response"
	"github.com/imagedrop/service/internal/storage"
)

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, h *Handler, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.Upload(rr, req)

	var env response.Envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return rr, env
}

func newDiskHandler(t *testing.T, maxBytes int64) (*Handler, *storage.DiskStore) {
	t.Helper()
	disk, err := storage.NewDiskStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	svc := NewService(disk, 1200, 85, zerolog.Nop())
	return NewHandler(svc, maxBytes, metrics.Noop{}, zerolog.Nop()), disk
}

func TestUploadMissingFile(t *testing.T) {
	h, _ := newDiskHandler(t, 10<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	rr, env := doUpload(t, h, &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.False(t, env.Success)
	require.Equal(t, "no image provided", env.Error)
}

func TestUploadInvalidImage(t *testing.T) {
	h, disk := newDiskHandler(t, 10<<20)

	body, ct := multipartBody(t, "image", "junk.bin", bytes.Repeat([]byte{0x01, 0x02}, 50))
	rr, env := doUpload(t, h, body, ct)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.False(t, env.Success)
	require.Equal(t, "invalid or unsupported image", env.Error)

	entries, err := os.ReadDir(disk.Root())
	require.NoError(t, err)
	require.Empty(t, entries, "rejected uploads must leave no files behind")
}

func TestUploadTooLarge(t *testing.T) {
	h, _ := newDiskHandler(t, 64)

	body, ct := multipartBody(t, "image", "big.png", makePNG(t, 200, 200))
	rr, env := doUpload(t, h, body, ct)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.False(t, env.Success)
}

func TestUploadPersistent(t *testing.T) {
	h, disk := newDiskHandler(t, 10<<20)

	body, ct := multipartBody(t, "image", "photo.png", makePNG(t, 3000, 2000))
	rr, env := doUpload(t, h, body, ct)
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, env.Success)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)

	url, _ := data["url"].(string)
	filename, _ := data["filename"].(string)
	require.Contains(t, url, "/uploads/img_")
	require.True(t, strings.HasSuffix(filename, ".jpg"))
	require.Greater(t, data["sizeKB"].(float64), 0.0)

	stored, err := os.ReadFile(filepath.Join(disk.Root(), filename))
	require.NoError(t, err)

	_, w, hgt := decodeJPEG(t, stored)
	require.Equal(t, 1200, w)
	require.Equal(t, 800, hgt)
}

func TestUploadStorageFailureMapsToInternalError(t *testing.T) {
	svc := NewService(&fakeBackend{err: errors.New("disk full")}, 1200, 85, zerolog.Nop())
	h := NewHandler(svc, 10<<20, metrics.Noop{}, zerolog.Nop())

	body, ct := multipartBody(t, "image", "photo.png", makePNG(t, 50, 50))
	rr, env := doUpload(t, h, body, ct)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.False(t, env.Success)
	require.Equal(t, "failed to store image", env.Error)
}

func TestUploadProcessingFailureMapsToInternalError(t *testing.T) {
	svc := NewService(&fakeBackend{}, 1200, 85, zerolog.Nop())
	h := NewHandler(svc, 10<<20, metrics.Noop{}, zerolog.Nop())

	// Saturate the transcode pool so a cancelled request fails while
	// waiting for a slot.
	svc.sem = make(chan struct{}, 1)
	svc.sem <- struct{}{}

	body, ct := multipartBody(t, "image", "photo.png", makePNG(t, 50, 50))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	h.Upload(rr, req)

	var env response.Envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.False(t, env.Success)
	require.Equal(t, "image processing failed", env.Error)
}

func TestUploadEphemeral(t *testing.T) {
	svc := NewService(storage.NewInlineStore(), 1200, 85, zerolog.Nop())
	h := NewHandler(svc, 4<<20, metrics.Noop{}, zerolog.Nop())

	body, ct := multipartBody(t, "image", "photo.png", makePNG(t, 400, 300))
	rr, env := doUpload(t, h, body, ct)
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, env.Success)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)

	dataURI, _ := data["data"].(string)
	require.True(t, strings.HasPrefix(dataURI, "data:image/jpeg;base64,"))
	_, hasURL := data["url"]
	require.False(t, hasURL, "ephemeral results carry no URL")

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURI, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	_, w, hgt := decodeJPEG(t, raw)
	require.Equal(t, 400, w)
	require.Equal(t, 300, hgt)
}

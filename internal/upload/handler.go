package upload

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/imagedrop/service/internal/metrics"
	"github.com/imagedrop/service/internal/response"
)

// Handler holds the HTTP handler for the upload endpoint.
type Handler struct {
	svc      *Service
	maxBytes int64
	rec      metrics.Recorder
	log      zerolog.Logger
}

// NewHandler creates a new upload Handler. maxBytes caps the request body
// before any transcoding is attempted.
func NewHandler(svc *Service, maxBytes int64, rec metrics.Recorder, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes, rec: rec, log: log}
}

// Upload godoc
//
//	@Summary		Upload image
//	@Description	Accepts a multipart image, normalizes it to a bounded JPEG, and stores it according to the active storage mode. Returns a public URL (persistent/s3) or an inline base64 data URI (ephemeral).
//	@Tags			upload
//	@Accept			mpfd
//	@Produce		json
//	@Param			image	formData	file	true	"Image file (JPEG, PNG, GIF, TIFF, or BMP)"
//	@Success		200	{object}	response.Envelope{data=Result}
//	@Failure		400	{object}	response.Envelope
//	@Failure		413	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile("image")
	if err != nil {
		if isBodyTooLarge(err) {
			h.observe("too_large", start, 0)
			response.PayloadTooLarge(w, "uploaded file is too large")
			return
		}
		h.observe("missing_file", start, 0)
		response.BadRequest(w, ErrMissingFile.Error())
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			h.observe("too_large", start, 0)
			response.PayloadTooLarge(w, "uploaded file is too large")
			return
		}
		h.observe("read_error", start, 0)
		response.InternalError(w)
		return
	}

	res, err := h.svc.Process(r.Context(), raw)
	if err != nil {
		h.writeError(w, err, start)
		return
	}

	h.observe("ok", start, res.SizeBytes)
	h.log.Info().
		Str("declared", header.Filename).
		Str("stored", res.Filename).
		Float64("sizeKB", res.SizeKB).
		Msg("upload accepted")
	response.OK(w, res)
}

// writeError maps the service's sentinel errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error, start time.Time) {
	switch {
	case errors.Is(err, ErrMissingFile):
		h.observe("missing_file", start, 0)
		response.BadRequest(w, ErrMissingFile.Error())
	case errors.Is(err, ErrInvalidImage):
		h.observe("invalid_image", start, 0)
		response.BadRequest(w, ErrInvalidImage.Error())
	case errors.Is(err, ErrProcessingFailed):
		h.observe("processing_failed", start, 0)
		response.Error(w, http.StatusInternalServerError, ErrProcessingFailed.Error())
	case errors.Is(err, ErrStorageFailed):
		h.observe("storage_failed", start, 0)
		response.Error(w, http.StatusInternalServerError, ErrStorageFailed.Error())
	default:
		h.observe("internal_error", start, 0)
		response.InternalError(w)
	}
}

func (h *Handler) observe(status string, start time.Time, sizeBytes int) {
	h.rec.ObserveUpload(h.svc.Mode(), status, time.Since(start).Seconds(), sizeBytes)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

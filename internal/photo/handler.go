package photo

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/photobridge/service/internal/response"
)

// multipartMemory is how much of a form is kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// Handler holds HTTP handlers for photo endpoints.
type Handler struct {
	svc      *Service
	maxBytes int64
	log      *zap.Logger
}

// NewHandler creates a new photo Handler. Request bodies above maxBytes are rejected.
func NewHandler(svc *Service, maxBytes int64, log *zap.Logger) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes, log: log}
}

// Upload godoc
//
//	@Summary		Upload photos
//	@Description	Store every file of the "photos" field with public read access, then forward the resulting URLs to the companion application.
//	@Tags			photos
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			photos	formData	file	true	"Image file, repeated per photo"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/photos [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			response.Error(w, http.StatusRequestEntityTooLarge, "upload too large")
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, io.EOF):
			response.BadRequest(w, "No photos uploaded")
		default:
			response.BadRequest(w, "invalid multipart form")
		}
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	photos, err := h.svc.Upload(r.Context(), FromMultipart(r.MultipartForm.File[FieldName]))
	switch {
	case errors.Is(err, ErrNoPhotos):
		response.BadRequest(w, "No photos uploaded")
		return
	case errors.Is(err, ErrUnsupportedType):
		response.BadRequest(w, err.Error())
		return
	case err != nil:
		h.log.Error("upload failed", zap.Error(err))
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, photos)
}

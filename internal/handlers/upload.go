package handlers

import (
	"errors"
	"io"
	"net/http"

	"good-morning-backend/internal/apperr"
	"good-morning-backend/internal/media"
	"good-morning-backend/internal/middleware"
	"good-morning-backend/internal/services"
)

// multipart boundaries and headers on top of the file itself
const multipartOverhead = 1 << 20

var errMissingImage = apperr.New(apperr.KindValidation, "MISSING_IMAGE", "image file is required")

// UploadHandler handles image uploads
type UploadHandler struct {
	uploadService *services.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *services.UploadService) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
	}
}

// UploadResponse carries the public URL of an uploaded image
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /upload with a multipart "image" field
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+multipartOverhead)

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondErr(w, r, media.ErrTooLarge)
			return
		}
		respondErr(w, r, apperr.Wrap(errMissingImage, err))
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, media.MaxUploadSize+1))
	if err != nil {
		respondErr(w, r, apperr.Wrap(errMissingImage, err))
		return
	}

	url, err := h.uploadService.Upload(ctx, userID, body, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, UploadResponse{URL: url})
}

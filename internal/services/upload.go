package services

import (
	"context"

	"good-morning-backend/internal/apperr"
	"good-morning-backend/internal/media"
	"good-morning-backend/internal/metrics"

	"github.com/rs/zerolog/log"
)

// UploadService validates notice photos and hands them to the blob store
type UploadService struct {
	validator *media.Validator
	store     BlobStore
}

// NewUploadService creates a new upload service. store may be nil when object
// storage is not configured; uploads then fail with ErrStorageUnavailable.
func NewUploadService(validator *media.Validator, store BlobStore) *UploadService {
	return &UploadService{validator: validator, store: store}
}

// Upload validates the file and returns its public URL
func (s *UploadService) Upload(ctx context.Context, userID string, body []byte, contentType, filename string) (string, error) {
	url, err := s.upload(ctx, body, contentType, filename)
	metrics.UploadsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return "", err
	}

	log.Info().
		Str("user_id", userID).
		Str("url", url).
		Int("size", len(body)).
		Msg("Image uploaded")
	return url, nil
}

func (s *UploadService) upload(ctx context.Context, body []byte, contentType, filename string) (string, error) {
	upload, err := s.validator.Validate(body, contentType, filename)
	if err != nil {
		return "", err
	}

	if s.store == nil {
		return "", ErrStorageUnavailable
	}

	url, err := s.store.Put(ctx, upload.Key, upload.Body, upload.ContentType)
	if err != nil {
		return "", apperr.Upstream("failed to upload file", err)
	}
	return url, nil
}

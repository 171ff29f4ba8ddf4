// Package media validates uploaded images and derives their storage keys.
// It never talks to storage itself.
package media

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"good-morning-backend/internal/apperr"
)

// MaxUploadSize is the upload ceiling in bytes
const MaxUploadSize = 20 << 20

var (
	ErrTooLarge             = apperr.New(apperr.KindValidation, "TOO_LARGE", "file size exceeds limit")
	ErrUnsupportedType      = apperr.New(apperr.KindValidation, "UNSUPPORTED_TYPE", "invalid file type")
	ErrUnsupportedExtension = apperr.New(apperr.KindValidation, "UNSUPPORTED_EXTENSION", "invalid file extension")
	ErrEmpty                = apperr.New(apperr.KindValidation, "EMPTY_FILE", "no image file provided")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
	".heif": true,
}

// Upload is a validated payload ready for the blob store
type Upload struct {
	Body        []byte
	ContentType string
	Extension   string
	Key         string
}

// Validator checks uploads against the size, type and extension policy
type Validator struct {
	reencoder *Reencoder
	now       func() time.Time
}

// NewValidator creates a validator. A nil reencoder keeps uploads byte for byte.
func NewValidator(reencoder *Reencoder) *Validator {
	return &Validator{reencoder: reencoder, now: time.Now}
}

// Validate checks body against the policy and returns it with its storage key.
// The declared MIME type and the filename extension are checked independently.
func (v *Validator) Validate(body []byte, mimeType, filename string) (*Upload, error) {
	if len(body) == 0 {
		return nil, ErrEmpty
	}
	if len(body) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	contentType := strings.ToLower(strings.TrimSpace(mimeType))
	if !allowedTypes[contentType] {
		return nil, apperr.Wrap(ErrUnsupportedType, fmt.Errorf("%q", mimeType))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		if ext == "" {
			ext = "unknown"
		}
		return nil, apperr.Wrap(ErrUnsupportedExtension, fmt.Errorf("%q", ext))
	}

	upload := &Upload{Body: body, ContentType: contentType, Extension: ext}
	if v.reencoder != nil {
		if out, ok := v.reencoder.ToJPEG(body); ok {
			upload.Body = out
			upload.ContentType = "image/jpeg"
			upload.Extension = ".jpg"
		}
	}

	key, err := NewKey(v.now(), upload.Extension)
	if err != nil {
		return nil, err
	}
	upload.Key = key
	return upload, nil
}

// NewKey returns `{unixMillis}_{16 hex chars}{ext}`. The suffix carries 64 bits
// of randomness so keys minted in the same millisecond do not collide.
func NewKey(t time.Time, ext string) (string, error) {
	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate key suffix: %w", err)
	}
	return fmt.Sprintf("%d_%s%s", t.UnixMilli(), hex.EncodeToString(suffix), ext), nil
}

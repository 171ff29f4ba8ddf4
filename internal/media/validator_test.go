package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^\d+_[0-9a-f]{16}\.jpg$`)

func TestValidateRejectsOversized(t *testing.T) {
	v := NewValidator(nil)
	body := make([]byte, 21<<20)

	_, err := v.Validate(body, "image/jpeg", "big.jpg")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestValidateAcceptsExactlyCeiling(t *testing.T) {
	v := NewValidator(nil)
	body := make([]byte, MaxUploadSize)

	_, err := v.Validate(body, "image/png", "edge.png")
	assert.NoError(t, err)
}

func TestValidateRejectsMismatchedExtension(t *testing.T) {
	v := NewValidator(nil)

	_, err := v.Validate([]byte("MZ"), "image/png", "payload.exe")
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestValidateRejectsType(t *testing.T) {
	v := NewValidator(nil)

	_, err := v.Validate([]byte("GIF89a"), "image/gif", "anim.jpg")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestValidateRejectsMissingExtension(t *testing.T) {
	v := NewValidator(nil)

	_, err := v.Validate([]byte{1}, "image/jpeg", "photo")
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestValidateRejectsEmpty(t *testing.T) {
	v := NewValidator(nil)

	_, err := v.Validate(nil, "image/jpeg", "a.jpg")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestValidateJPEGProducesKey(t *testing.T) {
	v := NewValidator(nil)
	body := bytes.Repeat([]byte{0xff}, 2<<20)

	upload, err := v.Validate(body, "image/jpeg", "Morning.JPG")
	require.NoError(t, err)

	assert.Regexp(t, keyPattern, upload.Key)
	assert.Equal(t, "image/jpeg", upload.ContentType)
	assert.Equal(t, ".jpg", upload.Extension)
	assert.Len(t, upload.Body, 2<<20)
}

func TestValidateHEICKeepsOriginal(t *testing.T) {
	v := NewValidator(NewReencoder(85, 2048))
	body := []byte("\x00\x00\x00\x18ftypheic")

	upload, err := v.Validate(body, "image/heic", "IMG_0001.HEIC")
	require.NoError(t, err)

	assert.Equal(t, body, upload.Body)
	assert.Equal(t, "image/heic", upload.ContentType)
	assert.Regexp(t, `^\d+_[0-9a-f]{16}\.heic$`, upload.Key)
}

func TestValidateReencodesPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: 80, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	v := NewValidator(NewReencoder(85, 10))
	upload, err := v.Validate(buf.Bytes(), "image/png", "art.png")
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", upload.ContentType)
	assert.Regexp(t, keyPattern, upload.Key)

	decoded, err := jpeg.Decode(bytes.NewReader(upload.Body))
	require.NoError(t, err)
	assert.Equal(t, 10, decoded.Bounds().Dx())
	assert.Equal(t, 5, decoded.Bounds().Dy())
}

func TestNewKeyUniqueWithinMillisecond(t *testing.T) {
	now := time.UnixMilli(1760572800000)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key, err := NewKey(now, ".png")
		require.NoError(t, err)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
		assert.Regexp(t, `^1760572800000_[0-9a-f]{16}\.png$`, key)
	}
}

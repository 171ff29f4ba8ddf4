package media

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Reencoder converts decodable images to JPEG, downscaling anything larger
// than maxDimension on its long edge
type Reencoder struct {
	quality      int
	maxDimension int
}

// NewReencoder creates a reencoder
func NewReencoder(quality, maxDimension int) *Reencoder {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Reencoder{quality: quality, maxDimension: maxDimension}
}

// ToJPEG returns the re-encoded image and true, or false when the input cannot
// be decoded (HEIC/HEIF have no decoder here) and the original must be kept.
func (r *Reencoder) ToJPEG(body []byte) ([]byte, bool) {
	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		log.Debug().Err(err).Msg("Image not decodable, keeping original")
		return nil, false
	}

	img = r.fit(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		log.Warn().Err(err).Str("format", format).Msg("Failed to encode JPEG, keeping original")
		return nil, false
	}
	return buf.Bytes(), true
}

// fit scales img down so neither side exceeds maxDimension, keeping the aspect ratio
func (r *Reencoder) fit(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if r.maxDimension <= 0 || (width <= r.maxDimension && height <= r.maxDimension) {
		return img
	}

	newWidth, newHeight := r.maxDimension, r.maxDimension
	if width > height {
		newHeight = height * r.maxDimension / width
	} else {
		newWidth = width * r.maxDimension / height
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

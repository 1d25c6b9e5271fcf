// Package imagecodec turns uploaded bytes into an image.
package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds the decoded size of one upload (48 MP).
const DefaultMaxPixels = 48_000_000

var (
	// ErrEmpty is returned for a zero-length payload.
	ErrEmpty = errors.New("empty image payload")

	// ErrTooLarge is returned when the header announces more pixels than allowed.
	ErrTooLarge = errors.New("image too large")
)

// Decode decodes with the DefaultMaxPixels limit.
func Decode(data []byte) (image.Image, error) {
	return DecodeLimit(data, DefaultMaxPixels)
}

// DecodeLimit decodes any registered format and applies the EXIF orientation
// tag so phone photos come out upright. The header is read first and images
// over maxPixels are rejected before any pixel buffer is allocated.
// A non-positive maxPixels disables the check.
func DecodeLimit(data []byte, maxPixels int) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode image: zero size %dx%d", b.Dx(), b.Dy())
	}
	return img, nil
}

// Format reports the registered format name of data without decoding pixels.
func Format(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image config: %w", err)
	}
	return format, nil
}

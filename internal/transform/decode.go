package transform

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const defaultMaxPixels = 50_000_000

// ErrImageTooLarge reports a source whose declared dimensions exceed the
// pixel limit. Nothing is decoded in that case.
var ErrImageTooLarge = errors.New("image dimensions exceed pixel limit")

// Decode parses encoded image bytes in any registered format. The header is
// read first and images above maxPixels are rejected before any pixel
// buffer is allocated; maxPixels <= 0 applies the default limit.
func Decode(data []byte, maxPixels int64) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("decode image: empty input")
	}
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, format, fmt.Errorf("decode image: empty %s image", format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, format, fmt.Errorf("%w: %dx%d %s is over %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, format, maxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, format, fmt.Errorf("decode image: empty %s image", format)
	}
	return img, format, nil
}

// decodeMessage is the item-facing summary for a Decode failure.
func decodeMessage(err error) string {
	if errors.Is(err, ErrImageTooLarge) {
		return "image is too large to process"
	}
	return "unsupported or corrupt image"
}

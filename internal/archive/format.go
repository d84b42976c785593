package archive

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
)

// Format is the raster encoding used for archive entries.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"

	defaultJPEGQuality = 92
)

// ParseFormat accepts png, jpeg, or jpg (case-insensitive). Empty means PNG.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", value)
	}
}

// Extension returns the canonical file extension without the dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}

// ContentType returns the MIME type for encoded images.
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Encode writes img to w. Quality applies to JPEG only; zero selects the default.
func (f Format) Encode(w io.Writer, img image.Image, quality int) error {
	if img == nil {
		return fmt.Errorf("no image data")
	}
	if b := img.Bounds(); b.Empty() {
		return fmt.Errorf("image has empty bounds %v", b)
	}
	switch f {
	case FormatJPEG:
		if quality <= 0 {
			quality = defaultJPEGQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatPNG, "":
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		return enc.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format %q", string(f))
	}
}

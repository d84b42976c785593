// Package filter classifies sampled frames by mean brightness so that
// near-black and near-white frames never reach the selection step.
package filter

import "image"

const (
	// DefaultMinBrightness rejects frames at or below this mean luma.
	DefaultMinBrightness = 10.0
	// DefaultMaxBrightness rejects frames at or above this mean luma.
	DefaultMaxBrightness = 245.0
	// StrideTolerance bounds the score drift of stride sampling against a
	// full-frame measurement on natural video content.
	StrideTolerance = 1.0
)

// Filter holds brightness thresholds on a 0-255 scale. Stride > 1 measures
// every Stride-th pixel in both directions.
type Filter struct {
	Min    float64
	Max    float64
	Stride int
}

// Default returns the filter used when no configuration is supplied.
func Default() Filter {
	return Filter{Min: DefaultMinBrightness, Max: DefaultMaxBrightness, Stride: 1}
}

// Classify reports whether img falls strictly inside (minBrightness,
// maxBrightness) and returns its full-frame mean luma.
func Classify(img image.Image, minBrightness, maxBrightness float64) (bool, float64) {
	return Filter{Min: minBrightness, Max: maxBrightness, Stride: 1}.Classify(img)
}

// Classify applies the filter thresholds to img.
func (f Filter) Classify(img image.Image) (bool, float64) {
	score := MeanLuma(img, f.Stride)
	return score > f.Min && score < f.Max, score
}

// MeanLuma returns the mean BT.601 luma of img on a 0-255 scale, reading every
// stride-th pixel along both axes. An empty image scores 0.
func MeanLuma(img image.Image, stride int) float64 {
	if img == nil {
		return 0
	}
	if stride < 1 {
		stride = 1
	}
	b := img.Bounds()
	if b.Empty() {
		return 0
	}

	var sum, count uint64
	switch src := img.(type) {
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y += stride {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x += stride {
				sum += uint64(row[x])
				count++
			}
		}
	case *image.YCbCr:
		for y := b.Min.Y; y < b.Max.Y; y += stride {
			for x := b.Min.X; x < b.Max.X; x += stride {
				sum += uint64(src.Y[src.YOffset(x, y)])
				count++
			}
		}
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y += stride {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x += stride {
				p := row[x*4 : x*4+3]
				sum += uint64(luma8(p[0], p[1], p[2]))
				count++
			}
		}
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y += stride {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x += stride {
				p := row[x*4 : x*4+3]
				sum += uint64(luma8(p[0], p[1], p[2]))
				count++
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y += stride {
			for x := b.Min.X; x < b.Max.X; x += stride {
				r, g, bl, _ := img.At(x, y).RGBA()
				sum += uint64(luma8(uint8(r>>8), uint8(g>>8), uint8(bl>>8)))
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// luma8 applies fixed-point BT.601 weights, matching color.GrayModel on 8-bit input.
func luma8(r, g, b uint8) uint8 {
	y := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
	return uint8(y)
}

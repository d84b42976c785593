package testsupport

import "image"

// SolidImage returns a w x h opaque image filled with the gray level value.
func SolidImage(w, h int, value uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = value, value, value, 0xff
	}
	return img
}

// GrayLevels returns n images whose gray levels come from levels, cycling
// when levels is shorter than n.
func GrayLevels(n, w, h int, levels ...uint8) []image.Image {
	if len(levels) == 0 {
		levels = []uint8{128}
	}
	out := make([]image.Image, n)
	for i := range out {
		out[i] = SolidImage(w, h, levels[i%len(levels)])
	}
	return out
}

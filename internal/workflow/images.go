package workflow

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"ytframes/internal/fileutil"
)

const thumbnailQuality = 80

func framePath(workDir string, index int) string {
	return filepath.Join(workDir, "frames", fmt.Sprintf("frame_%04d.png", index))
}

func thumbPath(workDir string, index int) string {
	return filepath.Join(workDir, "thumbs", fmt.Sprintf("thumb_%04d.jpg", index))
}

// writeFrame stores img losslessly so export can re-encode it in any format.
func writeFrame(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure frame directory: %w", err)
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return png.Encode(w, img)
	})
}

// writeThumbnail stores a JPEG no wider than width, preserving aspect ratio.
func writeThumbnail(path string, img image.Image, width int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure thumbnail directory: %w", err)
	}
	thumb := Thumbnail(img, width)
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return jpeg.Encode(w, thumb, &jpeg.Options{Quality: thumbnailQuality})
	})
}

// Thumbnail scales img down to width pixels wide. Images already narrower
// are returned unchanged.
func Thumbnail(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || b.Dx() <= width {
		return img
	}
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func loadFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

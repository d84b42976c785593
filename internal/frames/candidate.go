// Package frames defines the values that flow through the extraction
// pipeline: the probed video description and sampled candidates.
package frames

import (
	"fmt"
	"image"
	"time"
)

// VideoInfo describes a decodable video source. FrameCount and FrameRate are
// zero when the container does not report them.
type VideoInfo struct {
	Path       string
	FrameRate  float64
	FrameCount int64
	Width      int
	Height     int
	Duration   time.Duration
}

// Candidate is one sampled frame. Index counts sampled frames, not raw video
// frames, and increases monotonically in sampling order.
type Candidate struct {
	Index     int
	Timestamp float64
	Image     image.Image
	// Brightness is the mean luma on a 0-255 scale.
	Brightness float64
	Accepted   bool
}

// Bounds returns the candidate image dimensions, or zero when the image has
// been released.
func (c Candidate) Bounds() image.Rectangle {
	if c.Image == nil {
		return image.Rectangle{}
	}
	return c.Image.Bounds()
}

// TimestampLabel renders the timestamp as h:mm:ss.mmm for display.
func (c Candidate) TimestampLabel() string {
	return FormatTimestamp(c.Timestamp)
}

// FormatTimestamp renders seconds as h:mm:ss.mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	ms := int(d % time.Second / time.Millisecond)
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
}

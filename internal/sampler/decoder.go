package sampler

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"ytframes/internal/frames"
	"ytframes/internal/services"
)

// Frame is one decoded raw frame. Position counts raw frames from zero.
type Frame struct {
	Image    image.Image
	Position int64
}

// Decoder produces frames sequentially. Next returns io.EOF after the last
// frame.
type Decoder interface {
	Info() frames.VideoInfo
	Next() (Frame, error)
	Close() error
}

// Stepper is implemented by decoders that can skip frames themselves. The
// sampler calls SetStep once before the first Next; afterwards every returned
// Position is a multiple of step.
type Stepper interface {
	SetStep(step int)
}

// ErrConsumed is returned when a handle is sampled a second time.
var ErrConsumed = errors.New("video handle already sampled")

// DecodeError reports a failure to open or read the video stream.
type DecodeError struct {
	Path     string
	Op       string
	Position int64
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("decode %s: %s at frame %d: %v", e.Path, e.Op, e.Position, e.Err)
	}
	return fmt.Sprintf("decode %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches services.ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == services.ErrDecode }

// Handle gives the sampler exclusive, single-use ownership of a decoder.
type Handle struct {
	dec Decoder

	mu     sync.Mutex
	used   bool
	closed bool
	err    error
}

// NewHandle wraps dec.
func NewHandle(dec Decoder) *Handle {
	return &Handle{dec: dec}
}

// Info returns the decoder's video description.
func (h *Handle) Info() frames.VideoInfo {
	return h.dec.Info()
}

// Close releases the decoder. It is safe to call more than once.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return h.err
	}
	h.closed = true
	h.err = h.dec.Close()
	return h.err
}

// Closed reports whether the decoder has been released.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Handle) acquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.used || h.closed {
		return false
	}
	h.used = true
	return true
}

package testsupport

import (
	"errors"
	"image"
	"io"
	"sync"

	"ytframes/internal/frames"
	"ytframes/internal/sampler"
)

// FakeDecoder serves in-memory frames to the sampler. FailAt > 0 makes Next
// fail with FailErr when that raw position is reached.
type FakeDecoder struct {
	VideoInfo frames.VideoInfo
	Frames    []image.Image
	FailAt    int64
	FailErr   error
	// HonourStep makes the decoder implement frame skipping itself.
	HonourStep bool

	mu     sync.Mutex
	pos    int64
	step   int
	reads  int
	closed bool
}

// NewFakeHandle wraps a FakeDecoder in a sampler handle.
func NewFakeHandle(dec *FakeDecoder) *sampler.Handle {
	return sampler.NewHandle(dec)
}

func (d *FakeDecoder) Info() frames.VideoInfo { return d.VideoInfo }

func (d *FakeDecoder) SetStep(step int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.HonourStep {
		d.step = step
	}
}

func (d *FakeDecoder) Next() (sampler.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return sampler.Frame{}, errors.New("decoder closed")
	}
	if d.FailAt > 0 && d.pos >= d.FailAt {
		err := d.FailErr
		if err == nil {
			err = errors.New("corrupt packet")
		}
		return sampler.Frame{Position: d.pos}, err
	}
	if d.pos >= int64(len(d.Frames)) {
		return sampler.Frame{}, io.EOF
	}
	frame := sampler.Frame{Image: d.Frames[d.pos], Position: d.pos}
	d.reads++
	step := int64(1)
	if d.step > 1 {
		step = int64(d.step)
	}
	d.pos += step
	return frame, nil
}

func (d *FakeDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *FakeDecoder) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Reads returns the number of frames served.
func (d *FakeDecoder) Reads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}

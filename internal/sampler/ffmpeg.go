package sampler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
	"sync"

	"ytframes/internal/frames"
	"ytframes/internal/media/ffprobe"
)

// Options locate the tools and file for an ffmpeg-backed handle.
type Options struct {
	FFmpeg  string
	FFprobe string
	Path    string
}

// OpenFFmpeg probes path with ffprobe and returns a handle whose decoder
// streams rgb24 frames from an ffmpeg pipe. ffmpeg starts on the first read.
func OpenFFmpeg(ctx context.Context, opts Options) (*Handle, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, &DecodeError{Op: "open", Err: errors.New("empty video path")}
	}
	probe, err := ffprobe.Inspect(ctx, opts.FFprobe, path)
	if err != nil {
		return nil, &DecodeError{Path: path, Op: "probe", Err: err}
	}
	info, err := probe.VideoInfo(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Op: "probe", Err: err}
	}
	binary := strings.TrimSpace(opts.FFmpeg)
	if binary == "" {
		binary = "ffmpeg"
	}
	return NewHandle(newFFmpegDecoder(ctx, binary, info)), nil
}

type ffmpegDecoder struct {
	binary string
	info   frames.VideoInfo
	step   int

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  *tailBuffer
	raw     []byte
	next    int64
	done    bool
}

func newFFmpegDecoder(ctx context.Context, binary string, info frames.VideoInfo) *ffmpegDecoder {
	dctx, cancel := context.WithCancel(ctx)
	return &ffmpegDecoder{
		binary: binary,
		info:   info,
		step:   1,
		ctx:    dctx,
		cancel: cancel,
		stderr: &tailBuffer{limit: 4096},
	}
}

func (d *ffmpegDecoder) Info() frames.VideoInfo { return d.info }

func (d *ffmpegDecoder) SetStep(step int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started && step > 0 {
		d.step = step
	}
}

func (d *ffmpegDecoder) args() []string {
	args := []string{"-v", "error", "-nostdin", "-noautorotate", "-i", d.info.Path, "-map", "0:v:0"}
	if d.step > 1 {
		args = append(args, "-vf", fmt.Sprintf("select=not(mod(n\\,%d))", d.step), "-fps_mode", "passthrough")
	}
	return append(args, "-f", "rawvideo", "-pix_fmt", "rgb24", "-")
}

func (d *ffmpegDecoder) start() error {
	cmd := exec.CommandContext(d.ctx, d.binary, d.args()...)
	cmd.Stderr = d.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	d.cmd = cmd
	d.stdout = stdout
	d.raw = make([]byte, d.info.Width*d.info.Height*3)
	d.started = true
	return nil
}

func (d *ffmpegDecoder) Next() (Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return Frame{}, io.EOF
	}
	if !d.started {
		if err := d.start(); err != nil {
			d.done = true
			return Frame{}, &DecodeError{Path: d.info.Path, Op: "start ffmpeg", Err: err}
		}
	}

	pos := d.next
	_, err := io.ReadFull(d.stdout, d.raw)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		d.done = true
		if waitErr := d.wait(); waitErr != nil {
			return Frame{Position: pos}, &DecodeError{Path: d.info.Path, Op: "read", Position: pos, Err: waitErr}
		}
		return Frame{}, io.EOF
	default:
		d.done = true
		if waitErr := d.wait(); waitErr != nil {
			err = fmt.Errorf("%w (%v)", err, waitErr)
		}
		return Frame{Position: pos}, &DecodeError{Path: d.info.Path, Op: "read", Position: pos, Err: err}
	}

	d.next += int64(d.step)
	return Frame{Image: rgb24ToRGBA(d.raw, d.info.Width, d.info.Height), Position: pos}, nil
}

func (d *ffmpegDecoder) wait() error {
	if d.cmd == nil {
		return nil
	}
	err := d.cmd.Wait()
	d.cmd = nil
	if err == nil {
		return nil
	}
	if msg := strings.TrimSpace(d.stderr.String()); msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

func (d *ffmpegDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.done = true
	d.cancel()
	if d.cmd != nil {
		_ = d.stdout.Close()
		_ = d.cmd.Wait()
		d.cmd = nil
	}
	return nil
}

func rgb24ToRGBA(raw []byte, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i+2 < len(raw); i, j = i+3, j+4 {
		img.Pix[j] = raw[i]
		img.Pix[j+1] = raw[i+1]
		img.Pix[j+2] = raw[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

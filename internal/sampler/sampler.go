package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"

	"ytframes/internal/frames"
	"ytframes/internal/services"
)

// FrameSkip converts an interval into a raw frame step: floor(frameRate *
// intervalSeconds), never less than 1.
func FrameSkip(frameRate, intervalSeconds float64) int {
	if frameRate <= 0 || intervalSeconds <= 0 || math.IsNaN(frameRate) || math.IsNaN(intervalSeconds) {
		return 1
	}
	skip := math.Floor(frameRate * intervalSeconds)
	if skip < 1 {
		return 1
	}
	if skip > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(skip)
}

// Sample yields one candidate every intervalSeconds of video. When the
// decoder reports no frame rate every decoded frame is a candidate and
// timestamps advance by intervalSeconds. The handle is closed when the
// sequence ends for any reason.
func Sample(ctx context.Context, h *Handle, intervalSeconds float64) iter.Seq2[frames.Candidate, error] {
	return func(yield func(frames.Candidate, error) bool) {
		if intervalSeconds <= 0 || math.IsNaN(intervalSeconds) || math.IsInf(intervalSeconds, 0) {
			_ = h.Close()
			yield(frames.Candidate{}, services.Wrap(services.ErrValidation, "sampling", "interval",
				fmt.Sprintf("interval must be greater than 0, got %v", intervalSeconds), nil))
			return
		}
		fps := h.Info().FrameRate
		step := FrameSkip(fps, intervalSeconds)
		timestamp := func(pos int64, index int) float64 {
			if fps > 0 {
				return float64(pos) / fps
			}
			return float64(index) * intervalSeconds
		}
		run(ctx, h, step, timestamp, yield)
	}
}

// SampleEvery yields every step-th raw frame regardless of frame rate.
func SampleEvery(ctx context.Context, h *Handle, step int) iter.Seq2[frames.Candidate, error] {
	return func(yield func(frames.Candidate, error) bool) {
		if step < 1 {
			_ = h.Close()
			yield(frames.Candidate{}, services.Wrap(services.ErrValidation, "sampling", "frame step",
				fmt.Sprintf("frame step must be at least 1, got %d", step), nil))
			return
		}
		fps := h.Info().FrameRate
		timestamp := func(pos int64, _ int) float64 {
			if fps > 0 {
				return float64(pos) / fps
			}
			return 0
		}
		run(ctx, h, step, timestamp, yield)
	}
}

func run(ctx context.Context, h *Handle, step int, timestamp func(int64, int) float64, yield func(frames.Candidate, error) bool) {
	path := h.Info().Path
	if !h.acquire() {
		yield(frames.Candidate{}, &DecodeError{Path: path, Op: "open", Err: ErrConsumed})
		return
	}
	defer h.Close()

	if s, ok := h.dec.(Stepper); ok {
		s.SetStep(step)
	}

	index := 0
	decoded := 0
	for {
		if err := ctx.Err(); err != nil {
			yield(frames.Candidate{}, err)
			return
		}
		frame, err := h.dec.Next()
		if errors.Is(err, io.EOF) {
			if decoded == 0 {
				yield(frames.Candidate{}, &DecodeError{Path: path, Op: "read", Err: errors.New("no decodable frames")})
			}
			return
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(frames.Candidate{}, ctxErr)
				return
			}
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				err = &DecodeError{Path: path, Op: "read", Position: frame.Position, Err: err}
			}
			yield(frames.Candidate{}, err)
			return
		}
		decoded++
		if frame.Position%int64(step) != 0 {
			continue
		}
		c := frames.Candidate{
			Index:     index,
			Timestamp: timestamp(frame.Position, index),
			Image:     frame.Image,
		}
		index++
		if !yield(c, nil) {
			return
		}
	}
}

package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ytframes/internal/config"
	"ytframes/internal/download"
	"ytframes/internal/frames"
	"ytframes/internal/sampler"
	"ytframes/internal/workflow"
)

// StubResolver writes a placeholder video into the download dir.
func StubResolver() download.Resolver {
	return download.ResolverFunc(func(_ context.Context, url, dir string) (download.Video, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return download.Video{}, err
		}
		path := filepath.Join(dir, "stub.mp4")
		if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
			return download.Video{}, err
		}
		return download.Video{Path: path, Title: "Stub Video", ID: "stub", Duration: 30}, nil
	})
}

// NewFakeDecoderFor returns a decoder serving n mid-gray frames at fps.
func NewFakeDecoderFor(n int, fps float64) *FakeDecoder {
	return &FakeDecoder{
		VideoInfo: frames.VideoInfo{FrameRate: fps, Width: 8, Height: 6, Duration: time.Duration(float64(n) / fps * float64(time.Second))},
		Frames:    GrayLevels(n, 8, 6, 128),
	}
}

// NewPipeline builds a pipeline over a fresh store that downloads with
// StubResolver and decodes every session with a copy of dec's frames.
func NewPipeline(t testing.TB, cfg *config.Config, dec *FakeDecoder, opts ...workflow.Option) *workflow.Pipeline {
	t.Helper()
	store := MustOpenStore(t, cfg)
	opener := func(_ context.Context, path string) (*sampler.Handle, error) {
		fresh := &FakeDecoder{
			VideoInfo:  dec.VideoInfo,
			Frames:     dec.Frames,
			FailAt:     dec.FailAt,
			FailErr:    dec.FailErr,
			HonourStep: dec.HonourStep,
		}
		fresh.VideoInfo.Path = path
		return NewFakeHandle(fresh), nil
	}
	base := []workflow.Option{
		workflow.WithResolver(StubResolver()),
		workflow.WithOpener(opener),
	}
	p := workflow.New(cfg, store, nil, append(base, opts...)...)
	t.Cleanup(p.Wait)
	return p
}

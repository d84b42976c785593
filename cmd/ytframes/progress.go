package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"ytframes/internal/workflow"
)

// sampleReporter renders sampling progress as a bar on a terminal, or as a
// single summary line otherwise.
type sampleReporter struct {
	mu       sync.Mutex
	out      io.Writer
	bar      *progressbar.ProgressBar
	tty      bool
	best     int64
	last     workflow.Progress
	reported bool
}

func newSampleReporter(out io.Writer, tty bool) *sampleReporter {
	return &sampleReporter{out: out, tty: tty}
}

func (r *sampleReporter) start(url string, colorize bool) {
	header := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(r.out, paint(header, "EXTRACT", colorize))
	fmt.Fprintf(r.out, "  Source: %s\n", url)
	if !r.tty {
		return
	}
	r.bar = progressbar.NewOptions64(
		100,
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Sampling [",
			BarEnd:        "]",
		}),
	)
}

// update is a workflow.ProgressFunc.
func (r *sampleReporter) update(p workflow.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = p
	r.reported = true
	if r.bar == nil {
		return
	}
	if frac := p.Fraction(); frac >= 0 {
		if pct := int64(frac * 100); pct >= r.best {
			r.best = pct
			_ = r.bar.Set64(pct)
		}
	}
	r.bar.Describe(fmt.Sprintf("%d sampled, %d kept, %d dark/bright", p.Sampled, p.Accepted, p.Rejected))
}

func (r *sampleReporter) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
	if r.reported {
		fmt.Fprintf(r.out, "  Sampled %d frames: %d kept, %d rejected by brightness\n",
			r.last.Sampled, r.last.Accepted, r.last.Rejected)
	}
}

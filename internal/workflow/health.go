package workflow

import (
	"context"
	"fmt"
	"os"
)

// StageHealth is the readiness of one pipeline collaborator.
type StageHealth struct {
	Name   string
	Ready  bool
	Detail string
}

// Health reports whether the session store, the staging directory, and the
// optional uploader are usable. The uploader only appears when configured.
func (p *Pipeline) Health(ctx context.Context) []StageHealth {
	out := make([]StageHealth, 0, 3)

	store := StageHealth{Name: "store", Ready: true}
	if summary, err := p.store.Health(ctx); err != nil {
		store = StageHealth{Name: "store", Detail: err.Error()}
	} else if summary.Working > 0 {
		store.Detail = fmt.Sprintf("%d sessions running", summary.Working)
	}
	out = append(out, store)

	staging := StageHealth{Name: "staging", Ready: true}
	if info, err := os.Stat(p.cfg.Paths.StagingDir); err != nil {
		staging = StageHealth{Name: "staging", Detail: err.Error()}
	} else if !info.IsDir() {
		staging = StageHealth{Name: "staging", Detail: p.cfg.Paths.StagingDir + " is not a directory"}
	}
	out = append(out, staging)

	if p.uploader != nil {
		out = append(out, StageHealth{Name: "upload", Ready: true})
	}
	return out
}

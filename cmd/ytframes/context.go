package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"ytframes/internal/config"
	"ytframes/internal/logging"
	"ytframes/internal/metrics"
	"ytframes/internal/session"
	"ytframes/internal/storage"
	"ytframes/internal/workflow"
)

type commandContext struct {
	configFlag string
	jsonOutput bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runtime bundles the collaborators a command needs to drive the pipeline.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *session.Store
	metrics  *metrics.Metrics
	pipeline *workflow.Pipeline
}

func (r *runtime) close() error {
	r.pipeline.Wait()
	return r.store.Close()
}

// resolve looks up a session by full id or unique prefix.
func (r *runtime) resolve(ctx context.Context, idOrPrefix string) (*session.Session, error) {
	return r.store.Resolve(ctx, strings.TrimSpace(idOrPrefix))
}

// withRuntime opens the store and pipeline for the duration of fn. Interactive
// commands log to the log file only so stderr stays free for progress output;
// serve passes console=true to also log to stderr.
func (c *commandContext) withRuntime(console bool, fn func(*runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.newLogger(cfg, console)
	if err != nil {
		return err
	}
	store, err := session.Open(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	m := metrics.New()
	opts := []workflow.Option{workflow.WithMetrics(m)}
	uploader, err := storage.New(cfg.Storage)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("configure storage: %w", err)
	}
	if uploader != nil {
		opts = append(opts, workflow.WithUploader(uploader))
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		metrics:  m,
		pipeline: workflow.New(cfg, store, logger, opts...),
	}
	runErr := fn(rt)
	if closeErr := rt.close(); closeErr != nil && runErr == nil {
		runErr = fmt.Errorf("close session store: %w", closeErr)
	}
	return runErr
}

func (c *commandContext) newLogger(cfg *config.Config, console bool) (*slog.Logger, error) {
	if console {
		return logging.NewFromConfig(cfg)
	}
	dir := strings.TrimSpace(cfg.Paths.LogDir)
	if dir == "" {
		return logging.NewNop(), nil
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      "json",
		OutputPaths: []string{filepath.Join(dir, logging.LogFileName)},
	})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// isCanceled reports whether err comes from an interrupted command.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"ytframes/internal/api"
	"ytframes/internal/config"
	"ytframes/internal/logging"
	"ytframes/internal/metrics"
	"ytframes/internal/preflight"
	"ytframes/internal/session"
	"ytframes/internal/staging"
	"ytframes/internal/workflow"
)

// staleWorkDirAge is how long finished or failed sessions keep their frames.
const staleWorkDirAge = 7 * 24 * time.Hour

// restartReason is recorded on sessions a previous process left mid-run.
const restartReason = "interrupted by a restart of ytframes serve"

// ErrAlreadyRunning is returned when another serve process holds the lock.
var ErrAlreadyRunning = errors.New("another ytframes serve instance is already running")

// Daemon coordinates the API server and background sessions and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *workflow.Pipeline
	metrics  *metrics.Metrics

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, pipeline *workflow.Pipeline, logger *slog.Logger, m *metrics.Metrics) (*Daemon, error) {
	if cfg == nil || pipeline == nil {
		return nil, errors.New("daemon requires config and pipeline")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		pipeline: pipeline,
		metrics:  m,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the lock, recovers interrupted sessions, and starts the API
// server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.recover(d.ctx)
	d.checkReadiness(d.ctx)

	srv, err := newAPIServer(d.cfg, d, d.logger)
	if err == nil {
		err = srv.start(d.ctx)
	}
	if err != nil {
		d.cancel()
		_ = d.lock.Unlock()
		d.ctx, d.cancel = nil, nil
		return err
	}
	d.api = srv

	d.running.Store(true)
	d.logger.Info("ytframes serve started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("address", d.Addr()),
	)
	return nil
}

// Stop shuts down the API server, waits for running sessions, and releases
// the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pipeline.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.api = nil
	d.running.Store(false)
	d.logger.Info("ytframes serve stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.pipeline.Store().Close()
}

// Addr returns the address the API server listens on, or "" when stopped.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StorePath:    d.pipeline.Store().Path(),
		LockFilePath: d.lockPath,
		Counts:       map[string]int{},
		Stages:       api.FromStageHealth(d.pipeline.Health(ctx)),
	}
	if stats, err := d.pipeline.Store().Stats(ctx); err == nil {
		for st, n := range stats {
			status.Counts[string(st)] = n
		}
	}
	for _, dep := range preflight.CheckSystemDeps(ctx, d.cfg) {
		status.Dependencies = append(status.Dependencies, api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return status
}

// recover fails sessions a previous process left mid-run and sweeps work
// directories that no longer belong to a selectable session.
func (d *Daemon) recover(ctx context.Context) {
	store := d.pipeline.Store()
	if n, err := store.FailWorking(ctx, restartReason); err != nil {
		d.logger.Warn("failed to recover interrupted sessions", logging.Error(err))
	} else if n > 0 {
		logging.WarnWithContext(d.logger, "interrupted sessions marked failed", "session_recovery",
			logging.Int64("count", n),
			logging.String(logging.FieldImpact, "those sessions must be started again"),
		)
	}

	sessions, err := store.List(ctx)
	if err != nil {
		d.logger.Warn("staging cleanup skipped", logging.Error(err))
		return
	}
	known := make(map[string]struct{}, len(sessions))
	var keep []string
	for _, sess := range sessions {
		known[sess.ID] = struct{}{}
		if sess.Status == session.StatusAwaitingSelection {
			keep = append(keep, sess.ID)
		}
	}
	staging.CleanOrphaned(ctx, d.cfg.Paths.StagingDir, known, d.logger)
	staging.CleanStale(ctx, d.cfg.Paths.StagingDir, staleWorkDirAge, d.logger, keep...)
}

func (d *Daemon) checkReadiness(ctx context.Context) {
	for _, r := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldImpact, "sessions may fail until this is fixed"),
		)
	}
	for _, dep := range preflight.CheckSystemDeps(ctx, d.cfg) {
		if dep.Available || dep.Optional {
			continue
		}
		logging.WarnWithContext(d.logger, "dependency missing", "dependency_missing",
			logging.String("dependency", dep.Name),
			logging.String("detail", dep.Detail),
			logging.String(logging.FieldErrorHint, "install it or set its binary path in the config"),
			logging.String(logging.FieldImpact, dep.Description),
		)
	}
}

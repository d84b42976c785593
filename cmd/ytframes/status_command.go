package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"ytframes/internal/config"
	"ytframes/internal/deps"
	"ytframes/internal/preflight"
	"ytframes/internal/session"
	"ytframes/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dependencies, directories, and session counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(false, func(rt *runtime) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				runCtx := cmd.Context()

				writeSection(out, "System", colorize)
				fmt.Fprintln(out, serveStatusLine(rt.cfg, colorize))
				writeLines(out, dependencyLines(preflight.CheckSystemDeps(runCtx, rt.cfg), colorize))

				writeSection(out, "Directories", colorize)
				for _, r := range preflight.RunAll(runCtx, rt.cfg) {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
				fmt.Fprintln(out, stagingUsageLine(rt.cfg, colorize))

				writeSection(out, "Sessions", colorize)
				return writeSessionCounts(runCtx, out, rt.store, colorize)
			})
		},
	}
}

func writeSection(out io.Writer, title string, colorize bool) {
	fmt.Fprintln(out)
	writeLines(out, renderSectionHeader(title, colorize))
}

// serveStatusLine reports whether a serve process holds the state lock.
func serveStatusLine(cfg *config.Config, colorize bool) string {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return renderStatusLine("Server", statusWarn, err.Error(), colorize)
	}
	if !ok {
		return renderStatusLine("Server", statusOK, "Running ("+cfg.Paths.APIBind+")", colorize)
	}
	_ = lock.Unlock()
	return renderStatusLine("Server", statusInfo, "Not running", colorize)
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	missing := deps.Missing(statuses)
	lines := make([]string, 0, len(statuses)+2)
	available := 0
	for _, dep := range statuses {
		if dep.Available {
			available++
		}
	}
	kind := statusOK
	if len(missing) > 0 {
		kind = statusError
	}
	lines = append(lines, renderStatusLine("Dependencies", kind, fmt.Sprintf("%d of %d available", available, len(statuses)), colorize))
	for _, dep := range statuses {
		switch {
		case dep.Available:
			detail := "Ready"
			if dep.Version != "" {
				detail = dep.Version
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, detail, colorize))
		case dep.Optional:
			lines = append(lines, renderStatusLine(dep.Name, statusWarn, dep.Detail, colorize))
		default:
			lines = append(lines, renderStatusLine(dep.Name, statusError, dep.Detail, colorize))
		}
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, dep := range missing {
			names = append(names, dep.Command)
		}
		lines = append(lines, fmt.Sprintf("%sMissing dependencies: %s", statusIndent, strings.Join(names, ", ")))
	}
	return lines
}

func stagingUsageLine(cfg *config.Config, colorize bool) string {
	dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
	if err != nil {
		return renderStatusLine("Staging usage", statusWarn, err.Error(), colorize)
	}
	msg := fmt.Sprintf("%d work directories, %s", len(dirs), humanize.IBytes(uint64(staging.TotalSize(dirs))))
	return renderStatusLine("Staging usage", statusInfo, msg, colorize)
}

func writeSessionCounts(ctx context.Context, out io.Writer, store *session.Store, colorize bool) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	for _, status := range session.AllStatuses() {
		n := stats[status]
		if n == 0 {
			continue
		}
		kind := statusInfo
		switch status {
		case session.StatusFailed:
			kind = statusWarn
		case session.StatusDone:
			kind = statusOK
		}
		fmt.Fprintln(out, renderStatusLine(status.Label(), kind, humanize.Comma(int64(n)), colorize))
	}
	health, err := store.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderStatusLine("Total", statusInfo, humanize.Comma(int64(health.Total)), colorize))
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ytframes/internal/api"
	"ytframes/internal/session"
	"ytframes/internal/workflow"
)

type extractFlags struct {
	triggerWord string
	dataset     string
	interval    float64
	frameStep   int
	selectAll   bool
	indices     []int
	export      bool
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var flags extractFlags
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Download a video and sample candidate frames",
		Long: "Download the video at <url>, sample a frame every --interval seconds, and keep the frames whose mean luma lies strictly between the configured bounds.\n\n" +
			"The session then awaits selection. Pick frames with --select or --select-all and pass --export to write the dataset archive in one go, or use the session commands afterwards.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(false, func(rt *runtime) error {
				return runExtract(cmd, ctx, rt, args[0], flags)
			})
		},
	}
	cmd.Flags().StringVarP(&flags.triggerWord, "trigger-word", "t", "", "Prefix for archive entry names")
	cmd.Flags().StringVarP(&flags.dataset, "dataset", "d", "", "Dataset name used for the archive file")
	cmd.Flags().Float64VarP(&flags.interval, "interval", "i", 0, "Seconds between sampled frames")
	cmd.Flags().IntVar(&flags.frameStep, "frame-step", 0, "Sample every N decoded frames instead of by interval")
	cmd.Flags().BoolVar(&flags.selectAll, "select-all", false, "Select every kept frame")
	cmd.Flags().IntSliceVarP(&flags.indices, "select", "s", nil, "Candidate indices to select (comma separated)")
	cmd.Flags().BoolVar(&flags.export, "export", false, "Build the dataset archive after selecting")
	cmd.MarkFlagsMutuallyExclusive("select-all", "select")
	cmd.MarkFlagsMutuallyExclusive("interval", "frame-step")
	return cmd
}

func runExtract(cmd *cobra.Command, cc *commandContext, rt *runtime, url string, flags extractFlags) error {
	runCtx := cmd.Context()
	stderr := cmd.ErrOrStderr()
	reporter := newSampleReporter(stderr, shouldColorize(stderr))
	if !cc.jsonOutput {
		reporter.start(url, shouldColorize(stderr))
	}

	sess, err := rt.pipeline.Start(runCtx, url, workflow.StartOptions{
		TriggerWord:     flags.triggerWord,
		DatasetName:     flags.dataset,
		IntervalSeconds: flags.interval,
		FrameStep:       flags.frameStep,
		Progress:        reporter.update,
	})
	reporter.finish()
	if err != nil {
		if sess != nil && !isCanceled(err) {
			return fmt.Errorf("session %s: %w", shortID(sess.ID), err)
		}
		return err
	}

	if err := applySelection(runCtx, rt, sess.ID, flags); err != nil {
		return err
	}
	if flags.export {
		if _, err := rt.pipeline.Export(runCtx, sess.ID); err != nil {
			return fmt.Errorf("export session %s: %w", shortID(sess.ID), err)
		}
	}
	return printCandidates(cmd, cc, rt, sess.ID)
}

// applySelection replaces the selection of id with the requested indices.
func applySelection(ctx context.Context, rt *runtime, id string, flags extractFlags) error {
	switch {
	case flags.selectAll:
		_, err := rt.pipeline.SelectAll(ctx, id)
		return err
	case len(flags.indices) > 0:
		_, err := rt.pipeline.SelectOnly(ctx, id, flags.indices)
		return err
	}
	return nil
}

// printCandidates renders a session and its candidate grid.
func printCandidates(cmd *cobra.Command, cc *commandContext, rt *runtime, id string) error {
	sess, rows, err := rt.pipeline.Candidates(cmd.Context(), id)
	if err != nil {
		return err
	}
	if cc.jsonOutput {
		return writeJSON(cmd, api.CandidatesResponse{
			Session:    api.FromSession(sess),
			Candidates: api.FromFrames(sess.ID, rows),
		})
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	writeSessionDetail(out, sess, colorize)
	if len(rows) > 0 {
		fmt.Fprintln(out, renderCandidateTable(rows))
	}
	switch sess.Status {
	case session.StatusAwaitingSelection:
		fmt.Fprintf(out, "Select frames with `ytframes session toggle %s <index>...` and export with `ytframes session export %s`\n", shortID(sess.ID), shortID(sess.ID))
	case session.StatusDone:
		if size := archiveSize(sess.ArchivePath); size != "" {
			fmt.Fprintln(out, renderStatusLine("Dataset", statusOK, fmt.Sprintf("%s (%s)", sess.ArchivePath, size), colorize))
		}
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ytframes/internal/logs"
)

func newSessionLogCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow, raw bool
	cmd := &cobra.Command{
		Use:   "log <id>",
		Short: "Print the log of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(false, func(rt *runtime) error {
				sess, err := rt.resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				path := rt.pipeline.LogPath(sess.ID)
				if path == "" {
					return errors.New("session logs are disabled (log_dir is empty)")
				}
				out := cmd.OutOrStdout()
				emit := func(batch []string) error {
					return printLogLines(out, batch, raw)
				}
				chunk, err := logs.Last(path, lines)
				if err != nil {
					return err
				}
				if err := emit(chunk.Lines); err != nil {
					return err
				}
				if !follow {
					return nil
				}
				return logs.Follow(cmd.Context(), path, chunk.Offset, logs.DefaultPoll, emit)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON records unformatted")
	return cmd
}

func printLogLines(out io.Writer, lines []string, raw bool) error {
	for _, line := range lines {
		if !raw {
			line = logs.Format(line)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

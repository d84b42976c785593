package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ytframes/internal/api"
	"ytframes/internal/session"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Review, select, and export extraction sessions",
	}
	cmd.AddCommand(newSessionListCommand(ctx))
	cmd.AddCommand(newSessionShowCommand(ctx))
	cmd.AddCommand(newSessionToggleCommand(ctx))
	cmd.AddCommand(newSessionSelectAllCommand(ctx))
	cmd.AddCommand(newSessionClearCommand(ctx))
	cmd.AddCommand(newSessionExportCommand(ctx))
	cmd.AddCommand(newSessionRemoveCommand(ctx))
	cmd.AddCommand(newSessionLogCommand(ctx))
	return cmd
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter []string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sessions, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]session.Status, 0, len(statusFilter))
			for _, raw := range statusFilter {
				status, err := session.ParseStatus(raw)
				if err != nil {
					return err
				}
				statuses = append(statuses, status)
			}
			return ctx.withRuntime(false, func(rt *runtime) error {
				sessions, err := rt.store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if ctx.jsonOutput {
					return writeJSON(cmd, api.SessionListResponse{Sessions: api.FromSessions(sessions)})
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSessionTable(sessions))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statusFilter, "status", nil, "Only list sessions with these statuses")
	return cmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session and its candidate frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(false, func(rt *runtime) error {
				sess, err := rt.resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printCandidates(cmd, ctx, rt, sess.ID)
			})
		},
	}
}

func newSessionToggleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id> <index>...",
		Short: "Flip the selection of candidate frames",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(args[1:])
			if err != nil {
				return err
			}
			return ctx.withRuntime(false, func(rt *runtime) error {
				sess, err := rt.resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				results := make([]api.ToggleResponse, 0, len(indices))
				for _, idx := range indices {
					selected, err := rt.pipeline.Toggle(cmd.Context(), sess.ID, idx)
					if err != nil {
						return err
					}
					results = append(results, api.ToggleResponse{Index: idx, Selected: selected})
				}
				if ctx.jsonOutput {
					return writeJSON(cmd, results)
				}
				for _, r := range results {
					state := "deselected"
					if r.Selected {
						state = "selected"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Candidate %d %s\n", r.Index, state)
				}
				return printSelection(cmd, rt, sess.ID, false)
			})
		},
	}
}

func newSessionSelectAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select-all <id>",
		Short: "Select every candidate frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(false, func(rt *runtime) error {
				sess, err := rt.resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if _, err := rt.pipeline.SelectAll(cmd.Context(), sess.ID); err != nil {
					return err
				}
				return printSelection(cmd, rt, sess.ID, ctx.jsonOutput)
			})
		},
	}
}

func newSessionClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <id>",
		Short: "Deselect every candidate frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(false, func(rt *runtime) error {
				sess, err := rt.resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := rt.pipeline.ClearAll(cmd.Context(), sess.ID); err != nil {
					return err
				}
				return printSelection(cmd, rt, sess.ID, ctx.jsonOutput)
			})
		},
	}
}

func newSessionExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id>",
		Short: "Build the dataset archive from the selected frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(false, func(rt *runtime) error {
				sess, err := rt.resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				done, err := rt.pipeline.Export(cmd.Context(), sess.ID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput {
					return writeJSON(cmd, api.SessionResponse{Session: api.FromSession(done)})
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				msg := done.ArchivePath
				if size := archiveSize(done.ArchivePath); size != "" {
					msg = fmt.Sprintf("%s (%s)", done.ArchivePath, size)
				}
				fmt.Fprintln(out, renderStatusLine("Dataset", statusOK, msg, colorize))
				if done.ArchiveURL != "" {
					fmt.Fprintln(out, renderStatusLine("Uploaded", statusOK, done.ArchiveURL, colorize))
				}
				if done.Warning != "" {
					fmt.Fprintln(out, renderStatusLine("Warning", statusWarn, done.Warning, colorize))
				}
				return nil
			})
		},
	}
}

func newSessionRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Delete sessions and their sampled frames",
		Long:    "Delete sessions together with their work directory and log. Exported archives are kept.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(false, func(rt *runtime) error {
				for _, arg := range args {
					sess, err := rt.resolve(cmd.Context(), arg)
					if err != nil {
						return err
					}
					if err := rt.pipeline.Delete(cmd.Context(), sess.ID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed session %s\n", shortID(sess.ID))
				}
				return nil
			})
		},
	}
}

// printSelection reports the selected indices of a session.
func printSelection(cmd *cobra.Command, rt *runtime, id string, asJSON bool) error {
	set, err := rt.pipeline.Selection(cmd.Context(), id)
	if err != nil {
		return err
	}
	resp := api.SelectionResponse{Selected: set.SelectedIndices(), Count: set.SelectedCount(), Total: set.Len()}
	if asJSON {
		return writeJSON(cmd, resp)
	}
	parts := make([]string, len(resp.Selected))
	for i, idx := range resp.Selected {
		parts[i] = strconv.Itoa(idx)
	}
	list := strings.Join(parts, ", ")
	if list == "" {
		list = "none"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Selected %d of %d: %s\n", resp.Count, resp.Total, list)
	return nil
}

func parseIndices(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			idx, err := strconv.Atoi(field)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("invalid candidate index %q", field)
			}
			out = append(out, idx)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no candidate indices given")
	}
	return out, nil
}

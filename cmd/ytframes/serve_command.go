package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytframes/internal/daemon"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for browsing and selecting frames",
		Long:  "Serve the session API on the configured api_bind address until interrupted. Only one serve process may use a state directory at a time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.Paths.APIBind = bind
			}
			return ctx.withRuntime(true, func(rt *runtime) error {
				d, err := daemon.New(rt.cfg, rt.pipeline, rt.logger, rt.metrics)
				if err != nil {
					return err
				}
				runCtx := cmd.Context()
				if err := d.Start(runCtx); err != nil {
					return err
				}
				defer d.Stop()
				fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", d.Addr())
				<-runCtx.Done()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override the api_bind address")
	return cmd
}

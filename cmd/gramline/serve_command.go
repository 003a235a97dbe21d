package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gramline/internal/dashboard"
	"gramline/internal/library"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		Long:  "Serves the dashboard UI and API: per-month stats, manual post triggers, and content uploads.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			release, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer release()

			runner, ledger, cleanup, err := buildRunner(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			lib := library.New(cfg.Paths.ContentDir, cfg.Workflow.ImageExtensions)
			srv, err := dashboard.New(cfg, lib, ledger, runner, logger)
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			if err := srv.Start(runCtx); err != nil {
				return err
			}
			defer srv.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard listening on http://%s (Ctrl-C to stop)\n", srv.Addr())
			<-runCtx.Done()
			return nil
		},
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gramline/internal/dashboard"
	"gramline/internal/library"
	"gramline/internal/scheduler"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var withDashboard bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the daily posting scheduler",
		Long:  "Blocks and fires a posting run every day at the configured time. Optionally serves the dashboard alongside.",
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

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			if withDashboard {
				lib := library.New(cfg.Paths.ContentDir, cfg.Workflow.ImageExtensions)
				srv, err := dashboard.New(cfg, lib, ledger, runner, logger)
				if err != nil {
					return err
				}
				if err := srv.Start(runCtx); err != nil {
					return err
				}
				defer srv.Stop()
				fmt.Fprintf(cmd.OutOrStdout(), "Dashboard listening on http://%s\n", srv.Addr())
			}

			sched := scheduler.New(cfg, runner, logger)
			next := sched.Next(time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduler running; next post at %s (Ctrl-C to stop)\n", next.Format(time.RFC822))

			if err := sched.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withDashboard, "dashboard", false, "Also serve the dashboard while the scheduler runs")
	return cmd
}

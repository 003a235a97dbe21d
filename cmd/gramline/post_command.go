package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gramline/internal/workflow"
)

func newPostCommand(ctx *commandContext) *cobra.Command {
	var monthFlag int
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish pending monthly content",
		Long:  "Publishes one post per unposted monthly folder, in ascending month order. Use --month to target a single month.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if monthFlag < 0 || monthFlag > 12 {
				return fmt.Errorf("--month must be between 1 and 12, got %d", monthFlag)
			}

			release, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer release()

			runner, _, cleanup, err := buildRunner(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			report, err := runner.Run(runCtx, workflow.RunOptions{Month: monthFlag, Force: forceFlag})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(report.Results))
			for _, result := range report.Results {
				detail := result.Image
				if result.Err != nil {
					detail = result.Err.Error()
				}
				rows = append(rows, []string{
					strconv.Itoa(result.Month),
					string(result.Outcome),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Month", "Outcome", "Detail"}, rows))
			fmt.Fprintf(out, "Published %d, skipped %d, failed %d\n",
				report.Published(), report.Skipped(), report.Failed())

			if report.Failed() > 0 {
				return fmt.Errorf("%d month(s) failed to publish", report.Failed())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&monthFlag, "month", "m", 0, "Post only the given month (1-12)")
	cmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Post even if the month is already marked as posted")
	return cmd
}

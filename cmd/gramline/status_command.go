package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gramline/internal/history"
	"gramline/internal/library"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-month content and posting status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lib := library.New(cfg.Paths.ContentDir, cfg.Workflow.ImageExtensions)
			months, err := lib.Scan()
			if err != nil {
				return err
			}

			ledger, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer ledger.Close()

			out := cmd.OutOrStdout()
			if len(months) == 0 {
				fmt.Fprintf(out, "No monthly folders found under %s. Run `gramline init-sample` to scaffold them.\n", cfg.Paths.ContentDir)
				return nil
			}

			rows := make([][]string, 0, len(months))
			posted := 0
			for _, month := range months {
				images, _ := month.ImageFiles()
				captions, _ := month.CaptionFiles()

				state := "pending"
				lastPost := "-"
				if month.Posted() {
					posted++
					state = "posted"
					if at, err := month.ReadMarker(); err == nil {
						lastPost = at.Local().Format(time.RFC822)
					}
				}
				if last, err := ledger.LastPostForMonth(cmd.Context(), month.Number); err == nil && last != nil {
					lastPost = last.PostedAt.Local().Format(time.RFC822)
				}

				rows = append(rows, []string{
					strconv.Itoa(month.Number),
					month.Name(),
					strconv.Itoa(len(images)),
					strconv.Itoa(len(captions)),
					state,
					lastPost,
				})
			}

			fmt.Fprintln(out, renderTable([]string{"#", "Month", "Images", "Captions", "State", "Last Post"}, rows))
			fmt.Fprintf(out, "%d of %d months posted\n", posted, len(months))
			return nil
		},
	}
}

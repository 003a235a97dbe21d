package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

func newInitSampleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init-sample",
		Short: "Create a sample monthly folder structure",
		Long:  "Creates folders 1 through 12 under the content directory, each seeded with sample caption files. Add your images to the monthly folders afterwards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for month := 1; month <= 12; month++ {
				monthDir := filepath.Join(cfg.Paths.ContentDir, strconv.Itoa(month))
				if err := os.MkdirAll(monthDir, 0o755); err != nil {
					return fmt.Errorf("create month directory %s: %w", monthDir, err)
				}

				samples := map[string]string{
					"post1.txt": fmt.Sprintf("This is sample content for month %d! 🌟", month),
					"post2.txt": fmt.Sprintf("Another great post for month %d! ✨", month),
				}
				for name, content := range samples {
					path := filepath.Join(monthDir, name)
					if _, err := os.Stat(path); err == nil {
						continue
					}
					if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
						return fmt.Errorf("write sample caption %s: %w", path, err)
					}
				}
				fmt.Fprintf(out, "Created sample structure for month %d\n", month)
			}

			fmt.Fprintf(out, "Sample folder structure created under %s. Add your images to the monthly folders!\n", cfg.Paths.ContentDir)
			return nil
		},
	}
}

package caption

import (
	"log/slog"
	"os"
	"strings"

	"gramline/internal/logging"
)

// Assemble reads every caption file and joins the surviving contents with a
// single blank line, in the order provided. A per-file read failure is logged
// and the file skipped; a partial caption beats an aborted month. The final
// result is trimmed of leading and trailing whitespace.
func Assemble(logger *slog.Logger, files []string) string {
	if logger == nil {
		logger = logging.NewNop()
	}

	parts := make([]string, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("skipping unreadable caption file",
				logging.String("file", file),
				logging.Error(err),
			)
			continue
		}
		parts = append(parts, strings.TrimSpace(string(data)))
	}

	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SeedMonth creates a month directory under baseDir with the given caption
// texts (post1.txt, post2.txt, ...) and image file names (written with stub
// bytes). It returns the month directory path.
func SeedMonth(t testing.TB, baseDir string, month int, captions []string, images []string) string {
	t.Helper()

	dir := filepath.Join(baseDir, strconv.Itoa(month))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir month dir: %v", err)
	}
	for i, text := range captions {
		WriteFile(t, filepath.Join(dir, "post"+strconv.Itoa(i+1)+".txt"), text)
	}
	for _, name := range images {
		WriteFile(t, filepath.Join(dir, name), "\xff\xd8\xff\xe0 stub image bytes")
	}
	return dir
}

// MarkPosted drops a marker file into the month directory with the given
// timestamp, mirroring a successful earlier publish.
func MarkPosted(t testing.TB, monthDir string, at time.Time) {
	t.Helper()
	WriteFile(t, filepath.Join(monthDir, ".posted"), at.UTC().Format(time.RFC3339))
}

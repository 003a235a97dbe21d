package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gramline/internal/services"
)

// MarkerName is the sentinel file recording a successful publish. Its
// presence is the only fact the idempotency check consults; its content is
// the RFC 3339 timestamp of the last successful publish.
const MarkerName = ".posted"

// CaptionSuffix is the required extension for caption source files.
const CaptionSuffix = ".txt"

// Month is one monthly content folder.
type Month struct {
	Number int
	Dir    string

	imageExtensions []string
}

// Library locates monthly content folders under a base directory.
type Library struct {
	baseDir         string
	imageExtensions []string
}

// New builds a Library rooted at baseDir. imageExtensions is the allow-list
// of image file suffixes (lowercase, dot-prefixed); when empty the workflow
// default of .jpg/.jpeg/.png is used.
func New(baseDir string, imageExtensions []string) *Library {
	if len(imageExtensions) == 0 {
		imageExtensions = []string{".jpg", ".jpeg", ".png"}
	}
	return &Library{baseDir: baseDir, imageExtensions: imageExtensions}
}

// BaseDir returns the content root the library scans.
func (l *Library) BaseDir() string {
	return l.baseDir
}

// Scan returns every month folder sorted ascending by number. A month folder
// with no usable files is still returned; emptiness is the workflow's
// concern, not the locator's.
func (l *Library) Scan() ([]Month, error) {
	entries, err := os.ReadDir(l.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "library", "scan", fmt.Sprintf("content directory %s does not exist", l.baseDir), nil)
		}
		return nil, fmt.Errorf("read content directory: %w", err)
	}

	months := make([]Month, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		number, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		months = append(months, Month{
			Number:          number,
			Dir:             filepath.Join(l.baseDir, entry.Name()),
			imageExtensions: l.imageExtensions,
		})
	}

	sort.Slice(months, func(i, j int) bool { return months[i].Number < months[j].Number })
	return months, nil
}

// Resolve returns the single month with the given name. The name must parse
// as an integer and the directory must exist.
func (l *Library) Resolve(name string) (Month, error) {
	number, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil {
		return Month{}, services.Wrap(services.ErrNotFound, "library", "resolve", fmt.Sprintf("month %q is not a number", name), nil)
	}

	dir := filepath.Join(l.baseDir, strconv.Itoa(number))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Month{}, services.Wrap(services.ErrNotFound, "library", "resolve", fmt.Sprintf("month folder %s not found", dir), nil)
	}

	return Month{Number: number, Dir: dir, imageExtensions: l.imageExtensions}, nil
}

// CaptionFiles returns the month's caption source files in lexical order.
// The .txt suffix match is case-sensitive.
func (m Month) CaptionFiles() ([]string, error) {
	return m.listFiles(func(name string) bool {
		return strings.HasSuffix(name, CaptionSuffix)
	})
}

// ImageFiles returns the month's image candidates in lexical order. The
// extension match is case-insensitive.
func (m Month) ImageFiles() ([]string, error) {
	extensions := m.imageExtensions
	if len(extensions) == 0 {
		extensions = []string{".jpg", ".jpeg", ".png"}
	}
	return m.listFiles(func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		for _, allowed := range extensions {
			if ext == allowed {
				return true
			}
		}
		return false
	})
}

func (m Month) listFiles(match func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		return nil, fmt.Errorf("read month folder %s: %w", m.Dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if match(entry.Name()) {
			files = append(files, filepath.Join(m.Dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// MarkerPath returns the location of the month's marker file.
func (m Month) MarkerPath() string {
	return filepath.Join(m.Dir, MarkerName)
}

// Posted reports whether the marker file exists.
func (m Month) Posted() bool {
	info, err := os.Stat(m.MarkerPath())
	return err == nil && !info.IsDir()
}

// WriteMarker records a successful publish. Written only after the upload
// call confirmed success; writing it earlier would fake idempotency and drop
// the month's content forever.
func (m Month) WriteMarker(at time.Time) error {
	content := at.UTC().Format(time.RFC3339)
	if err := os.WriteFile(m.MarkerPath(), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write marker for month %d: %w", m.Number, err)
	}
	return nil
}

// ReadMarker returns the timestamp recorded in the marker file.
func (m Month) ReadMarker() (time.Time, error) {
	data, err := os.ReadFile(m.MarkerPath())
	if err != nil {
		return time.Time{}, fmt.Errorf("read marker for month %d: %w", m.Number, err)
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse marker for month %d: %w", m.Number, err)
	}
	return at, nil
}

// Name returns the English month name for display, or the bare number for
// folders outside 1..12.
func (m Month) Name() string {
	if m.Number >= 1 && m.Number <= 12 {
		return time.Month(m.Number).String()
	}
	return strconv.Itoa(m.Number)
}

package library_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gramline/internal/library"
	"gramline/internal/services"
	"gramline/internal/testsupport"
)

func TestScanSortsNumerically(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"2", "10", "1"} {
		if err := os.MkdirAll(filepath.Join(base, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	// Non-numeric and file entries are ignored.
	if err := os.MkdirAll(filepath.Join(base, "drafts"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(base, "notes.txt"), "ignored")

	months, err := library.New(base, nil).Scan()
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	var got []int
	for _, m := range months {
		got = append(got, m.Number)
	}
	want := []int{1, 2, 10}
	if len(got) != len(want) {
		t.Fatalf("expected months %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected months %v, got %v", want, got)
		}
	}
}

func TestScanMissingBaseDir(t *testing.T) {
	_, err := library.New(filepath.Join(t.TempDir(), "absent"), nil).Scan()
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	testsupport.SeedMonth(t, base, 7, []string{"hello"}, nil)

	lib := library.New(base, nil)
	month, err := lib.Resolve("7")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if month.Number != 7 {
		t.Fatalf("expected month 7, got %d", month.Number)
	}

	if _, err := lib.Resolve("8"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing month, got %v", err)
	}
	if _, err := lib.Resolve("august"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-numeric month, got %v", err)
	}
}

func TestCaptionFilesLexicalAndCaseSensitive(t *testing.T) {
	base := t.TempDir()
	dir := testsupport.SeedMonth(t, base, 1, nil, nil)
	testsupport.WriteFile(t, filepath.Join(dir, "b.txt"), "second")
	testsupport.WriteFile(t, filepath.Join(dir, "a.txt"), "first")
	testsupport.WriteFile(t, filepath.Join(dir, "c.TXT"), "wrong case")

	month, err := library.New(base, nil).Resolve("1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	files, err := month.CaptionFiles()
	if err != nil {
		t.Fatalf("CaptionFiles returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 caption files, got %v", files)
	}
	if filepath.Base(files[0]) != "a.txt" || filepath.Base(files[1]) != "b.txt" {
		t.Fatalf("expected lexical order [a.txt b.txt], got %v", files)
	}
}

func TestImageFilesCaseInsensitiveAllowList(t *testing.T) {
	base := t.TempDir()
	testsupport.SeedMonth(t, base, 3, nil, []string{"photo.JPG", "pic.png", "anim.gif", "clip.mp4"})

	month, err := library.New(base, nil).Resolve("3")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	files, err := month.ImageFiles()
	if err != nil {
		t.Fatalf("ImageFiles returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 images (.gif and .mp4 excluded), got %v", files)
	}

	broad := library.New(base, []string{".jpg", ".jpeg", ".png", ".gif", ".webp"})
	month, err = broad.Resolve("3")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	files, err = month.ImageFiles()
	if err != nil {
		t.Fatalf("ImageFiles returned error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 images with broad allow-list, got %v", files)
	}
}

func TestEmptyMonthIsNotAnError(t *testing.T) {
	base := t.TempDir()
	testsupport.SeedMonth(t, base, 4, nil, nil)

	month, err := library.New(base, nil).Resolve("4")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	captions, err := month.CaptionFiles()
	if err != nil {
		t.Fatalf("CaptionFiles returned error: %v", err)
	}
	images, err := month.ImageFiles()
	if err != nil {
		t.Fatalf("ImageFiles returned error: %v", err)
	}
	if len(captions) != 0 || len(images) != 0 {
		t.Fatalf("expected empty sequences, got %v and %v", captions, images)
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	base := t.TempDir()
	testsupport.SeedMonth(t, base, 5, []string{"text"}, []string{"a.jpg"})

	month, err := library.New(base, nil).Resolve("5")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if month.Posted() {
		t.Fatal("expected no marker before publish")
	}

	at := time.Date(2026, 2, 14, 12, 30, 0, 0, time.UTC)
	if err := month.WriteMarker(at); err != nil {
		t.Fatalf("WriteMarker returned error: %v", err)
	}
	if !month.Posted() {
		t.Fatal("expected marker after WriteMarker")
	}

	got, err := month.ReadMarker()
	if err != nil {
		t.Fatalf("ReadMarker returned error: %v", err)
	}
	if !got.Equal(at) {
		t.Fatalf("ReadMarker = %v, want %v", got, at)
	}
}

func TestMarkerExcludedFromCaptions(t *testing.T) {
	base := t.TempDir()
	dir := testsupport.SeedMonth(t, base, 6, []string{"text"}, nil)
	testsupport.MarkPosted(t, dir, time.Now())

	month, err := library.New(base, nil).Resolve("6")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	captions, err := month.CaptionFiles()
	if err != nil {
		t.Fatalf("CaptionFiles returned error: %v", err)
	}
	if len(captions) != 1 {
		t.Fatalf("marker file must not count as caption, got %v", captions)
	}
}

func TestMonthName(t *testing.T) {
	m := library.Month{Number: 2}
	if m.Name() != "February" {
		t.Fatalf("expected February, got %s", m.Name())
	}
	m = library.Month{Number: 13}
	if m.Name() != "13" {
		t.Fatalf("expected bare number for out-of-range month, got %s", m.Name())
	}
}

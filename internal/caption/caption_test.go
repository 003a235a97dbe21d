package caption_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gramline/internal/caption"
	"gramline/internal/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestAssembleJoinsWithBlankLine(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "post1.txt", "Hello\n")
	second := writeFile(t, dir, "post2.txt", "  World  ")

	got := caption.Assemble(logging.NewNop(), []string{first, second})
	if got != "Hello\n\nWorld" {
		t.Fatalf("assembled caption = %q, want %q", got, "Hello\n\nWorld")
	}
}

func TestAssembleSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "post1.txt", "Keep me")
	missing := filepath.Join(dir, "absent.txt")

	got := caption.Assemble(logging.NewNop(), []string{first, missing})
	if got != "Keep me" {
		t.Fatalf("assembled caption = %q, want %q", got, "Keep me")
	}
}

func TestAssembleEmptyInput(t *testing.T) {
	if got := caption.Assemble(logging.NewNop(), nil); got != "" {
		t.Fatalf("assembled caption = %q, want empty", got)
	}
}

type stubEnhancer struct {
	text string
	err  error
}

func (s stubEnhancer) Enhance(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

func TestEnhanceOrFallbackUsesEnhancedText(t *testing.T) {
	got := caption.EnhanceOrFallback(context.Background(), logging.NewNop(),
		stubEnhancer{text: "shinier"}, "plain")
	if got != "shinier" {
		t.Fatalf("caption = %q, want %q", got, "shinier")
	}
}

func TestEnhanceOrFallbackReturnsOriginalOnError(t *testing.T) {
	original := "exact original bytes\n\nwith structure"
	got := caption.EnhanceOrFallback(context.Background(), logging.NewNop(),
		stubEnhancer{err: errors.New("api down")}, original)
	if got != original {
		t.Fatalf("caption = %q, want original %q", got, original)
	}
}

func TestEnhanceOrFallbackNilEnhancer(t *testing.T) {
	if got := caption.EnhanceOrFallback(context.Background(), logging.NewNop(), nil, "as-is"); got != "as-is" {
		t.Fatalf("caption = %q, want %q", got, "as-is")
	}
}

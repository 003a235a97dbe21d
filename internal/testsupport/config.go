package testsupport

import (
	"path/filepath"
	"testing"

	"gramline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ContentDir = filepath.Join(base, "content")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Instagram.Username = "test-account"
	cfg.Instagram.Password = "test-password"
	cfg.Workflow.PostDelaySeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithTokens seeds manually supplied session tokens on the test config.
func WithTokens(sessionID, csrfToken, userID string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Instagram.SessionID = sessionID
		cfg.Instagram.CSRFToken = csrfToken
		cfg.Instagram.UserID = userID
	}
}

// WithHashtags overrides the hashtag suffix on the test config.
func WithHashtags(tags string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.Hashtags = tags
	}
}

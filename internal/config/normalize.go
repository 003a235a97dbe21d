package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeInstagram()
	c.normalizeEnhancement()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ContentDir, err = expandPath(c.Paths.ContentDir); err != nil {
		return fmt.Errorf("paths.content_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

// Environment fallbacks mirror the variable names the legacy dotenv setup
// used, so existing deployments keep working without a config file edit.
func (c *Config) normalizeInstagram() {
	envFallback(&c.Instagram.Username, "INSTAGRAM_USERNAME")
	envFallback(&c.Instagram.Password, "INSTAGRAM_PASSWORD")
	envFallback(&c.Instagram.SessionID, "INSTAGRAM_SESSION_ID")
	envFallback(&c.Instagram.CSRFToken, "INSTAGRAM_CSRF_TOKEN")
	envFallback(&c.Instagram.UserID, "INSTAGRAM_DS_USER_ID")

	c.Instagram.BaseURL = strings.TrimRight(strings.TrimSpace(c.Instagram.BaseURL), "/")
	if c.Instagram.BaseURL == "" {
		c.Instagram.BaseURL = defaultInstagramBaseURL
	}
	if c.Instagram.TimeoutSeconds <= 0 {
		c.Instagram.TimeoutSeconds = defaultInstagramTimeout
	}
}

func (c *Config) normalizeEnhancement() {
	envFallback(&c.Enhancement.APIKey, "OPENAI_API_KEY")
	c.Enhancement.BaseURL = strings.TrimSpace(c.Enhancement.BaseURL)
	c.Enhancement.Model = strings.TrimSpace(c.Enhancement.Model)
	if c.Enhancement.Model == "" {
		c.Enhancement.Model = defaultEnhanceModel
	}
	if c.Enhancement.TimeoutSeconds <= 0 {
		c.Enhancement.TimeoutSeconds = defaultEnhanceTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PostDelaySeconds < 0 {
		c.Workflow.PostDelaySeconds = defaultPostDelaySeconds
	}
	c.Workflow.Hashtags = strings.TrimSpace(c.Workflow.Hashtags)
	if len(c.Workflow.ImageExtensions) == 0 {
		c.Workflow.ImageExtensions = defaultImageExtensions()
	}
	normalized := make([]string, 0, len(c.Workflow.ImageExtensions))
	for _, ext := range c.Workflow.ImageExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Workflow.ImageExtensions = normalized
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envFallback(target *string, key string) {
	if strings.TrimSpace(*target) != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok {
		*target = strings.TrimSpace(value)
	}
}

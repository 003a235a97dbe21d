package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Credential values are only
// checked for presence; their contents are opaque to gramline.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateInstagram(); err != nil {
		return err
	}
	if err := c.validateEnhancement(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ContentDir) == "" {
		return errors.New("paths.content_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateInstagram() error {
	hasCredentials := c.Instagram.Username != "" && c.Instagram.Password != ""
	hasTokens := c.Instagram.SessionID != "" && c.Instagram.CSRFToken != ""
	if !hasCredentials && !hasTokens {
		return errors.New("instagram credentials missing: set instagram.username/password or instagram.session_id/csrf_token (or the INSTAGRAM_* env vars)")
	}
	return nil
}

func (c *Config) validateEnhancement() error {
	if !c.Enhancement.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Enhancement.APIKey) == "" {
		return errors.New("enhancement.api_key must be set when enhancement.enabled is true (or set OPENAI_API_KEY)")
	}
	if strings.TrimSpace(c.Enhancement.Model) == "" {
		return errors.New("enhancement.model must be set when enhancement.enabled is true")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if c.Schedule.PostHour < 0 || c.Schedule.PostHour > 23 {
		return fmt.Errorf("schedule.post_hour must be between 0 and 23, got %d", c.Schedule.PostHour)
	}
	if c.Schedule.PostMinute < 0 || c.Schedule.PostMinute > 59 {
		return fmt.Errorf("schedule.post_minute must be between 0 and 59, got %d", c.Schedule.PostMinute)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

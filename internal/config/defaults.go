package config

const (
	defaultContentDir       = "content"
	defaultStateDir         = "~/.local/share/gramline/state"
	defaultLogDir           = "~/.local/share/gramline/logs"
	defaultAPIBind          = "127.0.0.1:8087"
	defaultInstagramBaseURL = "https://www.instagram.com"
	defaultInstagramTimeout = 60
	defaultEnhanceModel     = "gpt-4o-mini"
	defaultEnhanceTimeout   = 60
	defaultPostDelaySeconds = 60
	defaultHashtags         = "#monthlypost #automation"
	defaultPostHour         = 12
	defaultPostMinute       = 0
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

func defaultImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ContentDir: defaultContentDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Instagram: Instagram{
			BaseURL:        defaultInstagramBaseURL,
			TimeoutSeconds: defaultInstagramTimeout,
		},
		Enhancement: Enhancement{
			Model:          defaultEnhanceModel,
			TimeoutSeconds: defaultEnhanceTimeout,
		},
		Workflow: Workflow{
			PostDelaySeconds: defaultPostDelaySeconds,
			Hashtags:         defaultHashtags,
			ImageExtensions:  defaultImageExtensions(),
		},
		Schedule: Schedule{
			PostHour:   defaultPostHour,
			PostMinute: defaultPostMinute,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

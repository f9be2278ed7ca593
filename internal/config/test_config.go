package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		Storage: StorageConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
			AppKey:  "subex.test",
		},
		Fetch: FetchConfig{
			Timeout:       5 * time.Second,
			FrameInterval: 10 * time.Millisecond,
			QueueSize:     4,
			UserAgent:     "subex-test/1.0",
		},
		UI: UIConfig{
			Colors: def.UI.Colors,
			// Plain docs keep test output free of terminal styling.
			Docs: DocsConfig{
				Markdown:         false,
				WordWrapMaxWidth: def.UI.Docs.WordWrapMaxWidth,
				WordWrapMinWidth: def.UI.Docs.WordWrapMinWidth,
			},
		},
		Keys: def.Keys,
		Log:  LogConfig{Level: "off"},
	}
}

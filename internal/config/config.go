package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultAppKey identifies this application's entry in the preferences store.
const DefaultAppKey = "by.alestsurko.substrate-api-explorer"

type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	UI      UIConfig      `mapstructure:"ui"`
	Keys    KeyConfig     `mapstructure:"keys"`
	Log     LogConfig     `mapstructure:"log"`
}

type StorageConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
	AppKey  string        `mapstructure:"app_key"`
}

type FetchConfig struct {
	// Timeout bounds how long the UI waits for a reply before it
	// re-enables the fetch trigger. The request itself keeps running.
	Timeout time.Duration `mapstructure:"timeout"`
	// DialTimeout bounds the network call. Zero disables it.
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	// QueueSize is the worker's result buffer. Requests are not bounded.
	QueueSize int    `mapstructure:"queue_size"`
	UserAgent string `mapstructure:"user_agent"`
	// EndpointsFile holds user endpoint presets merged over the built-in list.
	EndpointsFile string `mapstructure:"endpoints_file"`
}

type UIConfig struct {
	Colors UIColors   `mapstructure:"colors"`
	Docs   DocsConfig `mapstructure:"docs"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type DocsConfig struct {
	Markdown         bool `mapstructure:"markdown"`
	WordWrapMaxWidth int  `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int  `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit        string `mapstructure:"quit"`
	Search      string `mapstructure:"search"`
	Fetch       string `mapstructure:"fetch"`
	Presets     string `mapstructure:"presets"`
	FocusURL    string `mapstructure:"focus_url"`
	ExpandAll   string `mapstructure:"expand_all"`
	CollapseAll string `mapstructure:"collapse_all"`
	Back        string `mapstructure:"back"`
	Help        string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Storage: StorageConfig{
			Path:    filepath.Join(homeDir, ".subex.db"),
			Timeout: 1 * time.Second,
			AppKey:  DefaultAppKey,
		},
		Fetch: FetchConfig{
			Timeout:       5 * time.Second,
			DialTimeout:   0,
			FrameInterval: 100 * time.Millisecond,
			QueueSize:     16,
			UserAgent:     "subex/1.0 (https://github.com/pders01/subex)",
			EndpointsFile: filepath.Join(homeDir, ".config", "subex", "endpoints.toml"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#E6007A",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Docs: DocsConfig{
				Markdown:         true,
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:        "q",
				Search:      "s",
				Fetch:       "r",
				Presets:     "p",
				FocusURL:    "l",
				ExpandAll:   "e",
				CollapseAll: "w",
				Back:        "esc",
				Help:        "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".subex", "subex.log"),
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := defaultConfig()
	expandPaths(cfg)
	return cfg
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("fetch", cfg.Fetch)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("keys", cfg.Keys)
	v.SetDefault("log", cfg.Log)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "subex")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SUBEX")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyFallbacks(&config)
	expandPaths(&config)

	return &config, nil
}

// applyFallbacks restores defaults for values that would leave the app unusable.
func applyFallbacks(cfg *Config) {
	def := defaultConfig()
	if cfg.Storage.AppKey == "" {
		cfg.Storage.AppKey = def.Storage.AppKey
	}
	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = def.Fetch.Timeout
	}
	if cfg.Fetch.FrameInterval <= 0 {
		cfg.Fetch.FrameInterval = def.Fetch.FrameInterval
	}
	if cfg.Fetch.QueueSize <= 0 {
		cfg.Fetch.QueueSize = def.Fetch.QueueSize
	}
	if cfg.Fetch.DialTimeout < 0 {
		cfg.Fetch.DialTimeout = 0
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Fetch.EndpointsFile = expandPath(cfg.Fetch.EndpointsFile)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Convert durations to strings for TOML readability
	storageCfg := map[string]interface{}{
		"path":    config.Storage.Path,
		"timeout": config.Storage.Timeout.String(),
		"app_key": config.Storage.AppKey,
	}

	fetchCfg := map[string]interface{}{
		"timeout":        config.Fetch.Timeout.String(),
		"dial_timeout":   config.Fetch.DialTimeout.String(),
		"frame_interval": config.Fetch.FrameInterval.String(),
		"queue_size":     config.Fetch.QueueSize,
		"user_agent":     config.Fetch.UserAgent,
		"endpoints_file": config.Fetch.EndpointsFile,
	}

	v.Set("storage", storageCfg)
	v.Set("fetch", fetchCfg)
	v.Set("ui", config.UI)
	v.Set("keys", config.Keys)
	v.Set("log", config.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

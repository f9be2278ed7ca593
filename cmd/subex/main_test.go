package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pders01/subex/internal/config"
	"github.com/pders01/subex/internal/endpoints"
	"github.com/pders01/subex/internal/validation"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-outC
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() {
		versionCmd.Run(nil, nil)
	})

	if !strings.Contains(out, "subex dev") {
		t.Errorf("Expected version output to contain 'subex dev', got: %s", out)
	}
	if !strings.Contains(out, "Substrate runtime metadata explorer") {
		t.Errorf("Expected version output to contain the tagline, got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/subex") {
		t.Errorf("Expected version output to contain 'github.com/pders01/subex', got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "subex", "config.toml")

	saved := opts
	opts.configPath = configFile
	defer func() { opts = saved }()

	var runErr error
	out := captureStdout(t, func() {
		runErr = generateConfigCmd.RunE(generateConfigCmd, nil)
	})
	if runErr != nil {
		t.Fatalf("generate-config failed: %v", runErr)
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("Config file was not created at %s", configFile)
	}
	if !strings.Contains(out, "Generated default configuration at:") {
		t.Errorf("Expected output to contain 'Generated default configuration at:', got: %s", out)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		t.Fatalf("Generated config does not load: %v", err)
	}
	if cfg.Storage.AppKey != config.DefaultAppKey {
		t.Errorf("Expected app key %q, got %q", config.DefaultAppKey, cfg.Storage.AppKey)
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.toml")
	if err := config.GenerateDefaultConfig(configFile); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "prefs.db")
	cfg, err := loadConfig(options{configPath: configFile, dbPath: dbPath, logLevel: "DEBUG"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Storage.Path != dbPath {
		t.Errorf("Expected db path %s, got %s", dbPath, cfg.Storage.Path)
	}
	if cfg.Log.Level != "DEBUG" {
		t.Errorf("Expected log level DEBUG, got %s", cfg.Log.Level)
	}
}

func TestSetupLoggingWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.TestConfig()
	cfg.Log.Level = "INFO"
	cfg.Log.File = filepath.Join(tmpDir, "logs", "subex.log")

	if err := setupLogging(cfg, validation.NewPathHandler()); err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	t.Cleanup(func() {
		_ = setupLogging(config.TestConfig(), validation.NewPathHandler())
	})

	if _, err := os.Stat(cfg.Log.File); err != nil {
		t.Errorf("Expected log file at %s: %v", cfg.Log.File, err)
	}
}

func TestSetupLoggingOff(t *testing.T) {
	if err := setupLogging(config.TestConfig(), validation.NewPathHandler()); err != nil {
		t.Errorf("setupLogging with logging off: %v", err)
	}
}

func TestStartURLExpandsPresetIDs(t *testing.T) {
	presets, err := endpoints.NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		raw  string
		want string
	}{
		{"kusama", "wss://kusama-rpc.polkadot.io"},
		{"polkadot", "wss://rpc.polkadot.io"},
		{"ws://127.0.0.1:9944", "ws://127.0.0.1:9944"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := startURL(presets, tt.raw); got != tt.want {
			t.Errorf("startURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}

	if got := startURL(nil, "kusama"); got != "kusama" {
		t.Errorf("startURL(nil, kusama) = %q, want kusama", got)
	}
}

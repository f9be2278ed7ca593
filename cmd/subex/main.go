package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pders01/subex/internal/chain"
	"github.com/pders01/subex/internal/config"
	"github.com/pders01/subex/internal/debuglog"
	"github.com/pders01/subex/internal/endpoints"
	"github.com/pders01/subex/internal/fetch"
	"github.com/pders01/subex/internal/storage"
	"github.com/pders01/subex/internal/tui"
	"github.com/pders01/subex/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

type options struct {
	configPath string
	dbPath     string
	url        string
	logLevel   string
	quiet      bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:           "subex",
	Short:         "Substrate runtime metadata explorer",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", tui.AppName, Version)
		fmt.Println("Substrate runtime metadata explorer")
		fmt.Println("github.com/pders01/subex")
	},
}

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := validation.NewPathHandler().ConfigPath(opts.configPath)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			return fmt.Errorf("generating config: %w", err)
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.dbPath, "db", "", "Path to preferences database (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR or OFF (overrides config)")
	rootCmd.Flags().StringVar(&opts.url, "url", "", "Node RPC URL or endpoint preset ID to start with")
	rootCmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Skip exit banner")

	rootCmd.AddCommand(versionCmd, generateConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(o options) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Storage.Path = o.dbPath
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config, paths *validation.PathHandler) error {
	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if level == debuglog.LevelOff {
		return debuglog.Setup(level)
	}
	logPath, err := paths.LogPath(cfg.Log.File)
	if err != nil {
		return fmt.Errorf("resolving log path: %w", err)
	}
	return debuglog.Setup(level, logPath)
}

// startURL expands a preset ID given to --url into the preset's URL. Anything
// else is taken as a URL.
func startURL(presets *endpoints.Registry, raw string) string {
	if ep, ok := presets.Lookup(raw); ok {
		return ep.URL
	}
	return raw
}

func run(ctx context.Context, o options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	paths := validation.NewPathHandler()
	if err := setupLogging(cfg, paths); err != nil {
		return err
	}
	defer debuglog.Close()

	dbPath, err := paths.DBPath(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}
	store, err := storage.NewStore(dbPath, cfg.Storage.Timeout)
	if err != nil {
		return err
	}
	defer store.Close()

	prefs, err := store.LoadPreferences(cfg.Storage.AppKey)
	if err != nil {
		debuglog.Warnf("Starting without preferences: %v", err)
		prefs = &storage.Preferences{}
	}

	presets, err := endpoints.NewRegistry(cfg.Fetch.EndpointsFile)
	if err != nil {
		debuglog.Warnf("Endpoint presets: %v", err)
	}
	if o.url != "" {
		prefs.URL = startURL(presets, o.url)
	}

	bridge := fetch.NewBridge(cfg.Fetch.QueueSize)
	client := chain.NewClient(chain.Options{
		DialTimeout: cfg.Fetch.DialTimeout,
		UserAgent:   cfg.Fetch.UserAgent,
	})
	worker := fetch.NewWorker(client, bridge)

	app := tui.NewApp(cfg, bridge, prefs, presets)
	defer app.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(gctx)
	})

	var final tea.Model
	g.Go(func() error {
		// Quitting the program ends the worker too. The program keeps
		// running if the worker dies so the fatal state can be shown.
		defer cancel()
		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
		m, err := p.Run()
		final = m
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	runErr := g.Wait()

	if a, ok := final.(*tui.App); ok {
		if err := store.SavePreferences(cfg.Storage.AppKey, a.Preferences()); err != nil {
			debuglog.Errorf("Saving preferences: %v", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if !o.quiet {
		tui.ShowBanner(Version)
	}
	return nil
}

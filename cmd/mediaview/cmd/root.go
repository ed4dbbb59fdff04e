package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/wesm/mediaview/internal/config"
	"github.com/wesm/mediaview/internal/listcache"
	"github.com/wesm/mediaview/internal/remote"
)

var (
	cfgFile   string
	homeDir   string
	verbose   bool
	serverURL string // Overrides server.url from the config file
	noCache   bool   // Keep file lists in memory only
	cfg       *config.Config
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mediaview",
	Short: "Terminal viewer for a local media server",
	Long: `mediaview browses the files of a media server one at a time, by tag.

It talks to the server's JSON API: it steps through a tag's files in order
or at random, runs a slideshow, edits tags and comments, and can move files
to the Trash or shut the server down.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "version" {
			return nil
		}

		// Set up logging
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		// Load config (--home is passed through so it influences
		// where config.toml is loaded from, like MEDIAVIEW_HOME).
		var err error
		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if serverURL != "" {
			cfg.Server.URL = serverURL
		}
		if noCache {
			cfg.Cache.Disabled = true
		}

		// Ensure home directory exists on first use
		if err := cfg.EnsureHomeDir(); err != nil {
			return fmt.Errorf("create home directory %s: %w", cfg.HomeDir, err)
		}

		return nil
	},
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newClient creates a media server client from the loaded config.
func newClient() (*remote.Client, error) {
	c, err := remote.New(remote.Config{
		URL:          cfg.Server.URL,
		Timeout:      cfg.Timeout(),
		RateLimitQPS: cfg.Server.RateLimitQPS,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// openCache opens the durable file-list cache. An unusable cache file is
// not fatal: the lists are kept in memory for this run instead.
func openCache(logger *slog.Logger) *listcache.Cache {
	if cfg.Cache.Disabled {
		return listcache.NewMemory(logger)
	}
	c, err := listcache.Open(cfg.Cache.Path, logger)
	if err != nil {
		logger.Warn("file list cache unavailable, using memory", "path", cfg.Cache.Path, "error", err)
		return listcache.NewMemory(logger)
	}
	return c
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.mediaview/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "home directory (overrides MEDIAVIEW_HOME)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "media server URL (overrides server.url)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "keep file lists in memory only")
}

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/wesm/mediaview/internal/listcache"
	"github.com/wesm/mediaview/internal/tui"
	"github.com/wesm/mediaview/internal/viewer"
)

// viewOptions are the view command's flags.
type viewOptions struct {
	url       string
	slideshow bool
	random    bool
	delayMs   int
}

var viewOpts viewOptions

var viewCmd = &cobra.Command{
	Use:   "view [TAG FILE]",
	Short: "Open the viewer on a file",
	Long: `Open the interactive viewer on FILE within TAG's file list.

The starting page can also be given as a view URL, exactly as the viewer
builds them:
  mediaview view --url '/view/vacation?file=beach.jpg&slideshow=true&delay=2000'

Keys:
  ←/→         Previous (history) / next file
  s           Toggle slideshow     r   Toggle random mode
  +/-         Faster / slower      Esc Stop slideshow or open tag
  t           Add tag              l   Add ❤️    1-5  Star rating
  [ ]         Select tag           Backspace  Remove selected tag
  c           Edit comment         q   QuickLook
  x           Move to Trash        ctrl+q  Shut down server
  ?           Help                 ctrl+c  Quit

Logs are written to mediaview.log in the home directory while the viewer
is running.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := startLocation(args, viewOpts, cmd.Flags().Changed("random"), cmd.Flags().Changed("delay"))
		if err != nil {
			return err
		}

		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return errors.New("view needs an interactive terminal")
		}

		// The TUI owns the terminal, so logs go to a file
		logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		fileLogger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))

		client, err := newClient()
		if err != nil {
			return err
		}
		cache := openCache(fileLogger)
		defer cache.Close()

		fileLogger.Info("viewer starting", "server", client.BaseURL(), "url", loc.URL())

		model := tui.New(tui.Options{
			Client:  client,
			Cache:   cache,
			Fetcher: listcache.NewFetcher(client, cache, fileLogger),
			Logger:  fileLogger,
			Version: Version,
		}, loc)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

		final, err := p.Run()
		if err != nil {
			return fmt.Errorf("run viewer: %w", err)
		}
		if m, ok := final.(tui.Model); ok && m.Err() != nil {
			return fmt.Errorf("open %s: %w", loc.File, m.Err())
		}
		return nil
	},
}

// startLocation resolves the first page from positional args or --url.
// Mode flags left unset fall back to the config file.
func startLocation(args []string, opts viewOptions, randomSet, delaySet bool) (viewer.Location, error) {
	var loc viewer.Location
	switch {
	case opts.url != "" && len(args) > 0:
		return loc, errors.New("give either TAG FILE or --url, not both")
	case opts.url != "":
		parsed, err := viewer.ParseURL(opts.url)
		if err != nil {
			return loc, fmt.Errorf("parse --url: %w", err)
		}
		return parsed, nil
	case len(args) != 2:
		return loc, errors.New("view needs TAG and FILE (or --url)")
	}

	loc.Tag, loc.File = args[0], args[1]
	loc.Mode = viewer.Mode{
		Slideshow: opts.slideshow,
		Random:    cfg.Viewer.Random,
		DelayMs:   viewer.ClampDelay(cfg.Viewer.SlideshowDelayMS),
	}
	if randomSet {
		loc.Mode.Random = opts.random
	}
	if delaySet {
		loc.Mode.DelayMs = viewer.ClampDelay(opts.delayMs)
	}
	return loc, nil
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().StringVar(&viewOpts.url, "url", "", "start at a view URL (/view/TAG?file=...)")
	viewCmd.Flags().BoolVar(&viewOpts.slideshow, "slideshow", false, "start the slideshow")
	viewCmd.Flags().BoolVar(&viewOpts.random, "random", false, "advance to random files")
	viewCmd.Flags().IntVar(&viewOpts.delayMs, "delay", viewer.DefaultDelay, "slideshow delay in milliseconds (250-25000)")
}

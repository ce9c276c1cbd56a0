package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"golang.org/x/sync/errgroup"

	"github.com/Philanthropists/autofinish/internal/autofinish"
	"github.com/Philanthropists/autofinish/internal/config"
	"github.com/Philanthropists/autofinish/internal/dom/roddom"
	"github.com/Philanthropists/autofinish/internal/logging"
)

type runOptions struct {
	ConfigPath  string
	URL         string
	DebuggerURL string
	Bin         string
	Headless    bool
	Timeout     time.Duration
	Debug       bool
	Watch       bool

	HTML   string
	Frames []string
}

var opts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the course page and keep playing lessons",
	Long: `Opens --url in a browser (or attaches to --debugger-url) and starts a
session on every page load.

With --html the session runs against a local HTML file instead of a
browser. Each --frame file is loaded into the next iframe of the chain.`,
	RunE: run,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&opts.ConfigPath, "config", "", "YAML file overriding the default selectors and delays")
	f.StringVar(&opts.URL, "url", "", "course page to open")
	f.StringVar(&opts.DebuggerURL, "debugger-url", "", "attach to a running browser instead of launching one")
	f.StringVar(&opts.Bin, "bin", "", "browser binary to launch")
	f.BoolVar(&opts.Headless, "headless", false, "launch the browser without a window")
	f.DurationVar(&opts.Timeout, "timeout", 0, "stop after this long (0 runs until interrupted)")
	f.BoolVar(&opts.Debug, "debug", false, "output debug logs")
	f.BoolVar(&opts.Watch, "watch", false, "reload --config when it changes; applies from the next page load")
	f.StringVar(&opts.HTML, "html", "", "run once against a local HTML page")
	f.StringArrayVar(&opts.Frames, "frame", nil, "HTML file loaded into the next frame (repeatable, needs --html)")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Browser.URL = opts.URL
	}
	if flags.Changed("debugger-url") {
		cfg.Browser.DebuggerURL = opts.DebuggerURL
	}
	if flags.Changed("bin") {
		cfg.Browser.Bin = opts.Bin
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = opts.Headless
	}

	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, args []string) (err error) {
	log := logging.Setup(opts.Debug)
	defer func() { _ = log.Sync() }()

	cfg, err := loadConfig(cmd)
	if err != nil {
		log.Error("invalid configuration", logging.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	ctx = log.GetContext(ctx)

	if opts.HTML != "" {
		return dryRun(ctx, cfg, opts.HTML, opts.Frames)
	}
	if len(opts.Frames) > 0 {
		return errs.New("--frame needs --html")
	}
	if cfg.Browser.URL == "" {
		return errs.New("--url or browser.url is required")
	}

	host, err := roddom.Launch(ctx, cfg.Browser)
	if err != nil {
		log.Error("could not start browser", logging.Error(err))
		return err
	}
	defer func() {
		if closeErr := host.Close(); closeErr != nil {
			log.Warn("could not close browser", logging.Error(closeErr))
		}
	}()

	runner := &autofinish.Runner{Config: cfg, Host: host}
	g, gctx := errgroup.WithContext(ctx)
	wctx, stopWatch := context.WithCancel(gctx)
	defer stopWatch()

	g.Go(func() error {
		defer stopWatch()
		return runner.Run(gctx)
	})
	if opts.Watch && opts.ConfigPath != "" {
		g.Go(func() error {
			return config.Watch(wctx, opts.ConfigPath, 500*time.Millisecond, func(next config.Config) {
				// the browser is already running
				next.Browser = cfg.Browser
				runner.Reconfigure(next)
			})
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Info("stopped", logging.Error(err))
		return nil
	}
	return err
}

package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitlane/internal/server"
	"github.com/matzehuels/gitlane/pkg/cache"
	"github.com/matzehuels/gitlane/pkg/pipeline"
)

type serveFlags struct {
	graphFlags
	addr     string
	redisURL string
	debounce time.Duration
}

// serveCommand serves the graph over HTTP and pushes updates to websocket
// clients whenever the repository changes.
func (c *CLI) serveCommand() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve the history graph over HTTP with live updates",
		Long: `Serve the history graph of a repository over HTTP.

Endpoints:
  GET /api/layout     layout as JSON
  GET /api/graph.txt  text graph
  GET /api/graph.svg  SVG graph
  GET /api/ws         websocket, pushes the layout after every change
  GET /healthz        status and build information`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), cmd, pathArg(args), &f)
		},
	}

	f.addLoadFlags(cmd)
	flags := cmd.Flags()
	flags.StringVar(&f.addr, "addr", "", `listen address (default "127.0.0.1:7070")`)
	flags.StringVar(&f.redisURL, "redis-url", "", "cache histories in redis instead of on disk")
	flags.DurationVar(&f.debounce, "debounce", 0, "wait this long for repository changes to settle")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cmd *cobra.Command, path string, f *serveFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	f.applyConfig(cmd, cfg)
	flags := cmd.Flags()
	if !flags.Changed("addr") {
		f.addr = cfg.Server.Addr
	}
	if !flags.Changed("redis-url") {
		f.redisURL = cfg.Server.RedisURL
	}
	if !flags.Changed("debounce") {
		f.debounce = cfg.Server.Debounce.Duration
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	opts := f.options(abs, cfg)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	var backend cache.Cache
	switch {
	case f.redisURL != "" && !f.noCache:
		rc, err := cache.NewRedisCache(ctx, f.redisURL)
		if err != nil {
			return err
		}
		backend = rc
	default:
		if backend, err = newCache(f.noCache); err != nil {
			return err
		}
	}
	keyer := cache.NewScopedKeyer(nil, appName+":"+cache.Hash([]byte(abs))[:12]+":")
	runner := pipeline.NewRunner(backend, keyer, c.Logger)
	defer runner.Close()

	srv, err := server.New(runner, server.Options{Pipeline: opts, Debounce: f.debounce}, c.Logger)
	if err != nil {
		return err
	}
	printInfo("Serving %s", abs)
	printDetail("http://%s/api/graph.txt", f.addr)
	return srv.Run(ctx, f.addr)
}

// Package cli implements the gitlane command-line interface.
//
// The root command prints a repository's commit history as a text graph;
// subcommands browse it interactively, serve it over HTTP and manage the
// history cache. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - gitlane [path]: Print the history graph as text, JSON, DOT or SVG
//   - browse: Page through the graph in the terminal
//   - serve: Serve the graph over HTTP with live updates
//   - cache: Manage the history cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs pipeline, cache and server events. Loggers are passed through
// context.Context so helpers log through the command's logger.
//
// # Configuration
//
// Flags fall back to the values in the config file (see package config);
// flags given on the command line always win.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitlane/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logHooks logs pipeline, cache and server events at debug level. Requests
// are already logged by the server.
type logHooks struct {
	observability.NoopServerHooks
	logger *log.Logger
}

// registerLogHooks installs logHooks for all observability events.
func registerLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetServerHooks(h)
}

func (h logHooks) OnLoadStart(_ context.Context, repo string) {
	h.logger.Debug("loading history", "repo", repo)
}

func (h logHooks) OnLoadComplete(_ context.Context, repo string, commits int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "repo", repo, "error", err)
		return
	}
	h.logger.Debug("history loaded", "repo", repo, "commits", commits, "duration", d.Round(time.Microsecond))
}

func (h logHooks) OnLayoutStart(_ context.Context, nodes int) {
	h.logger.Debug("layout", "nodes", nodes)
}

func (h logHooks) OnLayoutComplete(_ context.Context, rows, maxWidth int, d time.Duration) {
	h.logger.Debug("layout done", "rows", rows, "width", maxWidth, "duration", d.Round(time.Microsecond))
}

func (h logHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("render", "format", format)
}

func (h logHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "format", format, "error", err)
		return
	}
	h.logger.Debug("render done", "format", format, "bytes", size, "duration", d.Round(time.Microsecond))
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h logHooks) OnRepositoryChange(_ context.Context, repo string) {
	h.logger.Debug("repository changed", "repo", repo)
}

func (h logHooks) OnBroadcast(_ context.Context, clients int) {
	h.logger.Debug("broadcast", "clients", clients)
}

// Package server serves a repository's laid-out history over HTTP.
//
// Routes:
//
//	GET /api/layout     JSON layout (package graph wire format)
//	GET /api/graph.txt  text diagram
//	GET /api/graph.svg  SVG diagram
//	GET /api/ws         websocket; the current layout, then every new one
//	GET /healthz        build information
//
// The server keeps one snapshot of the history in memory. A filesystem
// watcher on the git directory reloads it after changes settle and pushes
// the new layout to websocket clients.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/gitlane/pkg/graph"
	"github.com/matzehuels/gitlane/pkg/grid"
	"github.com/matzehuels/gitlane/pkg/history"
	"github.com/matzehuels/gitlane/pkg/pipeline"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Message types sent over the websocket.
const (
	MessageLayout = "layout"
	MessageError  = "error"
)

// Message is one websocket frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Options configures a Server.
type Options struct {
	Pipeline pipeline.Options // Path, Refs and MaxCount select the history
	Debounce time.Duration
}

// snapshot is the loaded state served to clients.
type snapshot struct {
	commits []history.Commit
	rows    []grid.Row[plumbing.Hash]
	layout  graph.Layout
	text    []byte
	err     error
}

// Server serves one repository.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger

	// refreshMu serializes reloads so a slow load never replaces a newer one.
	refreshMu sync.Mutex

	mu      sync.RWMutex
	current *snapshot

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan Message
}

// New creates a server. Call [Server.Refresh] or [Server.Run] before serving
// requests.
func New(runner *pipeline.Runner, opts Options, logger *log.Logger) (*Server, error) {
	if err := opts.Pipeline.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:    runner,
		opts:      opts,
		logger:    logger,
		current:   &snapshot{err: errNotLoaded},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 16),
	}, nil
}

var errNotLoaded = errors.New("history not loaded yet")

// Refresh reloads the history and queues the new layout for websocket
// clients. A load error is kept and served until the next successful load.
func (s *Server) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	snap := s.load(ctx)

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	if snap.err != nil {
		s.logger.Error("reload failed", "path", s.opts.Pipeline.Path, "error", snap.err)
		s.queue(Message{Type: MessageError, Data: errorBody(snap.err)})
		return snap.err
	}
	s.logger.Info("history loaded", "commits", len(snap.commits), "width", snap.layout.Width)
	s.queue(Message{Type: MessageLayout, Data: snap.layout})
	return nil
}

func (s *Server) load(ctx context.Context) *snapshot {
	opts := s.opts.Pipeline
	commits, _, err := s.runner.Load(ctx, opts)
	if err != nil {
		return &snapshot{err: err}
	}
	rows := s.runner.Layout(ctx, commits)
	layout, err := graph.FromRows(opts.Path, commits, rows)
	if err != nil {
		return &snapshot{err: err}
	}
	opts.Format = pipeline.FormatText
	text, err := s.runner.Render(ctx, commits, rows, opts)
	if err != nil {
		return &snapshot{err: err}
	}
	return &snapshot{commits: commits, rows: rows, layout: layout, text: text}
}

func (s *Server) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Run loads the history, starts the watcher and serves on addr until ctx is
// done.
func (s *Server) Run(ctx context.Context, addr string) error {
	_ = s.Refresh(ctx)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is [Server.Run] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.broadcastLoop(ctx)
	}()

	if err := s.watch(ctx, &wg); err != nil {
		s.logger.Warn("not watching repository", "error", err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("serving", "addr", ln.Addr().String(), "path", s.opts.Pipeline.Path)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = srv.Shutdown(shutdownCtx)
	s.closeClients()
	cancel()
	wg.Wait()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

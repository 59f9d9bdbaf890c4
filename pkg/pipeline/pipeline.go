// Package pipeline runs the load → layout → render pipeline shared by the
// CLI, the terminal browser and the HTTP server.
//
// # Stages
//
//  1. Load: read the commit history from a repository (cached)
//  2. Layout: place every commit on the grid
//  3. Render: produce text, JSON, DOT or SVG output (cached)
//
// A failure while loading stops the run before the layout engine sees any
// input. Each stage can also be run on its own:
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	commits, hit, err := runner.Load(ctx, opts)
//	rows := runner.Layout(ctx, commits)
//	out, err := runner.Render(ctx, commits, rows, opts)
//
// or all at once:
//
//	result, err := runner.Execute(ctx, pipeline.Options{Path: ".", Format: "text"})
//	os.Stdout.Write(result.Output)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/matzehuels/gitlane/pkg/cache"
	"github.com/matzehuels/gitlane/pkg/errors"
	"github.com/matzehuels/gitlane/pkg/grid"
	"github.com/matzehuels/gitlane/pkg/history"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// DefaultFormat is used when Options.Format is empty.
const DefaultFormat = FormatText

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// Options configures a pipeline run.
type Options struct {
	// Load options
	Path       string `json:"path"`
	Refs       string `json:"refs,omitempty"`      // reference pattern, default all
	MaxCount   int    `json:"max_count,omitempty"` // newest commits to keep, 0 for all
	CheckOrder bool   `json:"check_order,omitempty"`
	Refresh    bool   `json:"refresh,omitempty"` // bypass cached entries

	// Render options
	Format   string `json:"format,omitempty"`
	ShowHash bool   `json:"show_hash,omitempty"`
	ShowRefs bool   `json:"show_refs,omitempty"`

	// Runtime options (not serialized)
	CacheTTL time.Duration `json:"-"`
	Logger   *log.Logger   `json:"-"`

	validated bool
}

// Result holds the outputs of a pipeline run.
type Result struct {
	Commits   []history.Commit
	Rows      []grid.Row[plumbing.Hash]
	Output    []byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	Commits    int
	MaxWidth   int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	HistoryHit bool
	RenderHit  bool
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q (must be one of: text, json, dot, svg)", format)
	}
	return nil
}

// ValidateAndSetDefaults checks the options and fills in defaults. Calling it
// again has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Path == "" {
		o.Path = "."
	}
	if err := errors.ValidateRepoPath(o.Path); err != nil {
		return err
	}
	if o.Refs == "" {
		o.Refs = history.DefaultRefs
	}
	if err := errors.ValidateRefPattern(o.Refs); err != nil {
		return err
	}
	if o.MaxCount < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max count must not be negative, got %d", o.MaxCount)
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = cache.DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// HistoryKeyOpts returns the cache key options for the load stage.
func (o *Options) HistoryKeyOpts() cache.HistoryKeyOpts {
	return cache.HistoryKeyOpts{Refs: o.Refs, MaxCount: o.MaxCount}
}

// ArtifactKeyOpts returns the cache key options for the render stage. JSON
// output records the requested path, so it is part of the key.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: o.Format, ShowHash: o.ShowHash, ShowRefs: o.ShowRefs}
	if o.Format == FormatJSON {
		opts.Repository = o.Path
	}
	return opts
}

// LabelOptions returns what commit labels include.
func (o *Options) LabelOptions() history.LabelOptions {
	return history.LabelOptions{Hash: o.ShowHash, Decorate: o.ShowRefs}
}

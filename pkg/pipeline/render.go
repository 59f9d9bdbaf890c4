package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/matzehuels/gitlane/pkg/graph"
	"github.com/matzehuels/gitlane/pkg/grid"
	"github.com/matzehuels/gitlane/pkg/history"
	"github.com/matzehuels/gitlane/pkg/observability"
	"github.com/matzehuels/gitlane/pkg/render/dot"
	"github.com/matzehuels/gitlane/pkg/render/text"
)

// Render produces opts.Format output for commits and their rows. textOpts
// only apply to the text format.
func (r *Runner) Render(ctx context.Context, commits []history.Commit, rows []grid.Row[plumbing.Hash], opts Options, textOpts ...text.Option) (out []byte, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Format)
	defer func() {
		observability.Pipeline().OnRenderComplete(ctx, opts.Format, len(out), time.Since(start), err)
	}()

	switch opts.Format {
	case FormatText:
		out = []byte(text.String(rows, Labels(commits, opts), textOpts...))
	case FormatJSON:
		l, err := graph.FromRows(opts.Path, commits, rows)
		if err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		data, err := graph.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		out = append(data, '\n')
	case FormatDOT:
		out = []byte(dot.ToDOT(commits, rows, dot.Options{Hash: opts.ShowHash, Decorate: opts.ShowRefs}))
	case FormatSVG:
		src := dot.ToDOT(commits, rows, dot.Options{Hash: opts.ShowHash, Decorate: opts.ShowRefs})
		out, err = dot.RenderSVG(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
	}

	r.Logger.Debug("rendered output", "format", opts.Format, "bytes", len(out), "duration", time.Since(start))
	return out, nil
}

// Labels returns the text printed next to each commit.
func Labels(commits []history.Commit, opts Options) []string {
	lo := opts.LabelOptions()
	labels := make([]string, len(commits))
	for i, c := range commits {
		labels[i] = c.Label(lo)
	}
	return labels
}

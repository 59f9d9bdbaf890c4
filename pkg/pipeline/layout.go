package pipeline

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/matzehuels/gitlane/pkg/grid"
	"github.com/matzehuels/gitlane/pkg/history"
	"github.com/matzehuels/gitlane/pkg/observability"
)

// Layout places commits on the grid. It never fails: commits come from
// [Runner.Load], which guarantees every commit's id is unique.
func (r *Runner) Layout(ctx context.Context, commits []history.Commit) []grid.Row[plumbing.Hash] {
	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, len(commits))

	rows := grid.Layout[plumbing.Hash](commits)

	width := maxWidth(rows)
	observability.Pipeline().OnLayoutComplete(ctx, len(rows), width, time.Since(start))
	r.Logger.Debug("computed layout", "rows", len(rows), "width", width, "duration", time.Since(start))
	return rows
}

func maxWidth[ID comparable](rows []grid.Row[ID]) int {
	w := 0
	for _, row := range rows {
		w = max(w, row.Width())
	}
	return w
}

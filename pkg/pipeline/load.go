package pipeline

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/matzehuels/gitlane/pkg/errors"
	"github.com/matzehuels/gitlane/pkg/grid"
	"github.com/matzehuels/gitlane/pkg/history"
	"github.com/matzehuels/gitlane/pkg/observability"
)

type loaded struct {
	commits []history.Commit
	key     string // history cache key; empty when the repository has no tips
	hit     bool
}

// Load reads the history of opts.Path in layout order and reports whether
// it came from the cache.
func (r *Runner) Load(ctx context.Context, opts Options) ([]history.Commit, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	l, err := r.load(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	return l.commits, l.hit, nil
}

func (r *Runner) load(ctx context.Context, opts Options) (l loaded, err error) {
	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Path)
	defer func() {
		observability.Pipeline().OnLoadComplete(ctx, opts.Path, len(l.commits), time.Since(start), err)
	}()

	repo, err := history.Open(opts.Path)
	if err != nil {
		return loaded{}, err
	}
	tips, err := repo.Tips(opts.Refs)
	if err != nil {
		return loaded{}, err
	}
	if len(tips) == 0 {
		r.Logger.Debug("repository has no commits", "path", opts.Path)
		return loaded{}, nil
	}

	tipIDs := make([]string, len(tips))
	for i, t := range tips {
		tipIDs[i] = t.Name + ":" + t.Hash.String()
	}
	l.key = r.Keyer.HistoryKey(repo.GitDir(), tipIDs, opts.HistoryKeyOpts())

	if !opts.Refresh {
		l.commits, l.hit = r.cachedHistory(ctx, l.key)
	}
	if !l.hit {
		commits, err := repo.Walk(ctx, tips)
		if err != nil {
			return loaded{}, err
		}
		l.commits = history.Truncate(history.Order(commits), opts.MaxCount)
		r.storeHistory(ctx, l.key, l.commits, opts)
	}

	if opts.CheckOrder {
		if err := grid.CheckOrder[plumbing.Hash](l.commits); err != nil {
			return loaded{}, errors.Wrap(errors.ErrCodeInternal, err, "history order")
		}
	}

	r.Logger.Debug("loaded history",
		"path", opts.Path,
		"tips", len(tips),
		"commits", len(l.commits),
		"cached", l.hit,
		"duration", time.Since(start))
	return l, nil
}

func (r *Runner) cachedHistory(ctx context.Context, key string) ([]history.Commit, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", "history", "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "history")
		return nil, false
	}
	commits, err := decodeHistory(data)
	if err != nil {
		r.Logger.Debug("discarding cached history", "error", err)
		_ = r.Cache.Delete(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "history")
	return commits, true
}

func (r *Runner) storeHistory(ctx context.Context, key string, commits []history.Commit, opts Options) {
	data, err := encodeHistory(commits)
	if err != nil {
		r.Logger.Warn("encode history for cache", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, opts.CacheTTL); err != nil {
		r.Logger.Warn("cache write failed", "key", "history", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "history", len(data))
}

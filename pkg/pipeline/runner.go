package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitlane/pkg/cache"
	"github.com/matzehuels/gitlane/pkg/history"
	"github.com/matzehuels/gitlane/pkg/observability"
	"github.com/matzehuels/gitlane/pkg/render/text"
)

// Runner executes pipeline stages with caching. It keeps no state besides the
// cache and logger, so one Runner can serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means cache.DefaultKeyer, a nil
// cache disables caching and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs load, layout and render. textOpts only affect the text
// format; when any are given the rendered output is not cached.
func (r *Runner) Execute(ctx context.Context, opts Options, textOpts ...text.Option) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	loadStart := time.Now()
	loaded, err := r.load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Commits = loaded.commits
	result.CacheInfo.HistoryHit = loaded.hit
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Commits = len(loaded.commits)

	layoutStart := time.Now()
	result.Rows = r.Layout(ctx, loaded.commits)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.MaxWidth = maxWidth(result.Rows)

	renderStart := time.Now()
	cacheable := len(textOpts) == 0 && loaded.key != ""
	artifactKey := r.Keyer.ArtifactKey(loaded.key, opts.ArtifactKeyOpts())
	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, artifactKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			result.Output = data
			result.CacheInfo.RenderHit = true
			result.Stats.RenderTime = time.Since(renderStart)
			return result, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	out, err := r.Render(ctx, result.Commits, result.Rows, opts, textOpts...)
	if err != nil {
		return nil, err
	}
	result.Output = out
	result.Stats.RenderTime = time.Since(renderStart)

	if cacheable {
		if err := r.Cache.Set(ctx, artifactKey, out, opts.CacheTTL); err != nil {
			r.Logger.Warn("cache write failed", "key", "artifact", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(out))
		}
	}

	r.Logger.Debug("pipeline finished",
		"commits", result.Stats.Commits,
		"width", result.Stats.MaxWidth,
		"load", result.Stats.LoadTime,
		"layout", result.Stats.LayoutTime,
		"render", result.Stats.RenderTime)
	return result, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// encodeHistory and decodeHistory define the cached form of a loaded history.
func encodeHistory(commits []history.Commit) ([]byte, error) {
	return json.Marshal(commits)
}

func decodeHistory(data []byte) ([]history.Commit, error) {
	var commits []history.Commit
	if err := json.Unmarshal(data, &commits); err != nil {
		return nil, fmt.Errorf("decode cached history: %w", err)
	}
	return commits, nil
}

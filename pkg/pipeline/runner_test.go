package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/gitlane/internal/gittest"
	"github.com/matzehuels/gitlane/pkg/cache"
	"github.com/matzehuels/gitlane/pkg/errors"
	"github.com/matzehuels/gitlane/pkg/graph"
	"github.com/matzehuels/gitlane/pkg/observability"
	"github.com/matzehuels/gitlane/pkg/render/text"
)

var diamondText = strings.Join([]string{
	"   ", " *  Merge feature", " |\\",
	" | \\  ", " *  |  main work", " |  | ",
	" |  | ", " |  *  feature work", " | /  ",
	" |/", " *  base", "   ",
}, "\n") + "\n"

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Errorf("NewRunner(nil, nil, nil) = %+v, want defaults", r)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestExecuteText(t *testing.T) {
	repo, _ := gittest.Diamond(t)
	r := NewRunner(nil, nil, nil)

	res, err := r.Execute(context.Background(), Options{Path: repo.Dir})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got := string(res.Output); got != diamondText {
		t.Errorf("Execute() output =\n%s\nwant\n%s", got, diamondText)
	}
	if res.Stats.Commits != 4 || res.Stats.MaxWidth != 2 {
		t.Errorf("Stats = %+v, want 4 commits, width 2", res.Stats)
	}
	if len(res.Rows) != len(res.Commits) {
		t.Errorf("%d rows for %d commits", len(res.Rows), len(res.Commits))
	}
}

func TestExecuteLabels(t *testing.T) {
	repo, h := gittest.Diamond(t)
	r := NewRunner(nil, nil, nil)

	res, err := r.Execute(context.Background(), Options{Path: repo.Dir, ShowHash: true, ShowRefs: true})
	if err != nil {
		t.Fatal(err)
	}
	want := " *  " + h[0].String()[:7] + " (HEAD, master) Merge feature\n"
	if !strings.Contains(string(res.Output), want) {
		t.Errorf("output missing %q:\n%s", want, res.Output)
	}
}

func TestExecuteCaching(t *testing.T) {
	ctx := context.Background()
	repo, h := gittest.Diamond(t)
	r := newFileRunner(t)
	opts := Options{Path: repo.Dir}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.HistoryHit || first.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want misses", first.CacheInfo)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.HistoryHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if string(second.Output) != string(first.Output) {
		t.Error("cached output differs")
	}

	refreshed, err := r.Execute(ctx, Options{Path: repo.Dir, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.HistoryHit || refreshed.CacheInfo.RenderHit {
		t.Errorf("refresh CacheInfo = %+v, want misses", refreshed.CacheInfo)
	}

	// A new commit moves master, so the cached entries no longer apply.
	repo.Branch("master", repo.Commit("next\n", h[0]))
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.HistoryHit {
		t.Error("moved branch should miss the history cache")
	}
	if third.Stats.Commits != 5 || !strings.Contains(string(third.Output), " *  next\n") {
		t.Errorf("third run missed the new commit:\n%s", third.Output)
	}
}

func TestExecuteTextOptionsBypassArtifactCache(t *testing.T) {
	ctx := context.Background()
	repo, _ := gittest.Diamond(t)
	r := newFileRunner(t)
	star := text.WithCellStyle(func(col int, cell string) string {
		return strings.ReplaceAll(cell, "*", "o")
	})

	for range 2 {
		res, err := r.Execute(ctx, Options{Path: repo.Dir}, star)
		if err != nil {
			t.Fatal(err)
		}
		if res.CacheInfo.RenderHit {
			t.Error("styled output should not be served from the cache")
		}
		if !strings.Contains(string(res.Output), " o  base") {
			t.Errorf("cell style not applied:\n%s", res.Output)
		}
	}
}

func TestExecuteJSONKeyedByPath(t *testing.T) {
	ctx := context.Background()
	repo, _ := gittest.Diamond(t)
	sub := repo.Mkdir("sub")
	r := newFileRunner(t)

	if _, err := r.Execute(ctx, Options{Path: repo.Dir, Format: FormatJSON}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, Options{Path: sub, Format: FormatJSON})
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.HistoryHit {
		t.Error("history should be shared between paths of one repository")
	}
	if res.CacheInfo.RenderHit {
		t.Error("JSON for another path should not be served from the cache")
	}
	l, err := graph.Unmarshal(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	if l.Repository != sub {
		t.Errorf("Repository = %q, want %q", l.Repository, sub)
	}
}

func TestExecuteFormats(t *testing.T) {
	ctx := context.Background()
	repo, h := gittest.Diamond(t)
	r := NewRunner(nil, nil, nil)

	res, err := r.Execute(ctx, Options{Path: repo.Dir, Format: FormatJSON})
	if err != nil {
		t.Fatal(err)
	}
	l, err := graph.Unmarshal(res.Output)
	if err != nil {
		t.Fatalf("json output does not parse: %v", err)
	}
	if len(l.Rows) != 4 || l.Rows[0].ID != h[0].String() || l.Repository != repo.Dir {
		t.Errorf("json layout = %+v", l)
	}

	res, err = r.Execute(ctx, Options{Path: repo.Dir, Format: FormatDOT})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(res.Output), "digraph G {") {
		t.Errorf("dot output = %s", res.Output)
	}
}

func TestExecuteMaxCount(t *testing.T) {
	repo, _ := gittest.Diamond(t)
	r := NewRunner(nil, nil, nil)

	res, err := r.Execute(context.Background(), Options{Path: repo.Dir, MaxCount: 1, CheckOrder: true})
	if err != nil {
		t.Fatal(err)
	}
	if want := "   \n *  Merge feature\n   \n"; string(res.Output) != want {
		t.Errorf("output = %q, want %q", res.Output, want)
	}
}

func TestExecuteEmptyRepository(t *testing.T) {
	repo := gittest.New(t)
	r := newFileRunner(t)

	res, err := r.Execute(context.Background(), Options{Path: repo.Dir})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(res.Output) != 0 || len(res.Rows) != 0 {
		t.Errorf("empty repository produced output %q", res.Output)
	}
}

type stageRecorder struct {
	observability.NoopPipelineHooks
	mu      sync.Mutex
	stages  []string
	loadErr error
}

func (s *stageRecorder) OnLoadComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, "load")
	s.loadErr = err
}

func (s *stageRecorder) OnLayoutStart(context.Context, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, "layout")
}

func TestExecuteLoadFailureSkipsLayout(t *testing.T) {
	rec := &stageRecorder{}
	observability.SetPipelineHooks(rec)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), Options{Path: t.TempDir()})
	if !errors.Is(err, errors.ErrCodeRepoNotFound) {
		t.Fatalf("Execute() error = %v, want REPO_NOT_FOUND", err)
	}
	if len(rec.stages) != 1 || rec.stages[0] != "load" {
		t.Errorf("stages = %v, want only load", rec.stages)
	}
	if rec.loadErr == nil {
		t.Error("load hook should receive the error")
	}
}

func TestLoadReportsCacheHit(t *testing.T) {
	ctx := context.Background()
	repo, _ := gittest.Diamond(t)
	r := newFileRunner(t)

	commits, hit, err := r.Load(ctx, Options{Path: repo.Dir})
	if err != nil || hit || len(commits) != 4 {
		t.Fatalf("Load() = %d commits, hit %v, err %v", len(commits), hit, err)
	}
	again, hit, err := r.Load(ctx, Options{Path: repo.Dir})
	if err != nil || !hit {
		t.Fatalf("second Load() hit %v, err %v", hit, err)
	}
	for i := range commits {
		if again[i].Hash != commits[i].Hash || !again[i].When.Equal(commits[i].When) {
			t.Errorf("cached commit %d = %+v, want %+v", i, again[i], commits[i])
		}
	}
}

func TestLabels(t *testing.T) {
	repo, _ := gittest.Diamond(t)
	r := NewRunner(nil, nil, nil)
	commits, _, err := r.Load(context.Background(), Options{Path: repo.Dir})
	if err != nil {
		t.Fatal(err)
	}
	got := Labels(commits, Options{})
	want := []string{"Merge feature", "main work", "feature work", "base"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Labels()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

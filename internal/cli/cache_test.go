package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/gitlane/internal/gittest"
	"github.com/matzehuels/gitlane/pkg/cache"
)

func TestCachePathCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if got, want := strings.TrimSpace(out.String()), filepath.Join(xdg, appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	statusOut = io.Discard
	t.Cleanup(func() { statusOut = os.Stderr })

	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}

	// Clearing a cache that was never created is fine.
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear on missing dir: %v", err)
	}

	// A graph run fills the cache.
	repo, _ := gittest.Diamond(t)
	root = New(io.Discard, LogInfo).RootCommand()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.toml"), repo.Dir})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	entries, _ := filepath.Glob(filepath.Join(dir, "??", "*.json"))
	if len(entries) == 0 {
		t.Fatal("graph run left no cache entries")
	}

	root = New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	entries, _ = filepath.Glob(filepath.Join(dir, "??", "*.json"))
	if len(entries) != 0 {
		t.Errorf("%d entries left after clear", len(entries))
	}
}

func TestNewCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c, err := newCache(true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("newCache(true) = %T, want NullCache", c)
	}

	c, err = newCache(false)
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := c.(*cache.FileCache)
	if !ok {
		t.Fatalf("newCache(false) = %T, want *FileCache", c)
	}
	if err := fc.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Errorf("Set() error: %v", err)
	}
}

package server

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/gitlane/pkg/history"
	"github.com/matzehuels/gitlane/pkg/observability"
)

// watch starts monitoring the git directory and its refs/ tree. Changes are
// debounced and then trigger a [Server.Refresh]. The watcher goroutine is
// tracked by wg and exits when ctx is done.
func (s *Server) watch(ctx context.Context, wg *sync.WaitGroup) error {
	repo, err := history.Open(s.opts.Pipeline.Path)
	if err != nil {
		return err
	}
	gitDir := repo.GitDir()
	if gitDir == "" {
		return fmt.Errorf("repository at %s is not stored on disk", s.opts.Pipeline.Path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(gitDir); err != nil {
		watcher.Close()
		return err
	}
	// fsnotify is not recursive; branch updates land below refs/.
	_ = filepath.WalkDir(filepath.Join(gitDir, "refs"), func(p string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			if err := watcher.Add(p); err != nil {
				s.logger.Debug("cannot watch", "dir", p, "error", err)
			}
		}
		return nil
	})

	wg.Add(1)
	go s.watchLoop(ctx, wg, watcher)
	s.logger.Debug("watching repository", "git_dir", gitDir)
	return nil
}

func (s *Server) watchLoop(ctx context.Context, wg *sync.WaitGroup, watcher *fsnotify.Watcher) {
	defer wg.Done()
	defer watcher.Close()

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) && isRefsDir(event.Name) {
				_ = watcher.Add(event.Name)
			}
			if shouldIgnoreEvent(event) {
				continue
			}
			s.logger.Debug("change detected", "file", filepath.Base(event.Name))

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.opts.Debounce, func() {
				if ctx.Err() != nil {
					return
				}
				observability.Server().OnRepositoryChange(ctx, s.opts.Pipeline.Path)
				_ = s.Refresh(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

func isRefsDir(p string) bool {
	if !strings.Contains(filepath.ToSlash(p), "/refs/") {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	p := filepath.ToSlash(event.Name)

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return true
	}
	if strings.HasSuffix(base, ".lock") {
		return true
	}
	if strings.Contains(p, "/logs/") {
		return true
	}
	switch base {
	case "config", "index", "COMMIT_EDITMSG", "FETCH_HEAD", "ORIG_HEAD":
		return true
	}
	return false
}

package history

import (
	"context"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/matzehuels/gitlane/pkg/errors"
)

// DefaultRefs selects every reference below refs/.
const DefaultRefs = "*"

// maxPeel bounds tag-to-tag chains when peeling annotated tags.
const maxPeel = 16

// Repository is an opened git repository.
type Repository struct {
	repo *git.Repository
	path string
}

// Tip is a reference and the commit it resolves to.
type Tip struct {
	Name  string // full reference name, e.g. refs/heads/main
	Short string // short name, e.g. main
	Hash  plumbing.Hash
}

// Open discovers the repository containing path, walking up the directory
// tree like git does.
func Open(p string) (*Repository, error) {
	if err := errors.ValidateRepoPath(p); err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(p, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRepoNotFound, err, "open repository %s", p)
	}
	return &Repository{repo: repo, path: p}, nil
}

// Path returns the path the repository was opened from.
func (r *Repository) Path() string { return r.path }

// GitDir returns the repository's git directory when it is stored on disk,
// or "" otherwise.
func (r *Repository) GitDir() string {
	if fs, ok := r.repo.Storer.(*filesystem.Storage); ok {
		return fs.Filesystem().Root()
	}
	return ""
}

// Tips returns the references matching pattern, plus HEAD, each resolved to
// a commit. The result is sorted by reference name.
func (r *Repository) Tips(pattern string) ([]Tip, error) {
	if pattern == "" {
		pattern = DefaultRefs
	}
	if err := errors.ValidateRefPattern(pattern); err != nil {
		return nil, err
	}

	iter, err := r.repo.References()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeHistoryUnreadable, err, "list references")
	}
	defer iter.Close()

	var tips []Tip
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		if name != plumbing.HEAD && !MatchRef(pattern, name.String()) {
			return nil
		}
		resolved, err := r.repo.Reference(name, true)
		if err != nil {
			// Unborn HEAD or a dangling symbolic ref.
			return nil
		}
		h, ok := r.peel(resolved.Hash())
		if !ok {
			return nil
		}
		tips = append(tips, Tip{Name: name.String(), Short: name.Short(), Hash: h})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeHistoryUnreadable, err, "list references")
	}

	slices.SortFunc(tips, func(a, b Tip) int { return strings.Compare(a.Name, b.Name) })
	return tips, nil
}

// peel follows annotated tags until it reaches a commit.
func (r *Repository) peel(h plumbing.Hash) (plumbing.Hash, bool) {
	for range maxPeel {
		obj, err := r.repo.Object(plumbing.AnyObject, h)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		switch o := obj.(type) {
		case *object.Commit:
			return o.Hash, true
		case *object.Tag:
			h = o.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}

// Walk collects every commit reachable from tips, in no particular order.
// Commits at a shallow boundary are reported without parents.
func (r *Repository) Walk(ctx context.Context, tips []Tip) ([]Commit, error) {
	shallow := map[plumbing.Hash]bool{}
	if hashes, err := r.repo.Storer.Shallow(); err == nil {
		for _, h := range hashes {
			shallow[h] = true
		}
	}

	decorations := map[plumbing.Hash][]string{}
	stack := make([]plumbing.Hash, 0, len(tips))
	for _, t := range tips {
		decorations[t.Hash] = append(decorations[t.Hash], t.Short)
		stack = append(stack, t.Hash)
	}

	seen := make(map[plumbing.Hash]bool)
	var out []Commit
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] {
			continue
		}
		seen[h] = true

		obj, err := r.repo.CommitObject(h)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeHistoryUnreadable, err, "read commit %s", h)
		}
		c := fromObject(obj, decorations[h])
		if shallow[h] {
			c.ParentHashes = nil
		}
		out = append(out, c)
		stack = append(stack, c.ParentHashes...)
	}
	return out, nil
}

// MatchRef reports whether a full reference name matches pattern. The
// pattern is matched against the name without its refs/ prefix; a pattern
// also matches every reference below a matching directory, so "*" selects
// everything and "heads" selects all branches.
func MatchRef(pattern, name string) bool {
	rest, ok := strings.CutPrefix(name, "refs/")
	if !ok {
		return false
	}
	prefix := rest
	for {
		if ok, _ := path.Match(pattern, prefix); ok {
			return true
		}
		i := strings.LastIndexByte(prefix, '/')
		if i < 0 {
			return false
		}
		prefix = prefix[:i]
	}
}

// Options configures [Load].
type Options struct {
	Refs     string // reference pattern, default all
	MaxCount int    // keep only the newest MaxCount commits when positive
}

// Load opens the repository at path and returns its history in layout order.
func Load(ctx context.Context, p string, opts Options) ([]Commit, error) {
	repo, err := Open(p)
	if err != nil {
		return nil, err
	}
	tips, err := repo.Tips(opts.Refs)
	if err != nil {
		return nil, err
	}
	commits, err := repo.Walk(ctx, tips)
	if err != nil {
		return nil, err
	}
	return Truncate(Order(commits), opts.MaxCount), nil
}

// Truncate keeps the first n commits when n is positive.
func Truncate(commits []Commit, n int) []Commit {
	if n > 0 && len(commits) > n {
		return commits[:n]
	}
	return commits
}

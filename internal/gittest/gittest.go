// Package gittest builds small on-disk git repositories for tests.
package gittest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Epoch is the committer time of the first commit made by a [Repo].
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// Repo is a repository under a test's temporary directory. Every commit is
// one minute newer than the previous one.
type Repo struct {
	t     testing.TB
	Dir   string
	Git   *git.Repository
	tree  plumbing.Hash
	clock time.Time
}

// New initializes an empty non-bare repository.
func New(t testing.TB) *Repo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}
	r := &Repo{t: t, Dir: dir, Git: repo, clock: Epoch.Add(-time.Minute)}
	r.tree = r.store(&object.Tree{})
	return r
}

type encoder interface {
	Encode(plumbing.EncodedObject) error
}

func (r *Repo) store(o encoder) plumbing.Hash {
	r.t.Helper()
	obj := r.Git.Storer.NewEncodedObject()
	if err := o.Encode(obj); err != nil {
		r.t.Fatalf("encode object: %v", err)
	}
	h, err := r.Git.Storer.SetEncodedObject(obj)
	if err != nil {
		r.t.Fatalf("store object: %v", err)
	}
	return h
}

// Commit writes a commit with an empty tree and returns its hash.
func (r *Repo) Commit(message string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	r.clock = r.clock.Add(time.Minute)
	sig := object.Signature{Name: "Ada", Email: "ada@example.com", When: r.clock}
	return r.store(&object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     r.tree,
		ParentHashes: parents,
	})
}

// Branch points refs/heads/name at h. "master" is what HEAD refers to.
func (r *Repo) Branch(name string, h plumbing.Hash) {
	r.t.Helper()
	r.SetRef(plumbing.NewBranchReferenceName(name), h)
}

// SetRef points an arbitrary reference at h.
func (r *Repo) SetRef(name plumbing.ReferenceName, h plumbing.Hash) {
	r.t.Helper()
	if err := r.Git.Storer.SetReference(plumbing.NewHashReference(name, h)); err != nil {
		r.t.Fatalf("set reference %s: %v", name, err)
	}
}

// Tag creates an annotated tag pointing at h.
func (r *Repo) Tag(name string, h plumbing.Hash) {
	r.t.Helper()
	_, err := r.Git.CreateTag(name, h, &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Ada", Email: "ada@example.com", When: r.clock},
		Message: name,
	})
	if err != nil {
		r.t.Fatalf("create tag %s: %v", name, err)
	}
}

// Mkdir creates a directory inside the worktree and returns its path.
func (r *Repo) Mkdir(rel string) string {
	r.t.Helper()
	p := filepath.Join(r.Dir, rel)
	if err := os.MkdirAll(p, 0o755); err != nil {
		r.t.Fatalf("mkdir %s: %v", rel, err)
	}
	return p
}

// Diamond builds the history
//
//	merge -> main, feature -> base
//
// with master at merge and returns the hashes newest first:
// merge, main, feature, base.
func Diamond(t testing.TB) (*Repo, []plumbing.Hash) {
	t.Helper()
	r := New(t)
	base := r.Commit("base\n")
	feature := r.Commit("feature work\n", base)
	main := r.Commit("main work\n", base)
	merge := r.Commit("Merge feature\n\nLonger body.\n", main, feature)
	r.Branch("master", merge)
	return r, []plumbing.Hash{merge, main, feature, base}
}

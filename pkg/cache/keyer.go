package cache

import (
	"slices"
	"strings"
)

// Keyer builds cache keys.
type Keyer interface {
	// HistoryKey identifies an ordered commit list loaded from repo with
	// the given reference tips.
	HistoryKey(repo string, tips []string, opts HistoryKeyOpts) string

	// ArtifactKey identifies a rendered diagram of the history stored
	// under historyKey.
	ArtifactKey(historyKey string, opts ArtifactKeyOpts) string
}

// HistoryKeyOpts are the walk options that change a loaded history.
type HistoryKeyOpts struct {
	Refs     string `json:"refs"`
	MaxCount int    `json:"max_count"`
}

// ArtifactKeyOpts are the render options that change a diagram.
// Repository is set for formats that embed the requested path.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	ShowHash   bool   `json:"show_hash,omitempty"`
	ShowRefs   bool   `json:"show_refs,omitempty"`
	Repository string `json:"repository,omitempty"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HistoryKey returns "history:<sha256>". The tips are sorted first, so the
// order in which references were listed does not matter.
func (DefaultKeyer) HistoryKey(repo string, tips []string, opts HistoryKeyOpts) string {
	sorted := slices.Clone(tips)
	slices.Sort(sorted)
	return hashKey("history", repo, strings.Join(sorted, ","), opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(historyKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", historyKey, opts)
}

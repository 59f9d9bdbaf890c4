package history

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// shortHashLen is the abbreviated hash length used in labels.
const shortHashLen = 7

// Commit is one node of the history. It implements grid.Node[plumbing.Hash].
type Commit struct {
	Hash         plumbing.Hash
	ParentHashes []plumbing.Hash
	Summary      string    // first line of the message
	Author       string    // author name
	When         time.Time // committer time
	Refs         []string  // short names of references pointing here
}

// ID returns the commit hash.
func (c Commit) ID() plumbing.Hash { return c.Hash }

// Parents returns the parent hashes in declaration order.
func (c Commit) Parents() []plumbing.Hash { return c.ParentHashes }

// ShortHash returns the abbreviated commit hash.
func (c Commit) ShortHash() string { return c.Hash.String()[:shortHashLen] }

// LabelOptions selects what [Commit.Label] includes besides the summary.
type LabelOptions struct {
	Hash     bool // prefix the abbreviated hash
	Decorate bool // add reference names in parentheses
}

// Label returns the text printed next to the commit in a diagram.
func (c Commit) Label(opts LabelOptions) string {
	var parts []string
	if opts.Hash {
		parts = append(parts, c.ShortHash())
	}
	if opts.Decorate && len(c.Refs) > 0 {
		parts = append(parts, "("+strings.Join(c.Refs, ", ")+")")
	}
	parts = append(parts, c.Summary)
	return strings.Join(parts, " ")
}

// Summary returns the first line of a commit message, trimmed.
func Summary(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(line)
}

func fromObject(c *object.Commit, refs []string) Commit {
	return Commit{
		Hash:         c.Hash,
		ParentHashes: append([]plumbing.Hash(nil), c.ParentHashes...),
		Summary:      Summary(c.Message),
		Author:       c.Author.Name,
		When:         c.Committer.When,
		Refs:         refs,
	}
}

type commitJSON struct {
	Hash    string    `json:"hash"`
	Parents []string  `json:"parents,omitempty"`
	Summary string    `json:"summary"`
	Author  string    `json:"author,omitempty"`
	When    time.Time `json:"when"`
	Refs    []string  `json:"refs,omitempty"`
}

// MarshalJSON encodes hashes as hex strings.
func (c Commit) MarshalJSON() ([]byte, error) {
	out := commitJSON{
		Hash:    c.Hash.String(),
		Summary: c.Summary,
		Author:  c.Author,
		When:    c.When,
		Refs:    c.Refs,
	}
	for _, p := range c.ParentHashes {
		out.Parents = append(out.Parents, p.String())
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (c *Commit) UnmarshalJSON(data []byte) error {
	var in commitJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = Commit{
		Hash:    plumbing.NewHash(in.Hash),
		Summary: in.Summary,
		Author:  in.Author,
		When:    in.When,
		Refs:    in.Refs,
	}
	for _, p := range in.Parents {
		c.ParentHashes = append(c.ParentHashes, plumbing.NewHash(p))
	}
	return nil
}

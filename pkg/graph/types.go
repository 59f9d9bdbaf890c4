package graph

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/matzehuels/gitlane/pkg/grid"
	"github.com/matzehuels/gitlane/pkg/history"
)

// Layout is a serialized laid-out history.
type Layout struct {
	Repository string `json:"repository,omitempty"`
	Width      int    `json:"width"` // widest row
	Rows       []Row  `json:"rows"`
}

// Row is one commit and its grid row.
type Row struct {
	ID       string    `json:"id"`
	Parents  []string  `json:"parents,omitempty"`
	Summary  string    `json:"summary"`
	Author   string    `json:"author,omitempty"`
	When     time.Time `json:"when"`
	Refs     []string  `json:"refs,omitempty"`
	Cells    []string  `json:"cells"`
	Active   int       `json:"active"`
	TopLinks [][2]int  `json:"top_links,omitempty"`
	BotLinks [][2]int  `json:"bot_links,omitempty"`
}

// FromRows pairs commits with the rows grid.Layout computed for them.
// The slices must have the same length.
func FromRows(repo string, commits []history.Commit, rows []grid.Row[plumbing.Hash]) (Layout, error) {
	if len(commits) != len(rows) {
		return Layout{}, fmt.Errorf("%d commits but %d rows", len(commits), len(rows))
	}
	out := Layout{Repository: repo, Rows: make([]Row, len(rows))}
	for i, r := range rows {
		c := commits[i]
		row := Row{
			ID:       c.Hash.String(),
			Summary:  c.Summary,
			Author:   c.Author,
			When:     c.When,
			Refs:     c.Refs,
			Cells:    make([]string, len(r.Cells)),
			Active:   int(r.Active),
			TopLinks: links(r.TopLinks),
			BotLinks: links(r.BotLinks),
		}
		for _, p := range c.ParentHashes {
			row.Parents = append(row.Parents, p.String())
		}
		for j, cell := range r.Cells {
			row.Cells[j] = cell.ID.String()
		}
		out.Rows[i] = row
		out.Width = max(out.Width, len(r.Cells))
	}
	return out, nil
}

func links(ls []grid.Link) [][2]int {
	if len(ls) == 0 {
		return nil
	}
	out := make([][2]int, len(ls))
	for i, l := range ls {
		out[i] = [2]int{int(l.From), int(l.To)}
	}
	return out
}

// Grid converts the serialized rows back to grid rows keyed by hex hash.
func (l Layout) Grid() []grid.Row[string] {
	if len(l.Rows) == 0 {
		return nil
	}
	out := make([]grid.Row[string], len(l.Rows))
	for i, r := range l.Rows {
		row := grid.Row[string]{
			Cells:  make([]grid.Cell[string], len(r.Cells)),
			Active: grid.CellID(r.Active),
		}
		for j, id := range r.Cells {
			row.Cells[j] = grid.Cell[string]{ID: id}
		}
		for _, p := range r.TopLinks {
			row.TopLinks = append(row.TopLinks, grid.Link{From: grid.CellID(p[0]), To: grid.CellID(p[1])})
		}
		for _, p := range r.BotLinks {
			row.BotLinks = append(row.BotLinks, grid.Link{From: grid.CellID(p[0]), To: grid.CellID(p[1])})
		}
		out[i] = row
	}
	return out
}

// Labels returns the summary of every row.
func (l Layout) Labels() []string {
	out := make([]string, len(l.Rows))
	for i, r := range l.Rows {
		out[i] = r.Summary
	}
	return out
}

package grid

import (
	"errors"
	"fmt"
)

// ErrOrder is returned by [CheckOrder] when a node's parent appears earlier
// in the sequence than the node itself.
var ErrOrder = errors.New("parent precedes child")

// Node is a vertex of an ancestry graph that can be laid out.
//
// ID must be usable as a map key. Parents lists the parent ids in declaration
// order; the order decides which parent keeps the node's column on a fork.
// Nodes are not validated: a node listing itself or the same parent twice is
// laid out like any other.
type Node[ID comparable] interface {
	ID() ID
	Parents() []ID
}

// CellID is a zero-based column index into one row's cells.
// It is not stable across rows.
type CellID int

// Cell is one column of a row.
type Cell[ID comparable] struct {
	ID ID
}

// Link connects column From in one row to column To in the row below it.
type Link struct {
	From CellID
	To   CellID
}

// Row is one step of the layout, corresponding to one input node.
type Row[ID comparable] struct {
	Cells    []Cell[ID] // live columns, left to right
	Active   CellID     // column holding the row's own node
	TopLinks []Link     // previous row column → this row column
	BotLinks []Link     // this row column → next row column
}

// Width returns the number of columns in the row.
func (r Row[ID]) Width() int { return len(r.Cells) }

// ActiveID returns the id held by the active column.
func (r Row[ID]) ActiveID() ID { return r.Cells[r.Active].ID }

// Column returns the column holding id, or -1 when id is not alive in the row.
func (r Row[ID]) Column(id ID) CellID {
	for i, c := range r.Cells {
		if c.ID == id {
			return CellID(i)
		}
	}
	return -1
}

// CheckOrder reports whether every node precedes all of its parents that are
// part of nodes. It returns an error wrapping [ErrOrder] for the first
// violation found. Parents missing from nodes and self-references are ignored.
func CheckOrder[ID comparable, N Node[ID]](nodes []N) error {
	pos := make(map[ID]int, len(nodes))
	for i, n := range nodes {
		if _, seen := pos[n.ID()]; !seen {
			pos[n.ID()] = i
		}
	}
	for i, n := range nodes {
		for _, p := range n.Parents() {
			if j, ok := pos[p]; ok && j < i {
				return fmt.Errorf("%w: node %v at %d has parent %v at %d", ErrOrder, n.ID(), i, p, j)
			}
		}
	}
	return nil
}

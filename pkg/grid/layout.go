package grid

import (
	"fmt"
	"iter"
	"slices"
)

// Layout computes one row per node, in input order. It returns nil when
// nodes is empty.
//
// Layout panics if the recurrence ever finds the previous row's active column
// holding an id other than the previous node's; that cannot happen for rows
// built by this package and indicates a bug, not bad input.
func Layout[ID comparable, N Node[ID]](nodes []N) []Row[ID] {
	if len(nodes) == 0 {
		return nil
	}
	rows := make([]Row[ID], 0, len(nodes))
	for row := range Rows[ID](slices.Values(nodes)) {
		rows = append(rows, row)
	}
	return rows
}

// Rows is the streaming form of [Layout]. Row i is yielded as soon as row i+1
// has been built, since only then are its BotLinks known; the last row is
// yielded when seq is exhausted.
//
// The sequence is not restartable mid-stream: ranging over the result again
// replays seq from its first node.
func Rows[ID comparable, N Node[ID]](seq iter.Seq[N]) iter.Seq[Row[ID]] {
	return func(yield func(Row[ID]) bool) {
		var (
			prev     Row[ID]
			prevNode N
			started  bool
		)
		for node := range seq {
			if !started {
				prev = Row[ID]{Cells: []Cell[ID]{{ID: node.ID()}}}
				prevNode, started = node, true
				continue
			}
			next := advance(&prev, prevNode, node)
			if !yield(prev) {
				return
			}
			prev, prevNode = next, node
		}
		if started {
			yield(prev)
		}
	}
}

// entry is one worklist item. linked is false only for the trailing entry
// that forces the next node into the row.
type entry[ID comparable] struct {
	id     ID
	src    CellID
	linked bool
}

// advance builds the row for next from prev and finalizes prev.BotLinks.
func advance[ID comparable, N Node[ID]](prev *Row[ID], prevNode, next N) Row[ID] {
	prevID := prevNode.ID()
	if a := prev.Active; a < 0 || int(a) >= len(prev.Cells) || prev.Cells[a].ID != prevID {
		panic(fmt.Sprintf("grid: active cell %d of previous row does not hold node %v", a, prevID))
	}

	parents := prevNode.Parents()
	work := make([]entry[ID], 0, len(prev.Cells)+len(parents)+1)
	for i, c := range prev.Cells {
		src := CellID(i)
		if c.ID != prevID {
			work = append(work, entry[ID]{id: c.ID, src: src, linked: true})
			continue
		}
		for _, p := range parents {
			work = append(work, entry[ID]{id: p, src: src, linked: true})
		}
	}
	work = append(work, entry[ID]{id: next.ID()})

	var row Row[ID]
	pos := make(map[ID]CellID, len(work))
	for _, e := range work {
		col, ok := pos[e.id]
		if !ok {
			col = CellID(len(row.Cells))
			pos[e.id] = col
			row.Cells = append(row.Cells, Cell[ID]{ID: e.id})
		}
		if e.linked {
			row.TopLinks = append(row.TopLinks, Link{From: e.src, To: col})
		}
	}

	prev.BotLinks = slices.Clone(row.TopLinks)
	row.Active = pos[next.ID()]
	return row
}

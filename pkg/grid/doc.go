// Package grid lays out an ancestry graph as a grid of rows and columns,
// the way commit-graph visualizers draw history next to a log.
//
// # Overview
//
// The input is a sequence of [Node] values ordered newest-first so that every
// node appears before its parents. The output is one [Row] per input node.
// Each row lists the branches that are alive at that point as cells (columns),
// marks the column that holds the row's own node as active, and records the
// links that connect its columns to the previous and next rows.
//
// The layout is computed in a single forward pass. Row i+1 depends only on
// row i and the pair (nodes[i], nodes[i+1]):
//
//	rows := grid.Layout[string](nodes)
//	for i, row := range rows {
//	    fmt.Println(row.ActiveID() == nodes[i].ID()) // always true
//	}
//
// # Column Assignment
//
// Building row i+1 starts from a worklist scanned left to right over the cells
// of row i. The cell holding nodes[i] expands into one entry per parent, in
// parent order; every other cell passes through unchanged. A final entry for
// nodes[i+1] guarantees the next node has a column even when the walk jumps to
// an unrelated branch.
//
// Columns are assigned first-seen-wins: the first entry for an id creates its
// column, later entries for the same id only add a link into that column.
// This keeps a branch in the same column for as long as nothing happens to it,
// and collapses reconverging branches into a single column while keeping one
// link per source.
//
// # Links
//
// [Row.TopLinks] holds (previous column, this column) pairs. [Row.BotLinks]
// holds (this column, next column) pairs and always equals the next row's
// TopLinks; it is stored on both rows so each row can be drawn on its own.
// BotLinks of row i is written exactly once, while row i+1 is being built.
//
// # Ordering
//
// [Layout] accepts any order and produces a well-defined grid. When parents
// precede children the diagram is still valid but columns do not connect the
// way a reader expects; [CheckOrder] reports such inputs.
//
// # Concurrency
//
// All functions are pure and safe for concurrent use on distinct inputs.
// Rows returned by [Layout] share no memory with each other.
package grid

// Package dot exports laid-out histories as Graphviz diagrams.
//
// [ToDOT] emits one box per commit and an edge from every commit to each of
// its parents that is part of the history. Nodes carry group="col<n>" for
// the column the layout engine placed them in, so graphviz keeps commits of
// one lane vertically aligned, and are outlined in that column's color.
//
//	src := dot.ToDOT(commits, rows, dot.Options{Decorate: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// [RenderSVG] runs graphviz in-process through
// [github.com/goccy/go-graphviz]; no external binary is needed.
package dot

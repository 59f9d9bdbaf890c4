package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gitlane/pkg/grid"
	"github.com/matzehuels/gitlane/pkg/history"
)

// Options configures DOT generation.
type Options struct {
	Hash     bool // include the abbreviated hash in labels
	Decorate bool // include reference names in labels
}

// LaneColors outlines nodes by column, cycling when there are more columns.
var LaneColors = []string{"#0891b2", "#16a34a", "#d97706", "#db2777", "#7c3aed", "#dc2626"}

// ToDOT converts commits and the rows laid out for them to DOT source.
// rows[i] must be the row of commits[i].
func ToDOT(commits []history.Commit, rows []grid.Row[plumbing.Hash], opts Options) string {
	present := make(map[plumbing.Hash]bool, len(commits))
	for _, c := range commits {
		present[c.Hash] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=12, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=0.3;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i, c := range commits {
		col := 0
		if i < len(rows) {
			col = int(rows[i].Active)
		}
		attrs := fmtAttrs(c, col, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", c.Hash.String(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range commits {
		for _, p := range c.ParentHashes {
			if present[p] {
				fmt.Fprintf(&buf, "  %q -> %q;\n", c.Hash.String(), p.String())
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(c history.Commit, col int, opts Options) []string {
	label := c.Label(history.LabelOptions{Hash: opts.Hash, Decorate: opts.Decorate})
	return []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("group=\"col%d\"", col),
		fmt.Sprintf("color=%q", LaneColors[col%len(LaneColors)]),
	}
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox moves the viewBox origin to 0,0 and sets matching pixel
// dimensions so browsers size the image the same way graphviz laid it out.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Package render groups the output formats for laid-out histories.
//
//   - [text]: the three-lines-per-row text diagram printed by the CLI
//   - [dot]: Graphviz DOT source and SVG rendered from it
//
// The JSON wire format lives in package graph.
//
// [text]: github.com/matzehuels/gitlane/pkg/render/text
// [dot]: github.com/matzehuels/gitlane/pkg/render/dot
package render

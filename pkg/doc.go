// Package pkg provides the libraries behind gitlane.
//
// # Overview
//
// gitlane draws a repository's commit history as a text ancestry graph. The
// pkg directory is organized by stage:
//
//  1. [history] - Repository discovery, reference tips and commit order
//  2. [grid] - The graph-to-grid layout engine
//  3. [render] - Text, DOT and SVG output
//  4. [graph] - JSON wire format for laid-out histories
//  5. [pipeline] - Orchestration (load → layout → render) with caching
//
// Supporting packages: [cache] (file, redis and null backends), [errors]
// (coded errors), [observability] (event hooks) and [buildinfo].
//
// # Architecture
//
//	git repository
//	       ↓
//	  [history] package (tips, walk, topological order)
//	       ↓
//	  [grid] package (one row per commit, lanes and links)
//	       ↓
//	  [render/text] or [render/dot] package
//	       ↓
//	  text / JSON / DOT / SVG output
//
// # Quick Start
//
//	commits, err := history.Load(ctx, ".", history.Options{})
//	if err != nil {
//	    return err
//	}
//	rows := grid.Layout[plumbing.Hash](commits)
//	labels := make([]string, len(commits))
//	for i, c := range commits {
//	    labels[i] = c.Summary
//	}
//	return text.Write(os.Stdout, rows, labels)
//
// For caching and output formats, use [pipeline.Runner] instead.
package pkg

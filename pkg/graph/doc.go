// Package graph defines the JSON wire format for laid-out histories.
//
// The format is what `gitlane --format json` prints and what the HTTP API
// serves. Each row carries the commit it shows and the grid row computed for
// it, with cell ids written as full hex hashes and links as [from, to] pairs:
//
//	{
//	  "repository": "/src/project",
//	  "width": 2,
//	  "rows": [
//	    {
//	      "id": "4f2a...",
//	      "parents": ["91c0..."],
//	      "summary": "add parser",
//	      "when": "2024-01-01T12:00:00Z",
//	      "cells": ["4f2a..."],
//	      "active": 0,
//	      "bot_links": [[0, 0]]
//	    }
//	  ]
//	}
//
// [FromRows] builds a [Layout] from commits and their grid rows; [Layout.Grid]
// recovers grid rows keyed by hex hash, so a client can render the text
// diagram without access to the repository.
package graph

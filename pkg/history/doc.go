// Package history reads a repository's commit history in the order the
// layout engine expects.
//
// # Overview
//
// [Open] discovers a git repository from any path inside it. [Repository.Tips]
// lists the commits that references point to, [Repository.Walk] collects every
// commit reachable from them, and [Order] sorts the result topologically,
// newest first, so that every commit precedes its parents:
//
//	commits, err := history.Load(ctx, ".", history.Options{})
//	if err != nil {
//	    return err
//	}
//	rows := grid.Layout[plumbing.Hash](commits)
//
// [Commit] implements grid.Node, so the loaded slice can be handed to the
// layout engine without conversion.
//
// # References
//
// By default every reference below refs/ is used, plus HEAD. A pattern such as
// "heads/*" or "tags/v1.*" restricts the tips; '*' also matches across '/'
// the way git's --glob does. Annotated tags are peeled to the commit they
// point at; references that do not lead to a commit are skipped.
//
// # Errors
//
// A path that is not inside a repository yields an error with code
// REPO_NOT_FOUND. Missing or corrupt objects during the walk yield
// HISTORY_UNREADABLE. No partial history is returned on error.
package history

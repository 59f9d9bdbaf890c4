package history

import (
	"bytes"
	"container/heap"

	"github.com/go-git/go-git/v5/plumbing"
)

// Order sorts commits topologically, newest first: every commit precedes all
// of its parents that are part of commits. Among commits whose children have
// all been emitted, the one with the latest committer time goes first; equal
// times fall back to the hash so the order is deterministic.
//
// Parents missing from commits are ignored. The input slice is not modified.
func Order(commits []Commit) []Commit {
	index := make(map[plumbing.Hash]int, len(commits))
	for i, c := range commits {
		index[c.Hash] = i
	}

	// pending counts the children of each commit not yet emitted.
	pending := make([]int, len(commits))
	for _, c := range commits {
		for _, p := range c.ParentHashes {
			if j, ok := index[p]; ok {
				pending[j]++
			}
		}
	}

	ready := &readyQueue{commits: commits}
	for i := range commits {
		if pending[i] == 0 {
			ready.items = append(ready.items, i)
		}
	}
	heap.Init(ready)

	out := make([]Commit, 0, len(commits))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		out = append(out, commits[i])
		for _, p := range commits[i].ParentHashes {
			j, ok := index[p]
			if !ok {
				continue
			}
			if pending[j]--; pending[j] == 0 {
				heap.Push(ready, j)
			}
		}
	}
	return out
}

// readyQueue is a max-heap of commit indexes ordered by committer time.
type readyQueue struct {
	commits []Commit
	items   []int
}

func (q *readyQueue) Len() int { return len(q.items) }

func (q *readyQueue) Less(a, b int) bool {
	x, y := q.commits[q.items[a]], q.commits[q.items[b]]
	if !x.When.Equal(y.When) {
		return x.When.After(y.When)
	}
	return bytes.Compare(x.Hash[:], y.Hash[:]) < 0
}

func (q *readyQueue) Swap(a, b int) { q.items[a], q.items[b] = q.items[b], q.items[a] }

func (q *readyQueue) Push(x any) { q.items = append(q.items, x.(int)) }

func (q *readyQueue) Pop() any {
	n := len(q.items)
	x := q.items[n-1]
	q.items = q.items[:n-1]
	return x
}

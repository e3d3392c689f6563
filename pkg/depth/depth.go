// Package depth computes assembly depth: the length in edges of the longest
// forward chain from a root down to a leaf.
package depth

import (
	"github.com/ritzau/refgraph/pkg/graph"
)

type frame struct {
	id       int64
	children []int64
	next     int
	best     int
	tainted  bool
}

// AssemblyDepth returns the longest forward chain below root.
//
// A node without children has depth 0, any other node has 1 plus the largest
// child depth. Only the nodes on the current path count as visited, so sibling
// branches may revisit a shared descendant (diamonds) while a node reached again
// along its own path contributes 0 and ends the branch. An unknown root is 0.
//
// Depths are memoized for nodes whose exploration never reached a node on the
// active path. Such a node cannot reach a cycle, so its depth does not depend
// on how it was reached.
func AssemblyDepth(store *graph.Store, root int64) int {
	if !store.HasNode(root) {
		return 0
	}

	memo := make(map[int64]int)
	onPath := map[int64]bool{root: true}
	stack := []frame{{id: root, children: store.Children(root)}}

	for {
		top := &stack[len(stack)-1]

		if top.next < len(top.children) {
			child := top.children[top.next]
			top.next++

			if onPath[child] {
				top.tainted = true
				top.best = max(top.best, 1)
				continue
			}
			if d, ok := memo[child]; ok {
				top.best = max(top.best, d+1)
				continue
			}

			onPath[child] = true
			stack = append(stack, frame{id: child, children: store.Children(child)})
			continue
		}

		done := *top
		stack = stack[:len(stack)-1]
		delete(onPath, done.id)
		if !done.tainted {
			memo[done.id] = done.best
		}

		if len(stack) == 0 {
			return done.best
		}

		parent := &stack[len(stack)-1]
		parent.best = max(parent.best, done.best+1)
		parent.tainted = parent.tainted || done.tainted
	}
}

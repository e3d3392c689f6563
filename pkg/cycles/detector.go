// Package cycles finds circular references in the forward reference graph.
//
// DetectCircularRefs answers "is there a cycle, and show me one": each
// depth-first descent stops at its first cycle-closing edge, so the result is
// non-empty exactly when the graph is cyclic but does not list every cycle.
// StronglyConnected is the separate, exhaustive view grouping every node that
// takes part in some cycle.
package cycles

import (
	"github.com/ritzau/refgraph/pkg/graph"
)

// Edge is a cycle-closing edge: To was on the active DFS path when reached from From
type Edge struct {
	From int64
	To   int64
}

type frame struct {
	id       int64
	children []int64
	next     int
}

// DetectCircularRefs runs a colored DFS from every node not yet visited, in ID order,
// and reports the first back edge found by each descent. The DFS uses an explicit
// stack, so arbitrarily deep chains are safe.
func DetectCircularRefs(store *graph.Store) []Edge {
	found := make([]Edge, 0)
	visited := make(map[int64]bool)

	for _, start := range store.NodeIDs() {
		if visited[start] {
			continue
		}
		if edge, ok := descend(store, start, visited); ok {
			found = append(found, edge)
		}
	}

	return found
}

// descend explores from start until it finds a back edge or exhausts the reachable nodes.
// The recursion stack is local to the descent; the visited set is shared.
func descend(store *graph.Store, start int64, visited map[int64]bool) (Edge, bool) {
	onStack := map[int64]bool{start: true}
	visited[start] = true
	stack := []frame{{id: start, children: store.Children(start)}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.children) {
			delete(onStack, top.id)
			stack = stack[:len(stack)-1]
			continue
		}

		child := top.children[top.next]
		top.next++

		if onStack[child] {
			return Edge{From: top.id, To: child}, true
		}
		if visited[child] {
			continue
		}

		visited[child] = true
		onStack[child] = true
		stack = append(stack, frame{id: child, children: store.Children(child)})
	}

	return Edge{}, false
}

// HasCycle returns true if the forward graph contains at least one directed cycle
func HasCycle(store *graph.Store) bool {
	return len(DetectCircularRefs(store)) > 0
}

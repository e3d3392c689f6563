// Package traversal computes reachability sets over the reference graph with
// breadth-first search, forward ("what does X depend on") or reverse
// ("where is X used").
package traversal

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"

	refgraph "github.com/ritzau/refgraph/pkg/graph"
	"github.com/ritzau/refgraph/pkg/model"
)

// Dependencies returns every node reachable from root via forward edges, excluding root
func Dependencies(store *refgraph.Store, root int64) []int64 {
	return Reachable(store, root, model.Forward)
}

// References returns every node reachable from root via reverse edges, excluding root
func References(store *refgraph.Store, root int64) []int64 {
	return Reachable(store, root, model.Reverse)
}

// Reachable runs a BFS from root in the given direction. Each reachable node
// appears exactly once regardless of how many paths lead to it. The result is
// sorted by node ID; an unknown root yields an empty result.
func Reachable(store *refgraph.Store, root int64, dir model.Direction) []int64 {
	reached := make([]int64, 0)
	if !store.HasNode(root) {
		return reached
	}

	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != root {
				reached = append(reached, n.ID())
			}
		},
	}
	bf.Walk(view(store, dir), store.Graph().Node(root), nil)

	slices.Sort(reached)
	return reached
}

// Distance pairs a reached node with its hop count from the root
type Distance struct {
	ID   int64
	Hops int
}

// WithinDistance returns nodes reachable from root in at most maxHops steps,
// each with its shortest hop count. Root itself is excluded. A negative
// maxHops means unbounded. The result is ordered by hops, then ID.
func WithinDistance(store *refgraph.Store, root int64, dir model.Direction, maxHops int) []Distance {
	reached := make([]Distance, 0)
	if !store.HasNode(root) {
		return reached
	}

	bf := traverse.BreadthFirst{}
	bf.Walk(view(store, dir), store.Graph().Node(root), func(n graph.Node, depth int) bool {
		if maxHops >= 0 && depth > maxHops {
			// Nodes are dequeued in non-decreasing depth, nothing closer remains
			return true
		}
		if n.ID() != root {
			reached = append(reached, Distance{ID: n.ID(), Hops: depth})
		}
		return false
	})

	slices.SortFunc(reached, func(a, b Distance) int {
		if a.Hops != b.Hops {
			return a.Hops - b.Hops
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return reached
}

func view(store *refgraph.Store, dir model.Direction) traverse.Graph {
	if dir == model.Reverse {
		return store.Reverse()
	}
	return store.Graph()
}

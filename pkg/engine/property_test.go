package engine

import (
	"fmt"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

const propertyNodes = 8

type edge struct{ parent, child int }

// decodeEdges turns generated codes into edges over propertyNodes nodes
func decodeEdges(codes []int) []edge {
	edges := make([]edge, 0, len(codes))
	for _, code := range codes {
		edges = append(edges, edge{parent: code / propertyNodes, child: code % propertyNodes})
	}
	return edges
}

func nodeName(i int) string {
	return fmt.Sprintf("n%d", i)
}

func build(t *testing.T, edges []edge) *Engine {
	e := New()
	for _, ed := range edges {
		if err := e.AddReference(nodeName(ed.parent), nodeName(ed.child)); err != nil {
			t.Fatalf("AddReference: %v", err)
		}
	}
	return e
}

// closure computes forward (or reverse) reachability by fixpoint, excluding the root
func closure(edges []edge, root int, reverse bool) []string {
	reached := map[int]bool{}
	frontier := []int{root}
	for len(frontier) > 0 {
		next := []int{}
		for _, n := range frontier {
			for _, ed := range edges {
				from, to := ed.parent, ed.child
				if reverse {
					from, to = to, from
				}
				if from == n && !reached[to] {
					reached[to] = true
					next = append(next, to)
				}
			}
		}
		frontier = next
	}

	result := make([]string, 0, len(reached))
	for n := range reached {
		if n != root {
			result = append(result, nodeName(n))
		}
	}
	slices.Sort(result)
	return result
}

// oracle builds an independent gonum graph; self references are reported separately
func oracle(edges []edge) (*simple.DirectedGraph, bool) {
	g := simple.NewDirectedGraph()
	selfLoop := false
	for _, ed := range edges {
		if ed.parent == ed.child {
			selfLoop = true
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(ed.parent), simple.Node(ed.child)))
	}
	return g, selfLoop
}

func edgeCodes() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, propertyNodes*propertyNodes-1))
}

func TestEngineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("dependencies equal forward reachability", prop.ForAll(
		func(codes []int) bool {
			edges := decodeEdges(codes)
			e := build(t, edges)
			for n := 0; n < propertyNodes; n++ {
				if !slices.Equal(e.GetDependencies(nodeName(n)), closure(edges, n, false)) {
					return false
				}
				if !slices.Equal(e.GetReferences(nodeName(n)), closure(edges, n, true)) {
					return false
				}
			}
			return true
		},
		edgeCodes(),
	))

	properties.Property("every edge is visible in both directions", prop.ForAll(
		func(codes []int) bool {
			edges := decodeEdges(codes)
			e := build(t, edges)
			for _, ed := range edges {
				if ed.parent == ed.child {
					continue
				}
				if !slices.Contains(e.GetDependencies(nodeName(ed.parent)), nodeName(ed.child)) {
					return false
				}
				if !slices.Contains(e.GetReferences(nodeName(ed.child)), nodeName(ed.parent)) {
					return false
				}
			}
			return true
		},
		edgeCodes(),
	))

	properties.Property("duplicate registration only grows the log", prop.ForAll(
		func(codes []int) bool {
			edges := decodeEdges(codes)
			e := build(t, edges)
			first := nodeName(edges[0].parent)
			second := nodeName(edges[0].child)

			deps := e.GetDependencies(first)
			refs := e.GetReferences(second)
			total := e.Export().TotalReferences

			if err := e.AddReference(first, second); err != nil {
				return false
			}
			return slices.Equal(deps, e.GetDependencies(first)) &&
				slices.Equal(refs, e.GetReferences(second)) &&
				e.Export().TotalReferences == total+1
		},
		gen.SliceOfN(6, gen.IntRange(0, propertyNodes*propertyNodes-1)),
	))

	properties.Property("leaves have depth 0", prop.ForAll(
		func(codes []int) bool {
			e := build(t, decodeEdges(codes))
			for _, node := range e.Export().Nodes {
				tree := e.BuildDependencyTree(node)
				if len(tree.DirectChildren) == 0 && e.GetAssemblyDepth(node) != 0 {
					return false
				}
			}
			return true
		},
		edgeCodes(),
	))

	properties.Property("cycle report is non-empty iff the graph is cyclic", prop.ForAll(
		func(codes []int) bool {
			edges := decodeEdges(codes)
			e := build(t, edges)

			g, selfLoop := oracle(edges)
			_, err := topo.Sort(g)
			cyclic := selfLoop || err != nil

			return (len(e.DetectCircularRefs()) > 0) == cyclic
		},
		edgeCodes(),
	))

	properties.Property("cycle groups match gonum strongly connected components", prop.ForAll(
		func(codes []int) bool {
			edges := decodeEdges(codes)
			e := build(t, edges)

			g, _ := oracle(edges)
			want := map[string]bool{}
			for _, scc := range topo.TarjanSCC(g) {
				if len(scc) > 1 {
					for _, n := range scc {
						want[nodeName(int(n.ID()))] = true
					}
				}
			}
			for _, ed := range edges {
				if ed.parent == ed.child {
					want[nodeName(ed.parent)] = true
				}
			}

			got := map[string]bool{}
			for _, group := range e.CycleGroups() {
				for _, node := range group {
					got[node] = true
				}
			}
			if len(got) != len(want) {
				return false
			}
			for node := range want {
				if !got[node] {
					return false
				}
			}
			return true
		},
		edgeCodes(),
	))

	properties.Property("depth on acyclic graphs is the longest path", prop.ForAll(
		func(codes []int) bool {
			edges := decodeEdges(codes)
			g, selfLoop := oracle(edges)
			order, err := topo.Sort(g)
			if selfLoop || err != nil {
				return true
			}

			e := build(t, edges)
			longest := map[int64]int{}
			for i := len(order) - 1; i >= 0; i-- {
				id := order[i].ID()
				to := g.From(id)
				for to.Next() {
					longest[id] = max(longest[id], longest[to.Node().ID()]+1)
				}
				if e.GetAssemblyDepth(nodeName(int(id))) != longest[id] {
					return false
				}
			}
			return true
		},
		edgeCodes(),
	))

	properties.Property("tree counts match traversal", prop.ForAll(
		func(codes []int) bool {
			e := build(t, decodeEdges(codes))
			for n := 0; n < propertyNodes; n++ {
				tree := e.BuildDependencyTree(nodeName(n))
				if tree.TotalTransitiveDependencies != len(e.GetDependencies(nodeName(n))) {
					return false
				}
			}
			return true
		},
		edgeCodes(),
	))

	properties.Property("clear resets everything", prop.ForAll(
		func(codes []int) bool {
			e := build(t, decodeEdges(codes))
			e.Clear()

			export := e.Export()
			if len(export.Nodes) != 0 || len(export.Edges) != 0 || export.TotalFiles != 0 || export.TotalReferences != 0 {
				return false
			}
			for n := 0; n < propertyNodes; n++ {
				if len(e.GetDependencies(nodeName(n))) != 0 || e.GetAssemblyDepth(nodeName(n)) != 0 {
					return false
				}
			}
			return len(e.DetectCircularRefs()) == 0
		},
		edgeCodes(),
	))

	properties.TestingRun(t)
}

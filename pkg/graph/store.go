package graph

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
)

// Store holds the deduplicated reference graph over interned node IDs.
// Forward adjacency (parent -> children) is the gonum From view and reverse
// adjacency (child -> parents) is the To view of the same directed graph.
// A multigraph is used because self references are legal, but at most one
// line is ever stored per parent/child pair.
type Store struct {
	graph *multi.DirectedGraph
	nodes int
	edges int
}

// NewStore creates an empty graph store
func NewStore() *Store {
	return &Store{
		graph: multi.NewDirectedGraph(),
	}
}

// AddEdge inserts parent -> child. Both nodes are created on first sight.
// Returns false if the pair was already present.
func (s *Store) AddEdge(parent, child int64) bool {
	if s.graph.HasEdgeFromTo(parent, child) {
		return false
	}

	s.ensureNode(parent)
	s.ensureNode(child)
	s.graph.SetLine(s.graph.NewLine(s.graph.Node(parent), s.graph.Node(child)))
	s.edges++
	return true
}

func (s *Store) ensureNode(id int64) {
	if s.graph.Node(id) == nil {
		s.graph.AddNode(multi.Node(id))
		s.nodes++
	}
}

// HasNode returns true if id appears on either side of an edge
func (s *Store) HasNode(id int64) bool {
	return s.graph.Node(id) != nil
}

// HasEdge returns true if parent -> child is present
func (s *Store) HasEdge(parent, child int64) bool {
	return s.graph.HasEdgeFromTo(parent, child)
}

// Children returns the direct children of id in ascending ID order
func (s *Store) Children(id int64) []int64 {
	if !s.HasNode(id) {
		return nil
	}
	return collect(s.graph.From(id))
}

// Parents returns the direct parents of id in ascending ID order
func (s *Store) Parents(id int64) []int64 {
	if !s.HasNode(id) {
		return nil
	}
	return collect(s.graph.To(id))
}

// Neighbors returns Children for Forward and Parents for Reverse
func (s *Store) Neighbors(id int64, reverse bool) []int64 {
	if reverse {
		return s.Parents(id)
	}
	return s.Children(id)
}

// NodeIDs returns every node ID in ascending order
func (s *Store) NodeIDs() []int64 {
	return collect(s.graph.Nodes())
}

// NodeCount returns the number of nodes
func (s *Store) NodeCount() int {
	return s.nodes
}

// EdgeCount returns the number of distinct parent/child pairs
func (s *Store) EdgeCount() int {
	return s.edges
}

// Edges returns all parent/child pairs ordered by parent, then child
func (s *Store) Edges() [][2]int64 {
	edges := make([][2]int64, 0, s.edges)
	for _, parent := range s.NodeIDs() {
		for _, child := range s.Children(parent) {
			edges = append(edges, [2]int64{parent, child})
		}
	}
	return edges
}

// Graph returns the underlying directed graph, for read-only use
func (s *Store) Graph() graph.Directed {
	return s.graph
}

// Clear removes every node and edge
func (s *Store) Clear() {
	s.graph = multi.NewDirectedGraph()
	s.nodes = 0
	s.edges = 0
}

func collect(it graph.Nodes) []int64 {
	ids := make([]int64, 0, max(it.Len(), 0))
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	slices.Sort(ids)
	return ids
}

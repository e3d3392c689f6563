package graph

import (
	"gonum.org/v1/gonum/graph"
)

// Reversed is a traversal view of the store with every edge flipped,
// so walking From follows child -> parent ("where used").
type Reversed struct {
	g graph.Directed
}

// Reverse returns the reversed view of the store
func (s *Store) Reverse() Reversed {
	return Reversed{g: s.graph}
}

// From returns the parents of id
func (r Reversed) From(id int64) graph.Nodes {
	return r.g.To(id)
}

// Edge returns the flipped edge u <- v as stored v -> u
func (r Reversed) Edge(uid, vid int64) graph.Edge {
	e := r.g.Edge(vid, uid)
	if e == nil {
		return nil
	}
	return e.ReversedEdge()
}

// Package snapshot compares successive states of the reference graph, so a
// rebuild can report what it changed and skip work when nothing did.
package snapshot

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ritzau/refgraph/pkg/model"
)

// Edge is a distinct parent/child pair
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Diff represents the difference between two graph states
type Diff struct {
	AddedNodes   []string `json:"added_nodes" yaml:"added_nodes"`
	RemovedNodes []string `json:"removed_nodes" yaml:"removed_nodes"`
	AddedEdges   []Edge   `json:"added_edges" yaml:"added_edges"`
	RemovedEdges []Edge   `json:"removed_edges" yaml:"removed_edges"`
	FullGraph    bool     `json:"full_graph" yaml:"full_graph"` // True if there was nothing to compare against
}

// Empty returns true if the two states had the same nodes and edges
func (d *Diff) Empty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0
}

// Snapshot is a graph state kept for diffing
type Snapshot struct {
	Hash  string
	Nodes map[string]bool
	Edges map[Edge]bool
}

// Take creates a snapshot from an export. Edges are deduplicated; the hash
// covers the full export, so it also changes when only counts or kinds do.
func Take(export model.GraphExport) *Snapshot {
	snapshot := &Snapshot{
		Nodes: make(map[string]bool, len(export.Nodes)),
		Edges: make(map[Edge]bool, len(export.Edges)),
	}

	for _, node := range export.Nodes {
		snapshot.Nodes[node] = true
	}
	for _, e := range export.Edges {
		snapshot.Edges[Edge{Source: e.Source, Target: e.Target}] = true
	}

	jsonData, _ := json.Marshal(export)
	hash := sha256.Sum256(jsonData)
	snapshot.Hash = fmt.Sprintf("%x", hash)

	return snapshot
}

// Compare computes the difference from old to current. All lists are sorted.
func Compare(old, current *Snapshot) *Diff {
	if old == nil {
		return &Diff{
			AddedNodes:   sortedNodes(current.Nodes, nil),
			RemovedNodes: make([]string, 0),
			AddedEdges:   sortedEdges(current.Edges, nil),
			RemovedEdges: make([]Edge, 0),
			FullGraph:    true,
		}
	}

	return &Diff{
		AddedNodes:   sortedNodes(current.Nodes, old.Nodes),
		RemovedNodes: sortedNodes(old.Nodes, current.Nodes),
		AddedEdges:   sortedEdges(current.Edges, old.Edges),
		RemovedEdges: sortedEdges(old.Edges, current.Edges),
	}
}

// sortedNodes returns the members of from missing in except
func sortedNodes(from, except map[string]bool) []string {
	result := make([]string, 0)
	for node := range from {
		if !except[node] {
			result = append(result, node)
		}
	}
	slices.Sort(result)
	return result
}

func sortedEdges(from, except map[Edge]bool) []Edge {
	result := make([]Edge, 0)
	for e := range from {
		if !except[e] {
			result = append(result, e)
		}
	}
	slices.SortFunc(result, func(a, b Edge) int {
		if c := strings.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return strings.Compare(a.Target, b.Target)
	})
	return result
}

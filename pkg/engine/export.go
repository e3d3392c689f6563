package engine

import (
	"time"

	"github.com/ritzau/refgraph/pkg/model"
)

// Export snapshots the graph. Nodes are the keys present in the adjacency,
// sorted. Edges are the logged registrations in order, duplicates included,
// each with the instance count it was registered with.
func (e *Engine) Export() model.GraphExport {
	defer e.metrics.observe("export", time.Now())

	export := model.NewGraphExport()
	export.Nodes = e.keys(e.store.NodeIDs())

	for _, entry := range e.log.Entries() {
		export.Edges = append(export.Edges, model.ExportEdge{
			Source: entry.Parent,
			Target: entry.Child,
			Count:  entry.InstanceCount,
			Kind:   entry.Kind,
		})
	}

	export.TotalFiles = len(export.Nodes)
	export.TotalReferences = e.log.Len()
	return export
}

// AggregatedEdges folds the reference log per parent/child pair, in the order
// each pair was first registered. The graph itself never carries counts.
func (e *Engine) AggregatedEdges() []model.AggregatedEdge {
	defer e.metrics.observe("aggregate", time.Now())
	return e.log.Aggregate()
}

// Entries returns the raw reference log in registration order
func (e *Engine) Entries() []model.ReferenceEntry {
	return e.log.Entries()
}

package engine

import (
	"time"

	"github.com/ritzau/refgraph/pkg/depth"
	"github.com/ritzau/refgraph/pkg/model"
	"github.com/ritzau/refgraph/pkg/traversal"
)

// BuildDependencyTree summarizes root: its direct children and parents, its
// assembly depth and how many nodes it transitively depends on. An unknown
// root gets its canonical key and zero values.
func (e *Engine) BuildDependencyTree(root string) model.DependencyTree {
	defer e.metrics.observe("tree", time.Now())

	tree := model.DependencyTree{
		Root:           root,
		DirectChildren: make([]string, 0),
		DirectParents:  make([]string, 0),
	}

	id, key, exists := e.registry.LookupRaw(root)
	if key != "" {
		tree.Root = key
	}
	if !exists || !e.store.HasNode(id) {
		return tree
	}

	tree.DirectChildren = e.keys(e.store.Children(id))
	tree.DirectParents = e.keys(e.store.Parents(id))
	tree.Depth = depth.AssemblyDepth(e.store, id)
	tree.TotalTransitiveDependencies = len(traversal.Dependencies(e.store, id))
	return tree
}

package cycles

import (
	"cmp"
	"slices"

	"github.com/ritzau/refgraph/pkg/graph"
)

// TarjanSCC finds all strongly connected components using Tarjan's algorithm.
// The recursion of the textbook version is replaced by an explicit work stack.
type TarjanSCC struct {
	store   *graph.Store
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]int64
}

// NewTarjanSCC creates a new Tarjan SCC finder
func NewTarjanSCC(store *graph.Store) *TarjanSCC {
	return &TarjanSCC{
		store:   store,
		stack:   make([]int64, 0),
		onStack: make(map[int64]bool),
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
		sccs:    make([][]int64, 0),
	}
}

// FindSCCs returns every component that contains a cycle: components with more
// than one node, and single nodes that reference themselves.
func (t *TarjanSCC) FindSCCs() [][]int64 {
	for _, id := range t.store.NodeIDs() {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}
	return t.sccs
}

func (t *TarjanSCC) visit(id int64) {
	t.indices[id] = t.index
	t.lowLink[id] = t.index
	t.index++
	t.stack = append(t.stack, id)
	t.onStack[id] = true
}

func (t *TarjanSCC) strongConnect(root int64) {
	t.visit(root)
	work := []frame{{id: root, children: t.store.Children(root)}}

	for len(work) > 0 {
		top := &work[len(work)-1]

		if top.next < len(top.children) {
			successor := top.children[top.next]
			top.next++

			if _, visited := t.indices[successor]; !visited {
				t.visit(successor)
				work = append(work, frame{id: successor, children: t.store.Children(successor)})
			} else if t.onStack[successor] {
				t.lowLink[top.id] = min(t.lowLink[top.id], t.indices[successor])
			}
			continue
		}

		// All successors handled: propagate the low link and maybe emit a component
		id := top.id
		work = work[:len(work)-1]
		if len(work) > 0 {
			parent := work[len(work)-1].id
			t.lowLink[parent] = min(t.lowLink[parent], t.lowLink[id])
		}

		if t.lowLink[id] == t.indices[id] {
			scc := make([]int64, 0)
			for {
				w := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[w] = false
				scc = append(scc, w)
				if w == id {
					break
				}
			}
			if len(scc) > 1 || t.store.HasEdge(id, id) {
				slices.Sort(scc)
				t.sccs = append(t.sccs, scc)
			}
		}
	}
}

// StronglyConnected returns every cyclic component, each sorted by ID and
// ordered by their smallest member.
func StronglyConnected(store *graph.Store) [][]int64 {
	sccs := NewTarjanSCC(store).FindSCCs()
	slices.SortFunc(sccs, func(a, b []int64) int {
		return cmp.Compare(a[0], b[0])
	})
	return sccs
}

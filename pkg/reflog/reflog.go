// Package reflog keeps the append-only record of every reference registration.
// It is independent of the deduplicated adjacency in the graph store: two
// registrations of the same pair are two entries here and one edge there.
package reflog

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ritzau/refgraph/pkg/model"
)

// Log is an append-only list of reference entries
type Log struct {
	entries []model.ReferenceEntry
}

// New creates an empty log
func New() *Log {
	return &Log{entries: make([]model.ReferenceEntry, 0)}
}

// Append records one registration
func (l *Log) Append(entry model.ReferenceEntry) {
	l.entries = append(l.entries, entry)
}

// Len returns the number of registrations
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of all entries in registration order
func (l *Log) Entries() []model.ReferenceEntry {
	return slices.Clone(l.entries)
}

// Reset drops every entry
func (l *Log) Reset() {
	l.entries = make([]model.ReferenceEntry, 0)
}

type pairKey struct {
	parent string
	child  string
}

// Aggregate folds entries per parent/child pair, in the order each pair was first registered.
// Instance counts are summed; kinds are listed once each in first-seen order.
func (l *Log) Aggregate() []model.AggregatedEdge {
	pairs := orderedmap.New[pairKey, *model.AggregatedEdge]()

	for _, e := range l.entries {
		key := pairKey{parent: e.Parent, child: e.Child}
		agg, exists := pairs.Get(key)
		if !exists {
			agg = &model.AggregatedEdge{
				Source: e.Parent,
				Target: e.Child,
				Kinds:  make([]model.ReferenceKind, 0, 1),
			}
			pairs.Set(key, agg)
		}

		agg.Registrations++
		agg.TotalInstances += e.InstanceCount
		if !slices.Contains(agg.Kinds, e.Kind) {
			agg.Kinds = append(agg.Kinds, e.Kind)
		}
	}

	result := make([]model.AggregatedEdge, 0, pairs.Len())
	for pair := pairs.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, *pair.Value)
	}
	return result
}

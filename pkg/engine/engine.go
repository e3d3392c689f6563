// Package engine is the reference and dependency graph engine. It owns the node
// registry, the deduplicated graph store and the reference log, and exposes the
// single write path (AddReference) plus the read-only queries over them.
//
// An Engine is not safe for concurrent use. Callers sharing one must serialize
// writes and must not query while a write is in progress.
package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ritzau/refgraph/pkg/cycles"
	"github.com/ritzau/refgraph/pkg/depth"
	"github.com/ritzau/refgraph/pkg/graph"
	"github.com/ritzau/refgraph/pkg/logging"
	"github.com/ritzau/refgraph/pkg/model"
	"github.com/ritzau/refgraph/pkg/reflog"
	"github.com/ritzau/refgraph/pkg/registry"
	"github.com/ritzau/refgraph/pkg/traversal"
)

// ErrInvalidInstanceCount is returned when a reference has fewer than one instance
// and the engine uses CountReject.
var ErrInvalidInstanceCount = errors.New("instance count must be at least 1")

// CountPolicy decides what happens to an instance count below 1
type CountPolicy int

const (
	CountReject CountPolicy = iota // fail the registration with ErrInvalidInstanceCount
	CountClamp                     // register with count 1
)

// ParseCountPolicy converts "reject" or "clamp" into a CountPolicy
func ParseCountPolicy(name string) (CountPolicy, error) {
	switch name {
	case "", "reject":
		return CountReject, nil
	case "clamp":
		return CountClamp, nil
	default:
		return CountReject, fmt.Errorf("unknown count policy: %q", name)
	}
}

func (p CountPolicy) String() string {
	if p == CountClamp {
		return "clamp"
	}
	return "reject"
}

// Engine holds the reference graph of one session
type Engine struct {
	registry *registry.Registry
	store    *graph.Store
	log      *reflog.Log
	policy   CountPolicy
	metrics  *Metrics
	logger   *slog.Logger

	registryOpts []registry.Option
}

// Option configures an Engine
type Option func(*Engine)

// WithCanonicalizer sets how raw identifiers become node keys (default: identity)
func WithCanonicalizer(c registry.Canonicalizer) Option {
	return func(e *Engine) {
		e.registryOpts = append(e.registryOpts, registry.WithCanonicalizer(c))
	}
}

// WithBestEffort keys a node by its raw identifier when canonicalization fails
func WithBestEffort() Option {
	return func(e *Engine) {
		e.registryOpts = append(e.registryOpts, registry.WithBestEffort())
	}
}

// WithCountPolicy sets the instance count policy (default: CountReject)
func WithCountPolicy(p CountPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithMetrics registers the engine's collectors on reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.metrics = NewMetrics(reg)
	}
}

// WithLogger replaces the engine's logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an empty engine
func New(opts ...Option) *Engine {
	e := &Engine{
		store:  graph.NewStore(),
		log:    reflog.New(),
		logger: logging.New("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry = registry.New(e.registryOpts...)
	return e
}

// RefOption configures a single AddReference call
type RefOption func(*refOptions)

type refOptions struct {
	count int
	kind  model.ReferenceKind
}

// WithInstanceCount sets how many instances of child parent uses (default 1)
func WithInstanceCount(n int) RefOption {
	return func(o *refOptions) {
		o.count = n
	}
}

// WithKind sets the relationship kind (default KindComponent)
func WithKind(k model.ReferenceKind) RefOption {
	return func(o *refOptions) {
		o.kind = k
	}
}

// AddReference records that parent uses child. Both identifiers are
// canonicalized first; a *registry.NormalizationError is returned unchanged and
// nothing is recorded. Every successful call appends to the reference log, while
// the graph gains an edge only the first time a pair is seen.
func (e *Engine) AddReference(parent, child string, opts ...RefOption) error {
	ref := refOptions{count: 1, kind: model.KindComponent}
	for _, opt := range opts {
		opt(&ref)
	}

	if ref.count < 1 {
		if e.policy == CountReject {
			e.metrics.recordError(reasonInvalidCount)
			e.logger.Warn("rejected reference", "parent", parent, "child", child, "count", ref.count)
			return fmt.Errorf("%s -> %s: %w (got %d)", parent, child, ErrInvalidInstanceCount, ref.count)
		}
		e.logger.Debug("clamped instance count", "parent", parent, "child", child, "count", ref.count)
		ref.count = 1
	}

	parentKey, err := e.registry.Canonicalize(parent)
	if err != nil {
		e.metrics.recordError(reasonNormalization)
		return err
	}
	childKey, err := e.registry.Canonicalize(child)
	if err != nil {
		e.metrics.recordError(reasonNormalization)
		return err
	}

	parentID := e.registry.Intern(parentKey)
	childID := e.registry.Intern(childKey)

	e.log.Append(model.ReferenceEntry{
		Parent:        parentKey,
		Child:         childKey,
		InstanceCount: ref.count,
		Kind:          ref.kind,
	})
	added := e.store.AddEdge(parentID, childID)

	e.metrics.recordRegistration(ref.kind.String(), e.store.NodeCount(), e.store.EdgeCount())
	e.logger.Log(context.Background(), logging.LevelTrace, "registered reference",
		"parent", parentKey, "child", childKey, "count", ref.count, "kind", ref.kind, "newEdge", added)
	return nil
}

// GetDependencies returns every node reachable from root via forward edges,
// excluding root, sorted by key. Unknown roots yield an empty result.
func (e *Engine) GetDependencies(root string) []string {
	defer e.metrics.observe("dependencies", time.Now())
	return e.reachable(root, model.Forward)
}

// GetReferences returns every node that reaches root ("where used"), excluding
// root, sorted by key. Unknown roots yield an empty result.
func (e *Engine) GetReferences(root string) []string {
	defer e.metrics.observe("references", time.Now())
	return e.reachable(root, model.Reverse)
}

func (e *Engine) reachable(root string, dir model.Direction) []string {
	id, ok := e.lookup(root)
	if !ok {
		return make([]string, 0)
	}
	return e.keys(traversal.Reachable(e.store, id, dir))
}

// DetectCircularRefs reports one cycle-closing edge per depth-first descent that
// runs into a cycle. The result is non-empty exactly when the graph has a cycle,
// but not every cycle is listed; see CycleGroups for that.
func (e *Engine) DetectCircularRefs() []model.CycleEdge {
	defer e.metrics.observe("cycles", time.Now())

	found := cycles.DetectCircularRefs(e.store)
	result := make([]model.CycleEdge, 0, len(found))
	for _, edge := range found {
		result = append(result, model.CycleEdge{
			From: e.registry.Key(edge.From),
			To:   e.registry.Key(edge.To),
		})
	}
	return result
}

// CycleGroups returns every strongly connected component that contains a cycle,
// each sorted by key and the groups ordered by their first key.
func (e *Engine) CycleGroups() [][]string {
	defer e.metrics.observe("cycle_groups", time.Now())

	sccs := cycles.StronglyConnected(e.store)
	groups := make([][]string, 0, len(sccs))
	for _, scc := range sccs {
		groups = append(groups, e.keys(scc))
	}
	slices.SortFunc(groups, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return groups
}

// GetAssemblyDepth returns the length of the longest forward chain from root to a leaf
func (e *Engine) GetAssemblyDepth(root string) int {
	defer e.metrics.observe("depth", time.Now())

	id, ok := e.lookup(root)
	if !ok {
		return 0
	}
	return depth.AssemblyDepth(e.store, id)
}

// ImpactRadius returns the nodes within hops steps of root in the given
// direction, nearest first. A negative hops value means unbounded.
func (e *Engine) ImpactRadius(root string, dir model.Direction, hops int) []model.Impact {
	defer e.metrics.observe("impact", time.Now())

	id, ok := e.lookup(root)
	if !ok {
		return make([]model.Impact, 0)
	}

	reached := traversal.WithinDistance(e.store, id, dir, hops)
	result := make([]model.Impact, 0, len(reached))
	for _, d := range reached {
		result = append(result, model.Impact{Node: e.registry.Key(d.ID), Hops: d.Hops})
	}
	slices.SortStableFunc(result, func(a, b model.Impact) int {
		if a.Hops != b.Hops {
			return a.Hops - b.Hops
		}
		return cmp.Compare(a.Node, b.Node)
	})
	return result
}

// Stats returns the current graph size
func (e *Engine) Stats() model.Stats {
	return model.Stats{
		Nodes:      e.store.NodeCount(),
		Edges:      e.store.EdgeCount(),
		References: e.log.Len(),
	}
}

// Clear drops every node, edge and logged reference
func (e *Engine) Clear() {
	stats := e.Stats()

	e.log.Reset()
	e.store.Clear()
	e.registry.Reset()

	e.metrics.setSize(0, 0)
	e.logger.Info("cleared reference graph", "nodes", stats.Nodes, "references", stats.References)
}

// lookup finds the node ID for a raw identifier without creating it
func (e *Engine) lookup(raw string) (int64, bool) {
	id, _, exists := e.registry.LookupRaw(raw)
	if !exists || !e.store.HasNode(id) {
		return 0, false
	}
	return id, true
}

// keys maps IDs to their node keys, sorted by key
func (e *Engine) keys(ids []int64) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, e.registry.Key(id))
	}
	slices.Sort(keys)
	return keys
}

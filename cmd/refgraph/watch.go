package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritzau/refgraph/pkg/logging"
	"github.com/ritzau/refgraph/pkg/snapshot"
	"github.com/ritzau/refgraph/pkg/watcher"
)

const (
	quietPeriod = 300 * time.Millisecond
	maxWait     = 2 * time.Second
)

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the graph loaded and rebuild it when a source changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.summary(); err != nil {
				return err
			}
			return a.watch(cmd.Context(), a.summary)
		},
	}
}

func (a *app) summary() error {
	stats := a.eng.Stats()
	logging.Info("graph loaded", "nodes", stats.Nodes, "edges", stats.Edges, "references", stats.References)
	return a.printer.Cycles(a.eng.DetectCircularRefs(), nil)
}

// watch rebuilds the graph from all sources after each debounced change and
// calls after once per rebuild that changed the graph. It returns when ctx is
// cancelled.
func (a *app) watch(ctx context.Context, after func() error) error {
	fw, err := watcher.NewFileWatcher(a.cfg.Sources)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = fw.Stop() }()

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	last := snapshot.Take(a.eng.Export())
	for event := range debouncer.Output() {
		analysis := watcher.AnalyzeChanges(event, a.cfg.Sources)
		if !analysis.NeedReload() {
			continue
		}

		logging.Info("sources changed, rebuilding", "type", event.Type, "sources", analysis.Sources, "files", len(analysis.ChangedFiles))
		a.eng.Clear()
		if err := a.ingest(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			logging.Error("rebuild failed", "error", err)
			continue
		}

		current := snapshot.Take(a.eng.Export())
		if current.Hash == last.Hash {
			logging.Info("graph unchanged")
			continue
		}
		diff := snapshot.Compare(last, current)
		last = current
		logging.Info("graph rebuilt",
			"added_nodes", len(diff.AddedNodes), "removed_nodes", len(diff.RemovedNodes),
			"added_edges", len(diff.AddedEdges), "removed_edges", len(diff.RemovedEdges))
		for _, e := range diff.AddedEdges {
			logging.Debug("reference added", "parent", e.Source, "child", e.Target)
		}
		for _, e := range diff.RemovedEdges {
			logging.Debug("reference removed", "parent", e.Source, "child", e.Target)
		}
		if err := after(); err != nil {
			logging.Error("query failed", "error", err)
		}
	}
	return nil
}

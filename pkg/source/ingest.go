package source

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/refgraph/pkg/engine"
	"github.com/ritzau/refgraph/pkg/logging"
	"github.com/ritzau/refgraph/pkg/registry"
)

// Registrar is the write side of the engine
type Registrar interface {
	AddReference(parent, child string, opts ...engine.RefOption) error
}

// IngestReport summarizes one ingest run
type IngestReport struct {
	RunID    string   `json:"run_id" yaml:"run_id"`
	Source   string   `json:"source" yaml:"source"`
	Roots    int      `json:"roots" yaml:"roots"`
	Edges    int      `json:"edges" yaml:"edges"`
	Rejected int      `json:"rejected" yaml:"rejected"`
	Failed   []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Ingest enumerates the edges of every root of src, up to concurrency roots at
// a time, and registers them from the calling goroutine in root order.
//
// A root whose enumeration fails is logged, listed in Failed and skipped.
// References the engine rejects for their instance count are counted and
// skipped. A NormalizationError or a cancelled context aborts the run.
func Ingest(ctx context.Context, reg Registrar, src EdgeSource, concurrency int) (*IngestReport, error) {
	report := &IngestReport{
		RunID:  logging.NewRunID(),
		Source: src.Name(),
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	logging.InfoContext(ctx, "ingest started", "source", report.Source)

	roots, err := src.Roots(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing roots of %s: %w", report.Source, err)
	}
	report.Roots = len(roots)

	results := make([][]ChildRef, len(roots))
	failures := make([]error, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			refs, err := src.EnumerateEdges(gctx, root)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = err
				return nil
			}
			results[i] = refs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingesting %s: %w", report.Source, err)
	}

	for i, root := range roots {
		if failures[i] != nil {
			logging.WarnContext(ctx, "skipping root", "root", root, "error", failures[i])
			report.Failed = append(report.Failed, root)
			continue
		}

		for _, ref := range results[i] {
			err := reg.AddReference(root, ref.ID,
				engine.WithInstanceCount(ref.InstanceCount),
				engine.WithKind(ref.Kind))

			var normErr *registry.NormalizationError
			switch {
			case err == nil:
				report.Edges++
			case errors.As(err, &normErr):
				return report, err
			default:
				logging.WarnContext(ctx, "rejected reference", "root", root, "child", ref.ID, "error", err)
				report.Rejected++
			}
		}
	}

	logging.InfoContext(ctx, "ingest finished",
		"roots", report.Roots, "edges", report.Edges, "rejected", report.Rejected, "failed", len(report.Failed))
	return report, nil
}

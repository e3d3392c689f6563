package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ritzau/refgraph/pkg/config"
	"github.com/ritzau/refgraph/pkg/engine"
	"github.com/ritzau/refgraph/pkg/logging"
	"github.com/ritzau/refgraph/pkg/output"
	"github.com/ritzau/refgraph/pkg/source"
)

// app is the state shared by every subcommand of one invocation
type app struct {
	cfg     *config.Config
	eng     *engine.Engine
	metrics *prometheus.Registry
	printer *output.Printer
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "refgraph",
		Short: "Reference and dependency graph queries over component manifests",
		Long: `refgraph loads parent/child references from manifests (TOML, YAML, JSON)
or Makefile-style .d dependency files and answers impact questions about them:
what a component depends on, where it is used, whether the references are
circular, and how deep an assembly goes.

Examples:
  refgraph -s refs.toml deps A            # everything A depends on
  refgraph -s refs.toml where-used D      # everything that uses D
  refgraph -s bazel-out cycles --scc      # cycle report with full groups
  refgraph -s refs.toml export -f yaml    # portable snapshot`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg != nil && a.cfg.Metrics && a.metrics != nil {
				return output.Metrics(a.stderr, a.metrics)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is "+config.DefaultFile+" if present)")
	flags.StringSliceP("sources", "s", nil, "edge sources: manifest files or directories of .d files")
	flags.String("canonicalizer", "identity", "identifier normalization: identity, path or package")
	flags.Bool("best-effort", false, "use the raw identifier when normalization fails")
	flags.String("count-policy", "reject", "instance counts below 1: reject or clamp")
	flags.StringP("format", "f", "text", "output format: text, json or yaml")
	flags.Bool("watch", false, "re-run the query whenever a source changes")
	flags.String("verbosity", "", "log level: trace, debug, info, warn or error")
	flags.CountP("verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")
	flags.Int("concurrency", 4, "roots enumerated in parallel while ingesting")
	flags.Int("max-hops", -1, "default hop limit for impact queries (-1 is unbounded)")
	flags.Bool("metrics", false, "print engine metrics to stderr when done")

	root.AddCommand(
		a.depsCmd(),
		a.whereUsedCmd(),
		a.cyclesCmd(),
		a.depthCmd(),
		a.treeCmd(),
		a.exportCmd(),
		a.impactCmd(),
		a.watchCmd(),
	)
	return root
}

// setup loads configuration, builds the engine and ingests every source
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.stdout = cmd.OutOrStdout()
	a.stderr = cmd.ErrOrStderr()

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logging.SetOutput(a.stderr)
	logging.SetLevel(level)

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	a.printer = output.NewPrinter(a.stdout, format)

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	if cfg.Metrics {
		a.metrics = prometheus.NewRegistry()
		opts = append(opts, engine.WithMetrics(a.metrics))
	}
	a.eng = engine.New(opts...)

	if len(cfg.Sources) == 0 {
		logging.Warn("no sources configured, the graph is empty")
	}
	return a.ingest(cmd.Context())
}

// ingest loads every configured source into the engine, in configured order
func (a *app) ingest(ctx context.Context) error {
	for _, path := range a.cfg.Sources {
		src, err := source.Open(path)
		if err != nil {
			return err
		}

		report, err := source.Ingest(ctx, a.eng, src, a.cfg.Concurrency)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		if len(report.Failed) > 0 || report.Rejected > 0 || a.cfg.VerboseCnt > 0 {
			if err := output.NewPrinter(a.stderr, output.FormatText).Ingest(report); err != nil {
				return err
			}
		}
	}
	return nil
}

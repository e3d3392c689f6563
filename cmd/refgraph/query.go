package main

import (
	"github.com/spf13/cobra"

	"github.com/ritzau/refgraph/pkg/model"
)

// run executes query once, and again after every source change when --watch is set
func (a *app) run(cmd *cobra.Command, query func() error) error {
	if err := query(); err != nil {
		return err
	}
	if !a.cfg.Watch {
		return nil
	}
	return a.watch(cmd.Context(), query)
}

func (a *app) depsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "deps <root>",
		Aliases: []string{"dependencies"},
		Short:   "List everything root depends on, directly or transitively",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func() error {
				return a.printer.Nodes("Dependencies", args[0], a.eng.GetDependencies(args[0]))
			})
		},
	}
}

func (a *app) whereUsedCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "where-used <node>",
		Aliases: []string{"refs"},
		Short:   "List everything that uses node, directly or transitively",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func() error {
				return a.printer.Nodes("Where used", args[0], a.eng.GetReferences(args[0]))
			})
		},
	}
}

func (a *app) cyclesCmd() *cobra.Command {
	var scc bool

	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "Report circular references",
		Long: `Report circular references. Without --scc one cycle-closing edge is shown per
independent search, which is enough to tell whether the graph is cyclic.
With --scc every group of nodes that reference each other is listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func() error {
				var groups [][]string
				if scc {
					groups = a.eng.CycleGroups()
				}
				return a.printer.Cycles(a.eng.DetectCircularRefs(), groups)
			})
		},
	}
	cmd.Flags().BoolVar(&scc, "scc", false, "also list strongly connected cycle groups")
	return cmd
}

func (a *app) depthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "depth <root>",
		Short: "Print the longest reference chain below root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func() error {
				return a.printer.Depth(args[0], a.eng.GetAssemblyDepth(args[0]))
			})
		},
	}
}

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <root>",
		Short: "Summarize root: children, parents, depth and transitive size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func() error {
				return a.printer.Tree(a.eng.BuildDependencyTree(args[0]))
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var aggregate bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the graph: nodes plus every logged reference",
		Long: `Write the graph. Edges are the raw reference log, one per registration,
duplicates included. With --aggregate, registrations of the same pair are
folded together with summed instance counts instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func() error {
				if aggregate {
					return a.printer.Aggregated(a.eng.AggregatedEdges())
				}
				return a.printer.Export(a.eng.Export())
			})
		},
	}
	cmd.Flags().BoolVar(&aggregate, "aggregate", false, "fold registrations per parent/child pair")
	return cmd
}

func (a *app) impactCmd() *cobra.Command {
	var (
		hops    int
		reverse bool
	)

	cmd := &cobra.Command{
		Use:   "impact <node>",
		Short: "List nodes within a number of hops of node, nearest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("hops") {
				hops = a.cfg.MaxHops
			}
			dir := model.Forward
			if reverse {
				dir = model.Reverse
			}
			return a.run(cmd, func() error {
				return a.printer.Impact(args[0], dir, a.eng.ImpactRadius(args[0], dir, hops))
			})
		},
	}
	cmd.Flags().IntVar(&hops, "hops", -1, "maximum distance (-1 is unbounded, default from --max-hops)")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "follow where-used edges instead of dependencies")
	return cmd
}

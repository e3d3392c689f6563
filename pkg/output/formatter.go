// Package output renders query results, either as colored text reports for a
// terminal or as JSON/YAML documents for other tools.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/ritzau/refgraph/pkg/model"
	"github.com/ritzau/refgraph/pkg/source"
)

// Format selects how results are written
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a format name, defaulting to text
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %q", name)
	}
}

// Printer writes reports in a single format
type Printer struct {
	w      io.Writer
	format Format

	bold   *color.Color
	red    *color.Color
	green  *color.Color
	yellow *color.Color
	cyan   *color.Color
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{
		w:      w,
		format: format,
		bold:   color.New(color.Bold),
		red:    color.New(color.FgRed),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		cyan:   color.New(color.FgCyan),
	}
}

// Render writes v as a JSON or YAML document
func Render(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not a document format", format)
	}
}

func (p *Printer) structured() bool {
	return p.format == FormatJSON || p.format == FormatYAML
}

func (p *Printer) header(title string) {
	p.bold.Fprintln(p.w, title)
	p.bold.Fprintln(p.w, strings.Repeat("=", len(title)))
}

// Nodes prints a reachability result such as dependencies or where-used
func (p *Printer) Nodes(title, root string, nodes []string) error {
	if p.structured() {
		return Render(p.w, p.format, map[string]any{"root": root, "nodes": nodes})
	}

	p.header(fmt.Sprintf("%s of %s", title, root))
	if len(nodes) == 0 {
		p.yellow.Fprintln(p.w, "(none)")
		return nil
	}
	for _, n := range nodes {
		fmt.Fprintf(p.w, "  %s\n", n)
	}
	p.cyan.Fprintf(p.w, "Total: %d\n", len(nodes))
	return nil
}

// Tree prints a dependency tree summary
func (p *Printer) Tree(tree model.DependencyTree) error {
	if p.structured() {
		return Render(p.w, p.format, tree)
	}

	p.header("Dependency tree: " + tree.Root)
	p.list("Children", tree.DirectChildren)
	p.list("Parents", tree.DirectParents)
	fmt.Fprintf(p.w, "Depth: %d\n", tree.Depth)
	fmt.Fprintf(p.w, "Transitive dependencies: %d\n", tree.TotalTransitiveDependencies)
	return nil
}

func (p *Printer) list(label string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(p.w, "%s: none\n", label)
		return
	}
	fmt.Fprintf(p.w, "%s:\n", label)
	for _, item := range items {
		p.cyan.Fprintf(p.w, "  %s\n", item)
	}
}

// Cycles prints cycle findings. groups may be nil when only witness edges were computed.
func (p *Printer) Cycles(edges []model.CycleEdge, groups [][]string) error {
	if p.structured() {
		doc := map[string]any{"cycles": edges}
		if groups != nil {
			doc["groups"] = groups
		}
		return Render(p.w, p.format, doc)
	}

	p.header("Circular references")
	if len(edges) == 0 {
		p.green.Fprintln(p.w, "✓ No circular references")
		return nil
	}

	p.red.Fprintf(p.w, "Found %d cycle-closing edge(s):\n", len(edges))
	for _, e := range edges {
		p.yellow.Fprintf(p.w, "  %s -> %s\n", e.From, e.To)
	}
	for i, g := range groups {
		fmt.Fprintf(p.w, "Cycle group %d: %s\n", i+1, strings.Join(g, ", "))
	}
	return nil
}

// Depth prints the assembly depth of root
func (p *Printer) Depth(root string, depth int) error {
	if p.structured() {
		return Render(p.w, p.format, map[string]any{"root": root, "depth": depth})
	}
	fmt.Fprintf(p.w, "%s: depth %d\n", root, depth)
	return nil
}

// Impact prints nodes grouped by hop distance
func (p *Printer) Impact(root string, dir model.Direction, impacts []model.Impact) error {
	if p.structured() {
		return Render(p.w, p.format, map[string]any{"root": root, "direction": dir.String(), "impact": impacts})
	}

	p.header(fmt.Sprintf("Impact of %s (%s)", root, dir))
	if len(impacts) == 0 {
		p.yellow.Fprintln(p.w, "(none)")
		return nil
	}
	hops := -1
	for _, i := range impacts {
		if i.Hops != hops {
			hops = i.Hops
			p.cyan.Fprintf(p.w, "%d hop(s):\n", hops)
		}
		fmt.Fprintf(p.w, "  %s\n", i.Node)
	}
	return nil
}

// Export prints the graph snapshot
func (p *Printer) Export(export model.GraphExport) error {
	if p.structured() {
		return Render(p.w, p.format, export)
	}

	p.header("Reference graph")
	fmt.Fprintf(p.w, "Nodes: %d\n", export.TotalFiles)
	fmt.Fprintf(p.w, "References: %d\n", export.TotalReferences)
	for _, e := range export.Edges {
		fmt.Fprintf(p.w, "  %s -> %s x%d (%s)\n", e.Source, e.Target, e.Count, e.Kind)
	}
	return nil
}

// Aggregated prints the per-pair folded view of the reference log
func (p *Printer) Aggregated(edges []model.AggregatedEdge) error {
	if p.structured() {
		return Render(p.w, p.format, map[string]any{"edges": edges})
	}

	p.header("Aggregated references")
	for _, e := range edges {
		kinds := make([]string, 0, len(e.Kinds))
		for _, k := range e.Kinds {
			kinds = append(kinds, k.String())
		}
		fmt.Fprintf(p.w, "  %s -> %s x%d in %d registration(s) (%s)\n",
			e.Source, e.Target, e.TotalInstances, e.Registrations, strings.Join(kinds, ", "))
	}
	return nil
}

// Ingest prints the outcome of one ingest run
func (p *Printer) Ingest(report *source.IngestReport) error {
	if p.structured() {
		return Render(p.w, p.format, report)
	}

	summary := p.green
	if len(report.Failed) > 0 || report.Rejected > 0 {
		summary = p.yellow
	}
	summary.Fprintf(p.w, "Ingested %s: %d root(s), %d reference(s)", report.Source, report.Roots, report.Edges)
	if report.Rejected > 0 {
		fmt.Fprintf(p.w, ", %d rejected", report.Rejected)
	}
	fmt.Fprintln(p.w)
	for _, root := range report.Failed {
		p.red.Fprintf(p.w, "  failed: %s\n", root)
	}
	return nil
}

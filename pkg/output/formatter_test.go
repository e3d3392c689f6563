package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ritzau/refgraph/pkg/model"
	"github.com/ritzau/refgraph/pkg/source"
)

func init() {
	color.NoColor = true
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{"": FormatText, "text": FormatText, "JSON": FormatJSON, "yaml": FormatYAML} {
		got, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestPrinter_NodesText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatText).Nodes("Dependencies", "A", []string{"B", "C"}))

	out := buf.String()
	assert.Contains(t, out, "Dependencies of A")
	assert.Contains(t, out, "  B\n  C\n")
	assert.Contains(t, out, "Total: 2")
}

func TestPrinter_NodesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON).Nodes("Dependencies", "A", []string{"B"}))

	var doc struct {
		Root  string   `json:"root"`
		Nodes []string `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "A", doc.Root)
	assert.Equal(t, []string{"B"}, doc.Nodes)
}

func TestPrinter_TreeYAML(t *testing.T) {
	var buf bytes.Buffer
	tree := model.DependencyTree{
		Root:                        "A",
		DirectChildren:              []string{"B", "C"},
		DirectParents:               []string{},
		Depth:                       2,
		TotalTransitiveDependencies: 3,
	}
	require.NoError(t, NewPrinter(&buf, FormatYAML).Tree(tree))

	var got model.DependencyTree
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "A", got.Root)
	assert.Equal(t, []string{"B", "C"}, got.DirectChildren)
	assert.Empty(t, got.DirectParents)
	assert.Equal(t, 2, got.Depth)
	assert.Contains(t, buf.String(), "total_transitive_dependencies: 3")
}

func TestPrinter_ExportYAMLKinds(t *testing.T) {
	var buf bytes.Buffer
	export := model.NewGraphExport()
	export.Nodes = []string{"A", "B"}
	export.Edges = []model.ExportEdge{{Source: "A", Target: "B", Count: 2, Kind: model.OtherKind("weld")}}
	export.TotalFiles = 2
	export.TotalReferences = 1

	require.NoError(t, NewPrinter(&buf, FormatYAML).Export(export))

	out := buf.String()
	assert.Contains(t, out, "kind: weld")
	assert.Contains(t, out, "total_references: 1")
}

func TestPrinter_CyclesText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatText)

	require.NoError(t, p.Cycles([]model.CycleEdge{}, nil))
	assert.Contains(t, buf.String(), "No circular references")

	buf.Reset()
	require.NoError(t, p.Cycles([]model.CycleEdge{{From: "Y", To: "X"}}, [][]string{{"X", "Y"}}))
	out := buf.String()
	assert.Contains(t, out, "Y -> X")
	assert.Contains(t, out, "Cycle group 1: X, Y")
}

func TestPrinter_Impact(t *testing.T) {
	var buf bytes.Buffer
	impacts := []model.Impact{{Node: "B", Hops: 1}, {Node: "C", Hops: 1}, {Node: "D", Hops: 2}}
	require.NoError(t, NewPrinter(&buf, FormatText).Impact("A", model.Forward, impacts))

	out := buf.String()
	assert.Contains(t, out, "Impact of A (forward)")
	assert.Equal(t, 1, strings.Count(out, "1 hop(s):"))
	assert.Contains(t, out, "2 hop(s):\n  D\n")
}

func TestPrinter_Aggregated(t *testing.T) {
	var buf bytes.Buffer
	edges := []model.AggregatedEdge{{
		Source: "A", Target: "B", Registrations: 2, TotalInstances: 5,
		Kinds: []model.ReferenceKind{model.KindComponent, model.KindMirror},
	}}
	require.NoError(t, NewPrinter(&buf, FormatText).Aggregated(edges))
	assert.Contains(t, buf.String(), "A -> B x5 in 2 registration(s) (component, mirror)")
}

func TestPrinter_Ingest(t *testing.T) {
	var buf bytes.Buffer
	report := &source.IngestReport{Source: "fake", Roots: 3, Edges: 4, Rejected: 1, Failed: []string{"E"}}
	require.NoError(t, NewPrinter(&buf, FormatText).Ingest(report))

	out := buf.String()
	assert.Contains(t, out, "Ingested fake: 3 root(s), 4 reference(s), 1 rejected")
	assert.Contains(t, out, "failed: E")
}

func TestRender_UnsupportedFormat(t *testing.T) {
	assert.Error(t, Render(&bytes.Buffer{}, FormatText, "x"))
}

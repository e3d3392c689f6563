package model

// GraphExport is a portable snapshot of the reference graph.
// Nodes come from the adjacency; Edges come from the reference log, one per registration.
type GraphExport struct {
	Nodes           []string     `json:"nodes" yaml:"nodes"`
	Edges           []ExportEdge `json:"edges" yaml:"edges"`
	TotalFiles      int          `json:"total_files" yaml:"total_files"`
	TotalReferences int          `json:"total_references" yaml:"total_references"`
}

// ExportEdge is one logged registration
type ExportEdge struct {
	Source string        `json:"source" yaml:"source"`
	Target string        `json:"target" yaml:"target"`
	Count  int           `json:"count" yaml:"count"`
	Kind   ReferenceKind `json:"kind" yaml:"kind"`
}

// AggregatedEdge folds every registration of one parent/child pair together.
// It is a separate view; the adjacency itself never carries counts.
type AggregatedEdge struct {
	Source         string          `json:"source" yaml:"source"`
	Target         string          `json:"target" yaml:"target"`
	Registrations  int             `json:"registrations" yaml:"registrations"`
	TotalInstances int             `json:"total_instances" yaml:"total_instances"`
	Kinds          []ReferenceKind `json:"kinds" yaml:"kinds"`
}

// NewGraphExport creates an empty export with non-nil slices
func NewGraphExport() GraphExport {
	return GraphExport{
		Nodes: make([]string, 0),
		Edges: make([]ExportEdge, 0),
	}
}

// Stats holds the size of the graph
type Stats struct {
	Nodes      int `json:"nodes"`
	Edges      int `json:"edges"`      // distinct parent/child pairs
	References int `json:"references"` // logged registrations
}

// Impact is a node within reach of a root, with its shortest hop distance
type Impact struct {
	Node string `json:"node" yaml:"node"`
	Hops int    `json:"hops" yaml:"hops"`
}

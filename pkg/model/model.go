package model

import (
	"fmt"
	"strings"
)

// KindTag identifies the variant of a ReferenceKind
type KindTag uint8

const (
	TagComponent KindTag = iota // Plain sub-component / sub-package usage
	TagDerived                  // Derived part (e.g., a part built from another part)
	TagMirror                   // Mirrored copy of another part
	TagGeneric                  // Generic relationship with no further meaning
	TagOther                    // Unknown kind, name preserved for forward compatibility
)

// ReferenceKind describes the relationship carried by a reference.
// The zero value is KindComponent.
type ReferenceKind struct {
	tag  KindTag
	name string // only set for TagOther
}

var (
	KindComponent = ReferenceKind{tag: TagComponent}
	KindDerived   = ReferenceKind{tag: TagDerived}
	KindMirror    = ReferenceKind{tag: TagMirror}
	KindGeneric   = ReferenceKind{tag: TagGeneric}
)

var knownKinds = map[string]ReferenceKind{
	"component": KindComponent,
	"derived":   KindDerived,
	"mirror":    KindMirror,
	"generic":   KindGeneric,
}

// OtherKind returns the kind for a name outside the known set.
// Names matching a known kind (case-insensitively) return that kind instead.
func OtherKind(name string) ReferenceKind {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if k, ok := knownKinds[normalized]; ok {
		return k
	}
	return ReferenceKind{tag: TagOther, name: normalized}
}

// ParseKind converts a free-form kind name into a ReferenceKind.
// An empty name yields KindComponent.
func ParseKind(name string) ReferenceKind {
	if strings.TrimSpace(name) == "" {
		return KindComponent
	}
	return OtherKind(name)
}

// Tag returns the variant of the kind
func (k ReferenceKind) Tag() KindTag {
	return k.tag
}

// IsOther returns true for kinds outside the known set
func (k ReferenceKind) IsOther() bool {
	return k.tag == TagOther
}

func (k ReferenceKind) String() string {
	switch k.tag {
	case TagComponent:
		return "component"
	case TagDerived:
		return "derived"
	case TagMirror:
		return "mirror"
	case TagGeneric:
		return "generic"
	case TagOther:
		return k.name
	default:
		return fmt.Sprintf("kind(%d)", k.tag)
	}
}

// MarshalText implements encoding.TextMarshaler
func (k ReferenceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *ReferenceKind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}

// ReferenceEntry records a single registration call.
// Several entries may exist for the same parent/child pair.
type ReferenceEntry struct {
	Parent        string        `json:"parent" yaml:"parent"`
	Child         string        `json:"child" yaml:"child"`
	InstanceCount int           `json:"instance_count" yaml:"instance_count"`
	Kind          ReferenceKind `json:"kind" yaml:"kind"`
}

// Direction selects which adjacency a traversal follows
type Direction int

const (
	Forward Direction = iota // parent -> children ("depends on")
	Reverse                  // child -> parents ("where used")
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// CycleEdge is an edge that closes a cycle: To was on the active DFS path when reached from From
type CycleEdge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// DependencyTree summarizes a single node. It is computed on demand and never stored.
type DependencyTree struct {
	Root                        string   `json:"root" yaml:"root"`
	DirectChildren              []string `json:"direct_children" yaml:"direct_children"`
	DirectParents               []string `json:"direct_parents" yaml:"direct_parents"`
	Depth                       int      `json:"depth" yaml:"depth"`
	TotalTransitiveDependencies int      `json:"total_transitive_dependencies" yaml:"total_transitive_dependencies"`
}

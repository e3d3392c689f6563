// Package source feeds the engine from external edge producers. A source
// lists the roots it knows about and, per root, the children that root uses.
// The engine never sees where edges come from.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ritzau/refgraph/pkg/model"
)

// ErrUnknownRoot is returned by EnumerateEdges for a root the source does not list
var ErrUnknownRoot = errors.New("unknown root")

// ChildRef is one child of a root as reported by a source
type ChildRef struct {
	ID            string
	InstanceCount int
	Kind          model.ReferenceKind
}

// EdgeSource produces references, one root at a time.
// Implementations must allow concurrent EnumerateEdges calls after Roots returns.
type EdgeSource interface {
	Name() string
	Roots(ctx context.Context) ([]string, error)
	EnumerateEdges(ctx context.Context, root string) ([]ChildRef, error)
}

// Open picks a source for path: directories are scanned for .d files,
// .toml/.yaml/.yml/.json files are read as manifests.
func Open(path string) (EdgeSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}

	if info.IsDir() {
		return NewDepFileSource(path), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".yaml", ".yml", ".json":
		return LoadManifest(path)
	case ".d":
		return NewDepFileSource(path), nil
	default:
		return nil, fmt.Errorf("unsupported source file: %s", path)
	}
}

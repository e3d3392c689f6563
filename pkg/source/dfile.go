package source

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ritzau/refgraph/pkg/logging"
	"github.com/ritzau/refgraph/pkg/model"
)

// DepRule is the content of one Makefile-style .d dependency file
type DepRule struct {
	Target        string   // e.g., "bazel-out/bin/util/_objs/util/math.o"
	Prerequisites []string // workspace prerequisites in file order
}

// Unit returns the node that owns the rule's dependencies: the first C/C++
// source prerequisite, or the target when there is none.
func (r *DepRule) Unit() string {
	for _, p := range r.Prerequisites {
		if isSourceFile(p) {
			return p
		}
	}
	return r.Target
}

// Dependencies returns every prerequisite except the unit itself
func (r *DepRule) Dependencies() []string {
	unit := r.Unit()
	deps := make([]string, 0, len(r.Prerequisites))
	for _, p := range r.Prerequisites {
		if p != unit {
			deps = append(deps, p)
		}
	}
	return deps
}

// ParseDFile parses a Makefile-style .d dependency file
// Format: target.o: dep1.cc dep2.h dep3.h ...
func ParseDFile(path string) (*DepRule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	rule := &DepRule{}

	scanner := bufio.NewScanner(file)
	var currentLine strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		// Handle line continuations (backslash at end)
		if trimmed := strings.TrimSpace(line); strings.HasSuffix(trimmed, "\\") {
			currentLine.WriteString(strings.TrimSuffix(trimmed, "\\"))
			currentLine.WriteString(" ")
			continue
		}

		currentLine.WriteString(line)
		fullLine := currentLine.String()
		currentLine.Reset()

		idx := strings.Index(fullLine, ":")
		if idx == -1 {
			continue
		}

		if rule.Target == "" {
			rule.Target = strings.TrimSpace(fullLine[:idx])
		}
		for _, dep := range strings.Fields(fullLine[idx+1:]) {
			// Skip system includes and generated files
			if isWorkspaceFile(dep) {
				rule.Prerequisites = append(rule.Prerequisites, dep)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return rule, nil
}

func isSourceFile(path string) bool {
	switch filepath.Ext(path) {
	case ".cc", ".cpp", ".cxx", ".c":
		return true
	}
	return false
}

// isWorkspaceFile checks if a path is a workspace file (not system include)
func isWorkspaceFile(path string) bool {
	// Absolute paths are system includes
	if filepath.IsAbs(path) {
		return false
	}

	// External Bazel dependencies start with "external/"
	if strings.HasPrefix(path, "external/") {
		return false
	}

	// bazel-out paths are build artifacts, not source
	return !strings.HasPrefix(path, "bazel-out/")
}

// FindDFiles returns every plain .d file below root ("math.d" but not
// "math.ii.d"). A root that does not exist yields no files.
func FindDFiles(root string) ([]string, error) {
	var dfiles []string

	// Resolve symlink if root is a symlink (bazel-out usually is)
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if os.IsNotExist(err) {
			return dfiles, nil
		}
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors for individual files
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".d" && strings.Count(d.Name(), ".") == 1 {
			dfiles = append(dfiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return dfiles, nil
}

// DepFileSource serves compile dependencies from .d files. Each translation
// unit is a root and the headers it includes are its children.
type DepFileSource struct {
	path string

	mu    sync.RWMutex
	units map[string][]string
}

// NewDepFileSource creates a source for a directory of .d files or a single .d file
func NewDepFileSource(path string) *DepFileSource {
	return &DepFileSource{path: path}
}

func (s *DepFileSource) Name() string {
	return "dfiles:" + s.path
}

// Roots parses every .d file and returns the translation units in file order.
// Files that cannot be parsed are skipped.
func (s *DepFileSource) Roots(ctx context.Context) ([]string, error) {
	logger := logging.New("source.dfiles")

	dfiles := []string{s.path}
	if info, err := os.Stat(s.path); err == nil && info.IsDir() {
		found, err := FindDFiles(s.path)
		if err != nil {
			return nil, err
		}
		dfiles = found
	}

	var roots []string
	units := make(map[string][]string)
	for _, dfile := range dfiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rule, err := ParseDFile(dfile)
		if err != nil {
			logger.Debug("skipping unreadable .d file", "path", dfile, "error", err)
			continue
		}

		unit := rule.Unit()
		if unit == "" {
			continue
		}
		if _, seen := units[unit]; !seen {
			roots = append(roots, unit)
		}
		units[unit] = append(units[unit], rule.Dependencies()...)
	}

	s.mu.Lock()
	s.units = units
	s.mu.Unlock()

	logger.Debug("parsed .d files", "files", len(dfiles), "units", len(roots))
	return roots, nil
}

func (s *DepFileSource) EnumerateEdges(ctx context.Context, root string) ([]ChildRef, error) {
	s.mu.RLock()
	deps, ok := s.units[root]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", root, ErrUnknownRoot)
	}

	refs := make([]ChildRef, 0, len(deps))
	for _, dep := range deps {
		refs = append(refs, ChildRef{ID: dep, InstanceCount: 1, Kind: model.KindComponent})
	}
	return refs, nil
}

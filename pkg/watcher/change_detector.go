package watcher

import (
	"path/filepath"
	"strings"
)

// ChangeAnalysis describes what changed and which sources need to be re-read
type ChangeAnalysis struct {
	ChangedFiles []string
	Sources      []string // configured sources touched by the change, in configured order
}

// NeedReload returns true if any configured source was touched.
// The graph only grows, so any touched source means rebuilding from all sources.
func (a *ChangeAnalysis) NeedReload() bool {
	return len(a.Sources) > 0
}

// AnalyzeChanges maps changed paths back to the configured sources they belong to.
// A changed path belongs to a source that is the same file or a directory above it.
func AnalyzeChanges(event ChangeEvent, sources []string) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	for _, src := range sources {
		if touches(event.Paths, src) {
			analysis.Sources = append(analysis.Sources, src)
		}
	}

	return analysis
}

func touches(changed []string, src string) bool {
	abs, err := filepath.Abs(src)
	if err != nil {
		return false
	}
	// Trees are watched through their resolved path
	roots := []string{abs}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil && resolved != abs {
		roots = append(roots, resolved)
	}

	for _, path := range changed {
		for _, root := range roots {
			if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
				return true
			}
		}
	}
	return false
}

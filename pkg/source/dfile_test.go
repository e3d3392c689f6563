package source

import (
	"context"
	"path/filepath"
	"testing"
)

const mathD = `bazel-out/bin/util/_objs/util/math.o: util/math.cc util/math.h \
  util/strings.h /usr/include/stdio.h \
  external/abseil/absl/strings/str_cat.h
`

const engineD = `bazel-out/bin/core/_objs/core/engine.o: core/engine.cc \
 core/engine.h util/strings.h util/time.h
`

func TestParseDFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "math.d", mathD)

	rule, err := ParseDFile(path)
	if err != nil {
		t.Fatalf("ParseDFile() error = %v", err)
	}

	if rule.Target != "bazel-out/bin/util/_objs/util/math.o" {
		t.Errorf("Unexpected target '%s'", rule.Target)
	}
	if rule.Unit() != "util/math.cc" {
		t.Errorf("Expected unit 'util/math.cc', got '%s'", rule.Unit())
	}

	deps := rule.Dependencies()
	if len(deps) != 2 || deps[0] != "util/math.h" || deps[1] != "util/strings.h" {
		t.Errorf("Expected [util/math.h util/strings.h], got %v", deps)
	}

	// Should not include system or external headers
	for _, dep := range deps {
		if filepath.IsAbs(dep) {
			t.Errorf("Should not include absolute path (system header): %s", dep)
		}
	}
}

func TestDepRule_UnitFallsBackToTarget(t *testing.T) {
	rule := &DepRule{Target: "gen.o", Prerequisites: []string{"gen/a.h"}}

	if rule.Unit() != "gen.o" {
		t.Errorf("Expected target as unit, got '%s'", rule.Unit())
	}
	if deps := rule.Dependencies(); len(deps) != 1 || deps[0] != "gen/a.h" {
		t.Errorf("Unexpected dependencies %v", deps)
	}
}

func TestFindDFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util/math.d", mathD)
	writeFile(t, dir, "util/math.ii.d", mathD)
	writeFile(t, dir, "core/engine.d", engineD)

	found, err := FindDFiles(dir)
	if err != nil {
		t.Fatalf("FindDFiles() error = %v", err)
	}
	if len(found) != 2 {
		t.Errorf("Expected 2 .d files, got %v", found)
	}

	found, err = FindDFiles(filepath.Join(dir, "missing"))
	if err != nil || len(found) != 0 {
		t.Errorf("Expected no files and no error for missing dir, got %v, %v", found, err)
	}
}

func TestDepFileSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/math.d", mathD)
	writeFile(t, dir, "b/engine.d", engineD)

	src := NewDepFileSource(dir)
	roots, err := src.Roots(context.Background())
	if err != nil {
		t.Fatalf("Roots() error = %v", err)
	}
	if len(roots) != 2 || roots[0] != "util/math.cc" || roots[1] != "core/engine.cc" {
		t.Fatalf("Unexpected roots %v", roots)
	}

	refs, err := src.EnumerateEdges(context.Background(), "core/engine.cc")
	if err != nil {
		t.Fatalf("EnumerateEdges() error = %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("Expected 3 children, got %v", refs)
	}
	for _, ref := range refs {
		if ref.InstanceCount != 1 {
			t.Errorf("Expected instance count 1 for %s, got %d", ref.ID, ref.InstanceCount)
		}
	}

	if _, err := src.EnumerateEdges(context.Background(), "nope.cc"); err == nil {
		t.Error("Expected error for unknown root")
	}
}

func TestDepFileSource_SingleFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "engine.d", engineD)

	roots, err := NewDepFileSource(path).Roots(context.Background())
	if err != nil {
		t.Fatalf("Roots() error = %v", err)
	}
	if len(roots) != 1 || roots[0] != "core/engine.cc" {
		t.Errorf("Unexpected roots %v", roots)
	}
}

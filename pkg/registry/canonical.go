package registry

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// Canonicalizer maps a raw identifier to its canonical node key.
// It must be deterministic and free of side effects.
type Canonicalizer interface {
	Canonicalize(raw string) (string, error)
}

// IdentityCanonicalizer accepts every string verbatim
type IdentityCanonicalizer struct{}

func (IdentityCanonicalizer) Canonicalize(raw string) (string, error) {
	return raw, nil
}

// PathCanonicalizer resolves file system paths to absolute, cleaned paths.
// Symlinks are resolved when the path exists; missing paths keep their cleaned absolute form.
type PathCanonicalizer struct {
	// Base is used to resolve relative paths; empty means the working directory
	Base string
}

func (c PathCanonicalizer) Canonicalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyIdentifier
	}

	path := raw
	if !filepath.IsAbs(path) && c.Base != "" {
		path = filepath.Join(c.Base, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, nil
		}
		return "", err
	}
	return resolved, nil
}

// PackageCanonicalizer normalizes slash-separated package identifiers
// (e.g., "//core/", "core//engine") by trimming whitespace, collapsing
// repeated separators and dropping a trailing separator.
type PackageCanonicalizer struct{}

func (PackageCanonicalizer) Canonicalize(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrEmptyIdentifier
	}

	// Keep a leading "//" (workspace-rooted labels) or "/" but collapse everything else
	prefix := ""
	switch {
	case strings.HasPrefix(id, "//"):
		prefix = "//"
	case strings.HasPrefix(id, "/"):
		prefix = "/"
	}

	var kept []string
	for _, p := range strings.Split(id, "/") {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return prefix + strings.Join(kept, "/"), nil
}

// ByName returns the canonicalizer registered under name: identity, path or package
func ByName(name string) (Canonicalizer, bool) {
	switch name {
	case "", "identity":
		return IdentityCanonicalizer{}, true
	case "path":
		return PathCanonicalizer{}, true
	case "package":
		return PackageCanonicalizer{}, true
	}
	return nil, false
}

package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ritzau/refgraph/pkg/model"
)

// manifest is the on-disk layout:
//
//	[[assembly]]
//	id = "A"
//	[[assembly.ref]]
//	child = "B"
//	count = 2
//	kind = "component"
type manifest struct {
	Assemblies []assembly `koanf:"assembly" validate:"dive"`
}

type assembly struct {
	ID   string      `koanf:"id" validate:"required"`
	Refs []reference `koanf:"ref" validate:"dive"`
}

type reference struct {
	Child string `koanf:"child" validate:"required"`
	Count *int   `koanf:"count"`
	Kind  string `koanf:"kind"`
}

// ManifestSource serves references declared in a manifest file
type ManifestSource struct {
	path  string
	roots []string
	refs  map[string][]ChildRef
}

var validate = validator.New()

// LoadManifest reads a TOML, YAML or JSON manifest. Assemblies listed more than
// once have their references concatenated. A missing count means 1; an explicit
// count is passed through unchanged so the engine's policy applies to it.
func LoadManifest(path string) (*ManifestSource, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("loading manifest %s: %w", path, err)
	}

	var m manifest
	if err := k.Unmarshal("", &m); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	src := &ManifestSource{
		path: path,
		refs: make(map[string][]ChildRef),
	}
	for _, a := range m.Assemblies {
		if _, seen := src.refs[a.ID]; !seen {
			src.roots = append(src.roots, a.ID)
			src.refs[a.ID] = make([]ChildRef, 0, len(a.Refs))
		}
		for _, r := range a.Refs {
			count := 1
			if r.Count != nil {
				count = *r.Count
			}
			src.refs[a.ID] = append(src.refs[a.ID], ChildRef{
				ID:            r.Child,
				InstanceCount: count,
				Kind:          model.ParseKind(r.Kind),
			})
		}
	}

	return src, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", path)
	}
}

func (s *ManifestSource) Name() string {
	return "manifest:" + s.path
}

// Roots returns the assemblies in the order they first appear in the manifest
func (s *ManifestSource) Roots(ctx context.Context) ([]string, error) {
	roots := make([]string, len(s.roots))
	copy(roots, s.roots)
	return roots, nil
}

func (s *ManifestSource) EnumerateEdges(ctx context.Context, root string) ([]ChildRef, error) {
	refs, ok := s.refs[root]
	if !ok {
		return nil, fmt.Errorf("%s: %w", root, ErrUnknownRoot)
	}
	result := make([]ChildRef, len(refs))
	copy(result, refs)
	return result, nil
}

package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/refgraph/pkg/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const tomlManifest = `
[[assembly]]
id = "A"

[[assembly.ref]]
child = "B"
count = 2

[[assembly.ref]]
child = "C"
kind = "mirror"

[[assembly]]
id = "B"

[[assembly.ref]]
child = "D"
kind = "weld"
`

func TestLoadManifest_TOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.toml", tomlManifest)

	src, err := LoadManifest(path)
	require.NoError(t, err)

	roots, err := src.Roots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, roots)

	refs, err := src.EnumerateEdges(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, []ChildRef{
		{ID: "B", InstanceCount: 2, Kind: model.KindComponent},
		{ID: "C", InstanceCount: 1, Kind: model.KindMirror},
	}, refs)

	refs, err = src.EnumerateEdges(context.Background(), "B")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, model.OtherKind("weld"), refs[0].Kind)
}

func TestLoadManifest_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.yaml", `
assembly:
  - id: A
    ref:
      - child: B
        count: 3
      - child: C
  - id: A
    ref:
      - child: D
        count: 0
`)

	src, err := LoadManifest(path)
	require.NoError(t, err)

	roots, err := src.Roots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, roots)

	refs, err := src.EnumerateEdges(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, 3, refs[0].InstanceCount)
	assert.Equal(t, 1, refs[1].InstanceCount)
	// An explicit count is passed through for the engine to judge
	assert.Equal(t, 0, refs[2].InstanceCount)
}

func TestLoadManifest_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.json",
		`{"assembly": [{"id": "P", "ref": [{"child": "Q", "count": 4, "kind": "derived"}]}]}`)

	src, err := LoadManifest(path)
	require.NoError(t, err)

	refs, err := src.EnumerateEdges(context.Background(), "P")
	require.NoError(t, err)
	assert.Equal(t, []ChildRef{{ID: "Q", InstanceCount: 4, Kind: model.KindDerived}}, refs)
}

func TestLoadManifest_Invalid(t *testing.T) {
	dir := t.TempDir()

	missingChild := writeFile(t, dir, "bad.toml", `
[[assembly]]
id = "A"
[[assembly.ref]]
count = 2
`)
	_, err := LoadManifest(missingChild)
	assert.Error(t, err)

	missingID := writeFile(t, dir, "bad.yaml", "assembly:\n  - ref:\n      - child: B\n")
	_, err = LoadManifest(missingID)
	assert.Error(t, err)

	_, err = LoadManifest(filepath.Join(dir, "refs.ini"))
	assert.Error(t, err)

	_, err = LoadManifest(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestManifest_UnknownRoot(t *testing.T) {
	path := writeFile(t, t.TempDir(), "refs.toml", tomlManifest)
	src, err := LoadManifest(path)
	require.NoError(t, err)

	_, err = src.EnumerateEdges(context.Background(), "Z")
	assert.ErrorIs(t, err, ErrUnknownRoot)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "refs.toml", tomlManifest)
	writeFile(t, dir, "out/math.d", "math.o: util/math.cc util/math.h\n")

	src, err := Open(manifest)
	require.NoError(t, err)
	assert.IsType(t, &ManifestSource{}, src)

	src, err = Open(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.IsType(t, &DepFileSource{}, src)

	_, err = Open(writeFile(t, dir, "notes.txt", "hello"))
	assert.Error(t, err)

	_, err = Open(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

package asset

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestImportOBJ(t *testing.T) {
	path := writeFile(t, "tri.obj", []byte(`
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
f 1 2 3
f 2 4 3
`))
	d, err := Importer{}.Import(path)
	require.NoError(t, err)
	require.Len(t, d.Positions, 6)
	require.Len(t, d.Normals, 6)
	require.Len(t, d.Tangents, 6)

	assert.Equal(t, mgl32.Vec3{1, 0, 0}, d.Positions[1])
	for _, n := range d.Normals {
		assert.InDelta(t, 1, n[2], tol)
	}
	for i, tg := range d.Tangents {
		assert.InDelta(t, 0, tg.Dot(d.Normals[i]), tol)
		assert.InDelta(t, 1, tg.Len(), tol)
	}
}

func TestImportBinarySTL(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, [12]float32{
		0, 0, 1, // normal
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	}))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))

	d, err := Importer{}.Import(writeFile(t, "tri.stl", buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, d.Positions, 3)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, d.Positions[2])
}

func TestImportFailures(t *testing.T) {
	_, err := Importer{}.Import(filepath.Join(t.TempDir(), "nonexistent.obj"))
	assert.Error(t, err)

	_, err = Importer{}.Import(writeFile(t, "mesh.fbx", []byte("x")))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Importer{}.Import(writeFile(t, "empty.obj", []byte("# nothing\n")))
	assert.ErrorIs(t, err, ErrNoMesh)
}

func TestSceneLoadMeshNonexistent(t *testing.T) {
	s := scene.New(800, 600, Importer{})
	m, err := s.LoadMesh("bunny", filepath.Join(t.TempDir(), "bunny.obj"))
	assert.Error(t, err)
	assert.Nil(t, m)
	assert.Nil(t, s.Mesh("bunny"))
	assert.Equal(t, 0, s.Meshes())
}

func TestTangentsFromUVs(t *testing.T) {
	d := &scene.MeshData{
		Positions: []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		TexCoords: []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
	}
	for _, tg := range Tangents(d) {
		assert.InDelta(t, 1, tg[0], tol)
		assert.InDelta(t, 0, tg[1], tol)
	}
}

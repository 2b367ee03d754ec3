package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaultDescription(t *testing.T) {
	d, err := ParseDescription([]byte(DefaultDescription))
	require.NoError(t, err)

	s, err := Build(d, 800, 600, nil)
	require.NoError(t, err)

	assert.Equal(t, float32(10), s.Camera().Zoom())
	assert.Equal(t, mgl32.Vec3{8, 8, 8}, s.SceneSize())

	var objects, lights, shadowed int
	require.NoError(t, s.Traverse(func(id NodeID, n *Node, model mgl32.Mat4) error {
		switch n.Kind {
		case KindObject:
			objects++
			assert.NotNil(t, n.Object.Mesh, n.Name)
		case KindLight:
			lights++
			if n.Light.CastsShadow {
				shadowed++
			}
		case KindTransform:
		}
		return nil
	}))
	assert.Equal(t, 4, objects)
	assert.Equal(t, 2, lights)
	assert.Equal(t, 1, shadowed)

	plane := s.Node(s.Node(s.Root()).Children()[0])
	assert.Equal(t, "plane", plane.Name)
	assert.Len(t, plane.Children(), 3)
	assert.Equal(t, mgl32.Vec3{8, 8, 8}, plane.Scale)
}

func TestBuildReportsMeshFailures(t *testing.T) {
	d, err := ParseDescription([]byte(`
[[meshes]]
name = "bunny"
path = "missing.obj"

[[nodes]]
name = "b"
kind = "object"
mesh = "bunny"
angle = 90.0
axis = [0.0, 1.0, 0.0]
`))
	require.NoError(t, err)

	missing := errors.New("missing")
	s, err := Build(d, 640, 480, ImporterFunc(func(string) (*MeshData, error) { return nil, missing }))
	assert.ErrorIs(t, err, missing)
	require.NotNil(t, s)

	n := s.Node(s.Node(s.Root()).Children()[0])
	assert.Nil(t, n.Object.Mesh)
	assert.Same(t, DefaultMaterial, n.Object.Material)
	assert.True(t, n.Orientation.ApproxEqualThreshold(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}), tol))
}

func TestBuildStructuralErrors(t *testing.T) {
	for _, src := range []string{
		"[[nodes]]\nname = \"x\"\nkind = \"camera\"\n",
		"[[nodes]]\nname = \"x\"\nkind = \"object\"\nmaterial = \"nope\"\n",
		"[[meshes]]\nname = \"x\"\npath = \"builtin:teapot\"\n",
	} {
		d, err := ParseDescription([]byte(src))
		require.NoError(t, err)
		s, err := Build(d, 1, 1, nil)
		assert.Error(t, err, src)
		assert.Nil(t, s)
	}
}

func TestLoadDescription(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(DefaultDescription), 0o644))
	d, err := LoadDescription(path)
	require.NoError(t, err)
	assert.Len(t, d.Nodes, 3)

	_, err = LoadDescription(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)

	_, err = ParseDescription([]byte("nodes = 3 = 4"))
	assert.Error(t, err)
}

package scene

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

// BuiltinPrefix marks mesh paths that are generated instead of imported.
const BuiltinPrefix = "builtin:"

// Description is a declarative scene, usually decoded from a TOML file.
type Description struct {
	Projection ProjectionDesc `toml:"projection"`
	Ambient    [3]float32     `toml:"ambient"`
	SceneSize  [3]float32     `toml:"scene_size"`
	Camera     CameraDesc     `toml:"camera"`
	Meshes     []MeshDesc     `toml:"meshes"`
	Materials  []MaterialDesc `toml:"materials"`
	Nodes      []NodeDesc     `toml:"nodes"`
}

type ProjectionDesc struct {
	RY    float32 `toml:"ry"`
	Front float32 `toml:"front"`
	Back  float32 `toml:"back"`
}

type CameraDesc struct {
	Position [3]float32 `toml:"position"`
	Spin     float32    `toml:"spin"`
	Tilt     float32    `toml:"tilt"`
	Zoom     float32    `toml:"zoom"`
}

type MeshDesc struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

type MaterialDesc struct {
	Name  string     `toml:"name"`
	Kd    [3]float32 `toml:"kd"`
	Ks    [3]float32 `toml:"ks"`
	Alpha float32    `toml:"alpha"`
}

// NodeDesc describes one node and its subtree. Kind is "transform"
// (the default), "object" or "light".
type NodeDesc struct {
	Name        string      `toml:"name"`
	Kind        string      `toml:"kind"`
	Translation [3]float32  `toml:"translation"`
	Scale       *[3]float32 `toml:"scale"`
	Axis        [3]float32  `toml:"axis"`
	Angle       float32     `toml:"angle"` // degrees about Axis

	Mesh     string `toml:"mesh"`
	Material string `toml:"material"`

	Ambient [3]float32 `toml:"ambient"`
	Diffuse [3]float32 `toml:"diffuse"`
	Shadow  bool       `toml:"shadow"`

	Children []NodeDesc `toml:"children"`
}

// ParseDescription decodes a TOML scene description.
func ParseDescription(data []byte) (*Description, error) {
	var d Description
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("ParseDescription: %w", err)
	}
	return &d, nil
}

// LoadDescription reads and decodes the TOML scene file at path.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDescription(data)
}

// Build creates a scene from d. Meshes that fail to load are reported in
// the returned error but do not stop the build: objects that reference
// them get a nil mesh and are skipped at render time. Structural errors
// (unknown node kinds, unknown material names) return a nil scene.
func Build(d *Description, width, height int, imp Importer) (*Scene, error) {
	s := New(width, height, imp)
	if d.Projection.RY > 0 {
		s.SetProjection(d.Projection.RY, d.Projection.Front, d.Projection.Back)
	}
	s.SetAmbientIntensity(mgl32.Vec3(d.Ambient))
	if d.SceneSize != [3]float32{} {
		s.SetSceneSize(mgl32.Vec3(d.SceneSize))
	}
	cam := s.Camera()
	cam.SetPosition(mgl32.Vec3(d.Camera.Position))
	cam.SetSpin(d.Camera.Spin)
	cam.SetTilt(d.Camera.Tilt)
	cam.SetZoom(d.Camera.Zoom)

	var loadErrs []error
	for _, m := range d.Meshes {
		if name, ok := strings.CutPrefix(m.Path, BuiltinPrefix); ok {
			data, err := builtinMesh(name)
			if err != nil {
				return nil, err
			}
			s.AddMesh(m.Name, data)
			continue
		}
		if _, err := s.LoadMesh(m.Name, m.Path); err != nil {
			loadErrs = append(loadErrs, err)
		}
	}
	for _, m := range d.Materials {
		s.CreateMaterial(m.Name, mgl32.Vec3(m.Kd), mgl32.Vec3(m.Ks), m.Alpha)
	}
	for _, nd := range d.Nodes {
		id, err := s.buildNode(nd)
		if err != nil {
			return nil, err
		}
		s.AddNode(id)
	}
	return s, errors.Join(loadErrs...)
}

func (s *Scene) buildNode(nd NodeDesc) (NodeID, error) {
	var id NodeID
	switch nd.Kind {
	case "", "transform":
		id = s.NewNode(nd.Name)
	case "object":
		var mat *Material
		if nd.Material != "" {
			if mat = s.Material(nd.Material); mat == nil {
				return NoNode, fmt.Errorf("node %q: unknown material %q", nd.Name, nd.Material)
			}
		}
		id = s.NewObject(nd.Name, s.Mesh(nd.Mesh), mat)
	case "light":
		id = s.NewLight(nd.Name, mgl32.Vec3(nd.Ambient), mgl32.Vec3(nd.Diffuse))
		s.Node(id).Light.CastsShadow = nd.Shadow
	default:
		return NoNode, fmt.Errorf("node %q: unknown kind %q", nd.Name, nd.Kind)
	}

	n := s.Node(id)
	n.Translation = mgl32.Vec3(nd.Translation)
	if nd.Scale != nil {
		n.Scale = mgl32.Vec3(*nd.Scale)
	}
	if axis := mgl32.Vec3(nd.Axis); axis.Len() > 0 {
		n.Orientation = mgl32.QuatRotate(mgl32.DegToRad(nd.Angle), axis.Normalize())
	}

	for _, cd := range nd.Children {
		child, err := s.buildNode(cd)
		if err != nil {
			s.DeleteNode(id)
			return NoNode, err
		}
		s.AddChild(id, child)
	}
	return id, nil
}

func builtinMesh(name string) (*MeshData, error) {
	switch name {
	case "cube":
		return Cube(), nil
	case "plane":
		return Plane(), nil
	}
	return nil, fmt.Errorf("unknown builtin mesh %q", name)
}

// DefaultDescription is a small demo scene: a scaled ground plane carrying
// three meshes, lit by two lights.
const DefaultDescription = `
ambient = [0.05, 0.05, 0.05]
scene_size = [8.0, 8.0, 8.0]

[projection]
ry = 0.2
front = 0.1
back = 1000.0

[camera]
zoom = 10.0
tilt = 0.4

[[meshes]]
name = "bunny"
path = "builtin:cube"

[[meshes]]
name = "plane"
path = "builtin:plane"

[[materials]]
name = "bunny"
kd = [1.0, 1.0, 1.0]
ks = [1.0, 1.0, 1.0]
alpha = 100.0

[[materials]]
name = "plane"
kd = [0.0, 0.0, 1.0]
ks = [1.0, 1.0, 1.0]
alpha = 100.0

[[nodes]]
name = "plane"
kind = "object"
mesh = "plane"
material = "plane"
scale = [8.0, 8.0, 8.0]

  [[nodes.children]]
  name = "bunny1"
  kind = "object"
  mesh = "bunny"
  material = "bunny"
  translation = [-2.0, 0.5, 0.0]

  [[nodes.children]]
  name = "bunny2"
  kind = "object"
  mesh = "bunny"
  material = "bunny"
  translation = [0.0, 0.5, 0.0]

  [[nodes.children]]
  name = "bunny3"
  kind = "object"
  mesh = "bunny"
  material = "bunny"
  translation = [2.0, 0.5, 0.0]

[[nodes]]
name = "light1"
kind = "light"
ambient = [0.1, 0.1, 0.1]
diffuse = [1.0, 1.0, 1.0]
translation = [4.0, 8.0, 4.0]
shadow = true

[[nodes]]
name = "light2"
kind = "light"
ambient = [0.1, 0.1, 0.1]
diffuse = [1.0, 1.0, 1.0]
translation = [-4.0, 8.0, -4.0]
`

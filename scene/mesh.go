package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MeshData is the CPU-side result of importing a mesh file.
// All slices are per-vertex and describe a flat triangle list,
// so len(Positions) is a multiple of 3.
type MeshData struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Tangents  []mgl32.Vec3
	TexCoords []mgl32.Vec2
}

// Importer loads mesh data from a file.
type Importer interface {
	Import(path string) (*MeshData, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(path string) (*MeshData, error)

// Import calls f(path).
func (f ImporterFunc) Import(path string) (*MeshData, error) { return f(path) }

// Mesh is a named, registered mesh shared by reference across objects.
type Mesh struct {
	Name string
	Path string
	Data *MeshData
}

// VertexCount returns the number of vertices to draw.
func (m *Mesh) VertexCount() int {
	if m == nil || m.Data == nil {
		return 0
	}
	return len(m.Data.Positions)
}

// Interleaved returns the vertex data laid out as
// position(3) normal(3) tangent(3) texcoord(2) per vertex.
// Missing attributes are filled with zeros.
func (m *Mesh) Interleaved() []float32 {
	d := m.Data
	out := make([]float32, 0, len(d.Positions)*VertexStride)
	for i, p := range d.Positions {
		out = append(out, p[0], p[1], p[2])
		out = appendVec3(out, d.Normals, i)
		out = appendVec3(out, d.Tangents, i)
		if i < len(d.TexCoords) {
			out = append(out, d.TexCoords[i][0], d.TexCoords[i][1])
		} else {
			out = append(out, 0, 0)
		}
	}
	return out
}

// VertexStride is the number of float32s per interleaved vertex.
const VertexStride = 3 + 3 + 3 + 2

func appendVec3(out []float32, vs []mgl32.Vec3, i int) []float32 {
	if i < len(vs) {
		return append(out, vs[i][0], vs[i][1], vs[i][2])
	}
	return append(out, 0, 0, 0)
}

// Material holds the reflectance coefficients used by the geometry pass.
type Material struct {
	Name  string
	Kd    mgl32.Vec3 // diffuse
	Ks    mgl32.Vec3 // specular
	Alpha float32    // shininess exponent
}

// DefaultMaterial is used for objects created without a material.
var DefaultMaterial = &Material{
	Name:  "default",
	Kd:    mgl32.Vec3{0.8, 0.8, 0.8},
	Ks:    mgl32.Vec3{0.2, 0.2, 0.2},
	Alpha: 16,
}

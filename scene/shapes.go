package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane returns a unit quad in the XZ plane facing +Y.
func Plane() *MeshData {
	d := &MeshData{}
	quad(d, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1})
	return d
}

// Cube returns a unit cube centered at the origin.
func Cube() *MeshData {
	d := &MeshData{}
	axes := [][3]mgl32.Vec3{
		{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	}
	for _, a := range axes {
		quad(d, a[0].Mul(0.5), a[0], a[1], a[2])
	}
	return d
}

// quad appends two counter-clockwise triangles of a unit face centered
// at c with normal n, spanned by u and v where n = u x v.
func quad(d *MeshData, c, n, u, v mgl32.Vec3) {
	hu, hv := u.Mul(0.5), v.Mul(0.5)
	corners := [4]mgl32.Vec3{
		c.Sub(hu).Sub(hv),
		c.Add(hu).Sub(hv),
		c.Add(hu).Add(hv),
		c.Sub(hu).Add(hv),
	}
	uvs := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, i := range []int{0, 1, 2, 0, 2, 3} {
		d.Positions = append(d.Positions, corners[i])
		d.Normals = append(d.Normals, n)
		d.Tangents = append(d.Tangents, u)
		d.TexCoords = append(d.TexCoords, uvs[i])
	}
}

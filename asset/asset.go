// Package asset imports mesh files into scene.MeshData.
//
// Wavefront OBJ and STL files are parsed with fauxgl; glTF and GLB files
// with qmuntal/gltf. Only the first mesh in a file is used.
package asset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoMesh is returned when a file parses but holds no triangles.
	ErrNoMesh = errors.New("asset: file contains no mesh data")
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("asset: unsupported mesh format")
)

// Importer implements scene.Importer.
type Importer struct{}

var _ scene.Importer = Importer{}

// Import loads the mesh at path, triangulated, with tangents computed
// from texture coordinates where the file does not provide them.
func (Importer) Import(path string) (*scene.MeshData, error) {
	var (
		d   *scene.MeshData
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj", ".stl":
		d, err = importFauxGL(path, ext)
	case ".gltf", ".glb":
		d, err = importGLTF(path)
	default:
		return nil, fmt.Errorf("%v: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	if len(d.Positions) == 0 {
		return nil, fmt.Errorf("%v: %w", path, ErrNoMesh)
	}
	if len(d.Normals) != len(d.Positions) {
		d.Normals = faceNormals(d.Positions)
	}
	if len(d.Tangents) != len(d.Positions) {
		d.Tangents = Tangents(d)
	}
	return d, nil
}

// faceNormals returns flat per-triangle normals.
func faceNormals(pos []mgl32.Vec3) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(pos))
	for i := 0; i+2 < len(pos); i += 3 {
		n := pos[i+1].Sub(pos[i]).Cross(pos[i+2].Sub(pos[i]))
		if n.Len() > 0 {
			n = n.Normalize()
		}
		normals[i], normals[i+1], normals[i+2] = n, n, n
	}
	return normals
}

// Tangents computes a per-vertex tangent for every triangle of d.
// Triangles without usable texture coordinates get a tangent
// perpendicular to the vertex normal.
func Tangents(d *scene.MeshData) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(d.Positions))
	for i := 0; i+2 < len(d.Positions); i += 3 {
		var t mgl32.Vec3
		if len(d.TexCoords) == len(d.Positions) {
			e1 := d.Positions[i+1].Sub(d.Positions[i])
			e2 := d.Positions[i+2].Sub(d.Positions[i])
			uv1 := d.TexCoords[i+1].Sub(d.TexCoords[i])
			uv2 := d.TexCoords[i+2].Sub(d.TexCoords[i])
			if det := uv1[0]*uv2[1] - uv2[0]*uv1[1]; det != 0 {
				t = e1.Mul(uv2[1]).Sub(e2.Mul(uv1[1])).Mul(1 / det)
			}
		}
		for j := i; j < i+3; j++ {
			tj := t
			if tj.Len() == 0 {
				tj = perpendicular(d.Normals[j])
			}
			out[j] = tj.Normalize()
		}
	}
	return out
}

func perpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if n[0] > 0.9 || n[0] < -0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	p := n.Cross(axis)
	if p.Len() == 0 {
		return axis
	}
	return p
}

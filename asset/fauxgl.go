package asset

import (
	"fmt"

	"github.com/fogleman/fauxgl"
	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func importFauxGL(path, ext string) (*scene.MeshData, error) {
	var (
		mesh *fauxgl.Mesh
		err  error
	)
	switch ext {
	case ".obj":
		mesh, err = fauxgl.LoadOBJ(path)
	case ".stl":
		mesh, err = fauxgl.LoadSTL(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %v: %w", path, err)
	}

	d := &scene.MeshData{}
	hasNormals := true
	for _, t := range mesh.Triangles {
		for _, v := range [3]fauxgl.Vertex{t.V1, t.V2, t.V3} {
			d.Positions = append(d.Positions, vec3(v.Position))
			d.Normals = append(d.Normals, vec3(v.Normal))
			d.TexCoords = append(d.TexCoords, mgl32.Vec2{float32(v.Texture.X), float32(v.Texture.Y)})
			if v.Normal == (fauxgl.Vector{}) {
				hasNormals = false
			}
		}
	}
	if !hasNormals {
		d.Normals = nil
	}
	return d, nil
}

func vec3(v fauxgl.Vector) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

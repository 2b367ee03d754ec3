package asset

import (
	"fmt"

	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func importGLTF(path string) (*scene.MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", path, err)
	}
	if len(doc.Meshes) == 0 {
		return nil, fmt.Errorf("%v: %w", path, ErrNoMesh)
	}

	d := &scene.MeshData{}
	for _, prim := range doc.Meshes[0].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		if err := appendPrimitive(d, doc, prim); err != nil {
			return nil, fmt.Errorf("%v: %w", path, err)
		}
	}
	return d, nil
}

// appendPrimitive expands an (optionally indexed) triangle primitive into
// the flat triangle list of d.
func appendPrimitive(d *scene.MeshData, doc *gltf.Document, prim *gltf.Primitive) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("read normals: %w", err)
		}
	}

	var texCoords [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if texCoords, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("read texture coordinates: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	for _, i := range indices[:len(indices)-len(indices)%3] {
		if int(i) >= len(positions) {
			return fmt.Errorf("index %v out of range", i)
		}
		d.Positions = append(d.Positions, mgl32.Vec3(positions[i]))
		if len(normals) == len(positions) {
			d.Normals = append(d.Normals, mgl32.Vec3(normals[i]))
		}
		if len(texCoords) == len(positions) {
			d.TexCoords = append(d.TexCoords, mgl32.Vec2(texCoords[i]))
		}
	}
	return nil
}

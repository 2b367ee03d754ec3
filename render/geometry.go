package render

import (
	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// meshBuffer is the device copy of a scene mesh.
type meshBuffer struct {
	vao, vbo uint32
	count    int
}

var meshLayout = []VertexAttrib{
	{Location: attribPosition, Size: 3, Offset: 0, Stride: scene.VertexStride},
	{Location: attribNormal, Size: 3, Offset: 3, Stride: scene.VertexStride},
	{Location: attribTangent, Size: 3, Offset: 6, Stride: scene.VertexStride},
	{Location: attribTexCoord, Size: 2, Offset: 9, Stride: scene.VertexStride},
}

// uploadMesh returns the uploaded copy of m, uploading it on first use.
// It returns false for nil or empty meshes.
func (r *Renderer) uploadMesh(m *scene.Mesh) (meshBuffer, bool) {
	if m.VertexCount() == 0 {
		return meshBuffer{}, false
	}
	if mb, ok := r.meshes[m]; ok {
		return mb, true
	}
	vao, vbo := r.dev.CreateVertexArray(m.Interleaved(), meshLayout)
	mb := meshBuffer{vao: vao, vbo: vbo, count: m.VertexCount()}
	r.meshes[m] = mb
	return mb, true
}

// ReleaseMesh frees the device copy of m, if any. It is suitable as the
// release callback of scene.FreeMemory.
func (r *Renderer) ReleaseMesh(m *scene.Mesh) {
	mb, ok := r.meshes[m]
	if !ok {
		return
	}
	r.dev.DeleteVertexArray(mb.vao, mb.vbo)
	delete(r.meshes, m)
}

// GeometryPass writes material attributes of every renderable node into
// the G-buffer and records the lights it meets.
type GeometryPass struct {
	prog *program
}

// Render runs the geometry pass for s into f.
func (p *GeometryPass) Render(r *Renderer, s *scene.Scene, f *Frame) error {
	r.BindGBuffer()
	r.dev.Enable(DepthTest)
	// Uncovered pixels must keep gPosition.w == 0 whatever the clear color.
	r.dev.ClearColor(0, 0, 0, 0)
	r.dev.Clear(ClearColorBit | ClearDepthBit)

	p.prog.use()
	p.prog.setMat4("uProjectionMatrix", s.ProjectionMatrix())
	p.prog.setMat4("uViewMatrix", s.ViewMatrix())

	return s.Traverse(func(id scene.NodeID, n *scene.Node, model mgl32.Mat4) error {
		switch n.Kind {
		case scene.KindObject:
			p.drawObject(r, n.Object, model, f)
		case scene.KindLight:
			f.Lights = append(f.Lights, LightInstance{
				ID:       id,
				Light:    n.Light,
				Position: model.Col(3).Vec3(),
			})
		case scene.KindTransform:
		}
		return nil
	})
}

func (p *GeometryPass) drawObject(r *Renderer, obj scene.Object, model mgl32.Mat4, f *Frame) {
	mb, ok := r.uploadMesh(obj.Mesh)
	if !ok {
		return
	}
	mat := obj.Material
	if mat == nil {
		mat = scene.DefaultMaterial
	}
	p.prog.setMat4("uModelMatrix", model)
	p.prog.setVec3("uMaterial.kd", mat.Kd)
	p.prog.setVec3("uMaterial.ks", mat.Ks)
	p.prog.setFloat("uMaterial.alpha", mat.Alpha)
	r.dev.DrawArrays(mb.vao, 0, mb.count)
	f.Stats.GeometryDraws++
}

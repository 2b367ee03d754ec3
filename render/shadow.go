package render

import (
	"github.com/chewxy/math32"
	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowPass renders scene depth from one light into the shadow buffer.
type ShadowPass struct {
	prog *program
}

// LightMatrices returns the view and orthographic projection used to
// render shadows for a light at pos. The projection encloses a sphere
// around the origin whose diameter is the scene size.
func LightMatrices(pos, sceneSize mgl32.Vec3) (view, projection mgl32.Mat4) {
	up := mgl32.Vec3{0, 1, 0}
	dist := pos.Len()
	if dist > 0 && math32.Abs(pos.Normalize().Dot(up)) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view = mgl32.LookAtV(pos, mgl32.Vec3{}, up)

	radius := 0.5 * sceneSize.Len()
	if radius == 0 {
		radius = 1
	}
	near := math32.Max(0.1, dist-radius)
	far := math32.Max(near+0.1, dist+radius)
	projection = mgl32.Ortho(-radius, radius, -radius, radius, near, far)
	return view, projection
}

// Render clears the shadow buffer and draws every mesh from light's
// viewpoint. It leaves the shadow buffer bound.
func (p *ShadowPass) Render(r *Renderer, s *scene.Scene, light LightInstance, f *Frame) error {
	view, proj := LightMatrices(light.Position, s.SceneSize())

	r.BindShadowBuffer()
	r.dev.Enable(DepthTest)
	r.dev.Clear(ClearDepthBit)
	r.dev.Enable(CullFaceTest)
	r.dev.CullFace(FaceFront)
	defer func() {
		r.dev.CullFace(FaceBack)
		r.dev.Disable(CullFaceTest)
	}()

	p.prog.use()
	p.prog.setMat4("uLightProjectionMatrix", proj)
	p.prog.setMat4("uLightViewMatrix", view)
	f.Stats.ShadowPasses++

	return s.Traverse(func(id scene.NodeID, n *scene.Node, model mgl32.Mat4) error {
		switch n.Kind {
		case scene.KindObject:
			mb, ok := r.uploadMesh(n.Object.Mesh)
			if !ok {
				return nil
			}
			p.prog.setMat4("uModelMatrix", model)
			r.dev.DrawArrays(mb.vao, 0, mb.count)
			f.Stats.ShadowDraws++
		case scene.KindLight, scene.KindTransform:
		}
		return nil
	})
}

package render

import (
	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Texture units read by the lighting program.
const (
	unitPosition = iota
	unitDiffuse
	unitSpecular
	unitNormal
	unitShadow
)

// quadVertices is a full-screen quad as two triangles: x, y, u, v.
var quadVertices = []float32{
	-1, 1, 0, 1,
	-1, -1, 0, 0,
	1, -1, 1, 0,
	1, -1, 1, 0,
	1, 1, 1, 1,
	-1, 1, 0, 1,
}

var quadLayout = []VertexAttrib{
	{Location: 0, Size: 2, Offset: 0, Stride: 4},
	{Location: 1, Size: 2, Offset: 2, Stride: 4},
}

// LightingPass accumulates the contribution of every recorded light into
// the default framebuffer, one full-screen quad per light.
type LightingPass struct {
	prog *program
}

// Render draws f.Lights. The first light overwrites the framebuffer,
// later ones are blended additively. The ambient term is only applied
// by the first quad. Lights that cast shadows trigger a shadow pass just
// before their quad. With no lights nothing is drawn.
func (p *LightingPass) Render(r *Renderer, s *scene.Scene, f *Frame) error {
	if len(f.Lights) == 0 {
		return nil
	}
	f.Ambient = s.AmbientIntensity()
	for _, l := range f.Lights {
		f.Ambient = f.Ambient.Add(l.Light.Ambient)
	}
	eye := s.Camera().Eye()

	defer func() {
		r.dev.Disable(Blend)
		r.dev.Enable(DepthTest)
	}()

	for i, l := range f.Lights {
		var lightMatrix mgl32.Mat4
		if l.Light.CastsShadow {
			if err := r.shadow.Render(r, s, l, f); err != nil {
				return err
			}
			view, proj := LightMatrices(l.Position, s.SceneSize())
			lightMatrix = proj.Mul4(view)
		}

		p.begin(r, eye)
		switch i {
		case 0:
			r.dev.Disable(Blend)
			p.prog.setVec3("uAmbient", f.Ambient)
		default:
			r.dev.Enable(Blend)
			r.dev.BlendAdditive()
			p.prog.setVec3("uAmbient", mgl32.Vec3{})
		}

		p.prog.setVec3("uLightPosition", l.Position)
		p.prog.setVec3("uLightDiffuse", l.Light.Diffuse)
		if l.Light.CastsShadow {
			p.prog.setInt("uUseShadow", 1)
			p.prog.setMat4("uLightMatrix", lightMatrix)
		} else {
			p.prog.setInt("uUseShadow", 0)
		}

		r.dev.DrawArrays(r.quadVAO, 0, len(quadVertices)/4)
		f.Stats.LightDraws++
	}
	return nil
}

// begin binds the default framebuffer and every input the lighting
// program samples.
func (p *LightingPass) begin(r *Renderer, eye mgl32.Vec3) {
	r.BindDefaultFramebuffer()
	r.dev.Disable(DepthTest)

	p.prog.use()
	for unit, tex := range r.gBuffer.Color {
		r.dev.BindTexture(unit, tex)
	}
	r.dev.BindTexture(unitShadow, r.shadowBuffer.Depth)

	p.prog.setInt("uPosition", unitPosition)
	p.prog.setInt("uDiffuse", unitDiffuse)
	p.prog.setInt("uSpecular", unitSpecular)
	p.prog.setInt("uNormal", unitNormal)
	p.prog.setInt("uShadowMap", unitShadow)
	p.prog.setVec3("uEyePosition", eye)
}

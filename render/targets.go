package render

import (
	"fmt"
)

// G-buffer color attachment slots.
const (
	GPosition = iota // world space position
	GDiffuse         // material kd
	GSpecular        // material ks in rgb, shininess in a
	GNormal          // world space normal
	GBufferColorAttachments
)

// GBuffer is the geometry pass target: four RGBA32F color textures and a
// 24-bit depth renderbuffer.
type GBuffer struct {
	Framebuffer uint32
	Color       [GBufferColorAttachments]uint32
	Depth       uint32
	Width       int
	Height      int
	DrawBuffers [GBufferColorAttachments]DrawBuffer
}

func createGBuffer(dev Device, width, height int) (*GBuffer, error) {
	g := &GBuffer{
		Width:       width,
		Height:      height,
		DrawBuffers: [GBufferColorAttachments]DrawBuffer{ColorAttachment0, ColorAttachment1, ColorAttachment2, ColorAttachment3},
	}
	for i := range g.Color {
		g.Color[i] = dev.CreateTexture(RGBA32F, width, height)
	}
	g.Depth = dev.CreateRenderbuffer(Depth24, width, height)

	fb, err := dev.CreateFramebuffer(Attachments{Color: g.Color[:], DepthRenderbuffer: g.Depth})
	if err != nil {
		g.free(dev)
		return nil, fmt.Errorf("g-buffer %vx%v: %w", width, height, err)
	}
	g.Framebuffer = fb
	return g, nil
}

func (g *GBuffer) free(dev Device) {
	if g == nil {
		return
	}
	dev.BindFramebuffer(0)
	if g.Depth != 0 {
		dev.DeleteRenderbuffer(g.Depth)
	}
	for _, tex := range g.Color {
		if tex != 0 {
			dev.DeleteTexture(tex)
		}
	}
	if g.Framebuffer != 0 {
		dev.DeleteFramebuffer(g.Framebuffer)
	}
	*g = GBuffer{}
}

// ShadowBuffer is a depth-only target rendered from a light's viewpoint.
type ShadowBuffer struct {
	Framebuffer uint32
	Depth       uint32 // texture, sampled by the lighting pass
	Width       int
	Height      int
}

func createShadowBuffer(dev Device, width, height int) (*ShadowBuffer, error) {
	sb := &ShadowBuffer{Width: width, Height: height}
	sb.Depth = dev.CreateTexture(Depth24, width, height)
	fb, err := dev.CreateFramebuffer(Attachments{DepthTexture: sb.Depth})
	if err != nil {
		sb.free(dev)
		return nil, fmt.Errorf("shadow buffer %vx%v: %w", width, height, err)
	}
	sb.Framebuffer = fb
	return sb, nil
}

func (sb *ShadowBuffer) free(dev Device) {
	if sb == nil {
		return
	}
	dev.BindFramebuffer(0)
	if sb.Depth != 0 {
		dev.DeleteTexture(sb.Depth)
	}
	if sb.Framebuffer != 0 {
		dev.DeleteFramebuffer(sb.Framebuffer)
	}
	*sb = ShadowBuffer{}
}

// DefaultFramebuffer is the window surface.
type DefaultFramebuffer struct {
	Width      int
	Height     int
	DrawBuffer DrawBuffer
}

// Framebuffer returns the window surface handle, always 0.
func (DefaultFramebuffer) Framebuffer() uint32 { return 0 }

// BindGBuffer makes the G-buffer the draw target with all four color
// attachments enabled and the viewport covering it. Without a G-buffer
// (before Initialize or after Finalize) it does nothing.
func (r *Renderer) BindGBuffer() {
	if r.gBuffer == nil {
		return
	}
	r.dev.BindFramebuffer(r.gBuffer.Framebuffer)
	r.dev.DrawBuffers(r.gBuffer.DrawBuffers[:])
	r.dev.Viewport(0, 0, r.gBuffer.Width, r.gBuffer.Height)
}

// BindShadowBuffer makes the shadow buffer the draw target. It has no
// color output. Like BindGBuffer it does nothing without targets.
func (r *Renderer) BindShadowBuffer() {
	if r.shadowBuffer == nil {
		return
	}
	r.dev.BindFramebuffer(r.shadowBuffer.Framebuffer)
	r.dev.DrawBuffers([]DrawBuffer{NoDrawBuffer})
	r.dev.Viewport(0, 0, r.shadowBuffer.Width, r.shadowBuffer.Height)
}

// BindDefaultFramebuffer makes the window surface the draw target.
// Overlays drawn after RenderScene should bind it without clearing.
func (r *Renderer) BindDefaultFramebuffer() {
	r.dev.BindFramebuffer(r.defaultFramebuffer.Framebuffer())
	r.dev.DrawBuffers([]DrawBuffer{r.defaultFramebuffer.DrawBuffer})
	r.dev.Viewport(0, 0, r.defaultFramebuffer.Width, r.defaultFramebuffer.Height)
}

// BlitDepthBuffers copies the G-buffer depth into the default
// framebuffer so that later forward drawing is depth tested against
// the scene.
func (r *Renderer) BlitDepthBuffers() {
	if r.gBuffer == nil {
		return
	}
	r.dev.BlitDepth(r.gBuffer.Framebuffer, r.defaultFramebuffer.Framebuffer(), r.gBuffer.Width, r.gBuffer.Height)
}

// GBufferSize returns the current G-buffer dimensions.
func (r *Renderer) GBufferSize() (width, height int) {
	if r.gBuffer == nil {
		return 0, 0
	}
	return r.gBuffer.Width, r.gBuffer.Height
}

// ShadowBufferSize returns the current shadow buffer dimensions.
func (r *Renderer) ShadowBufferSize() (width, height int) {
	if r.shadowBuffer == nil {
		return 0, 0
	}
	return r.shadowBuffer.Width, r.shadowBuffer.Height
}

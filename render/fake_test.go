package render

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// fakeDevice records the calls a Renderer makes and tracks every live
// handle so tests can check for leaks.
type fakeDevice struct {
	next uint32
	live map[uint32]string // handle -> kind
	size map[uint32][2]int // texture/renderbuffer -> width, height

	failProgram     int // CreateProgram call number (1-based) that fails
	programCalls    int
	failFramebuffer bool
	pendingErr      error

	framebuffer uint32
	drawBuffers []DrawBuffer
	viewport    [4]int
	enabled     map[Capability]bool
	cullFace    Face
	textures    map[int]uint32
	clearColor  mgl32.Vec4

	locations map[int32]string
	uniforms  map[string]any

	clears []clearCall
	draws  []drawCall
	pixels []uint8
}

type clearCall struct {
	framebuffer uint32
	mask        ClearMask
	color       mgl32.Vec4
}

type drawCall struct {
	framebuffer uint32
	vao         uint32
	count       int
	blend       bool
	depthTest   bool
	ambient     mgl32.Vec3
	useShadow   any
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		live:      map[uint32]string{},
		size:      map[uint32][2]int{},
		enabled:   map[Capability]bool{},
		textures:  map[int]uint32{},
		locations: map[int32]string{},
		uniforms:  map[string]any{},
	}
}

func (d *fakeDevice) alloc(kind string) uint32 {
	d.next++
	d.live[d.next] = kind
	return d.next
}

func (d *fakeDevice) release(h uint32, kind string) {
	if d.live[h] != kind {
		panic(fmt.Sprintf("delete of %v %v which is %q", kind, h, d.live[h]))
	}
	delete(d.live, h)
	delete(d.size, h)
}

func (d *fakeDevice) liveCount(kind string) int {
	var n int
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (d *fakeDevice) CreateProgram(vs, fs string) (uint32, error) {
	d.programCalls++
	if d.programCalls == d.failProgram {
		return 0, errors.New("failed to link program: fake")
	}
	return d.alloc("program"), nil
}

func (d *fakeDevice) DeleteProgram(p uint32) { d.release(p, "program") }
func (d *fakeDevice) UseProgram(p uint32)    {}

func (d *fakeDevice) UniformLocation(p uint32, name string) int32 {
	loc := int32(len(d.locations) + 1)
	d.locations[loc] = name
	return loc
}

func (d *fakeDevice) UniformMat4(loc int32, m mgl32.Mat4) { d.uniforms[d.locations[loc]] = m }
func (d *fakeDevice) UniformVec3(loc int32, v mgl32.Vec3) { d.uniforms[d.locations[loc]] = v }
func (d *fakeDevice) Uniform1f(loc int32, v float32)      { d.uniforms[d.locations[loc]] = v }
func (d *fakeDevice) Uniform1i(loc int32, v int32)        { d.uniforms[d.locations[loc]] = v }

func (d *fakeDevice) CreateTexture(format TextureFormat, w, h int) uint32 {
	t := d.alloc("texture")
	d.size[t] = [2]int{w, h}
	return t
}

func (d *fakeDevice) DeleteTexture(t uint32)         { d.release(t, "texture") }
func (d *fakeDevice) BindTexture(unit int, t uint32) { d.textures[unit] = t }

func (d *fakeDevice) CreateRenderbuffer(format TextureFormat, w, h int) uint32 {
	rb := d.alloc("renderbuffer")
	d.size[rb] = [2]int{w, h}
	return rb
}

func (d *fakeDevice) DeleteRenderbuffer(rb uint32) { d.release(rb, "renderbuffer") }

func (d *fakeDevice) CreateFramebuffer(att Attachments) (uint32, error) {
	if d.failFramebuffer {
		return 0, errors.New("framebuffer incomplete")
	}
	return d.alloc("framebuffer"), nil
}

func (d *fakeDevice) DeleteFramebuffer(fb uint32)       { d.release(fb, "framebuffer") }
func (d *fakeDevice) BindFramebuffer(fb uint32)         { d.framebuffer = fb }
func (d *fakeDevice) DrawBuffers(bufs []DrawBuffer)     { d.drawBuffers = append([]DrawBuffer(nil), bufs...) }
func (d *fakeDevice) Viewport(x, y, w, h int)           { d.viewport = [4]int{x, y, w, h} }
func (d *fakeDevice) BlitDepth(src, dst uint32, w, h int) {}

func (d *fakeDevice) CreateVertexArray(data []float32, layout []VertexAttrib) (uint32, uint32) {
	return d.alloc("vao"), d.alloc("vbo")
}

func (d *fakeDevice) DeleteVertexArray(vao, vbo uint32) {
	d.release(vao, "vao")
	d.release(vbo, "vbo")
}

func (d *fakeDevice) DrawArrays(vao uint32, first, count int) {
	amb, _ := d.uniforms["uAmbient"].(mgl32.Vec3)
	d.draws = append(d.draws, drawCall{
		framebuffer: d.framebuffer,
		vao:         vao,
		count:       count,
		blend:       d.enabled[Blend],
		depthTest:   d.enabled[DepthTest],
		ambient:     amb,
		useShadow:   d.uniforms["uUseShadow"],
	})
}

func (d *fakeDevice) ClearColor(r, g, b, a float32) { d.clearColor = mgl32.Vec4{r, g, b, a} }

func (d *fakeDevice) Clear(mask ClearMask) {
	d.clears = append(d.clears, clearCall{framebuffer: d.framebuffer, mask: mask, color: d.clearColor})
}

func (d *fakeDevice) Enable(c Capability)  { d.enabled[c] = true }
func (d *fakeDevice) Disable(c Capability) { d.enabled[c] = false }
func (d *fakeDevice) BlendAdditive()       {}
func (d *fakeDevice) CullFace(f Face)      { d.cullFace = f }

func (d *fakeDevice) ReadPixels(x, y, w, h int) []uint8 {
	if d.pixels != nil {
		return d.pixels
	}
	return make([]uint8, w*h*4)
}

func (d *fakeDevice) Err() error {
	err := d.pendingErr
	d.pendingErr = nil
	return err
}

// Package opengl implements render.Device on OpenGL 4.1 core.
package opengl

import (
	"fmt"
	"log"
	"strings"

	"github.com/gmlewis/deferred/render"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Init loads the OpenGL function pointers for the current context.
// A context must be current on the calling thread.
func Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl.Init: %v", err)
	}
	version := gl.GoStr(gl.GetString(gl.VERSION))
	log.Println("OpenGL version", version)
	return nil
}

// Device drives the current OpenGL context.
type Device struct {
	// Debug logs GL errors after every draw call.
	Debug bool
}

var _ render.Device = (*Device)(nil)

// New returns a Device. Init must have been called.
func New() *Device { return &Device{} }

func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	return newProgram(vertexSrc, fragmentSrc)
}

func (d *Device) DeleteProgram(program uint32) { gl.DeleteProgram(program) }
func (d *Device) UseProgram(program uint32)    { gl.UseProgram(program) }

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(cstr(name)))
}

func (d *Device) UniformMat4(location int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (d *Device) UniformVec3(location int32, v mgl32.Vec3) {
	gl.Uniform3fv(location, 1, &v[0])
}

func (d *Device) Uniform1f(location int32, v float32) { gl.Uniform1f(location, v) }
func (d *Device) Uniform1i(location int32, v int32)   { gl.Uniform1i(location, v) }

func (d *Device) CreateTexture(format render.TextureFormat, width, height int) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	f := textureFormat(format)
	gl.TexImage2D(gl.TEXTURE_2D, 0, f.internal, int32(width), int32(height), 0, f.format, f.xtype, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	if format == render.Depth24 {
		// Lookups outside the shadow map read as fully lit.
		border := [4]float32{1, 1, 1, 1}
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
		gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.NONE)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func (d *Device) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }

func (d *Device) BindTexture(unit int, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func (d *Device) CreateRenderbuffer(format render.TextureFormat, width, height int) uint32 {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
	gl.RenderbufferStorage(gl.RENDERBUFFER, uint32(textureFormat(format).internal), int32(width), int32(height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	return rb
}

func (d *Device) DeleteRenderbuffer(renderbuffer uint32) {
	gl.DeleteRenderbuffers(1, &renderbuffer)
}

func (d *Device) CreateFramebuffer(att render.Attachments) (uint32, error) {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	for i, tex := range att.Color {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(i), gl.TEXTURE_2D, tex, 0)
	}
	switch {
	case att.DepthTexture != 0:
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, att.DepthTexture, 0)
	case att.DepthRenderbuffer != 0:
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, att.DepthRenderbuffer)
	}
	if len(att.Color) == 0 {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	} else {
		d.DrawBuffers(colorBuffers(len(att.Color)))
	}

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fb)
		return 0, fmt.Errorf("framebuffer incomplete: status 0x%x", status)
	}
	return fb, nil
}

func colorBuffers(n int) []render.DrawBuffer {
	bufs := make([]render.DrawBuffer, n)
	for i := range bufs {
		bufs[i] = render.ColorAttachment0 + render.DrawBuffer(i)
	}
	return bufs
}

func (d *Device) DeleteFramebuffer(framebuffer uint32) {
	gl.DeleteFramebuffers(1, &framebuffer)
}

func (d *Device) BindFramebuffer(framebuffer uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, framebuffer)
}

func (d *Device) DrawBuffers(buffers []render.DrawBuffer) {
	if len(buffers) == 1 {
		gl.DrawBuffer(drawBuffer(buffers[0]))
		return
	}
	bufs := make([]uint32, len(buffers))
	for i, b := range buffers {
		bufs[i] = drawBuffer(b)
	}
	gl.DrawBuffers(int32(len(bufs)), &bufs[0])
}

func (d *Device) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *Device) BlitDepth(src, dst uint32, width, height int) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, src)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dst)
	w, h := int32(width), int32(height)
	gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.DEPTH_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, dst)
}

func (d *Device) CreateVertexArray(data []float32, layout []render.VertexAttrib) (vao, vbo uint32) {
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	for _, a := range layout {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointer(a.Location, int32(a.Size), gl.FLOAT, false, int32(a.Stride*4), gl.PtrOffset(a.Offset*4))
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return vao, vbo
}

func (d *Device) DeleteVertexArray(vao, vbo uint32) {
	gl.DeleteVertexArrays(1, &vao)
	gl.DeleteBuffers(1, &vbo)
}

func (d *Device) DrawArrays(vao uint32, first, count int) {
	gl.BindVertexArray(vao)
	gl.DrawArrays(gl.TRIANGLES, int32(first), int32(count))
	gl.BindVertexArray(0)
	if d.Debug {
		if e := gl.GetError(); e != gl.NO_ERROR {
			log.Printf("DrawArrays(vao=%v, count=%v): GL ERROR: %v", vao, count, e)
		}
	}
}

func (d *Device) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (d *Device) Clear(mask render.ClearMask) {
	var bits uint32
	if mask&render.ClearColorBit != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&render.ClearDepthBit != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (d *Device) Enable(c render.Capability)  { gl.Enable(capability(c)) }
func (d *Device) Disable(c render.Capability) { gl.Disable(capability(c)) }

func (d *Device) BlendAdditive() {
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.ONE, gl.ONE)
}

func (d *Device) CullFace(face render.Face) {
	if face == render.FaceFront {
		gl.CullFace(gl.FRONT)
		return
	}
	gl.CullFace(gl.BACK)
}

func (d *Device) ReadPixels(x, y, width, height int) []uint8 {
	pix := make([]uint8, width*height*4)
	if len(pix) == 0 {
		return pix
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pix[0]))
	return pix
}

func (d *Device) Err() error {
	if e := gl.GetError(); e != gl.NO_ERROR {
		return fmt.Errorf("GL ERROR: 0x%x", e)
	}
	return nil
}

type texFormat struct {
	internal      int32
	format, xtype uint32
}

func textureFormat(f render.TextureFormat) texFormat {
	switch f {
	case render.Depth24:
		return texFormat{internal: gl.DEPTH_COMPONENT24, format: gl.DEPTH_COMPONENT, xtype: gl.FLOAT}
	default:
		return texFormat{internal: gl.RGBA32F, format: gl.RGBA, xtype: gl.FLOAT}
	}
}

func drawBuffer(b render.DrawBuffer) uint32 {
	switch b {
	case render.BackLeft:
		return gl.BACK_LEFT
	case render.NoDrawBuffer:
		return gl.NONE
	default:
		return gl.COLOR_ATTACHMENT0 + uint32(b-render.ColorAttachment0)
	}
}

func capability(c render.Capability) uint32 {
	switch c {
	case render.Blend:
		return gl.BLEND
	case render.CullFaceTest:
		return gl.CULL_FACE
	default:
		return gl.DEPTH_TEST
	}
}

// cstr returns s terminated by a NUL as gl.Str and gl.Strs require.
func cstr(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

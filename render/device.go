package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Device is the subset of the graphics API the renderer drives.
// Every call is synchronous and must be made on the thread that owns
// the GPU context. Handles are backend object names; 0 means "none".
type Device interface {
	// CreateProgram compiles and links a vertex/fragment program.
	CreateProgram(vertexSrc, fragmentSrc string) (uint32, error)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	UniformLocation(program uint32, name string) int32
	UniformMat4(location int32, m mgl32.Mat4)
	UniformVec3(location int32, v mgl32.Vec3)
	Uniform1f(location int32, v float32)
	Uniform1i(location int32, v int32)

	// CreateTexture allocates an uninitialized 2D texture.
	CreateTexture(format TextureFormat, width, height int) uint32
	DeleteTexture(texture uint32)
	// BindTexture binds texture to the given texture unit.
	BindTexture(unit int, texture uint32)

	// CreateRenderbuffer allocates a renderbuffer.
	CreateRenderbuffer(format TextureFormat, width, height int) uint32
	DeleteRenderbuffer(renderbuffer uint32)

	// CreateFramebuffer builds a framebuffer from the given attachments
	// and reports an error if it is incomplete.
	CreateFramebuffer(att Attachments) (uint32, error)
	DeleteFramebuffer(framebuffer uint32)
	BindFramebuffer(framebuffer uint32)
	DrawBuffers(buffers []DrawBuffer)
	Viewport(x, y, width, height int)
	// BlitDepth copies the depth buffer of src into dst.
	BlitDepth(src, dst uint32, width, height int)

	// CreateVertexArray uploads interleaved float32 vertex data described
	// by layout and returns the vertex array and its backing buffer.
	CreateVertexArray(data []float32, layout []VertexAttrib) (vao, vbo uint32)
	DeleteVertexArray(vao, vbo uint32)
	// DrawArrays draws count vertices of vao as a triangle list.
	DrawArrays(vao uint32, first, count int)

	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	Enable(c Capability)
	Disable(c Capability)
	BlendAdditive()
	CullFace(face Face)

	// ReadPixels reads RGBA8 pixels from the bound framebuffer,
	// bottom row first.
	ReadPixels(x, y, width, height int) []uint8

	// Err returns and clears the first pending device error, if any.
	Err() error
}

// TextureFormat is the storage format of a texture or renderbuffer.
type TextureFormat byte

const (
	RGBA32F TextureFormat = iota
	Depth24
)

// DrawBuffer names a framebuffer output.
type DrawBuffer byte

const (
	ColorAttachment0 DrawBuffer = iota
	ColorAttachment1
	ColorAttachment2
	ColorAttachment3
	BackLeft
	NoDrawBuffer
)

// Attachments describes the images attached to a framebuffer.
// At most one of DepthTexture and DepthRenderbuffer is set.
type Attachments struct {
	Color             []uint32 // textures bound to ColorAttachment0..n
	DepthTexture      uint32
	DepthRenderbuffer uint32
}

// VertexAttrib describes one float attribute of interleaved vertex data.
type VertexAttrib struct {
	Location uint32
	Size     int // number of float32 components
	Offset   int // in float32s
	Stride   int // in float32s
}

// ClearMask selects the buffers cleared by Clear.
type ClearMask byte

const (
	ClearColorBit ClearMask = 1 << iota
	ClearDepthBit
)

// Capability is a toggleable pipeline state.
type Capability byte

const (
	DepthTest Capability = iota
	Blend
	CullFaceTest
)

// Face selects a polygon face for culling.
type Face byte

const (
	FaceBack Face = iota
	FaceFront
)

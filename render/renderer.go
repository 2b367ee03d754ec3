// Package render implements a deferred renderer for scene graphs.
//
// Each frame runs a geometry pass into a four-target G-buffer, then for
// every light an optional shadow pass into a depth-only shadow buffer
// followed by a full-screen lighting quad accumulated into the default
// framebuffer.
package render

import (
	"errors"
	"fmt"

	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNotInitialized is returned when rendering before Initialize or
// after Finalize.
var ErrNotInitialized = errors.New("render: renderer not initialized")

// State is the renderer lifecycle state.
type State byte

const (
	Uninitialized State = iota
	Initialized
	Rendering
	Resizing
	Finalized
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Rendering:
		return "rendering"
	case Resizing:
		return "resizing"
	case Finalized:
		return "finalized"
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

// Options configures a Renderer.
type Options struct {
	// ClearColor is the color of pixels no geometry covers.
	ClearColor mgl32.Vec4
	// ShadowSize is the square shadow map size. Zero makes the shadow
	// buffer follow the window size.
	ShadowSize int
	// Programs overrides the built-in shaders when not nil.
	Programs *ProgramSources
}

// Renderer owns every render target and pass and sequences them per frame.
// It is not safe for concurrent use; all calls must come from the thread
// that owns the device.
type Renderer struct {
	dev   Device
	opts  Options
	state State

	gBuffer            *GBuffer
	shadowBuffer       *ShadowBuffer
	defaultFramebuffer DefaultFramebuffer

	geometry GeometryPass
	shadow   ShadowPass
	lighting LightingPass

	quadVAO, quadVBO uint32
	meshes           map[*scene.Mesh]meshBuffer

	frame Frame
}

// New returns an uninitialized renderer for a window of the given size.
func New(dev Device, width, height int, opts Options) *Renderer {
	return &Renderer{
		dev:  dev,
		opts: opts,
		defaultFramebuffer: DefaultFramebuffer{
			Width:      width,
			Height:     height,
			DrawBuffer: BackLeft,
		},
		meshes: map[*scene.Mesh]meshBuffer{},
	}
}

// State returns the lifecycle state.
func (r *Renderer) State() State { return r.state }

// Initialize links the pass programs and allocates the render targets
// and the full-screen quad at the current window size. On failure every
// resource created so far is released and the renderer stays
// Uninitialized.
func (r *Renderer) Initialize() (err error) {
	if r.state != Uninitialized {
		return fmt.Errorf("Initialize: renderer is %v", r.state)
	}
	defer func() {
		if err != nil {
			r.release()
		}
	}()

	srcs := DefaultProgramSources()
	if r.opts.Programs != nil {
		srcs = *r.opts.Programs
	}
	if err := r.linkPrograms(srcs); err != nil {
		return fmt.Errorf("Initialize: %w", err)
	}

	if err := r.createTargets(r.defaultFramebuffer.Width, r.defaultFramebuffer.Height); err != nil {
		return fmt.Errorf("Initialize: %w", err)
	}

	r.quadVAO, r.quadVBO = r.dev.CreateVertexArray(quadVertices, quadLayout)
	r.dev.Enable(DepthTest)

	r.state = Initialized
	return nil
}

func (r *Renderer) linkPrograms(srcs ProgramSources) error {
	geometry, err := newProgram(r.dev, srcs.Geometry)
	if err != nil {
		return fmt.Errorf("geometry program: %w", err)
	}
	shadow, err := newProgram(r.dev, srcs.Shadow)
	if err != nil {
		geometry.delete()
		return fmt.Errorf("shadow program: %w", err)
	}
	lighting, err := newProgram(r.dev, srcs.Lighting)
	if err != nil {
		geometry.delete()
		shadow.delete()
		return fmt.Errorf("lighting program: %w", err)
	}

	r.geometry.prog.delete()
	r.shadow.prog.delete()
	r.lighting.prog.delete()
	r.geometry.prog, r.shadow.prog, r.lighting.prog = geometry, shadow, lighting
	return nil
}

// ReloadPrograms replaces the pass programs. The current programs are
// kept if any of the new ones fails to link.
func (r *Renderer) ReloadPrograms(srcs ProgramSources) error {
	if r.state != Initialized && r.state != Rendering {
		return ErrNotInitialized
	}
	return r.linkPrograms(srcs)
}

func (r *Renderer) shadowSize(width, height int) (int, int) {
	if r.opts.ShadowSize > 0 {
		return r.opts.ShadowSize, r.opts.ShadowSize
	}
	return width, height
}

func (r *Renderer) createTargets(width, height int) error {
	g, err := createGBuffer(r.dev, width, height)
	if err != nil {
		return err
	}
	r.gBuffer = g
	if r.shadowBuffer == nil {
		sw, sh := r.shadowSize(width, height)
		sb, err := createShadowBuffer(r.dev, sw, sh)
		if err != nil {
			return err
		}
		r.shadowBuffer = sb
	}
	return nil
}

// Resize frees and reallocates the G-buffer (and a window-sized shadow
// buffer) at the new size. It must only be called between frames.
func (r *Renderer) Resize(width, height int) {
	r.defaultFramebuffer.Width = width
	r.defaultFramebuffer.Height = height
	if r.state != Initialized && r.state != Rendering {
		return
	}
	prev := r.state
	r.state = Resizing

	r.gBuffer.free(r.dev)
	r.gBuffer = nil
	if r.opts.ShadowSize <= 0 {
		r.shadowBuffer.free(r.dev)
		r.shadowBuffer = nil
	}
	if err := r.createTargets(width, height); err != nil {
		// Without targets no frame can be drawn.
		r.release()
		r.state = Uninitialized
		return
	}
	r.state = prev
}

// RenderScene renders one frame of s into the default framebuffer.
// Device errors are dropped; use RenderFrame to observe them.
func (r *Renderer) RenderScene(s *scene.Scene) {
	_ = r.RenderFrame(s, &r.frame)
}

// RenderFrame renders one frame of s, recording lights and statistics
// into f.
func (r *Renderer) RenderFrame(s *scene.Scene, f *Frame) error {
	if r.state != Initialized && r.state != Rendering {
		return ErrNotInitialized
	}
	r.state = Rendering
	f.reset()

	if err := r.geometry.Render(r, s, f); err != nil {
		return err
	}

	r.BindDefaultFramebuffer()
	c := r.opts.ClearColor
	r.dev.ClearColor(c[0], c[1], c[2], c[3])
	r.dev.Clear(ClearColorBit | ClearDepthBit)

	if err := r.lighting.Render(r, s, f); err != nil {
		return err
	}
	return r.dev.Err()
}

// LastFrame returns the context of the most recent RenderScene call.
func (r *Renderer) LastFrame() *Frame { return &r.frame }

// Finalize releases every device resource. The renderer cannot be used
// afterwards.
func (r *Renderer) Finalize() {
	r.release()
	r.state = Finalized
}

func (r *Renderer) release() {
	for m := range r.meshes {
		r.ReleaseMesh(m)
	}
	if r.quadVAO != 0 {
		r.dev.DeleteVertexArray(r.quadVAO, r.quadVBO)
		r.quadVAO, r.quadVBO = 0, 0
	}
	r.gBuffer.free(r.dev)
	r.gBuffer = nil
	r.shadowBuffer.free(r.dev)
	r.shadowBuffer = nil
	r.geometry.prog.delete()
	r.shadow.prog.delete()
	r.lighting.prog.delete()
	r.geometry.prog, r.shadow.prog, r.lighting.prog = nil, nil, nil
}

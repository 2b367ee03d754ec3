package render

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInitialized(t *testing.T, opts Options) (*Renderer, *fakeDevice) {
	t.Helper()
	dev := newFakeDevice()
	r := New(dev, 800, 600, opts)
	require.NoError(t, r.Initialize())
	return r, dev
}

func TestInitialize(t *testing.T) {
	r, dev := newInitialized(t, Options{})
	assert.Equal(t, Initialized, r.State())
	assert.Equal(t, 3, dev.liveCount("program"))
	assert.Equal(t, 5, dev.liveCount("texture")) // 4 g-buffer colors + shadow depth
	assert.Equal(t, 1, dev.liveCount("renderbuffer"))
	assert.Equal(t, 2, dev.liveCount("framebuffer"))
	assert.Equal(t, 1, dev.liveCount("vao"))
	assert.True(t, dev.enabled[DepthTest])

	w, h := r.GBufferSize()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)

	assert.Error(t, r.Initialize())
}

func TestInitializeLinkFailure(t *testing.T) {
	for n := 1; n <= 3; n++ {
		dev := newFakeDevice()
		dev.failProgram = n
		r := New(dev, 800, 600, Options{})
		err := r.Initialize()
		assert.ErrorContains(t, err, "failed to link program")
		assert.Equal(t, Uninitialized, r.State())
		assert.Empty(t, dev.live, "program %v", n)
	}
}

func TestInitializeFramebufferFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.failFramebuffer = true
	r := New(dev, 800, 600, Options{})
	assert.Error(t, r.Initialize())
	assert.Equal(t, Uninitialized, r.State())
	assert.Empty(t, dev.live)

	assert.ErrorIs(t, r.RenderFrame(scene.New(800, 600, nil), NewFrame(0)), ErrNotInitialized)
	assert.Empty(t, dev.draws)
}

func TestBindTargets(t *testing.T) {
	r, dev := newInitialized(t, Options{ShadowSize: 1024})

	r.BindGBuffer()
	assert.Equal(t, r.gBuffer.Framebuffer, dev.framebuffer)
	assert.Equal(t, []DrawBuffer{ColorAttachment0, ColorAttachment1, ColorAttachment2, ColorAttachment3}, dev.drawBuffers)
	assert.Equal(t, [4]int{0, 0, 800, 600}, dev.viewport)

	r.BindShadowBuffer()
	assert.Equal(t, r.shadowBuffer.Framebuffer, dev.framebuffer)
	assert.Equal(t, []DrawBuffer{NoDrawBuffer}, dev.drawBuffers)
	assert.Equal(t, [4]int{0, 0, 1024, 1024}, dev.viewport)

	r.BindDefaultFramebuffer()
	assert.Equal(t, uint32(0), dev.framebuffer)
	assert.Equal(t, []DrawBuffer{BackLeft}, dev.drawBuffers)
	assert.Equal(t, [4]int{0, 0, 800, 600}, dev.viewport)
}

func TestResize(t *testing.T) {
	r, dev := newInitialized(t, Options{})
	before := len(dev.live)

	for _, size := range [][2]int{{1024, 768}, {640, 480}, {1920, 1080}} {
		oldG := *r.gBuffer
		r.Resize(size[0], size[1])
		assert.Equal(t, Initialized, r.State())

		w, h := r.GBufferSize()
		assert.Equal(t, size[0], w)
		assert.Equal(t, size[1], h)
		r.BindGBuffer()
		assert.Equal(t, [4]int{0, 0, size[0], size[1]}, dev.viewport)
		for _, tex := range r.gBuffer.Color {
			assert.Equal(t, size, dev.size[tex])
		}
		sw, sh := r.ShadowBufferSize()
		assert.Equal(t, size, [2]int{sw, sh})

		assert.NotContains(t, dev.live, oldG.Framebuffer)
		assert.NotContains(t, dev.live, oldG.Depth)
		for _, tex := range oldG.Color {
			assert.NotContains(t, dev.live, tex)
		}
		assert.Len(t, dev.live, before)
	}

	r.BindDefaultFramebuffer()
	assert.Equal(t, [4]int{0, 0, 1920, 1080}, dev.viewport)
}

func TestResizeFixedShadowSize(t *testing.T) {
	r, _ := newInitialized(t, Options{ShadowSize: 2048})
	sb := r.shadowBuffer.Framebuffer
	r.Resize(300, 200)
	assert.Equal(t, sb, r.shadowBuffer.Framebuffer)
	w, h := r.ShadowBufferSize()
	assert.Equal(t, 2048, w)
	assert.Equal(t, 2048, h)
}

func TestResizeBeforeInitialize(t *testing.T) {
	dev := newFakeDevice()
	r := New(dev, 800, 600, Options{})
	r.Resize(320, 240)
	assert.Empty(t, dev.live)
	require.NoError(t, r.Initialize())
	w, h := r.GBufferSize()
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
}

func TestRenderEmptyScene(t *testing.T) {
	r, dev := newInitialized(t, Options{})
	s := scene.New(800, 600, nil)
	f := NewFrame(4)

	require.NoError(t, r.RenderFrame(s, f))
	assert.Equal(t, Rendering, r.State())
	assert.Empty(t, dev.draws)
	assert.Zero(t, f.Stats.DrawCalls())
	assert.Empty(t, f.Lights)

	// G-buffer then default framebuffer are cleared.
	require.Len(t, dev.clears, 2)
	assert.Equal(t, r.gBuffer.Framebuffer, dev.clears[0].framebuffer)
	assert.Equal(t, uint32(0), dev.clears[1].framebuffer)
	assert.Equal(t, ClearColorBit|ClearDepthBit, dev.clears[1].mask)
}

func TestRenderOneObjectOneLight(t *testing.T) {
	r, dev := newInitialized(t, Options{})
	s := scene.New(800, 600, nil)
	s.SetAmbientIntensity(mgl32.Vec3{0.05, 0.05, 0.05})
	cube := s.AddMesh("cube", scene.Cube())
	obj := s.NewObject("cube", cube, s.CreateMaterial("m", mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 1, 1}, 50))
	s.AddNode(obj)
	light := s.NewLight("light", mgl32.Vec3{0.1, 0.1, 0.1}, mgl32.Vec3{1, 1, 1})
	s.Node(light).Translation = mgl32.Vec3{4, 8, 4}
	s.AddNode(light)

	f := NewFrame(4)
	require.NoError(t, r.RenderFrame(s, f))

	assert.Equal(t, 1, f.Stats.GeometryDraws)
	assert.Equal(t, 1, f.Stats.LightDraws)
	assert.Zero(t, f.Stats.ShadowPasses)
	require.Len(t, f.Lights, 1)
	assert.Equal(t, light, f.Lights[0].ID)
	assert.True(t, f.Lights[0].Position.ApproxEqual(mgl32.Vec3{4, 8, 4}))

	require.Len(t, dev.draws, 2)
	geo, quad := dev.draws[0], dev.draws[1]
	assert.Equal(t, r.gBuffer.Framebuffer, geo.framebuffer)
	assert.Equal(t, 36, geo.count)
	assert.True(t, geo.depthTest)

	assert.Equal(t, uint32(0), quad.framebuffer)
	assert.Equal(t, r.quadVAO, quad.vao)
	assert.Equal(t, 6, quad.count)
	assert.False(t, quad.blend)
	assert.False(t, quad.depthTest)
	assert.True(t, quad.ambient.ApproxEqual(mgl32.Vec3{0.15, 0.15, 0.15}))
	assert.Equal(t, int32(0), quad.useShadow)

	for unit, tex := range r.gBuffer.Color {
		assert.Equal(t, tex, dev.textures[unit])
	}
	assert.Equal(t, r.shadowBuffer.Depth, dev.textures[unitShadow])

	assert.Equal(t, mgl32.Vec3{1, 0, 0}, dev.uniforms["uMaterial.kd"])
	assert.Equal(t, float32(50), dev.uniforms["uMaterial.alpha"])
	assert.True(t, dev.enabled[DepthTest])
	assert.False(t, dev.enabled[Blend])
}

func TestRenderAccumulatesLights(t *testing.T) {
	r, dev := newInitialized(t, Options{})
	s := scene.New(800, 600, nil)
	s.AddNode(s.NewObject("cube", s.AddMesh("cube", scene.Cube()), nil))
	for i := 0; i < 3; i++ {
		s.AddNode(s.NewLight("l", mgl32.Vec3{0.1, 0.1, 0.1}, mgl32.Vec3{1, 1, 1}))
	}

	f := NewFrame(4)
	require.NoError(t, r.RenderFrame(s, f))
	assert.Equal(t, 3, f.Stats.LightDraws)

	quads := dev.draws[1:]
	require.Len(t, quads, 3)
	assert.False(t, quads[0].blend)
	assert.True(t, quads[0].ambient.ApproxEqual(mgl32.Vec3{0.3, 0.3, 0.3}))
	for _, q := range quads[1:] {
		assert.True(t, q.blend)
		assert.Equal(t, mgl32.Vec3{}, q.ambient)
	}
	assert.False(t, dev.enabled[Blend])
}

func TestRenderSkipsMissingMesh(t *testing.T) {
	r, dev := newInitialized(t, Options{})
	s := scene.New(800, 600, nil)
	broken := s.NewObject("broken", nil, nil)
	s.AddNode(broken)
	s.AddChild(broken, s.NewObject("child", s.AddMesh("cube", scene.Cube()), nil))
	s.AddNode(s.NewObject("plane", s.AddMesh("plane", scene.Plane()), nil))

	f := NewFrame(0)
	require.NoError(t, r.RenderFrame(s, f))
	assert.Equal(t, 2, f.Stats.GeometryDraws)
	require.Len(t, dev.draws, 2)
	assert.Equal(t, 36, dev.draws[0].count)
	assert.Equal(t, 6, dev.draws[1].count)
}

func TestRenderShadowPass(t *testing.T) {
	r, dev := newInitialized(t, Options{ShadowSize: 512})
	s := scene.New(800, 600, nil)
	plane := s.NewObject("plane", s.AddMesh("plane", scene.Plane()), nil)
	s.Node(plane).Scale = mgl32.Vec3{8, 8, 8}
	s.AddNode(plane)
	s.AddChild(plane, s.NewObject("cube", s.AddMesh("cube", scene.Cube()), nil))
	caster := s.NewLight("sun", mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	s.Node(caster).Light.CastsShadow = true
	s.Node(caster).Translation = mgl32.Vec3{4, 8, 4}
	s.AddNode(caster)
	s.AddNode(s.NewLight("fill", mgl32.Vec3{}, mgl32.Vec3{0.5, 0.5, 0.5}))

	f := NewFrame(2)
	require.NoError(t, r.RenderFrame(s, f))
	assert.Equal(t, 1, f.Stats.ShadowPasses)
	assert.Equal(t, 2, f.Stats.ShadowDraws)
	assert.Equal(t, 2, f.Stats.LightDraws)
	assert.Equal(t, 6, f.Stats.DrawCalls())

	// geometry x2, shadow x2, quad, quad
	require.Len(t, dev.draws, 6)
	for _, d := range dev.draws[2:4] {
		assert.Equal(t, r.shadowBuffer.Framebuffer, d.framebuffer)
	}
	assert.Equal(t, uint32(0), dev.draws[4].framebuffer)
	assert.Equal(t, int32(1), dev.draws[4].useShadow)
	assert.False(t, dev.draws[4].blend)
	assert.Equal(t, int32(0), dev.draws[5].useShadow)
	assert.True(t, dev.draws[5].blend)
	assert.False(t, dev.enabled[CullFaceTest])

	// Shadow buffer cleared (depth only) between the two default-framebuffer clears.
	var shadowClears int
	for _, c := range dev.clears {
		if c.framebuffer == r.shadowBuffer.Framebuffer {
			shadowClears++
			assert.Equal(t, ClearDepthBit, c.mask)
		}
	}
	assert.Equal(t, 1, shadowClears)
}

func TestLightMatrices(t *testing.T) {
	view, proj := LightMatrices(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{8, 8, 8})
	origin := proj.Mul4(view).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, origin[0], 1e-4)
	assert.InDelta(t, 0, origin[1], 1e-4)
	assert.True(t, origin[2] > -1 && origin[2] < 1)
}

func TestMeshesUploadedOnce(t *testing.T) {
	r, dev := newInitialized(t, Options{})
	s := scene.New(800, 600, nil)
	cube := s.AddMesh("cube", scene.Cube())
	for i := 0; i < 3; i++ {
		s.AddNode(s.NewObject("cube", cube, nil))
	}
	vaos := dev.liveCount("vao")
	r.RenderScene(s)
	r.RenderScene(s)
	assert.Equal(t, vaos+1, dev.liveCount("vao"))
	assert.Equal(t, 3, r.LastFrame().Stats.GeometryDraws)

	s.FreeMemory(r.ReleaseMesh)
	assert.Equal(t, vaos, dev.liveCount("vao"))
}

func TestRenderFrameReportsDeviceError(t *testing.T) {
	r, dev := newInitialized(t, Options{})
	dev.pendingErr = errors.New("GL ERROR: 1282")
	assert.ErrorContains(t, r.RenderFrame(scene.New(800, 600, nil), NewFrame(0)), "1282")
}

func TestFinalize(t *testing.T) {
	r, dev := newInitialized(t, Options{})
	s := scene.New(800, 600, nil)
	s.AddNode(s.NewObject("cube", s.AddMesh("cube", scene.Cube()), nil))
	r.RenderScene(s)

	r.Finalize()
	assert.Equal(t, Finalized, r.State())
	assert.Empty(t, dev.live)

	draws := len(dev.draws)
	assert.ErrorIs(t, r.RenderFrame(s, NewFrame(0)), ErrNotInitialized)
	r.Resize(10, 10)
	assert.Len(t, dev.draws, draws)
	assert.Empty(t, dev.live)
	assert.Error(t, r.Initialize())
}

func TestReloadPrograms(t *testing.T) {
	r, dev := newInitialized(t, Options{})
	old := r.geometry.prog.handle

	dev.failProgram = dev.programCalls + 2
	assert.Error(t, r.ReloadPrograms(DefaultProgramSources()))
	assert.Equal(t, old, r.geometry.prog.handle)
	assert.Equal(t, 3, dev.liveCount("program"))

	require.NoError(t, r.ReloadPrograms(DefaultProgramSources()))
	assert.NotEqual(t, old, r.geometry.prog.handle)
	assert.NotContains(t, dev.live, old)
	assert.Equal(t, 3, dev.liveCount("program"))
}

func TestLoadProgramSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lighting.frag"), []byte("custom"), 0o644))

	ps, err := LoadProgramSources(dir)
	require.NoError(t, err)
	def := DefaultProgramSources()
	assert.Equal(t, "custom", ps.Lighting.Fragment)
	assert.Equal(t, def.Lighting.Vertex, ps.Lighting.Vertex)
	assert.Equal(t, def.Geometry, ps.Geometry)
}

func TestScreenshotFlipsRows(t *testing.T) {
	dev := newFakeDevice()
	r := New(dev, 1, 2, Options{})
	require.NoError(t, r.Initialize())
	dev.pixels = []uint8{
		1, 2, 3, 4, // bottom row
		5, 6, 7, 8, // top row
	}
	img, err := r.Screenshot()
	require.NoError(t, err)
	assert.Equal(t, []uint8{5, 6, 7, 8, 1, 2, 3, 4}, img.Pix)

	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, r.SaveScreenshot(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Error(t, r.SaveScreenshot(filepath.Join(t.TempDir(), "shot.gif")))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "rendering", Rendering.String())
	assert.Equal(t, "finalized", Finalized.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestGBufferClearedTransparent(t *testing.T) {
	r, dev := newInitialized(t, Options{ClearColor: mgl32.Vec4{1, 0.5, 0, 1}})
	s := scene.New(800, 600, nil)
	s.AddNode(s.NewObject("cube", s.AddMesh("cube", scene.Cube()), nil))
	s.AddNode(s.NewLight("light", mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}))

	for i := 0; i < 2; i++ {
		dev.clears = nil
		require.NoError(t, r.RenderFrame(s, NewFrame(1)))
		require.Len(t, dev.clears, 2)
		assert.Equal(t, r.gBuffer.Framebuffer, dev.clears[0].framebuffer)
		assert.Equal(t, mgl32.Vec4{}, dev.clears[0].color)
		assert.Equal(t, uint32(0), dev.clears[1].framebuffer)
		assert.Equal(t, mgl32.Vec4{1, 0.5, 0, 1}, dev.clears[1].color)
	}
}

func TestBindWithoutTargets(t *testing.T) {
	dev := newFakeDevice()
	r := New(dev, 800, 600, Options{})
	assert.NotPanics(t, func() {
		r.BindGBuffer()
		r.BindShadowBuffer()
		r.BlitDepthBuffers()
	})
	assert.Equal(t, [4]int{}, dev.viewport)

	require.NoError(t, r.Initialize())
	r.Finalize()
	assert.NotPanics(t, func() {
		r.BindGBuffer()
		r.BindShadowBuffer()
		r.BlitDepthBuffers()
	})

	r.BindDefaultFramebuffer()
	assert.Equal(t, [4]int{0, 0, 800, 600}, dev.viewport)
}

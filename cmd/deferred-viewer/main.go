// deferred-viewer renders a scene description with the deferred renderer
// in an interactive window.
//
// Usage:
//
//	deferred-viewer [-scene scene.toml] [-shaders dir] [-screenshot out.png]
//
// Left drag orbits, right drag pans and the scroll wheel zooms.
// With -shaders, edits to the shader files are picked up while running.
// With -screenshot, the first frame is saved and the viewer exits.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/chewxy/math32"
	"github.com/gmlewis/deferred/asset"
	"github.com/gmlewis/deferred/opengl"
	"github.com/gmlewis/deferred/render"
	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var (
	sceneFile  = flag.String("scene", "", "TOML scene description (default: built-in demo scene)")
	shaderDir  = flag.String("shaders", "", "directory of geometry/shadow/lighting .vert/.frag overrides, watched for changes")
	width      = flag.Int("width", 1280, "window width")
	height     = flag.Int("height", 720, "window height")
	shadowSize = flag.Int("shadow", 0, "shadow map size (0 follows the window)")
	screenshot = flag.String("screenshot", "", "save a screenshot (.png, .bmp, .tif) and exit")
	turntable  = flag.Int("turntable", 0, "with -screenshot, save this many frames orbiting the scene")
	hidden     = flag.Bool("hidden", false, "do not show the window (useful with -screenshot)")
	debug      = flag.Bool("debug", false, "log GL errors after every draw")
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

func main() {
	flag.Parse()

	if err := checkFlags(*screenshot, *turntable); err != nil {
		log.Fatal(err)
	}

	// run returns instead of exiting so that its deferred cleanup
	// releases the GPU resources and the window first.
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func checkFlags(screenshot string, turntable int) error {
	if turntable < 0 {
		return fmt.Errorf("-turntable must not be negative, got %v", turntable)
	}
	if turntable > 0 && screenshot == "" {
		return errors.New("-turntable requires -screenshot")
	}
	return nil
}

func run() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw.Init: %v", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if *hidden {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}
	window, err := glfw.CreateWindow(*width, *height, "Deferred Viewer", nil, nil)
	if err != nil {
		return fmt.Errorf("CreateWindow(%v,%v): %v", *width, *height, err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := opengl.Init(); err != nil {
		return err
	}
	dev := opengl.New()
	dev.Debug = *debug

	fbWidth, fbHeight := window.GetFramebufferSize()
	s, err := loadScene(*sceneFile, fbWidth, fbHeight)
	if s == nil {
		return err
	}
	if err != nil {
		// Missing meshes are not fatal; their nodes are simply not drawn.
		log.Printf("loading scene: %v", err)
	}

	opts := render.Options{ShadowSize: *shadowSize}
	var watcher *shaderWatcher
	if *shaderDir != "" {
		srcs, err := render.LoadProgramSources(*shaderDir)
		if err != nil {
			return fmt.Errorf("LoadProgramSources: %v", err)
		}
		opts.Programs = &srcs
		if watcher, err = watchShaders(*shaderDir); err != nil {
			log.Printf("not watching %v: %v", *shaderDir, err)
		}
		defer watcher.Close()
	}

	r := render.New(dev, fbWidth, fbHeight, opts)
	if err := r.Initialize(); err != nil {
		return fmt.Errorf("Initialize: %v", err)
	}
	defer func() {
		s.FreeMemory(r.ReleaseMesh)
		r.Finalize()
	}()

	a := &app{window: window, scene: s, renderer: r}
	a.bind()

	if *screenshot != "" {
		return capture(a, *screenshot, *turntable)
	}

	for !window.ShouldClose() {
		if a.resize.paused() {
			// A resize gesture is in progress; wait for it to settle.
			glfw.WaitEventsTimeout(0.05)
			continue
		}
		if w, h, ok := a.resize.take(); ok {
			if err := a.applyResize(w, h); err != nil {
				return err
			}
		}
		if watcher.take() {
			a.reloadShaders(*shaderDir)
		}
		r.RenderScene(s)
		if *debug {
			st := r.LastFrame().Stats
			window.SetTitle(fmt.Sprintf("Deferred Viewer - %v lights, %v draws", st.LightDraws, st.DrawCalls()))
		}
		window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

func loadScene(path string, width, height int) (*scene.Scene, error) {
	var (
		desc *scene.Description
		err  error
	)
	if path == "" {
		desc, err = scene.ParseDescription([]byte(scene.DefaultDescription))
	} else {
		desc, err = scene.LoadDescription(path)
	}
	if err != nil {
		return nil, err
	}
	return scene.Build(desc, width, height, asset.Importer{})
}

// app routes window callbacks to the scene and renderer.
type app struct {
	window   *glfw.Window
	scene    *scene.Scene
	renderer *render.Renderer
	drag     drag
	resize   resizeGate
}

func (a *app) bind() {
	a.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		a.resize.request(width, height)
	})
	a.window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		x, y := w.GetCursorPos()
		var b dragButton
		switch button {
		case glfw.MouseButtonLeft:
			b = orbitButton
		case glfw.MouseButtonRight:
			b = panButton
		default:
			return
		}
		if action == glfw.Press {
			a.drag.press(b, x, y)
		} else if action == glfw.Release {
			a.drag.release()
		}
	})
	a.window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		width, height := w.GetSize()
		a.drag.move(a.scene.Camera(), x, y, width, height)
	})
	a.window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		scroll(a.scene.Camera(), yoff)
	})
	a.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
}

func (a *app) applyResize(width, height int) error {
	a.renderer.Resize(width, height)
	a.scene.Resize(width, height)
	if a.renderer.State() == render.Uninitialized {
		return fmt.Errorf("Resize(%v,%v) failed to recreate render targets", width, height)
	}
	return nil
}

func (a *app) reloadShaders(dir string) {
	srcs, err := render.LoadProgramSources(dir)
	if err == nil {
		err = a.renderer.ReloadPrograms(srcs)
	}
	if err != nil {
		log.Printf("shader reload: %v", err)
		return
	}
	log.Printf("reloaded shaders from %v", dir)
}

// capture renders and saves frames. With frames > 1 the camera orbits
// one full turn and each file gets a frame number before the extension.
func capture(a *app, path string, frames int) error {
	if frames < 1 {
		frames = 1
	}
	cam := a.scene.Camera()
	spin := cam.Spin()
	for i := 0; i < frames; i++ {
		cam.SetSpin(spin + float32(i)*2*math32.Pi/float32(frames))
		if err := a.renderer.RenderFrame(a.scene, render.NewFrame(8)); err != nil {
			return err
		}
		out := path
		if frames > 1 {
			out = frameName(path, i)
		}
		if err := a.renderer.SaveScreenshot(out); err != nil {
			return err
		}
		a.window.SwapBuffers()
		glfw.PollEvents()
		log.Printf("saved %v", out)
	}
	cam.SetSpin(spin)
	return nil
}

func frameName(path string, i int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%v-%04d%v", strings.TrimSuffix(path, ext), i, ext)
}

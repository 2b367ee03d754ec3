package render

import (
	"github.com/gmlewis/deferred/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// LightInstance is a light recorded during the geometry pass together
// with its world position for this frame.
type LightInstance struct {
	ID       scene.NodeID
	Light    scene.Light
	Position mgl32.Vec3
}

// Stats counts the work issued for one frame.
type Stats struct {
	GeometryDraws int // mesh draws into the G-buffer
	ShadowPasses  int
	ShadowDraws   int // mesh draws into the shadow buffer
	LightDraws    int // full-screen quads accumulated
}

// DrawCalls returns the total number of draw calls.
func (s Stats) DrawCalls() int {
	return s.GeometryDraws + s.ShadowDraws + s.LightDraws
}

// Frame is the per-frame scratch state handed to every pass.
// A Frame may be reused across frames; RenderFrame resets it.
type Frame struct {
	Lights  []LightInstance
	Ambient mgl32.Vec3
	Stats   Stats
}

// NewFrame returns a Frame with room for lightCap lights.
func NewFrame(lightCap int) *Frame {
	return &Frame{Lights: make([]LightInstance, 0, lightCap)}
}

func (f *Frame) reset() {
	f.Lights = f.Lights[:0]
	f.Ambient = mgl32.Vec3{}
	f.Stats = Stats{}
}

package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is an orbiting viewer: it spins about Y, tilts about X, and
// backs away from its position by Zoom.
type Camera struct {
	position mgl32.Vec3
	spin     float32 // radians
	tilt     float32 // radians
	zoom     float32
}

func (c *Camera) Position() mgl32.Vec3 { return c.position }
func (c *Camera) Spin() float32         { return c.spin }
func (c *Camera) Tilt() float32         { return c.tilt }
func (c *Camera) Zoom() float32         { return c.zoom }

func (c *Camera) SetPosition(p mgl32.Vec3) { c.position = p }
func (c *Camera) SetSpin(spin float32)     { c.spin = spin }
func (c *Camera) SetTilt(tilt float32)     { c.tilt = tilt }

// SetZoom sets the viewing distance. Negative values are clamped to zero.
func (c *Camera) SetZoom(zoom float32) {
	if zoom < 0 {
		zoom = 0
	}
	c.zoom = zoom
}

// ViewMatrix returns translate(position - zoom*Z) * rotX(tilt) * rotY(spin).
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(c.position[0], c.position[1], c.position[2]-c.zoom)
	return t.Mul4(mgl32.HomogRotate3DX(c.tilt)).Mul4(mgl32.HomogRotate3DY(c.spin))
}

// Eye returns the camera position in world space.
func (c *Camera) Eye() mgl32.Vec3 {
	inv := c.ViewMatrix().Inv()
	return inv.Col(3).Vec3()
}

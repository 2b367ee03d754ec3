package main

import (
	"github.com/chewxy/math32"
	"github.com/gmlewis/deferred/scene"
)

type dragButton int

const (
	noButton dragButton = iota
	orbitButton
	panButton
)

// drag tracks the cursor while a mouse button is held and converts
// motion into camera changes.
type drag struct {
	button dragButton
	lastX  float64
	lastY  float64
}

func (d *drag) press(b dragButton, x, y float64) {
	d.button, d.lastX, d.lastY = b, x, y
}

func (d *drag) release() { d.button = noButton }

// move applies the motion since the last cursor position to cam. width
// and height are the window size in screen coordinates.
func (d *drag) move(cam *scene.Camera, x, y float64, width, height int) {
	dx, dy := float32(x-d.lastX), float32(y-d.lastY)
	d.lastX, d.lastY = x, y
	if width <= 0 || height <= 0 {
		return
	}
	w, h := float32(width), float32(height)

	switch d.button {
	case orbitButton:
		cam.SetSpin(cam.Spin() - dx/w*math32.Pi)
		cam.SetTilt(cam.Tilt() - dy/h*math32.Pi)
	case panButton:
		p := cam.Position()
		p[0] += dx / (2 * w)
		p[1] -= dy / (2 * h)
		p[2] = 0
		cam.SetPosition(p)
	}
}

// scroll zooms cam by one unit per wheel step.
func scroll(cam *scene.Camera, yoff float64) {
	cam.SetZoom(cam.Zoom() + float32(yoff))
}

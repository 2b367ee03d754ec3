package main

// resizeGate holds window size changes until a resize gesture settles.
// Rendering pauses while new sizes keep arriving; the last size is
// applied once between frames.
type resizeGate struct {
	pending bool
	moved   bool
	width   int
	height  int
}

func (g *resizeGate) request(width, height int) {
	g.pending, g.moved = true, true
	g.width, g.height = width, height
}

// paused reports whether a size arrived since the previous call.
func (g *resizeGate) paused() bool {
	moved := g.moved
	g.moved = false
	return moved
}

// take returns the pending size, if any. A zero size (minimized window)
// is dropped.
func (g *resizeGate) take() (width, height int, ok bool) {
	if !g.pending {
		return 0, 0, false
	}
	g.pending = false
	if g.width == 0 || g.height == 0 {
		return 0, 0, false
	}
	return g.width, g.height, true
}

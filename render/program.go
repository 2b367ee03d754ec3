package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// program is a linked shader program with cached uniform locations.
type program struct {
	dev       Device
	handle    uint32
	locations map[string]int32
}

func newProgram(dev Device, src ProgramSource) (*program, error) {
	h, err := dev.CreateProgram(src.Vertex, src.Fragment)
	if err != nil {
		return nil, err
	}
	return &program{dev: dev, handle: h, locations: map[string]int32{}}, nil
}

func (p *program) use() { p.dev.UseProgram(p.handle) }

func (p *program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := p.dev.UniformLocation(p.handle, name)
	p.locations[name] = loc
	return loc
}

func (p *program) setMat4(name string, m mgl32.Mat4) { p.dev.UniformMat4(p.location(name), m) }
func (p *program) setVec3(name string, v mgl32.Vec3) { p.dev.UniformVec3(p.location(name), v) }
func (p *program) setFloat(name string, v float32)   { p.dev.Uniform1f(p.location(name), v) }
func (p *program) setInt(name string, v int32)       { p.dev.Uniform1i(p.location(name), v) }

func (p *program) delete() {
	if p == nil || p.handle == 0 {
		return
	}
	p.dev.DeleteProgram(p.handle)
	p.handle = 0
}

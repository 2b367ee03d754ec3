package opengl

import (
	"testing"

	"github.com/gmlewis/deferred/render"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/stretchr/testify/assert"
)

// These only cover the enum mappings; everything else needs a context.

func TestDrawBuffer(t *testing.T) {
	tests := []struct {
		in   render.DrawBuffer
		want uint32
	}{
		{render.ColorAttachment0, gl.COLOR_ATTACHMENT0},
		{render.ColorAttachment3, gl.COLOR_ATTACHMENT3},
		{render.BackLeft, gl.BACK_LEFT},
		{render.NoDrawBuffer, gl.NONE},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, drawBuffer(tt.in), "drawBuffer(%v)", tt.in)
	}
}

func TestTextureFormat(t *testing.T) {
	assert.Equal(t, int32(gl.RGBA32F), textureFormat(render.RGBA32F).internal)
	assert.Equal(t, uint32(gl.DEPTH_COMPONENT), textureFormat(render.Depth24).format)
}

func TestCapability(t *testing.T) {
	assert.Equal(t, uint32(gl.BLEND), capability(render.Blend))
	assert.Equal(t, uint32(gl.CULL_FACE), capability(render.CullFaceTest))
	assert.Equal(t, uint32(gl.DEPTH_TEST), capability(render.DepthTest))
}

func TestColorBuffers(t *testing.T) {
	assert.Equal(t, []render.DrawBuffer{render.ColorAttachment0, render.ColorAttachment1}, colorBuffers(2))
}

func TestCStr(t *testing.T) {
	assert.Equal(t, "uAmbient\x00", cstr("uAmbient"))
	assert.Equal(t, "x\x00", cstr("x\x00"))
}

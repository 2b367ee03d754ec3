package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ProgramSource holds the GLSL source of one program.
type ProgramSource struct {
	Vertex   string
	Fragment string
}

// ProgramSources holds the programs of all three passes.
type ProgramSources struct {
	Geometry ProgramSource
	Shadow   ProgramSource
	Lighting ProgramSource
}

// DefaultProgramSources returns the built-in shaders.
func DefaultProgramSources() ProgramSources {
	return ProgramSources{
		Geometry: ProgramSource{Vertex: geometryVertexShader, Fragment: geometryFragmentShader},
		Shadow:   ProgramSource{Vertex: shadowVertexShader, Fragment: shadowFragmentShader},
		Lighting: ProgramSource{Vertex: lightingVertexShader, Fragment: lightingFragmentShader},
	}
}

// LoadProgramSources reads <pass>.vert and <pass>.frag for the passes
// "geometry", "shadow" and "lighting" from dir. Files that do not exist
// fall back to the built-in source.
func LoadProgramSources(dir string) (ProgramSources, error) {
	ps := DefaultProgramSources()
	for _, p := range []struct {
		name string
		src  *ProgramSource
	}{
		{"geometry", &ps.Geometry},
		{"shadow", &ps.Shadow},
		{"lighting", &ps.Lighting},
	} {
		for _, stage := range []struct {
			ext string
			dst *string
		}{
			{".vert", &p.src.Vertex},
			{".frag", &p.src.Fragment},
		} {
			path := filepath.Join(dir, p.name+stage.ext)
			buf, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return ProgramSources{}, fmt.Errorf("LoadProgramSources: %w", err)
			}
			*stage.dst = string(buf)
		}
	}
	return ps, nil
}

// Vertex attribute locations shared by mesh programs.
const (
	attribPosition = 0
	attribNormal   = 1
	attribTangent  = 2
	attribTexCoord = 3
)

const geometryVertexShader = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec3 aTangent;
layout(location = 3) in vec2 aTexCoord;

uniform mat4 uProjectionMatrix;
uniform mat4 uViewMatrix;
uniform mat4 uModelMatrix;

out vec3 vPosition;
out vec3 vNormal;

void main() {
	vec4 world = uModelMatrix * vec4(aPosition, 1.0);
	vPosition = world.xyz;
	vNormal = mat3(transpose(inverse(uModelMatrix))) * aNormal;
	gl_Position = uProjectionMatrix * uViewMatrix * world;
}
`

const geometryFragmentShader = `#version 410 core
struct Material {
	vec3 kd;
	vec3 ks;
	float alpha;
};

uniform Material uMaterial;

in vec3 vPosition;
in vec3 vNormal;

layout(location = 0) out vec4 gPosition;
layout(location = 1) out vec4 gDiffuse;
layout(location = 2) out vec4 gSpecular;
layout(location = 3) out vec4 gNormal;

void main() {
	// w = 1 marks covered pixels for the lighting pass.
	gPosition = vec4(vPosition, 1.0);
	gDiffuse = vec4(uMaterial.kd, 1.0);
	gSpecular = vec4(uMaterial.ks, uMaterial.alpha);
	gNormal = vec4(normalize(vNormal), 0.0);
}
`

const shadowVertexShader = `#version 410 core
layout(location = 0) in vec3 aPosition;

uniform mat4 uLightProjectionMatrix;
uniform mat4 uLightViewMatrix;
uniform mat4 uModelMatrix;

void main() {
	gl_Position = uLightProjectionMatrix * uLightViewMatrix * uModelMatrix * vec4(aPosition, 1.0);
}
`

const shadowFragmentShader = `#version 410 core
void main() {
}
`

const lightingVertexShader = `#version 410 core
layout(location = 0) in vec2 aPosition;
layout(location = 1) in vec2 aTexCoord;

out vec2 vTexCoord;

void main() {
	vTexCoord = aTexCoord;
	gl_Position = vec4(aPosition, 0.0, 1.0);
}
`

const lightingFragmentShader = `#version 410 core
uniform sampler2D uPosition;
uniform sampler2D uDiffuse;
uniform sampler2D uSpecular;
uniform sampler2D uNormal;
uniform sampler2D uShadowMap;

uniform vec3 uAmbient;
uniform vec3 uEyePosition;
uniform vec3 uLightPosition;
uniform vec3 uLightDiffuse;
uniform mat4 uLightMatrix;
uniform int uUseShadow;

in vec2 vTexCoord;

out vec4 fragColor;

float visibility(vec3 p, vec3 n, vec3 l) {
	if (uUseShadow == 0) {
		return 1.0;
	}
	vec4 lp = uLightMatrix * vec4(p, 1.0);
	vec3 proj = lp.xyz / lp.w * 0.5 + 0.5;
	if (proj.z > 1.0) {
		return 1.0;
	}
	float bias = max(0.005 * (1.0 - dot(n, l)), 0.0005);
	return proj.z - bias > texture(uShadowMap, proj.xy).r ? 0.0 : 1.0;
}

void main() {
	vec4 p = texture(uPosition, vTexCoord);
	if (p.w == 0.0) {
		discard;
	}
	vec3 kd = texture(uDiffuse, vTexCoord).rgb;
	vec4 spec = texture(uSpecular, vTexCoord);
	vec3 n = normalize(texture(uNormal, vTexCoord).xyz);

	vec3 l = normalize(uLightPosition - p.xyz);
	vec3 v = normalize(uEyePosition - p.xyz);
	vec3 h = normalize(l + v);

	vec3 diffuse = kd * uLightDiffuse * max(dot(n, l), 0.0);
	vec3 specular = spec.rgb * uLightDiffuse * pow(max(dot(n, h), 0.0), max(spec.a, 1.0));
	if (dot(n, l) <= 0.0) {
		specular = vec3(0.0);
	}

	vec3 color = uAmbient * kd + (diffuse + specular) * visibility(p.xyz, n, l);
	fragColor = vec4(color, 1.0);
}
`

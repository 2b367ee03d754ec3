// Package scene holds the scene graph consumed by the deferred renderer:
// an arena of transform nodes, the camera, and the mesh and material
// registries.
package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoImporter is returned by LoadMesh when the scene has no importer.
var ErrNoImporter = errors.New("scene: no mesh importer")

// Visitor is called for every node during Traverse. model is the
// node's cumulative transform, including its own scale.
// Returning a non-nil error stops the traversal.
type Visitor func(id NodeID, n *Node, model mgl32.Mat4) error

// Scene owns the node arena, the camera, and every mesh and material.
//
// Nodes must not be added or deleted while a traversal is in progress.
type Scene struct {
	nodes []*Node
	free  []NodeID
	live  int
	root  NodeID

	camera Camera

	meshes    map[string]*Mesh
	materials map[string]*Material
	importer  Importer

	projection mgl32.Mat4
	ry         float32
	front      float32
	back       float32

	width  int
	height int

	sceneSize mgl32.Vec3
	ambient   mgl32.Vec3

	// OnDestroy, if set, is called once for every node destroyed
	// by DeleteNode or Clear.
	OnDestroy func(id NodeID, n *Node)
}

// New returns an empty scene with a root node. imp may be nil, in which
// case LoadMesh always fails.
func New(width, height int, imp Importer) *Scene {
	s := &Scene{
		meshes:    map[string]*Mesh{},
		materials: map[string]*Material{},
		importer:  imp,
		width:     width,
		height:    height,
		sceneSize: mgl32.Vec3{1, 1, 1},
	}
	s.root = s.alloc(newNode("Root", KindTransform))
	s.SetProjection(0.2, 0.1, 1000)
	return s
}

func (s *Scene) alloc(n *Node) NodeID {
	s.live++
	if len(s.free) > 0 {
		id := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		s.nodes[id] = n
		return id
	}
	s.nodes = append(s.nodes, n)
	return NodeID(len(s.nodes) - 1)
}

// Root returns the root node ID.
func (s *Scene) Root() NodeID { return s.root }

// Len returns the number of live nodes, including the root.
func (s *Scene) Len() int { return s.live }

// Node returns the node for id, or nil if id is out of range or was
// deleted. Deleted IDs are recycled by later allocations.
func (s *Scene) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(s.nodes) {
		return nil
	}
	return s.nodes[id]
}

// NewNode creates a detached plain transform node.
func (s *Scene) NewNode(name string) NodeID {
	return s.alloc(newNode(name, KindTransform))
}

// NewObject creates a detached renderable node. A nil material falls back
// to DefaultMaterial; a nil mesh is allowed and is skipped when drawing.
func (s *Scene) NewObject(name string, mesh *Mesh, material *Material) NodeID {
	if material == nil {
		material = DefaultMaterial
	}
	n := newNode(name, KindObject)
	n.Object = Object{Mesh: mesh, Material: material}
	return s.alloc(n)
}

// NewLight creates a detached light node.
func (s *Scene) NewLight(name string, ambient, diffuse mgl32.Vec3) NodeID {
	n := newNode(name, KindLight)
	n.Light = Light{Ambient: ambient, Diffuse: diffuse}
	return s.alloc(n)
}

// AddChild appends child to parent's children, transferring ownership.
// A child that already has a parent is detached from it first.
// No cycle check is made; the caller must not create cycles.
func (s *Scene) AddChild(parent, child NodeID) {
	p, c := s.Node(parent), s.Node(child)
	if p == nil || c == nil || child == s.root {
		return
	}
	s.detach(child, c)
	p.children = append(p.children, child)
	c.parent = parent
}

// detach removes id from its parent's children.
func (s *Scene) detach(id NodeID, n *Node) {
	p := s.Node(n.parent)
	n.parent = NoNode
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == id {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}

// AddNode attaches node under the root.
func (s *Scene) AddNode(node NodeID) {
	s.AddChild(s.root, node)
}

// DeleteNode detaches id from its parent and destroys it together with
// all of its descendants. It returns the number of nodes destroyed.
// The root cannot be deleted; use Clear.
func (s *Scene) DeleteNode(id NodeID) int {
	n := s.Node(id)
	if n == nil || id == s.root {
		return 0
	}
	s.detach(id, n)
	return s.destroy(id)
}

// Clear destroys every node below the root.
func (s *Scene) Clear() int {
	root := s.nodes[s.root]
	var count int
	for _, c := range root.children {
		count += s.destroy(c)
	}
	root.children = nil
	return count
}

func (s *Scene) destroy(id NodeID) int {
	var count int
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := s.nodes[cur]
		if n == nil {
			continue
		}
		stack = append(stack, n.children...)
		s.nodes[cur] = nil
		s.free = append(s.free, cur)
		s.live--
		count++
		if s.OnDestroy != nil {
			s.OnDestroy(cur, n)
		}
	}
	return count
}

// Traverse walks the graph depth-first in pre-order starting at the root,
// visiting children in insertion order. A node's scale applies only to
// its own model matrix; children accumulate the parent's translation and
// orientation but not its scale.
func (s *Scene) Traverse(visit Visitor) error {
	return s.traverse(s.root, mgl32.Ident4(), visit)
}

func (s *Scene) traverse(id NodeID, parent mgl32.Mat4, visit Visitor) error {
	n := s.nodes[id]
	if err := visit(id, n, parent.Mul4(n.TransformMatrix())); err != nil {
		return err
	}
	rigid := parent.Mul4(n.RigidMatrix())
	for _, c := range n.children {
		if err := s.traverse(c, rigid, visit); err != nil {
			return err
		}
	}
	return nil
}

// Camera returns the scene camera.
func (s *Scene) Camera() *Camera { return &s.camera }

// ViewMatrix returns the camera view matrix.
func (s *Scene) ViewMatrix() mgl32.Mat4 { return s.camera.ViewMatrix() }

// ProjectionMatrix returns the current perspective projection.
func (s *Scene) ProjectionMatrix() mgl32.Mat4 { return s.projection }

// SetProjection sets a perspective projection where ry is the half height
// of the view volume at unit distance and front/back are the clip planes.
func (s *Scene) SetProjection(ry, front, back float32) {
	s.ry, s.front, s.back = ry, front, back
	s.updateProjection()
}

func (s *Scene) updateProjection() {
	aspect := float32(1)
	if s.height > 0 {
		aspect = float32(s.width) / float32(s.height)
	}
	rx := s.ry * aspect
	f, b := s.front, s.back
	s.projection = mgl32.Mat4{
		1 / rx, 0, 0, 0,
		0, 1 / s.ry, 0, 0,
		0, 0, -(b + f) / (b - f), -1,
		0, 0, -2 * f * b / (b - f), 0,
	}
}

// Resize records the new window size and keeps the vertical field of view.
func (s *Scene) Resize(width, height int) {
	s.width, s.height = width, height
	s.updateProjection()
}

// WindowSize returns the last recorded window dimensions.
func (s *Scene) WindowSize() (width, height int) { return s.width, s.height }

// SceneSize returns the extent used to fit the shadow projection.
func (s *Scene) SceneSize() mgl32.Vec3      { return s.sceneSize }
func (s *Scene) SetSceneSize(v mgl32.Vec3) { s.sceneSize = v }

// AmbientIntensity is added once per frame regardless of light count.
func (s *Scene) AmbientIntensity() mgl32.Vec3      { return s.ambient }
func (s *Scene) SetAmbientIntensity(v mgl32.Vec3) { s.ambient = v }

// LoadMesh imports the mesh at path and registers it under name,
// replacing any prior entry. On failure it returns a nil mesh and the
// registry is left unchanged.
func (s *Scene) LoadMesh(name, path string) (*Mesh, error) {
	if s.importer == nil {
		return nil, ErrNoImporter
	}
	data, err := s.importer.Import(path)
	if err != nil {
		return nil, fmt.Errorf("LoadMesh(%q): %w", path, err)
	}
	if data == nil || len(data.Positions) == 0 {
		return nil, fmt.Errorf("LoadMesh(%q): no mesh data", path)
	}
	m := &Mesh{Name: name, Path: path, Data: data}
	s.meshes[name] = m
	return m, nil
}

// AddMesh registers already built mesh data under name.
func (s *Scene) AddMesh(name string, data *MeshData) *Mesh {
	m := &Mesh{Name: name, Data: data}
	s.meshes[name] = m
	return m
}

// Mesh returns the registered mesh, or nil.
func (s *Scene) Mesh(name string) *Mesh { return s.meshes[name] }

// Meshes returns the number of registered meshes.
func (s *Scene) Meshes() int { return len(s.meshes) }

// CreateMaterial registers a material under name, replacing any prior entry.
func (s *Scene) CreateMaterial(name string, kd, ks mgl32.Vec3, alpha float32) *Material {
	m := &Material{Name: name, Kd: kd, Ks: ks, Alpha: alpha}
	s.materials[name] = m
	return m
}

// Material returns the registered material, or nil.
func (s *Scene) Material(name string) *Material { return s.materials[name] }

// FreeMemory drops every registered mesh and material. release, if not
// nil, is called once per mesh so that GPU copies can be freed.
// Nodes are not affected.
func (s *Scene) FreeMemory(release func(*Mesh)) {
	if release != nil {
		for _, m := range s.meshes {
			release(m)
		}
	}
	s.meshes = map[string]*Mesh{}
	s.materials = map[string]*Material{}
}

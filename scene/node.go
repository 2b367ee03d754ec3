package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NodeID addresses a node in a Scene's arena.
type NodeID int

// NoNode is the zero-value sentinel for "no node".
const NoNode NodeID = -1

// Kind selects which variant payload of a Node is meaningful.
type Kind byte

const (
	KindTransform Kind = iota
	KindObject
	KindLight
)

func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindObject:
		return "object"
	case KindLight:
		return "light"
	}
	return "unknown"
}

// Object is the payload of a KindObject node.
// Mesh and Material are owned by the Scene registries, not the node.
type Object struct {
	Mesh     *Mesh
	Material *Material
}

// Light is the payload of a KindLight node.
type Light struct {
	Ambient     mgl32.Vec3
	Diffuse     mgl32.Vec3
	CastsShadow bool
}

// Node is a transform in the scene graph plus its variant payload.
type Node struct {
	Name        string
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Orientation mgl32.Quat

	Kind   Kind
	Object Object // valid when Kind == KindObject
	Light  Light  // valid when Kind == KindLight

	parent   NodeID
	children []NodeID
}

func newNode(name string, kind Kind) *Node {
	return &Node{
		Name:        name,
		Scale:       mgl32.Vec3{1, 1, 1},
		Orientation: mgl32.QuatIdent(),
		Kind:        kind,
		parent:      NoNode,
	}
}

// IsRenderable reports whether the node produces geometry.
func (n *Node) IsRenderable() bool {
	return n.Kind == KindObject
}

// Parent returns the owning node, or NoNode for the root and detached nodes.
func (n *Node) Parent() NodeID { return n.parent }

// Children returns the child IDs in insertion order.
// The returned slice must not be modified.
func (n *Node) Children() []NodeID { return n.children }

// TransformMatrix returns translation * orientation * scale.
func (n *Node) TransformMatrix() mgl32.Mat4 {
	return n.RigidMatrix().Mul4(mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2]))
}

// RigidMatrix returns translation * orientation. This is the part of the
// node's transform that is propagated to its children.
func (n *Node) RigidMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2])
	return t.Mul4(n.Orientation.Normalize().Mat4())
}

package kinematics

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrInvalidChain = errors.New("kinematics: invalid chain")
	ErrDOFMismatch  = errors.New("kinematics: update length does not match degrees of freedom")
)

// maxAxesPerKind bounds the translational and rotational axes of one joint.
const maxAxesPerKind = 3

// Link is a rigid body node. Shape is the local transform of its visual; it is
// applied after the owning joint and does not propagate to children.
type Link struct {
	Name   string
	Shape  mgl64.Mat4
	Parent int // joint index, -1 until a joint adopts the link
	Joints []int
}

// Joint connects a parent link to a child link.
type Joint struct {
	Name   string
	Parent int // link index, -1 for the root joint
	Child  int // link index

	// Placement is the fixed parent-local transform of the joint origin.
	Placement mgl64.Mat4
	// Articulation accumulates every DOF motion applied to the joint.
	Articulation mgl64.Mat4

	TransAxes []mgl64.Vec3
	RotAxes   []mgl64.Vec3
}

// DOF is the number of scalar coordinates the joint contributes.
func (j *Joint) DOF() int { return len(j.TransAxes) + len(j.RotAxes) }

func (j *Joint) local() mgl64.Mat4 { return j.Placement.Mul4(j.Articulation) }

// JointSpec describes a joint to add to a Tree. A zero Placement or
// Articulation means identity.
type JointSpec struct {
	Name         string
	Parent       int
	Child        int
	Placement    mgl64.Mat4
	Articulation mgl64.Mat4
	TransAxes    []mgl64.Vec3
	RotAxes      []mgl64.Vec3
}

// Tree is an arena of links and joints addressed by index.
type Tree struct {
	links  []Link
	joints []Joint
	root   int
}

func NewTree() *Tree {
	return &Tree{root: -1}
}

// AddLink appends a link and returns its index.
func (t *Tree) AddLink(name string, shape mgl64.Mat4) int {
	if shape == (mgl64.Mat4{}) {
		shape = mgl64.Ident4()
	}
	t.links = append(t.links, Link{Name: name, Shape: shape, Parent: -1})
	return len(t.links) - 1
}

// AddJoint appends a joint and wires it into the tree. Axes are normalized.
func (t *Tree) AddJoint(spec JointSpec) (int, error) {
	if spec.Child < 0 || spec.Child >= len(t.links) {
		return -1, fmt.Errorf("%w: joint %q child link %d does not exist", ErrInvalidChain, spec.Name, spec.Child)
	}
	if t.links[spec.Child].Parent >= 0 {
		return -1, fmt.Errorf("%w: link %q already has a parent joint", ErrInvalidChain, t.links[spec.Child].Name)
	}
	switch {
	case spec.Parent == -1:
		if t.root >= 0 {
			return -1, fmt.Errorf("%w: tree already has root joint %q", ErrInvalidChain, t.joints[t.root].Name)
		}
	case spec.Parent < 0 || spec.Parent >= len(t.links):
		return -1, fmt.Errorf("%w: joint %q parent link %d does not exist", ErrInvalidChain, spec.Name, spec.Parent)
	case spec.Parent == spec.Child:
		return -1, fmt.Errorf("%w: joint %q connects link %d to itself", ErrInvalidChain, spec.Name, spec.Child)
	}

	trans, err := unitAxes(spec.Name, spec.TransAxes)
	if err != nil {
		return -1, err
	}
	rot, err := unitAxes(spec.Name, spec.RotAxes)
	if err != nil {
		return -1, err
	}

	j := Joint{
		Name:         spec.Name,
		Parent:       spec.Parent,
		Child:        spec.Child,
		Placement:    identityIfZero(spec.Placement),
		Articulation: identityIfZero(spec.Articulation),
		TransAxes:    trans,
		RotAxes:      rot,
	}
	t.joints = append(t.joints, j)
	idx := len(t.joints) - 1

	t.links[spec.Child].Parent = idx
	if spec.Parent == -1 {
		t.root = idx
	} else {
		t.links[spec.Parent].Joints = append(t.links[spec.Parent].Joints, idx)
	}
	return idx, nil
}

func unitAxes(joint string, axes []mgl64.Vec3) ([]mgl64.Vec3, error) {
	if len(axes) > maxAxesPerKind {
		return nil, fmt.Errorf("%w: joint %q has %d axes of one kind, at most %d allowed", ErrInvalidChain, joint, len(axes), maxAxesPerKind)
	}
	out := make([]mgl64.Vec3, 0, len(axes))
	for _, a := range axes {
		l := a.Len()
		if l < minAxisLength {
			return nil, fmt.Errorf("%w: joint %q has a zero axis", ErrInvalidChain, joint)
		}
		out = append(out, a.Mul(1/l))
	}
	return out, nil
}

func identityIfZero(m mgl64.Mat4) mgl64.Mat4 {
	if m == (mgl64.Mat4{}) {
		return mgl64.Ident4()
	}
	return m
}

// Root returns the root joint index, or -1 for an empty tree.
func (t *Tree) Root() int { return t.root }

func (t *Tree) NumLinks() int  { return len(t.links) }
func (t *Tree) NumJoints() int { return len(t.joints) }

// Link returns a copy of link i.
func (t *Tree) Link(i int) Link { return t.links[i] }

// Joint returns a copy of joint i.
func (t *Tree) Joint(i int) Joint { return t.joints[i] }

// Walk visits every link reachable from the root depth-first, children in
// insertion order, with the world transform of its shape.
func (t *Tree) Walk(fn func(link int, world mgl64.Mat4)) {
	if t.root < 0 {
		return
	}
	t.walk(t.root, mgl64.Ident4(), fn)
}

func (t *Tree) walk(joint int, parent mgl64.Mat4, fn func(int, mgl64.Mat4)) {
	j := &t.joints[joint]
	frame := parent.Mul4(j.local())

	child := &t.links[j.Child]
	fn(j.Child, frame.Mul4(child.Shape))

	for _, next := range child.Joints {
		t.walk(next, frame, fn)
	}
}

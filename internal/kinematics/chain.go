package kinematics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// minAxisLength is the length under which an axis is treated as degenerate.
const minAxisLength = 1e-12

// Config tunes the chain's effector and IK update.
type Config struct {
	// EffectorOffset is the tip offset applied after the last joint of the
	// path, in that joint's frame.
	EffectorOffset mgl64.Vec3
	// MaxStep bounds the Euclidean norm of one IK update. Zero disables the
	// clamp.
	MaxStep float64
	// SingularTolerance drops singular values below
	// SingularTolerance * largest singular value in the pseudo-inverse.
	SingularTolerance float64
}

func DefaultConfig() Config {
	return Config{
		EffectorOffset:    mgl64.Vec3{0, 1, 0},
		MaxStep:           0.5,
		SingularTolerance: 1e-9,
	}
}

// Axes are the DOF axes of one joint. Rot is expressed in world space; Trans
// is left in the joint's local frame.
type Axes struct {
	Trans []mgl64.Vec3
	Rot   []mgl64.Vec3
}

// Chain is the serial articulation path through a Tree used for forward and
// inverse kinematics.
type Chain struct {
	tree *Tree
	path []int
	dof  int
	cfg  Config
}

// NewChain checks that path runs from the root joint down the tree, each
// joint hanging from the previous joint's child link, and that the path
// carries at least one DOF.
func NewChain(tree *Tree, path []int, cfg Config) (*Chain, error) {
	if tree == nil || len(path) == 0 {
		return nil, fmt.Errorf("%w: empty articulation path", ErrInvalidChain)
	}
	if cfg.MaxStep < 0 || cfg.SingularTolerance < 0 {
		return nil, fmt.Errorf("%w: MaxStep and SingularTolerance must be >= 0", ErrInvalidChain)
	}

	dof := 0
	for k, ji := range path {
		if ji < 0 || ji >= len(tree.joints) {
			return nil, fmt.Errorf("%w: path entry %d references missing joint %d", ErrInvalidChain, k, ji)
		}
		j := &tree.joints[ji]
		if k == 0 {
			if j.Parent != -1 {
				return nil, fmt.Errorf("%w: path starts at %q, which is not the root joint", ErrInvalidChain, j.Name)
			}
		} else if prev := &tree.joints[path[k-1]]; j.Parent != prev.Child {
			return nil, fmt.Errorf("%w: %q does not hang from the child link of %q", ErrInvalidChain, j.Name, prev.Name)
		}
		dof += j.DOF()
	}
	if dof == 0 {
		return nil, fmt.Errorf("%w: path has no degrees of freedom", ErrInvalidChain)
	}

	return &Chain{
		tree: tree,
		path: append([]int(nil), path...),
		dof:  dof,
		cfg:  cfg,
	}, nil
}

func (c *Chain) Tree() *Tree    { return c.tree }
func (c *Chain) Path() []int    { return append([]int(nil), c.path...) }
func (c *Chain) DOF() int       { return c.dof }
func (c *Chain) Config() Config { return c.cfg }

// Articulation returns the current articulation matrix of joint i.
func (c *Chain) Articulation(i int) mgl64.Mat4 { return c.tree.joints[i].Articulation }

// frames returns the accumulated transform after each joint of the path.
func (c *Chain) frames() []mgl64.Mat4 {
	out := make([]mgl64.Mat4, len(c.path))
	t := mgl64.Ident4()
	for k, ji := range c.path {
		t = t.Mul4(c.tree.joints[ji].local())
		out[k] = t
	}
	return out
}

// LinkTransforms returns the world transform of each path joint's child link
// shape.
func (c *Chain) LinkTransforms() []mgl64.Mat4 {
	frames := c.frames()
	for k, ji := range c.path {
		frames[k] = frames[k].Mul4(c.tree.links[c.tree.joints[ji].Child].Shape)
	}
	return frames
}

// JointPositions returns the world origin of every path joint followed by the
// end effector.
func (c *Chain) JointPositions() []mgl64.Vec3 {
	frames := c.frames()
	out := make([]mgl64.Vec3, 0, len(frames)+1)
	for _, f := range frames {
		out = append(out, translation(f))
	}
	tip := frames[len(frames)-1].Mul4(mgl64.Translate3D(c.cfg.EffectorOffset.Elem()))
	return append(out, translation(tip))
}

// EndEffector is the last entry of JointPositions.
func (c *Chain) EndEffector() mgl64.Vec3 {
	pos := c.JointPositions()
	return pos[len(pos)-1]
}

// JointAxes returns the DOF axes of every path joint.
func (c *Chain) JointAxes() []Axes {
	frames := c.frames()
	out := make([]Axes, len(c.path))
	for k, ji := range c.path {
		j := &c.tree.joints[ji]
		rot := make([]mgl64.Vec3, len(j.RotAxes))
		for r, a := range j.RotAxes {
			w := frames[k].Mul4x1(a.Vec4(0)).Vec3()
			if l := w.Len(); l >= minAxisLength {
				w = w.Mul(1 / l)
			}
			rot[r] = w
		}
		out[k] = Axes{
			Trans: append([]mgl64.Vec3(nil), j.TransAxes...),
			Rot:   rot,
		}
	}
	return out
}

func translation(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// Jacobian builds the 3 x DOF geometric Jacobian. positions must end with the
// effector; that entry contributes no columns.
func (c *Chain) Jacobian(positions []mgl64.Vec3, axes []Axes) *mat.Dense {
	ee := positions[len(positions)-1]
	jac := mat.NewDense(3, c.dof, nil)

	col := 0
	for k := 0; k < len(positions)-1 && k < len(axes); k++ {
		for _, a := range axes[k].Trans {
			setColumn(jac, col, a)
			col++
		}
		r := ee.Sub(positions[k])
		for _, a := range axes[k].Rot {
			if a.Len() >= minAxisLength {
				setColumn(jac, col, a.Cross(r))
			}
			col++
		}
	}
	return jac
}

func setColumn(m *mat.Dense, col int, v mgl64.Vec3) {
	for r := 0; r < 3; r++ {
		m.Set(r, col, v[r])
	}
}

// Solve returns the DOF update that moves the effector toward goal, in chain
// order: J⁺ (goal - effector), clamped to MaxStep.
func (c *Chain) Solve(goal mgl64.Vec3) []float64 {
	positions := c.JointPositions()
	axes := c.JointAxes()

	ee := positions[len(positions)-1]
	e := goal.Sub(ee)

	jac := c.Jacobian(positions, axes)
	dtheta := pseudoInverseSolve(jac, e, c.cfg.SingularTolerance)

	if c.cfg.MaxStep > 0 {
		norm := 0.0
		for _, v := range dtheta {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm > c.cfg.MaxStep {
			s := c.cfg.MaxStep / norm
			for i := range dtheta {
				dtheta[i] *= s
			}
		}
	}
	return dtheta
}

// pseudoInverseSolve computes the least-norm solution of J x = e through a
// thin SVD. A factorization failure yields the zero update.
func pseudoInverseSolve(jac *mat.Dense, e mgl64.Vec3, tol float64) []float64 {
	_, n := jac.Dims()
	out := make([]float64, n)

	var svd mat.SVD
	if ok := svd.Factorize(jac, mat.SVDThin); !ok {
		return out
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sigma := svd.Values(nil)
	if len(sigma) == 0 || sigma[0] == 0 {
		return out
	}
	cutoff := tol * sigma[0]

	rhs := mat.NewVecDense(3, []float64{e[0], e[1], e[2]})
	var ute mat.VecDense
	ute.MulVec(u.T(), rhs)

	scaled := mat.NewVecDense(len(sigma), nil)
	for i, s := range sigma {
		if s > cutoff {
			scaled.SetVec(i, ute.AtVec(i)/s)
		}
	}

	var x mat.VecDense
	x.MulVec(&v, scaled)
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out
}

// Apply composes the update into each path joint's articulation: one
// translation per translational axis, then one rotation per rotational axis,
// consuming dtheta in Jacobian column order.
func (c *Chain) Apply(dtheta []float64) error {
	if len(dtheta) != c.dof {
		return fmt.Errorf("%w: got %d values for %d DOF", ErrDOFMismatch, len(dtheta), c.dof)
	}
	k := 0
	for _, ji := range c.path {
		j := &c.tree.joints[ji]
		if j.DOF() == 0 {
			continue
		}
		delta := mgl64.Ident4()
		for _, a := range j.TransAxes {
			delta = delta.Mul4(mgl64.Translate3D(a.Mul(dtheta[k]).Elem()))
			k++
		}
		for _, a := range j.RotAxes {
			delta = delta.Mul4(mgl64.HomogRotate3D(dtheta[k], a))
			k++
		}
		j.Articulation = j.Articulation.Mul4(delta)
	}
	return nil
}

// Track runs one differential IK step toward goal and returns the remaining
// effector distance.
func (c *Chain) Track(goal mgl64.Vec3) float64 {
	// Solve always returns DOF values, so Apply cannot fail here.
	_ = c.Apply(c.Solve(goal))
	return goal.Sub(c.EndEffector()).Len()
}

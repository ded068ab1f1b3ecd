package kinematics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func mustArm(t *testing.T, cfg Config) *Chain {
	t.Helper()
	c, err := NewRobotArm(cfg)
	if err != nil {
		t.Fatalf("NewRobotArm: %v", err)
	}
	return c
}

// quarterTurnChain is a root joint turning about y followed by a fixed joint
// that lays the unit effector offset along +x.
func quarterTurnChain(t *testing.T, cfg Config) *Chain {
	t.Helper()
	tree := NewTree()
	base := tree.AddLink("base", mgl64.Ident4())
	arm := tree.AddLink("arm", mgl64.Ident4())

	root, err := tree.AddJoint(JointSpec{Name: "root", Parent: -1, Child: base, RotAxes: []mgl64.Vec3{{0, 1, 0}}})
	if err != nil {
		t.Fatalf("AddJoint root: %v", err)
	}
	elbow, err := tree.AddJoint(JointSpec{Name: "elbow", Parent: base, Child: arm, Placement: mgl64.HomogRotate3DZ(-math.Pi / 2)})
	if err != nil {
		t.Fatalf("AddJoint elbow: %v", err)
	}
	c, err := NewChain(tree, []int{root, elbow}, cfg)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	return c
}

// planarChain is three unit links bending about z, each pre-bent by 0.3 rad.
func planarChain(t *testing.T, cfg Config) *Chain {
	t.Helper()
	tree := NewTree()
	z := []mgl64.Vec3{{0, 0, 1}}
	parent := -1
	var path []int
	for k, name := range []string{"shoulder", "elbow", "wrist"} {
		link := tree.AddLink(name, mgl64.Ident4())
		spec := JointSpec{
			Name:         name,
			Parent:       parent,
			Child:        link,
			Articulation: mgl64.HomogRotate3DZ(0.3),
			RotAxes:      z,
		}
		if k > 0 {
			spec.Placement = mgl64.Translate3D(0, 1, 0)
		}
		j, err := tree.AddJoint(spec)
		if err != nil {
			t.Fatalf("AddJoint %s: %v", name, err)
		}
		path = append(path, j)
		parent = link
	}
	c, err := NewChain(tree, path, cfg)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	return c
}

func TestForwardKinematicsIsIdempotent(t *testing.T) {
	c := mustArm(t, DefaultConfig())

	p1, p2 := c.JointPositions(), c.JointPositions()
	if len(p1) != len(c.Path())+1 {
		t.Fatalf("got %d positions, want %d", len(p1), len(c.Path())+1)
	}
	for k := range p1 {
		if p1[k] != p2[k] {
			t.Fatalf("position %d changed between reads: %v vs %v", k, p1[k], p2[k])
		}
	}
	l1, l2 := c.LinkTransforms(), c.LinkTransforms()
	for k := range l1 {
		if l1[k] != l2[k] {
			t.Fatalf("link transform %d changed between reads", k)
		}
	}
}

func TestJointPositionsOfArmAtRest(t *testing.T) {
	c := mustArm(t, DefaultConfig())
	pos := c.JointPositions()

	if want := (mgl64.Vec3{8, 2, -1.5}); !near(pos[0], want, 1e-12) {
		t.Fatalf("root at %v, want %v", pos[0], want)
	}
	if want := (mgl64.Vec3{8, 2.05, -1.5}); !near(pos[1], want, 1e-12) {
		t.Fatalf("base rotator at %v, want %v", pos[1], want)
	}
	// Lower link leans -60 degrees about x: its tip is 2.2 along (0, cos, sin(-60)).
	want := mgl64.Vec3{8, 2.05 + 2.2*math.Cos(math.Pi/3), -1.5 - 2.2*math.Sin(math.Pi/3)}
	if !near(pos[3], want, 1e-9) {
		t.Fatalf("middle joint at %v, want %v", pos[3], want)
	}
}

func TestJointAxesAreWorldUnitVectors(t *testing.T) {
	c := mustArm(t, DefaultConfig())
	axes := c.JointAxes()
	if len(axes[0].Rot) != 0 || len(axes[0].Trans) != 0 {
		t.Fatalf("root joint should carry no axes, got %+v", axes[0])
	}
	if !near(axes[1].Rot[0], mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Fatalf("base rotator axis = %v, want +y", axes[1].Rot[0])
	}
	for k := 2; k < len(axes); k++ {
		a := axes[k].Rot[0]
		if math.Abs(a.Len()-1) > 1e-12 {
			t.Fatalf("axis %d not unit: %v", k, a)
		}
		if !near(a, mgl64.Vec3{1, 0, 0}, 1e-12) {
			t.Fatalf("axis %d = %v, want +x (rotations about x keep it)", k, a)
		}
	}
}

func TestJacobianMatchesFiniteDifferences(t *testing.T) {
	const eps = 1e-6
	ref := mustArm(t, DefaultConfig())
	jac := ref.Jacobian(ref.JointPositions(), ref.JointAxes())
	rows, cols := jac.Dims()
	if rows != 3 || cols != ref.DOF() || cols != 4 {
		t.Fatalf("Jacobian is %dx%d, want 3x4", rows, cols)
	}
	p0 := ref.EndEffector()

	for k := 0; k < cols; k++ {
		c := mustArm(t, DefaultConfig())
		dtheta := make([]float64, cols)
		dtheta[k] = eps
		if err := c.Apply(dtheta); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		fd := c.EndEffector().Sub(p0).Mul(1 / eps)
		col := mgl64.Vec3{jac.At(0, k), jac.At(1, k), jac.At(2, k)}

		if diff := fd.Sub(col).Len(); diff > 1e-3*col.Len()+1e-6 {
			t.Fatalf("column %d: finite difference %v, Jacobian %v (diff %g)", k, fd, col, diff)
		}
	}
}

func TestTrackReachesQuarterTurnGoal(t *testing.T) {
	c := quarterTurnChain(t, DefaultConfig())
	if ee := c.EndEffector(); !near(ee, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Fatalf("rest effector = %v, want (1, 0, 0)", ee)
	}

	goal := mgl64.HomogRotate3DY(math.Pi / 2).Mul4x1(mgl64.Vec4{1, 0, 0, 1}).Vec3()
	for i := 0; i < 200; i++ {
		if c.Track(goal) < 0.01 {
			return
		}
	}
	t.Fatalf("effector %v did not reach %v within 200 iterations", c.EndEffector(), goal)
}

func TestTrackConvergesMonotonically(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxStep = 0.1
	c := planarChain(t, cfg)

	goal := mgl64.Vec3{1.2, 1.5, 0}
	prev := goal.Sub(c.EndEffector()).Len()
	for i := 0; i < 200; i++ {
		cur := c.Track(goal)
		if cur > prev+1e-9 {
			t.Fatalf("iteration %d: error grew from %g to %g", i, prev, cur)
		}
		if cur < 1e-2 {
			return
		}
		prev = cur
	}
	t.Fatalf("did not converge: error %g after 200 iterations", prev)
}

func TestTrackSlidesPrismaticRoot(t *testing.T) {
	tree := NewTree()
	link := tree.AddLink("carriage", mgl64.Ident4())
	root, err := tree.AddJoint(JointSpec{Name: "rail", Parent: -1, Child: link, TransAxes: []mgl64.Vec3{{2, 0, 0}}})
	if err != nil {
		t.Fatalf("AddJoint: %v", err)
	}
	cfg := DefaultConfig()
	cfg.MaxStep = 0
	c, err := NewChain(tree, []int{root}, cfg)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	if d := c.Track(mgl64.Vec3{2, 1, 0}); d > 1e-12 {
		t.Fatalf("prismatic joint should reach the goal in one step, residual %g", d)
	}
}

func TestSolveDegenerateJacobianIsZero(t *testing.T) {
	tree := NewTree()
	link := tree.AddLink("pole", mgl64.Ident4())
	root, err := tree.AddJoint(JointSpec{Name: "spin", Parent: -1, Child: link, RotAxes: []mgl64.Vec3{{0, 1, 0}}})
	if err != nil {
		t.Fatalf("AddJoint: %v", err)
	}
	c, err := NewChain(tree, []int{root}, DefaultConfig())
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	// The effector lies on the rotation axis, so no motion reaches the goal.
	dtheta := c.Solve(mgl64.Vec3{3, 0, 0})
	if len(dtheta) != 1 || dtheta[0] != 0 {
		t.Fatalf("Solve = %v, want [0]", dtheta)
	}
}

func TestSolveClampsStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxStep = 0.05
	c := mustArm(t, cfg)

	dtheta := c.Solve(mgl64.Vec3{4, 6, 1})
	norm := 0.0
	for _, v := range dtheta {
		if math.IsNaN(v) {
			t.Fatalf("Solve produced NaN: %v", dtheta)
		}
		norm += v * v
	}
	if math.Sqrt(norm) > cfg.MaxStep+1e-12 {
		t.Fatalf("update norm %g exceeds MaxStep %g", math.Sqrt(norm), cfg.MaxStep)
	}
}

func TestApplyRejectsWrongLength(t *testing.T) {
	c := mustArm(t, DefaultConfig())
	before := c.Articulation(c.Path()[1])
	if err := c.Apply([]float64{0.1}); !errors.Is(err, ErrDOFMismatch) {
		t.Fatalf("Apply error = %v, want ErrDOFMismatch", err)
	}
	if c.Articulation(c.Path()[1]) != before {
		t.Fatalf("articulation changed by rejected update")
	}
}

func TestApplyComposesLocally(t *testing.T) {
	c := quarterTurnChain(t, DefaultConfig())
	root := c.Path()[0]
	if err := c.Apply([]float64{0.25}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := c.Apply([]float64{0.5}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := mgl64.HomogRotate3DY(0.75)
	if got := c.Articulation(root); !matNear(got, want, 1e-12) {
		t.Fatalf("articulation = %v, want %v", got, want)
	}
}

func TestWalkMatchesLinkTransforms(t *testing.T) {
	c := mustArm(t, DefaultConfig())
	want := c.LinkTransforms()

	var got []mgl64.Mat4
	var order []int
	c.Tree().Walk(func(link int, world mgl64.Mat4) {
		order = append(order, link)
		got = append(got, world)
	})
	if len(got) != len(want) {
		t.Fatalf("walk visited %d links, want %d", len(got), len(want))
	}
	for k := range want {
		if !matNear(got[k], want[k], 1e-12) {
			t.Fatalf("link %d (%s) world transform differs", k, c.Tree().Link(order[k]).Name)
		}
	}
}

func TestNewChainValidation(t *testing.T) {
	tree := NewTree()
	a := tree.AddLink("a", mgl64.Ident4())
	b := tree.AddLink("b", mgl64.Ident4())
	c := tree.AddLink("c", mgl64.Ident4())
	y := []mgl64.Vec3{{0, 1, 0}}

	root, err := tree.AddJoint(JointSpec{Name: "root", Parent: -1, Child: a})
	if err != nil {
		t.Fatalf("AddJoint root: %v", err)
	}
	ab, err := tree.AddJoint(JointSpec{Name: "ab", Parent: a, Child: b, RotAxes: y})
	if err != nil {
		t.Fatalf("AddJoint ab: %v", err)
	}
	ac, err := tree.AddJoint(JointSpec{Name: "ac", Parent: a, Child: c, RotAxes: y})
	if err != nil {
		t.Fatalf("AddJoint ac: %v", err)
	}

	tests := []struct {
		name string
		path []int
	}{
		{"empty", nil},
		{"not rooted", []int{ab}},
		{"siblings", []int{root, ab, ac}},
		{"missing joint", []int{root, 7}},
		{"no dof", []int{root}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewChain(tree, tt.path, DefaultConfig()); !errors.Is(err, ErrInvalidChain) {
				t.Fatalf("NewChain error = %v, want ErrInvalidChain", err)
			}
		})
	}

	if _, err := NewChain(tree, []int{root, ac}, DefaultConfig()); err != nil {
		t.Fatalf("branch path rejected: %v", err)
	}
}

func TestAddJointValidation(t *testing.T) {
	tree := NewTree()
	a := tree.AddLink("a", mgl64.Ident4())
	b := tree.AddLink("b", mgl64.Ident4())

	if _, err := tree.AddJoint(JointSpec{Name: "bad", Parent: -1, Child: a, RotAxes: []mgl64.Vec3{{}}}); !errors.Is(err, ErrInvalidChain) {
		t.Fatalf("zero axis error = %v, want ErrInvalidChain", err)
	}
	if _, err := tree.AddJoint(JointSpec{Name: "root", Parent: -1, Child: a}); err != nil {
		t.Fatalf("AddJoint root: %v", err)
	}
	if _, err := tree.AddJoint(JointSpec{Name: "root2", Parent: -1, Child: b}); !errors.Is(err, ErrInvalidChain) {
		t.Fatalf("second root error = %v, want ErrInvalidChain", err)
	}
	if _, err := tree.AddJoint(JointSpec{Name: "again", Parent: b, Child: a}); !errors.Is(err, ErrInvalidChain) {
		t.Fatalf("adopted link error = %v, want ErrInvalidChain", err)
	}
	j, err := tree.AddJoint(JointSpec{Name: "ab", Parent: a, Child: b, TransAxes: []mgl64.Vec3{{0, 0, 3}}})
	if err != nil {
		t.Fatalf("AddJoint ab: %v", err)
	}
	if got := tree.Joint(j).TransAxes[0]; got != (mgl64.Vec3{0, 0, 1}) {
		t.Fatalf("axis not normalized: %v", got)
	}
}

// near compares by distance; mgl64's ApproxEqualThreshold squares the
// threshold for components that are exactly zero.
func near(a, b mgl64.Vec3, tol float64) bool { return a.Sub(b).Len() <= tol }

func matNear(a, b mgl64.Mat4, tol float64) bool {
	for k := range a {
		if math.Abs(a[k]-b[k]) > tol {
			return false
		}
	}
	return true
}

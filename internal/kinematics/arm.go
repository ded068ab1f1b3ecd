package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ArmLinkExtents are the full box extents of the robot arm links in path
// order (torso, base rotator, lower, middle, end). They match the Shape of
// each link, which scales a 2x2x2 cube.
var ArmLinkExtents = []mgl64.Vec3{
	{2, 2, 2},
	{1, 0.2, 1},
	{0.2, 2.2, 0.2},
	{0.2, 2.2, 0.2},
	{0.2, 1, 0.2},
}

// NewRobotArm assembles the counter-top robot arm: a fixed torso, a base
// rotator turning about y, and three links bending about x. The path has four
// rotational DOF and the effector sits one unit past the end link's joint.
func NewRobotArm(cfg Config) (*Chain, error) {
	t := NewTree()

	torso := t.AddLink("torso", mgl64.Translate3D(0, -1, 0))
	rotator := t.AddLink("base_rotator", mgl64.Scale3D(0.5, 0.1, 0.5))
	lower := t.AddLink("lower", mgl64.Translate3D(0, 1.1, 0).Mul4(mgl64.Scale3D(0.1, 1.1, 0.1)))
	middle := t.AddLink("middle", mgl64.Translate3D(0, 1.1, 0).Mul4(mgl64.Scale3D(0.1, 1.1, 0.1)))
	end := t.AddLink("end", mgl64.Translate3D(0, 0.5, 0).Mul4(mgl64.Scale3D(0.1, 0.5, 0.1)))

	xAxis := []mgl64.Vec3{{1, 0, 0}}
	specs := []JointSpec{
		{
			Name:      "root",
			Parent:    -1,
			Child:     torso,
			Placement: mgl64.Translate3D(8, 2, -1.5),
		},
		{
			Name:      "base_rotator",
			Parent:    torso,
			Child:     rotator,
			Placement: mgl64.Translate3D(0, 0.05, 0),
			RotAxes:   []mgl64.Vec3{{0, 1, 0}},
		},
		{
			Name:         "lower",
			Parent:       rotator,
			Child:        lower,
			Articulation: mgl64.HomogRotate3DX(-math.Pi / 3),
			RotAxes:      xAxis,
		},
		{
			Name:         "middle",
			Parent:       lower,
			Child:        middle,
			Placement:    mgl64.Translate3D(0, 2.2, 0),
			Articulation: mgl64.HomogRotate3DX(math.Pi / 1.5),
			RotAxes:      xAxis,
		},
		{
			Name:         "end",
			Parent:       middle,
			Child:        end,
			Placement:    mgl64.Translate3D(0, 2.2, 0),
			Articulation: mgl64.HomogRotate3DX(math.Pi / 6),
			RotAxes:      xAxis,
		},
	}

	path := make([]int, 0, len(specs))
	for _, s := range specs {
		j, err := t.AddJoint(s)
		if err != nil {
			return nil, err
		}
		path = append(path, j)
	}
	return NewChain(t, path, cfg)
}

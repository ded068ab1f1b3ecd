package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mohammadijoo/ClothIK_Go/internal/cloth"
	"github.com/mohammadijoo/ClothIK_Go/internal/kinematics"
)

func TestSweepHitsEndpointsAndTangents(t *testing.T) {
	s := sweep{
		p0: mgl64.Vec3{8, 4.25, -0.5}, t0: mgl64.Vec3{0, 0, 5},
		p1: mgl64.Vec3{5, 2.25, 2.25}, t1: mgl64.Vec3{-10, 0, 0},
	}
	if !near(s.at(0), s.p0, 1e-12) || !near(s.at(1), s.p1, 1e-12) {
		t.Fatalf("endpoints %v %v", s.at(0), s.at(1))
	}
	const h = 1e-6
	d0 := s.at(h).Sub(s.at(0)).Mul(1 / h)
	if !near(d0, s.t0, 1e-3) {
		t.Fatalf("start tangent %v, want %v", d0, s.t0)
	}
}

func TestGoalPathIsContinuous(t *testing.T) {
	g := goalPath{
		rest:  mgl64.Vec3{1, 2, 3},
		sweep: sweep{p0: mgl64.Vec3{4, 5, 6}, p1: mgl64.Vec3{7, 8, 9}},
		wait:  0.2,
	}
	if !near(g.at(0), g.rest, 1e-12) {
		t.Fatalf("goal at t=0 is %v, want rest", g.at(0))
	}
	before := g.at(g.wait - 1e-9)
	after := g.at(g.wait)
	if before.Sub(after).Len() > 1e-6 {
		t.Fatalf("jump at the end of the ramp: %v -> %v", before, after)
	}
}

func TestArmObstacles(t *testing.T) {
	arm, err := kinematics.NewRobotArm(kinematics.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	obs := armObstacles(arm)

	spheres, boxes := 0, 0
	for _, o := range obs {
		switch v := o.(type) {
		case cloth.Sphere:
			spheres++
			if v.Radius != jointRadius {
				t.Errorf("sphere radius %g", v.Radius)
			}
		case cloth.Box:
			boxes++
		}
	}
	if spheres != len(arm.JointPositions()) || boxes != 3 {
		t.Fatalf("got %d spheres and %d boxes, want %d and 3", spheres, boxes, len(arm.JointPositions()))
	}

	// The lower link box contains the midpoint of its two joints.
	joints := arm.JointPositions()
	mid := joints[2].Add(joints[3]).Mul(0.5)
	lower := obs[len(joints)].(cloth.Box)
	if _, hit := lower.Resolve(mid); !hit {
		t.Fatalf("lower link box %+v does not contain %v", lower, mid)
	}
}

func TestCurtainPinsTopCorners(t *testing.T) {
	c, err := newCurtain(mgl64.Vec3{7, 1.95, 0}, cloth.PositionBased)
	if err != nil {
		t.Fatal(err)
	}
	pinned := 0
	for j := 0; j < c.Cols(); j++ {
		if c.Particle(0, j).Fixed {
			pinned++
		}
	}
	if pinned != 6 || c.Rows() != 13 || c.Cols() != 7 {
		t.Fatalf("pinned %d of a %dx%d curtain", pinned, c.Rows(), c.Cols())
	}
}

func near(a, b mgl64.Vec3, tol float64) bool { return a.Sub(b).Len() <= tol }

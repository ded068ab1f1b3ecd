package cloth

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Obstacle pushes a point that lies inside it back to its surface.
type Obstacle interface {
	// Resolve returns the corrected point and whether p was inside.
	Resolve(p mgl64.Vec3) (mgl64.Vec3, bool)
}

// Sphere is a ball obstacle.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

func (sp Sphere) Resolve(p mgl64.Vec3) (mgl64.Vec3, bool) {
	d := p.Sub(sp.Center)
	dist := d.Len()
	if dist >= sp.Radius {
		return p, false
	}
	if dist < minSpringLength {
		// Centre hit: no radial direction, push straight up.
		return sp.Center.Add(mgl64.Vec3{0, sp.Radius, 0}), true
	}
	return p.Add(d.Mul((sp.Radius - dist) / dist)), true
}

// Box is an oriented box. Only the rotation part of Orientation is used; its
// columns are normalized so a scaled link transform can be passed directly.
type Box struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Orientation mgl64.Mat4
}

func (b Box) rotation() mgl64.Mat3 {
	m := b.Orientation.Mat3()
	if m == (mgl64.Mat3{}) {
		return mgl64.Ident3()
	}
	cols := [3]mgl64.Vec3{m.Col(0), m.Col(1), m.Col(2)}
	for k, c := range cols {
		if l := c.Len(); l > 0 {
			cols[k] = c.Mul(1 / l)
		}
	}
	return mgl64.Mat3FromCols(cols[0], cols[1], cols[2])
}

func (b Box) Resolve(p mgl64.Vec3) (mgl64.Vec3, bool) {
	rot := b.rotation()
	inv := rot.Transpose()

	c := inv.Mul3x1(b.Center)
	local := inv.Mul3x1(p)

	lo := c.Sub(b.HalfExtents)
	hi := c.Add(b.HalfExtents)
	for k := 0; k < 3; k++ {
		if local[k] <= lo[k] || local[k] >= hi[k] {
			return p, false
		}
	}

	var depth mgl64.Vec3
	for k := 0; k < 3; k++ {
		if local[k] < c[k] {
			depth[k] = lo[k] - local[k]
		} else {
			depth[k] = hi[k] - local[k]
		}
	}

	// Least penetration wins; on ties the later axis wins.
	ax, ay, az := math.Abs(depth[0]), math.Abs(depth[1]), math.Abs(depth[2])
	var update mgl64.Vec3
	if ax <= ay && ax <= az {
		update = mgl64.Vec3{depth[0], 0, 0}
	}
	if ay <= ax && ay <= az {
		update = mgl64.Vec3{0, depth[1], 0}
	}
	if az <= ax && az <= ay {
		update = mgl64.Vec3{0, 0, depth[2]}
	}
	return p.Add(rot.Mul3x1(update)), true
}

// Collide resolves every non-fixed particle against each obstacle in order.
// It returns the number of corrections made.
func (s *Simulation) Collide(obstacles ...Obstacle) int {
	hits := 0
	for _, o := range obstacles {
		for i := range s.particles {
			p := &s.particles[i]
			if p.Fixed {
				continue
			}
			if pos, hit := o.Resolve(p.Pos); hit {
				p.Pos = pos
				hits++
			}
		}
	}
	return hits
}

// CollideSphere pushes particles inside the ball (c, r) out to its surface.
func (s *Simulation) CollideSphere(c mgl64.Vec3, r float64) int {
	return s.Collide(Sphere{Center: c, Radius: r})
}

// CollideBox pushes particles inside box out along its least-penetrated axis.
func (s *Simulation) CollideBox(box Box) int {
	return s.Collide(box)
}

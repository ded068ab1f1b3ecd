package cloth

import "github.com/go-gl/mathgl/mgl64"

// Particle is a point mass of the cloth grid.
//
// Vel is only advanced by the force-based policy and PrevPos only by the
// position-based one; Force is accumulated during a step and cleared after
// integration.
type Particle struct {
	Mass    float64
	Pos     mgl64.Vec3
	Vel     mgl64.Vec3
	PrevPos mgl64.Vec3
	Acc     mgl64.Vec3
	Force   mgl64.Vec3
	Fixed   bool
}

// NewParticle places a particle at pos. The previous position is seeded one
// millisecond back along vel so the Verlet integrator starts with that velocity.
func NewParticle(mass float64, pos, vel mgl64.Vec3) Particle {
	return Particle{
		Mass:    mass,
		Pos:     pos,
		Vel:     vel,
		PrevPos: pos.Sub(vel.Mul(0.001)),
	}
}

// integrateVerlet advances a damped Verlet step. The accumulated force is used
// as the acceleration directly.
func (p *Particle) integrateVerlet(dt, damping float64) {
	if p.Fixed {
		p.Force = mgl64.Vec3{}
		return
	}
	p.Acc = p.Force

	cur := p.Pos
	p.Pos = p.Pos.
		Add(p.Pos.Sub(p.PrevPos).Mul(1 - damping)).
		Add(p.Acc.Mul(dt * dt))
	p.PrevPos = cur

	p.Acc = mgl64.Vec3{}
	p.Force = mgl64.Vec3{}
}

// integrateSymplectic advances a semi-implicit Euler step: velocity first,
// then position with the new velocity.
func (p *Particle) integrateSymplectic(dt float64) {
	if p.Fixed {
		p.Force = mgl64.Vec3{}
		return
	}
	p.Acc = p.Force.Mul(1 / p.Mass)
	p.Vel = p.Vel.Add(p.Acc.Mul(dt))
	p.Pos = p.Pos.Add(p.Vel.Mul(dt))
	p.Force = mgl64.Vec3{}
}

package cloth

import "github.com/go-gl/mathgl/mgl64"

// stepper is the update strategy bound to a Simulation at construction.
type stepper interface {
	step(s *Simulation, dt float64, wind mgl64.Vec3)
}

func newStepper(cfg Config) stepper {
	if cfg.Policy == ForceBased {
		return forceBased{}
	}
	return positionBased{iterations: cfg.Iterations, damping: cfg.Damping}
}

// positionBased: relaxation passes, then external forces, then damped Verlet.
type positionBased struct {
	iterations int
	damping    float64
}

func (pb positionBased) step(s *Simulation, dt float64, wind mgl64.Vec3) {
	for it := 0; it < pb.iterations; it++ {
		for _, sp := range s.springs {
			sp.relax(s.particles)
		}
	}

	s.applyExternalForces(wind)

	for i := range s.particles {
		s.particles[i].integrateVerlet(dt, pb.damping)
	}
}

// forceBased: external forces, then viscoelastic spring forces, then
// semi-implicit Euler.
type forceBased struct{}

func (forceBased) step(s *Simulation, dt float64, wind mgl64.Vec3) {
	s.applyExternalForces(wind)

	for _, sp := range s.springs {
		sp.accumulate(s.particles)
	}

	for i := range s.particles {
		s.particles[i].integrateSymplectic(dt)
	}
}

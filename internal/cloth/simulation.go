package cloth

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// minNormalLength is the triangle normal length under which a wind
// contribution is dropped.
const minNormalLength = 1e-12

// Simulation is an n x m mass-spring cloth. Particles are stored row-major and
// every per-step loop walks them, and the springs, in that fixed order.
type Simulation struct {
	cfg       Config
	stepper   stepper
	particles []Particle
	springs   []Spring
}

// New validates cfg and binds its update policy. Call Initialize to lay out
// the grid.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Simulation{
		cfg:     cfg,
		stepper: newStepper(cfg),
	}, nil
}

// Initialize allocates the particle grid and its structural, shear and bending
// springs. It may be called only once.
func (s *Simulation) Initialize(mass, ks, kd float64, orientation Orientation) error {
	if s.particles != nil {
		return ErrAlreadyInitialized
	}
	switch {
	case mass < 0 || ks < 0 || kd < 0:
		return fmt.Errorf("%w: mass, ks and kd must be >= 0", ErrInvalidConfig)
	case mass == 0 && s.cfg.Policy == ForceBased:
		return fmt.Errorf("%w: %s policy needs a positive particle mass", ErrInvalidConfig, s.cfg.Policy)
	}

	n, m := s.cfg.Rows, s.cfg.Cols
	var dx, dy, dz float64
	switch orientation {
	case OrientationXY:
		dx = s.cfg.Width / float64(m-1)
	case OrientationYZ:
		dz = s.cfg.Width / float64(m-1)
	default:
		return fmt.Errorf("%w: unknown orientation %d", ErrInvalidConfig, orientation)
	}
	dy = s.cfg.Height / float64(n-1)

	s.particles = make([]Particle, n*m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			pos := mgl64.Vec3{
				float64(j) * dx,
				s.cfg.Height - float64(i)*dy,
				float64(j) * dz,
			}.Add(s.cfg.Offset)
			s.particles[s.index(i, j)] = NewParticle(mass, pos, mgl64.Vec3{})
		}
	}

	rowLen := dx + dz // exactly one of the two is non-zero
	colLen := dy
	diag := math.Sqrt(dx*dx + dy*dy + dz*dz)

	s.springs = s.springs[:0]
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if i < n-1 {
				s.addSpring(i, j, i+1, j, ks, kd, colLen, Structural)
			}
			if j < m-1 {
				s.addSpring(i, j, i, j+1, ks, kd, rowLen, Structural)
			}

			if i < n-1 && j < m-1 {
				s.addSpring(i, j, i+1, j+1, ks, kd, diag, Shear)
				s.addSpring(i+1, j, i, j+1, ks, kd, diag, Shear)
			}

			if i < n-2 {
				s.addSpring(i, j, i+2, j, ks, kd, 2*colLen, Bending)
			}
			if j < m-2 {
				s.addSpring(i, j, i, j+2, ks, kd, 2*rowLen, Bending)
			}
			if i < n-2 && j < m-2 {
				s.addSpring(i, j, i+2, j+2, ks, kd, 2*diag, Bending)
				s.addSpring(i+2, j, i, j+2, ks, kd, 2*diag, Bending)
			}
		}
	}
	return nil
}

func (s *Simulation) addSpring(i1, j1, i2, j2 int, ks, kd, rest float64, kind SpringKind) {
	s.springs = append(s.springs, Spring{
		A:          s.index(i1, j1),
		B:          s.index(i2, j2),
		Ks:         ks,
		Kd:         kd,
		RestLength: rest,
		Kind:       kind,
	})
}

func (s *Simulation) index(i, j int) int { return i*s.cfg.Cols + j }

func (s *Simulation) checkIndex(i, j int) error {
	if s.particles == nil || i < 0 || i >= s.cfg.Rows || j < 0 || j >= s.cfg.Cols {
		return fmt.Errorf("%w: (%d, %d) in %dx%d grid", ErrOutOfRange, i, j, s.cfg.Rows, s.cfg.Cols)
	}
	return nil
}

// Step advances the cloth by dt seconds under the given wind using the
// policy chosen at construction. It does nothing before Initialize.
func (s *Simulation) Step(dt float64, wind mgl64.Vec3) {
	if s.particles == nil {
		return
	}
	s.stepper.step(s, dt, wind)
}

// applyExternalForces overwrites each particle's force with gravity, ground
// penalty and ground friction, then adds wind per triangle.
func (s *Simulation) applyExternalForces(wind mgl64.Vec3) {
	for i := range s.particles {
		p := &s.particles[i]
		fg := s.cfg.Gravity.Mul(p.Mass)
		p.Force = fg.Add(s.groundForce(p)).Add(s.frictionForce(p))
	}
	s.applyWind(wind)
}

func (s *Simulation) groundForce(p *Particle) mgl64.Vec3 {
	h := s.cfg.GroundHeight
	if p.Pos.Y() >= h {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{0, s.cfg.GroundKs*(h-p.Pos.Y()) - s.cfg.GroundKd*p.Vel.Y(), 0}
}

func (s *Simulation) frictionForce(p *Particle) mgl64.Vec3 {
	if p.Pos.Y() >= s.cfg.GroundHeight {
		return mgl64.Vec3{}
	}
	vt := mgl64.Vec3{p.Vel.X(), 0, p.Vel.Z()}
	return vt.Mul(-s.cfg.Friction * p.Mass * s.cfg.Gravity.Len())
}

func (s *Simulation) applyWind(wind mgl64.Vec3) {
	n, m := s.cfg.Rows, s.cfg.Cols
	for i := 0; i < n-1; i++ {
		for j := 0; j < m-1; j++ {
			a, b := s.index(i, j), s.index(i+1, j)
			c, d := s.index(i, j+1), s.index(i+1, j+1)

			f1 := s.triangleWind(a, b, c, wind)
			f2 := s.triangleWind(d, c, b, wind)

			ps := s.particles
			ps[a].Force = ps[a].Force.Add(f1)
			ps[b].Force = ps[b].Force.Add(f1.Add(f2))
			ps[c].Force = ps[c].Force.Add(f1.Add(f2))
			ps[d].Force = ps[d].Force.Add(f2)
		}
	}
}

// triangleWind is the wind force felt by each vertex of triangle (a, b, c).
func (s *Simulation) triangleWind(a, b, c int, wind mgl64.Vec3) mgl64.Vec3 {
	normal := s.triangleNormal(a, b, c)
	l := normal.Len()
	if l < minNormalLength {
		return mgl64.Vec3{}
	}
	return normal.Mul(normal.Mul(1 / l).Dot(wind))
}

func (s *Simulation) triangleNormal(a, b, c int) mgl64.Vec3 {
	u := s.particles[b].Pos.Sub(s.particles[a].Pos)
	v := s.particles[c].Pos.Sub(s.particles[a].Pos)
	return u.Cross(v)
}

// Normals returns normalized per-particle normals accumulated from the two
// triangles of every adjacent cell, indexed [row][col].
func (s *Simulation) Normals() [][]mgl64.Vec3 {
	n, m := s.cfg.Rows, s.cfg.Cols
	acc := make([]mgl64.Vec3, len(s.particles))
	if s.particles != nil {
		for i := 0; i < n-1; i++ {
			for j := 0; j < m-1; j++ {
				a, b := s.index(i, j), s.index(i+1, j)
				c, d := s.index(i, j+1), s.index(i+1, j+1)

				n1 := s.triangleNormal(c, a, b)
				n2 := s.triangleNormal(d, c, b)

				acc[a] = acc[a].Add(n1)
				acc[b] = acc[b].Add(n1.Add(n2))
				acc[c] = acc[c].Add(n1.Add(n2))
				acc[d] = acc[d].Add(n2)
			}
		}
	}

	out := s.grid()
	for k, v := range acc {
		if l := v.Len(); l >= minNormalLength {
			v = v.Mul(1 / l)
		}
		out[k/m][k%m] = v
	}
	return out
}

// SetFixed pins or releases particle (i, j).
func (s *Simulation) SetFixed(i, j int, fixed bool) error {
	if err := s.checkIndex(i, j); err != nil {
		return err
	}
	s.particles[s.index(i, j)].Fixed = fixed
	return nil
}

// SetPosition teleports particle (i, j) to pos with zero velocity. It is meant
// for placing pins before or between steps.
func (s *Simulation) SetPosition(i, j int, pos mgl64.Vec3) error {
	if err := s.checkIndex(i, j); err != nil {
		return err
	}
	p := &s.particles[s.index(i, j)]
	p.Pos = pos
	p.PrevPos = pos
	p.Vel = mgl64.Vec3{}
	return nil
}

func (s *Simulation) Rows() int      { return s.cfg.Rows }
func (s *Simulation) Cols() int      { return s.cfg.Cols }
func (s *Simulation) Policy() Policy { return s.cfg.Policy }
func (s *Simulation) Config() Config { return s.cfg }

// Particle returns a copy of particle (i, j). It panics on an invalid index.
func (s *Simulation) Particle(i, j int) Particle {
	if err := s.checkIndex(i, j); err != nil {
		panic(err)
	}
	return s.particles[s.index(i, j)]
}

// Position returns the position of particle (i, j). It panics on an invalid index.
func (s *Simulation) Position(i, j int) mgl64.Vec3 {
	return s.Particle(i, j).Pos
}

// Positions returns a snapshot of every particle position indexed [row][col].
func (s *Simulation) Positions() [][]mgl64.Vec3 {
	out := s.grid()
	for k := range s.particles {
		out[k/s.cfg.Cols][k%s.cfg.Cols] = s.particles[k].Pos
	}
	return out
}

// Springs returns a copy of the spring list in construction order.
func (s *Simulation) Springs() []Spring {
	return append([]Spring(nil), s.springs...)
}

// SpringCount counts the springs created for one neighbour relation.
func (s *Simulation) SpringCount(kind SpringKind) int {
	count := 0
	for _, sp := range s.springs {
		if sp.Kind == kind {
			count++
		}
	}
	return count
}

func (s *Simulation) grid() [][]mgl64.Vec3 {
	if s.particles == nil {
		return nil
	}
	out := make([][]mgl64.Vec3, s.cfg.Rows)
	for i := range out {
		out[i] = make([]mgl64.Vec3, s.cfg.Cols)
	}
	return out
}

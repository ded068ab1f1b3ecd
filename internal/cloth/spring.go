package cloth

import "github.com/go-gl/mathgl/mgl64"

// SpringKind records which neighbour relation created a spring. It does not
// change how the spring is updated.
type SpringKind uint8

const (
	Structural SpringKind = iota
	Shear
	Bending
)

func (k SpringKind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Shear:
		return "shear"
	case Bending:
		return "bending"
	default:
		return "unknown"
	}
}

// minSpringLength is the distance under which two endpoints are treated as
// coincident and left alone.
const minSpringLength = 1e-9

// Spring connects particles A and B (row-major indices into the grid).
type Spring struct {
	A, B       int
	Ks, Kd     float64
	RestLength float64
	Kind       SpringKind
}

// correction returns the displacement added to A (and subtracted from B) so
// that their distance moves toward the rest length. ok is false when the two
// endpoints coincide.
func (s Spring) correction(ps []Particle) (corr mgl64.Vec3, ok bool) {
	d := ps[s.B].Pos.Sub(ps[s.A].Pos)
	dist := d.Len()
	if dist < minSpringLength {
		return mgl64.Vec3{}, false
	}
	return d.Mul((1 - s.RestLength/dist) * 0.5), true
}

// relax moves both endpoints symmetrically, skipping fixed ones.
func (s Spring) relax(ps []Particle) {
	corr, ok := s.correction(ps)
	if !ok {
		return
	}
	if a := &ps[s.A]; !a.Fixed {
		a.Pos = a.Pos.Add(corr)
	}
	if b := &ps[s.B]; !b.Fixed {
		b.Pos = b.Pos.Sub(corr)
	}
}

// viscoelasticForce is the spring plus damper force acting on A; B receives
// the negation.
func (s Spring) viscoelasticForce(ps []Particle) mgl64.Vec3 {
	a, b := &ps[s.A], &ps[s.B]
	d := b.Pos.Sub(a.Pos)
	v := a.Vel.Sub(b.Vel)

	fs := d.Mul(s.Ks * (d.Len() - s.RestLength))
	fd := d.Mul(-s.Kd * v.Dot(d))
	return fs.Add(fd)
}

func (s Spring) accumulate(ps []Particle) {
	f := s.viscoelasticForce(ps)
	ps[s.A].Force = ps[s.A].Force.Add(f)
	ps[s.B].Force = ps[s.B].Force.Sub(f)
}

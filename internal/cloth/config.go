package cloth

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrInvalidConfig      = errors.New("cloth: invalid configuration")
	ErrAlreadyInitialized = errors.New("cloth: simulation already initialized")
	ErrOutOfRange         = errors.New("cloth: grid index out of range")
)

// Policy selects how a Simulation advances one step.
type Policy uint8

const (
	// PositionBased relaxes springs toward their rest lengths by direct
	// position correction and integrates with damped Verlet. The accumulated
	// force is used as acceleration without dividing by mass.
	PositionBased Policy = iota
	// ForceBased accumulates viscoelastic spring forces and integrates with
	// semi-implicit Euler, dividing by mass.
	ForceBased
)

func (p Policy) String() string {
	switch p {
	case PositionBased:
		return "position-based"
	case ForceBased:
		return "force-based"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy accepts the String form of a policy or its short name
// ("position", "force").
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "position", PositionBased.String():
		return PositionBased, nil
	case "force", ForceBased.String():
		return ForceBased, nil
	}
	return 0, fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, name)
}

// Orientation is the world plane the grid is laid out in.
type Orientation uint8

const (
	// OrientationXY spans width along +X and height along Y.
	OrientationXY Orientation = iota
	// OrientationYZ spans width along +Z and height along Y.
	OrientationYZ
)

// Config holds the grid geometry and the physical constants of a cloth.
type Config struct {
	// Width and Height are the world extents of the rest grid.
	Width, Height float64
	// Rows (n) and Cols (m) are the particle counts; both must be >= 2.
	Rows, Cols int
	// Offset translates the whole grid. With zero offset the top-left
	// particle sits at (0, Height, 0).
	Offset mgl64.Vec3

	Gravity mgl64.Vec3

	// Ground penalty spring below GroundHeight.
	GroundKs     float64
	GroundKd     float64
	GroundHeight float64
	// Friction is the Coulomb-like coefficient applied below GroundHeight.
	Friction float64

	// Iterations is the number of relaxation passes per position-based step.
	Iterations int
	// Damping is the Verlet velocity damping in [0, 1).
	Damping float64

	Policy Policy
}

// DefaultConfig returns the reference constants for a 2x2 world-unit sheet.
func DefaultConfig() Config {
	return Config{
		Width:        2,
		Height:       2,
		Rows:         7,
		Cols:         7,
		Gravity:      mgl64.Vec3{0, -9.8, 0},
		GroundKs:     500,
		GroundKd:     10,
		GroundHeight: 0.25,
		Friction:     0.4,
		Iterations:   15,
		Damping:      0.01,
		Policy:       PositionBased,
	}
}

func (c Config) validate() error {
	switch {
	case c.Rows < 2 || c.Cols < 2:
		return fmt.Errorf("%w: grid must be at least 2x2, got %dx%d", ErrInvalidConfig, c.Rows, c.Cols)
	case !(c.Width > 0) || !(c.Height > 0):
		return fmt.Errorf("%w: width and height must be > 0, got %g x %g", ErrInvalidConfig, c.Width, c.Height)
	case !(c.GroundKs >= 0) || !(c.GroundKd >= 0):
		return fmt.Errorf("%w: ground stiffness and damping must be >= 0", ErrInvalidConfig)
	case !(c.Friction >= 0):
		return fmt.Errorf("%w: friction must be >= 0, got %g", ErrInvalidConfig, c.Friction)
	case !(c.Damping >= 0 && c.Damping < 1):
		return fmt.Errorf("%w: damping must be in [0, 1), got %g", ErrInvalidConfig, c.Damping)
	}
	switch c.Policy {
	case PositionBased:
		if c.Iterations < 1 {
			return fmt.Errorf("%w: position-based policy needs at least one iteration", ErrInvalidConfig)
		}
	case ForceBased:
	default:
		return fmt.Errorf("%w: unknown %s", ErrInvalidConfig, c.Policy)
	}
	return nil
}
